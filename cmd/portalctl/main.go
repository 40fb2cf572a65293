package main

import "github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/cmd"

func main() {
	cmd.Execute()
}
