package auth

import (
	"errors"
	"os"

	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/internal/config"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display authentication status",
	Long:  `Shows the locally stored session. Use 'portalctl auth whoami' to check it with the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		mgr, err := sessionManager(cmd.Context())
		if err != nil {
			return err
		}

		pterm.DefaultSection.Println("Authentication Status")
		pterm.Info.Printfln("Profile: %s", cfg.Profile)
		pterm.Info.Printfln("Server:  %s", cfg.ServerURL)
		pterm.Info.Printfln("State:   %s", mgr.State(cmd.Context()))

		if !mgr.IsAuthenticated(cmd.Context()) {
			pterm.Info.Println("Run 'portalctl auth login' to sign in.")
			return nil
		}

		identity, err := mgr.CachedUser(cmd.Context())
		if errors.Is(err, sdk.ErrNoSession) {
			pterm.Warning.Println("No cached identity; run 'portalctl auth whoami' to fetch it.")
			return nil
		}
		if err != nil {
			return err
		}

		pterm.DefaultSection.Println("Cached Identity")
		return printIdentity(os.Stdout, identity)
	},
}
