package auth

import (
	"errors"
	"fmt"
	"os"

	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Fetch the current user from the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := sessionManager(cmd.Context())
		if err != nil {
			return err
		}

		identity, err := mgr.CurrentUser(cmd.Context())
		if errors.Is(err, sdk.ErrUnauthenticated) {
			return fmt.Errorf("not logged in: %w\n\nPlease run 'portalctl auth login' first", err)
		}
		if err != nil {
			return fmt.Errorf("failed to fetch current user: %w", err)
		}

		return printIdentity(os.Stdout, identity)
	},
}
