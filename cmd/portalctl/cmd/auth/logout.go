package auth

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out of the portal",
	Long:  `Discards the stored session of the selected profile. The server is not contacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := sessionManager(cmd.Context())
		if err != nil {
			return err
		}

		if err := mgr.Logout(cmd.Context()); err != nil {
			return fmt.Errorf("failed to log out: %w", err)
		}

		pterm.Success.Println("Logged out successfully")
		return nil
	},
}
