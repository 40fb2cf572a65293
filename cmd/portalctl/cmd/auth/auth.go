package auth

import (
	"context"
	"fmt"
	"io"

	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/internal/config"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// AuthCmd is the parent command for auth operations
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Commands for logging in and out of the portal and inspecting the current session.`,
}

func init() {
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(registerCmd)
	AuthCmd.AddCommand(logoutCmd)
	AuthCmd.AddCommand(statusCmd)
	AuthCmd.AddCommand(whoamiCmd)
	AuthCmd.AddCommand(exportCmd)
}

func sessionManager(ctx context.Context) (*sdk.Manager, error) {
	cfg := config.MustFromContext(ctx)
	return cfg.ClientProvider.Manager()
}

// identityRows renders identity as key/value table rows.
func identityRows(identity *sdk.Identity) [][]string {
	rows := [][]string{
		{"Name", identity.DisplayName()},
		{"Email", identity.Email},
		{"Username", identity.Username},
		{"User type", string(identity.UserType)},
		{"Role", string(sdk.RoleOf(identity))},
	}
	if identity.Department != "" {
		rows = append(rows, []string{"Department", identity.Department})
	}
	if identity.Position != "" {
		rows = append(rows, []string{"Position", identity.Position})
	}
	return rows
}

func printIdentity(w io.Writer, identity *sdk.Identity) error {
	table, err := pterm.DefaultTable.WithData(identityRows(identity)).Srender()
	if err != nil {
		return fmt.Errorf("render identity: %w", err)
	}
	_, err = fmt.Fprintln(w, table)
	return err
}
