package nav

import (
	"errors"
	"fmt"

	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/internal/config"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// OpenCmd checks whether the current user may open a page.
var OpenCmd = &cobra.Command{
	Use:   "open <page>",
	Short: "Check access to a page",
	Long: `Applies the page guard for the current user. Anonymous visitors asking for a
restricted page are sent to the login page; signed-in users without the role
are refused.`,
	Example: `  portalctl open dashboard
  portalctl open admin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		mgr, err := cfg.ClientProvider.Manager()
		if err != nil {
			return err
		}
		guard, err := cfg.ClientProvider.Guard()
		if err != nil {
			return err
		}

		page := sdk.NavKey(args[0])
		identity := resolveIdentity(cmd.Context(), mgr, offline)

		err = guard.Authorize(identity, page)
		switch {
		case err == nil:
			entry, _ := sdk.Lookup(page)
			pterm.Success.Printfln("%s -> %s", entry.Label, entry.Path)
			return nil
		case errors.Is(err, sdk.ErrUnauthenticated):
			login, _ := sdk.Lookup(sdk.NavLogin)
			return fmt.Errorf("%w\n\nSign in first (%s): portalctl auth login", err, login.Path)
		default:
			return err
		}
	},
}

func init() {
	OpenCmd.Flags().BoolVar(&offline, "offline", false, "Use the cached identity instead of asking the server")
}
