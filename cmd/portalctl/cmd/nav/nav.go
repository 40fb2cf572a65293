package nav

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/internal/config"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var offline bool

// NavCmd prints the navigation menu for the current user.
var NavCmd = &cobra.Command{
	Use:   "nav",
	Short: "Show the navigation menu for your role",
	Long: `Resolves the current user and prints the menu for their role. When the user
cannot be resolved the public menu is shown instead.

With --offline the cached identity is used and the server is not contacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		mgr, err := cfg.ClientProvider.Manager()
		if err != nil {
			return err
		}

		identity := resolveIdentity(cmd.Context(), mgr, offline)
		return printMenu(os.Stdout, identity)
	},
}

func init() {
	NavCmd.Flags().BoolVar(&offline, "offline", false, "Use the cached identity instead of asking the server")
}

// resolveIdentity returns nil (anonymous) on any failure. A failed identity
// fetch degrades to the public menu rather than failing the command.
func resolveIdentity(ctx context.Context, mgr *sdk.Manager, cachedOnly bool) *sdk.Identity {
	if !mgr.IsAuthenticated(ctx) {
		return nil
	}

	var (
		identity *sdk.Identity
		err      error
	)
	if cachedOnly {
		identity, err = mgr.CachedUser(ctx)
	} else {
		identity, err = mgr.CurrentUser(ctx)
	}
	if err != nil {
		if !errors.Is(err, sdk.ErrUnauthenticated) && !errors.Is(err, sdk.ErrNoSession) {
			pterm.Warning.Printfln("Could not resolve current user: %v", err)
		}
		return nil
	}
	return identity
}

func printMenu(w io.Writer, identity *sdk.Identity) error {
	title := "Menu"
	if identity != nil {
		title = fmt.Sprintf("Menu for %s (%s)", identity.DisplayName(), sdk.RoleOf(identity))
	}

	rows := [][]string{{"KEY", "LABEL", "PATH"}}
	for _, entry := range sdk.Navigation(identity) {
		rows = append(rows, []string{string(entry.Key), entry.Label, entry.Path})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return fmt.Errorf("render menu: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n", title, table)
	return err
}
