package auth

import (
	"errors"
	"fmt"

	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/internal/config"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	loginIdentifier string
	loginPassword   string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the portal",
	Long: `Exchanges your email (or username) and password for a session and stores it
in the selected profile.

Missing values are prompted for unless --non-interactive is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		identifier, secret, err := resolveLoginInput(loginIdentifier, loginPassword, cfg.NonInteractive)
		if err != nil {
			return err
		}

		mgr, err := sessionManager(cmd.Context())
		if err != nil {
			return err
		}

		identity, err := mgr.Login(cmd.Context(), identifier, secret)
		if err != nil {
			var apiErr *sdk.APIError
			if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 && apiErr.StatusCode == 0 {
				for _, msg := range apiErr.FieldMessages() {
					pterm.Error.Println(msg)
				}
			}
			return err
		}

		pterm.Success.Printfln("Logged in as %s (%s)", identity.DisplayName(), sdk.RoleOf(identity))
		pterm.Info.Printfln("Profile %q on %s", cfg.Profile, cfg.ServerURL)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginIdentifier, "email", "", "Email address or username")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prompted when omitted)")
}

// resolveLoginInput fills missing credentials from interactive prompts.
func resolveLoginInput(identifier, secret string, nonInteractive bool) (string, string, error) {
	if identifier != "" && secret != "" {
		return identifier, secret, nil
	}
	if nonInteractive {
		return "", "", fmt.Errorf("--email and --password are required in non-interactive mode")
	}

	var err error
	if identifier == "" {
		identifier, err = pterm.DefaultInteractiveTextInput.Show("Email or username")
		if err != nil {
			return "", "", fmt.Errorf("read email: %w", err)
		}
	}
	if secret == "" {
		secret, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
	}
	return identifier, secret, nil
}
