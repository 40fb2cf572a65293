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
	registerEmail     string
	registerUsername  string
	registerPassword  string
	registerFirstName string
	registerLastName  string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a portal account",
	Long: `Creates a new account. The new account is not logged in; run
portalctl auth login afterwards.

The password is prompted for twice unless --password is given.`,
	Example: `  portalctl auth register --email nina@example.com --username nina`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		reg, err := resolveRegistration(cfg.NonInteractive)
		if err != nil {
			return err
		}

		mgr, err := sessionManager(cmd.Context())
		if err != nil {
			return err
		}

		identity, err := mgr.Register(cmd.Context(), reg)
		if err != nil {
			var apiErr *sdk.APIError
			if errors.As(err, &apiErr) {
				for _, msg := range apiErr.FieldMessages() {
					pterm.Error.Println(msg)
				}
			}
			return fmt.Errorf("failed to register: %w", err)
		}

		pterm.Success.Printfln("Account created for %s", identity.DisplayName())
		pterm.Info.Println("Run `portalctl auth login` to sign in.")
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email address")
	registerCmd.Flags().StringVar(&registerUsername, "username", "", "Username")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerFirstName, "first-name", "", "First name")
	registerCmd.Flags().StringVar(&registerLastName, "last-name", "", "Last name")
}

// resolveRegistration builds the registration from flags, prompting for the
// password and its confirmation when it was not passed.
func resolveRegistration(nonInteractive bool) (sdk.Registration, error) {
	reg := sdk.Registration{
		Email:           registerEmail,
		Username:        registerUsername,
		Password:        registerPassword,
		ConfirmPassword: registerPassword,
		FirstName:       registerFirstName,
		LastName:        registerLastName,
	}
	if reg.Password != "" {
		return reg, nil
	}
	if nonInteractive {
		return reg, fmt.Errorf("--password is required in non-interactive mode")
	}

	var err error
	prompt := pterm.DefaultInteractiveTextInput.WithMask("*")
	if reg.Password, err = prompt.Show("Password"); err != nil {
		return reg, fmt.Errorf("read password: %w", err)
	}
	if reg.ConfirmPassword, err = prompt.Show("Confirm password"); err != nil {
		return reg, fmt.Errorf("read password confirmation: %w", err)
	}
	return reg, nil
}
