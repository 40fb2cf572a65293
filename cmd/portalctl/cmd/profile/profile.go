package profile

import (
	"errors"
	"fmt"

	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/internal/config"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// ProfileCmd is the parent command for profile operations
var ProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your portal profile",
}

var (
	firstName  string
	lastName   string
	phone      string
	department string
	position   string
	bio        string
	city       string
	country    string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	Long: `Sends only the fields given as flags. Input is checked locally before it is
sent; the server's response replaces the cached identity.`,
	Example: `  portalctl profile update --first-name Sam --phone +61412345678`,
	RunE: func(cmd *cobra.Command, args []string) error {
		update := buildUpdate(cmd)
		if update == (sdk.ProfileUpdate{}) {
			return fmt.Errorf("nothing to update; pass at least one field flag")
		}

		cfg := config.MustFromContext(cmd.Context())
		mgr, err := cfg.ClientProvider.Manager()
		if err != nil {
			return err
		}

		identity, err := mgr.UpdateProfile(cmd.Context(), update)
		if err != nil {
			var apiErr *sdk.APIError
			if errors.As(err, &apiErr) {
				for _, msg := range apiErr.FieldMessages() {
					pterm.Error.Println(msg)
				}
			}
			return fmt.Errorf("failed to update profile: %w", err)
		}

		pterm.Success.Printfln("Profile updated for %s", identity.DisplayName())
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	updateCmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	updateCmd.Flags().StringVar(&phone, "phone", "", "Phone number, e.g. +61412345678")
	updateCmd.Flags().StringVar(&department, "department", "", "Department")
	updateCmd.Flags().StringVar(&position, "position", "", "Position")
	updateCmd.Flags().StringVar(&bio, "bio", "", "Short biography")
	updateCmd.Flags().StringVar(&city, "city", "", "City")
	updateCmd.Flags().StringVar(&country, "country", "", "Country")
	ProfileCmd.AddCommand(updateCmd)
}

// buildUpdate includes a field only when its flag was set, so an explicit
// empty value clears it on the server.
func buildUpdate(cmd *cobra.Command) sdk.ProfileUpdate {
	var update sdk.ProfileUpdate
	set := func(flag string, value string, dst **string) {
		if cmd.Flags().Changed(flag) {
			v := value
			*dst = &v
		}
	}
	set("first-name", firstName, &update.FirstName)
	set("last-name", lastName, &update.LastName)
	set("phone", phone, &update.PhoneNumber)
	set("department", department, &update.Department)
	set("position", position, &update.Position)
	set("bio", bio, &update.Bio)
	set("city", city, &update.City)
	set("country", country, &update.Country)
	return update
}
