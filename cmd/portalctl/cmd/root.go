package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/cmd/api"
	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/cmd/auth"
	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/cmd/nav"
	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/cmd/profile"
	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/internal/client"
	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	serverURL      string
	profileName    string
	envFile        string
	nonInteractive bool
	debug          bool
)

var rootCmd = &cobra.Command{
	Use:   "portalctl",
	Short: "Portal CLI - student and staff portal client",
	Long: `portalctl is a terminal client for the student/staff portal API. It keeps a
login session per profile, refreshes expired access tokens transparently and
shows the navigation menu for your role.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(envFile)
		if err != nil {
			return err
		}

		// Flags win over environment.
		if cmd.Flags().Changed("server") {
			settings.APIURL = serverURL
		}
		if cmd.Flags().Changed("profile") {
			settings.Profile = profileName
		}
		if nonInteractive {
			settings.NonInteractive = true
		}
		if err := settings.Validate(); err != nil {
			return err
		}

		logger := log.New(os.Stderr, "", log.LstdFlags)
		if debug {
			pterm.EnableDebugMessages()
		} else {
			logger.SetOutput(io.Discard)
		}

		provider := client.NewProvider(client.Options{
			ServerURL:       settings.APIURL,
			Profile:         settings.Profile,
			HTTPTimeout:     settings.HTTPTimeout,
			LoginPath:       settings.LoginPath(),
			CurrentUserPath: settings.MePath,
			RedisURL:        settings.RedisURL,
			Logger:          logger,
		})

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(config.InjectConfig(ctx, &config.GlobalConfig{
			ServerURL:      settings.APIURL,
			Profile:        settings.Profile,
			NonInteractive: settings.NonInteractive,
			Settings:       settings,
			ClientProvider: provider,
		}))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cfg, ok := config.FromContext(cmd.Context()); ok {
			return cfg.ClientProvider.Close()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Portal API server URL (default from PORTAL_API_URL or http://localhost:8000)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Session profile (default from PORTAL_PROFILE or \"default\")")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file with PORTAL_* settings")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Disable interactive prompts (also set via PORTAL_NON_INTERACTIVE=1)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log session events to stderr")
	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(profile.ProfileCmd)
	rootCmd.AddCommand(nav.NavCmd)
	rootCmd.AddCommand(nav.OpenCmd)
	rootCmd.AddCommand(api.APICmd)
}
