// Package config loads portalctl settings from the environment and an optional
// .env file, and carries them through the cobra command context.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/JaxTheDeveloper/COS40005-CMS/cmd/portalctl/internal/client"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/spf13/viper"
)

const (
	LoginEndpointCompat = "compat"
	LoginEndpointLegacy = "legacy"

	DefaultProfile     = "default"
	DefaultHTTPTimeout = 30 * time.Second
)

var profilePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Settings holds portalctl configuration loaded from the environment.
type Settings struct {
	// APIURL is the portal REST API base URL.
	APIURL string `mapstructure:"PORTAL_API_URL"`
	// Profile names the stored session; each profile is logged in separately.
	Profile string `mapstructure:"PORTAL_PROFILE"`
	// HTTPTimeout bounds every HTTP call made by the CLI.
	HTTPTimeout time.Duration `mapstructure:"PORTAL_HTTP_TIMEOUT"`
	// NonInteractive disables prompts.
	NonInteractive bool `mapstructure:"PORTAL_NON_INTERACTIVE"`
	// LoginEndpoint selects the login exchange: compat (email or username) or legacy.
	LoginEndpoint string `mapstructure:"PORTAL_LOGIN_ENDPOINT"`
	// MePath overrides the current-user endpoint.
	MePath string `mapstructure:"PORTAL_ME_PATH"`
	// RedisURL, when set, keeps sessions in Redis instead of ~/.portal.
	RedisURL string `mapstructure:"PORTAL_REDIS_URL"`
}

// Load reads envFile (if present), then builds and validates Settings from the
// environment via Viper. Env vars override the file.
func Load(envFile string) (*Settings, error) {
	v := viper.New()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", envFile, err)
			}
		}
	}

	v.AutomaticEnv()

	v.SetDefault("PORTAL_API_URL", sdk.DefaultBaseURL)
	v.SetDefault("PORTAL_PROFILE", DefaultProfile)
	v.SetDefault("PORTAL_HTTP_TIMEOUT", DefaultHTTPTimeout.String())
	v.SetDefault("PORTAL_NON_INTERACTIVE", false)
	v.SetDefault("PORTAL_LOGIN_ENDPOINT", LoginEndpointCompat)
	v.SetDefault("PORTAL_ME_PATH", sdk.DefaultCurrentUserPath)
	v.SetDefault("PORTAL_REDIS_URL", "")

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks settings that would otherwise fail late.
func (s *Settings) Validate() error {
	if s.APIURL == "" {
		return errors.New("config: PORTAL_API_URL must be set")
	}
	if !profilePattern.MatchString(s.Profile) {
		return fmt.Errorf("config: profile %q may only contain letters, digits, '-' and '_'", s.Profile)
	}
	if s.HTTPTimeout <= 0 {
		return errors.New("config: PORTAL_HTTP_TIMEOUT must be positive")
	}
	if s.LoginEndpoint != LoginEndpointCompat && s.LoginEndpoint != LoginEndpointLegacy {
		return fmt.Errorf("config: PORTAL_LOGIN_ENDPOINT must be %q or %q", LoginEndpointCompat, LoginEndpointLegacy)
	}
	return nil
}

// LoginPath maps LoginEndpoint to the exchange path.
func (s *Settings) LoginPath() string {
	if s.LoginEndpoint == LoginEndpointLegacy {
		return sdk.LoginPathLegacy
	}
	return sdk.LoginPathCompat
}

type contextKey string

const configKey contextKey = "portalctl-config"

// GlobalConfig holds shared configuration for all portalctl commands.
// This is injected into the cobra command context by the root command's
// PersistentPreRunE hook and consumed by all subcommands.
type GlobalConfig struct {
	ServerURL      string
	Profile        string
	NonInteractive bool
	Settings       *Settings
	ClientProvider *client.Provider
}

// InjectConfig adds config to the cobra command context.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
// Returns (nil, false) if config is not present.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics.
// This should only be used in command RunE functions where we know
// the config has been injected by the root command.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("portalctl: config not found in context - this is a bug in portalctl")
	}
	return cfg
}
