package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearPortalEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORTAL_API_URL", "PORTAL_PROFILE", "PORTAL_HTTP_TIMEOUT", "PORTAL_NON_INTERACTIVE",
		"PORTAL_LOGIN_ENDPOINT", "PORTAL_ME_PATH", "PORTAL_REDIS_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearPortalEnv(t)

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, sdk.DefaultBaseURL, s.APIURL)
	assert.Equal(t, DefaultProfile, s.Profile)
	assert.Equal(t, 30*time.Second, s.HTTPTimeout)
	assert.False(t, s.NonInteractive)
	assert.Equal(t, LoginEndpointCompat, s.LoginEndpoint)
	assert.Equal(t, sdk.LoginPathCompat, s.LoginPath())
	assert.Equal(t, sdk.DefaultCurrentUserPath, s.MePath)
	assert.Empty(t, s.RedisURL)
}

func TestLoad_EnvVarOverride(t *testing.T) {
	clearPortalEnv(t)
	t.Setenv("PORTAL_API_URL", "https://portal.example.edu/api")
	t.Setenv("PORTAL_PROFILE", "staff")
	t.Setenv("PORTAL_HTTP_TIMEOUT", "5s")
	t.Setenv("PORTAL_NON_INTERACTIVE", "1")
	t.Setenv("PORTAL_LOGIN_ENDPOINT", "legacy")
	t.Setenv("PORTAL_ME_PATH", sdk.LegacyCurrentUserPath)

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.edu/api", s.APIURL)
	assert.Equal(t, "staff", s.Profile)
	assert.Equal(t, 5*time.Second, s.HTTPTimeout)
	assert.True(t, s.NonInteractive)
	assert.Equal(t, sdk.LoginPathLegacy, s.LoginPath())
	assert.Equal(t, sdk.LegacyCurrentUserPath, s.MePath)
}

func TestLoad_WithEnvFile(t *testing.T) {
	clearPortalEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORTAL_API_URL=http://portal.test:9000\nPORTAL_PROFILE=convenor\n"), 0600))
	t.Setenv("PORTAL_PROFILE", "override")

	s, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "http://portal.test:9000", s.APIURL)
	assert.Equal(t, "override", s.Profile, "env vars win over the file")
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	clearPortalEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"login endpoint", "PORTAL_LOGIN_ENDPOINT", "oauth"},
		{"profile with path separator", "PORTAL_PROFILE", "../escape"},
		{"negative timeout", "PORTAL_HTTP_TIMEOUT", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearPortalEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { MustFromContext(context.Background()) })

	cfg := &GlobalConfig{ServerURL: "http://localhost:8000", Profile: "default"}
	ctx := InjectConfig(context.Background(), cfg)
	assert.Same(t, cfg, MustFromContext(ctx))
}
