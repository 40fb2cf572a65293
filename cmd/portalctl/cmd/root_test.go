package cmd

import (
	"context"
	"testing"

	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk/sdktest"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	// Persistent flags keep their values between executions.
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestPortalctl_SessionLifecycle(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PORTAL_REDIS_URL", "")

	srv := sdktest.NewServer(t)
	srv.AddUser("password123", sdk.Identity{
		ID:       1,
		Email:    "student_all@example.com",
		UserType: sdk.UserTypeStudent,
	})
	t.Setenv("PORTAL_API_URL", srv.URL)

	require.NoError(t, run(t, "auth", "login", "--non-interactive", "--email", "student_all@example.com", "--password", "password123"))
	require.NoError(t, run(t, "auth", "status"))
	require.NoError(t, run(t, "nav"))
	require.NoError(t, run(t, "open", "dashboard"))

	err := run(t, "open", "admin")
	assert.ErrorIs(t, err, sdk.ErrUnauthorized)

	require.NoError(t, run(t, "api", "GET", "/core/events/"))

	srv.ExpireAccessTokens()
	require.NoError(t, run(t, "auth", "whoami"), "expired access token is refreshed")
	assert.Equal(t, 1, srv.Hits("POST", sdk.DefaultRefreshPath))

	require.NoError(t, run(t, "auth", "logout"))
	err = run(t, "open", "dashboard")
	assert.ErrorIs(t, err, sdk.ErrUnauthenticated)

	before := srv.TotalHits()
	err = run(t, "auth", "whoami")
	assert.ErrorIs(t, err, sdk.ErrUnauthenticated)
	assert.Equal(t, before, srv.TotalHits())
}

func TestPortalctl_LoginRequiresInputWhenNonInteractive(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PORTAL_NON_INTERACTIVE", "1")

	err := run(t, "auth", "login", "--email", "", "--password", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-interactive")
}

func TestPortalctl_RejectsBadProfile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	err := run(t, "auth", "status", "--profile", "../../etc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile")
}

func TestPortalctl_RegisterThenLogin(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PORTAL_REDIS_URL", "")

	srv := sdktest.NewServer(t)
	t.Setenv("PORTAL_API_URL", srv.URL)

	require.NoError(t, run(t, "auth", "register", "--non-interactive",
		"--email", "nina@example.com", "--username", "nina", "--password", "longenough", "--first-name", "Nina"))
	assert.Equal(t, 1, srv.Hits("POST", sdk.DefaultRegisterPath))

	// Registering does not start a session.
	err := run(t, "open", "dashboard")
	assert.ErrorIs(t, err, sdk.ErrUnauthenticated)

	require.NoError(t, run(t, "auth", "login", "--non-interactive", "--email", "nina@example.com", "--password", "longenough"))
	require.NoError(t, run(t, "open", "dashboard"))

	err = run(t, "auth", "register", "--non-interactive",
		"--email", "nina@example.com", "--username", "nina2", "--password", "longenough")
	assert.ErrorIs(t, err, sdk.ErrValidation)
}
