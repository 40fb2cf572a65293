package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk/redisstore"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk/sdktest"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *sdktest.Server {
	t.Helper()
	srv := sdktest.NewServer(t)
	srv.AddUser("password123", sdk.Identity{
		ID:        1,
		Email:     "student_all@example.com",
		FirstName: "Alex",
		UserType:  sdk.UserTypeStudent,
	})
	return srv
}

func TestProvider_FileBackedSession(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	dir := t.TempDir()

	p := NewProvider(Options{ServerURL: srv.URL, Profile: "default", StoreDir: dir})
	t.Cleanup(func() { _ = p.Close() })

	mgr, err := p.Manager()
	require.NoError(t, err)
	_, err = mgr.Login(ctx, "student_all@example.com", "password123")
	require.NoError(t, err)

	// The next invocation reads the same profile.
	next := NewProvider(Options{ServerURL: srv.URL, Profile: "default", StoreDir: dir})
	nextMgr, err := next.Manager()
	require.NoError(t, err)
	assert.True(t, nextMgr.IsAuthenticated(ctx))

	other := NewProvider(Options{ServerURL: srv.URL, Profile: "staff", StoreDir: dir})
	otherMgr, err := other.Manager()
	require.NoError(t, err)
	assert.False(t, otherMgr.IsAuthenticated(ctx))
}

func TestProvider_SharesOneTransport(t *testing.T) {
	p := NewProvider(Options{Profile: "default", StoreDir: t.TempDir()})

	first, err := p.Transport()
	require.NoError(t, err)
	second, err := p.Transport()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, sdk.DefaultBaseURL, first.BaseURL())

	mgr, err := p.Manager()
	require.NoError(t, err)
	assert.Same(t, first, mgr.Transport())
}

func TestProvider_WarnsOnceWhenSessionEnds(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)

	var warnings []error
	p := NewProvider(Options{
		ServerURL: srv.URL,
		Profile:   "default",
		StoreDir:  t.TempDir(),
		Warn:      func(reason error) { warnings = append(warnings, reason) },
	})

	mgr, err := p.Manager()
	require.NoError(t, err)
	_, err = mgr.Login(ctx, "student_all@example.com", "password123")
	require.NoError(t, err)

	srv.ExpireAccessTokens()
	srv.FailRefreshWith(http.StatusBadRequest)

	transport, err := p.Transport()
	require.NoError(t, err)
	_, err = transport.Do(ctx, http.MethodGet, "/core/events/", nil)
	assert.ErrorIs(t, err, sdk.ErrUnauthenticated)

	// Log in again and lose the session a second time.
	srv.FailRefreshWith(0)
	_, err = mgr.Login(ctx, "student_all@example.com", "password123")
	require.NoError(t, err)
	srv.ExpireAccessTokens()
	srv.RevokeRefreshTokens()
	_, err = transport.Do(ctx, http.MethodGet, "/core/events/", nil)
	assert.ErrorIs(t, err, sdk.ErrUnauthenticated)

	assert.Len(t, warnings, 1)
	assert.False(t, mgr.IsAuthenticated(ctx))
}

func TestProvider_RedisSession(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	mr := miniredis.RunT(t)

	p := NewProvider(Options{ServerURL: srv.URL, Profile: "lab", RedisURL: "redis://" + mr.Addr()})
	t.Cleanup(func() { _ = p.Close() })

	store, err := p.Store()
	require.NoError(t, err)
	assert.IsType(t, &redisstore.Store{}, store)

	mgr, err := p.Manager()
	require.NoError(t, err)
	_, err = mgr.Login(ctx, "student_all@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, mr.Exists("portalctl:{lab}:pair"))
}

func TestProvider_InvalidRedisURL(t *testing.T) {
	p := NewProvider(Options{Profile: "default", RedisURL: "not a url"})

	_, err := p.Store()
	assert.Error(t, err)
	_, err = p.Manager()
	assert.Error(t, err)
}

func TestProvider_Guard(t *testing.T) {
	p := NewProvider(Options{Profile: "default", StoreDir: t.TempDir()})

	guard, err := p.Guard()
	require.NoError(t, err)
	assert.NoError(t, guard.Authorize(nil, sdk.NavAbout))
	assert.ErrorIs(t, guard.Authorize(nil, sdk.NavDashboard), sdk.ErrUnauthenticated)
}
