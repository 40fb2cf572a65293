package nav

import (
	"bytes"
	"context"
	"io"
	"log"
	"testing"

	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk/sdktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintMenu(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printMenu(&buf, nil))
	out := buf.String()
	assert.Contains(t, out, "Social Gold")
	assert.Contains(t, out, "/login")
	assert.NotContains(t, out, "/dashboard")

	buf.Reset()
	require.NoError(t, printMenu(&buf, &sdk.Identity{Email: "staff@example.com", UserType: sdk.UserTypeStaff}))
	out = buf.String()
	assert.Contains(t, out, "Menu for staff@example.com (staff)")
	assert.Contains(t, out, "/admin")
	assert.NotContains(t, out, "/login")
}

func TestResolveIdentity(t *testing.T) {
	ctx := context.Background()
	srv := sdktest.NewServer(t)
	srv.AddUser("password123", sdk.Identity{ID: 1, Email: "student_all@example.com", UserType: sdk.UserTypeStudent})

	store := sdk.NewMemoryStore()
	mgr := sdk.NewManager(sdk.NewTransport(srv.URL, store, sdk.WithLogger(log.New(io.Discard, "", 0))), store)

	assert.Nil(t, resolveIdentity(ctx, mgr, false), "anonymous without a session")

	_, err := mgr.Login(ctx, "student_all@example.com", "password123")
	require.NoError(t, err)

	identity := resolveIdentity(ctx, mgr, false)
	require.NotNil(t, identity)
	assert.Equal(t, sdk.RoleStudent, sdk.RoleOf(identity))

	before := srv.TotalHits()
	cached := resolveIdentity(ctx, mgr, true)
	require.NotNil(t, cached)
	assert.Equal(t, before, srv.TotalHits(), "offline lookups stay local")

	// A failed refresh degrades to the public menu.
	srv.ExpireAccessTokens()
	srv.RevokeRefreshTokens()
	assert.Nil(t, resolveIdentity(ctx, mgr, false))
	assert.False(t, mgr.IsAuthenticated(ctx))
}
