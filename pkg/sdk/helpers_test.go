package sdk_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk/sdktest"
	"github.com/stretchr/testify/require"
)

const (
	studentEmail    = "student_all@example.com"
	studentPassword = "password123"
)

type harness struct {
	server    *sdktest.Server
	store     *sdk.MemoryStore
	transport *sdk.Transport
	manager   *sdk.Manager
}

func newHarness(t *testing.T, topts []sdk.TransportOption, mopts ...sdk.ManagerOption) *harness {
	t.Helper()

	srv := sdktest.NewServer(t)
	srv.AddUser(studentPassword, sdk.Identity{
		ID:        1,
		Email:     studentEmail,
		Username:  "student_all",
		FirstName: "Alex",
		LastName:  "Nguyen",
		UserType:  sdk.UserTypeStudent,
	})

	store := sdk.NewMemoryStore()
	opts := append([]sdk.TransportOption{sdk.WithLogger(log.New(io.Discard, "", 0))}, topts...)
	tr := sdk.NewTransport(srv.URL, store, opts...)

	return &harness{
		server:    srv,
		store:     store,
		transport: tr,
		manager:   sdk.NewManager(tr, store, mopts...),
	}
}

// seedSession stores a freshly issued pair for the student.
func (h *harness) seedSession(t *testing.T) sdk.Credentials {
	t.Helper()
	creds := h.server.IssueTokens(studentEmail)
	require.NoError(t, h.store.SaveCredentials(context.Background(), creds))
	return creds
}
