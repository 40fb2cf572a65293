package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	// LoginPathCompat accepts either an email address or a username.
	LoginPathCompat = "/token/compat/"
	// LoginPathLegacy is the plain token-pair exchange.
	LoginPathLegacy = "/token/"

	DefaultCurrentUserPath = "/users/me/"
	// LegacyCurrentUserPath is the current-user route of the earlier API revision.
	LegacyCurrentUserPath = "/users/users/me/"
	DefaultProfilePath    = "/users/update_profile/"
	DefaultRegisterPath   = "/users/"
)

// State is the externally visible session state.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Manager owns login, logout and identity resolution on top of a Transport.
type Manager struct {
	transport *Transport
	store     SessionStore

	loginPath       string
	currentUserPath string
	profilePath     string
	registerPath    string
}

// ManagerOptions configures Manager construction.
type ManagerOptions struct {
	LoginPath       string
	CurrentUserPath string
	ProfilePath     string
	RegisterPath    string
}

// ManagerOption mutates ManagerOptions.
type ManagerOption func(*ManagerOptions)

// WithLoginPath selects the login exchange endpoint.
func WithLoginPath(path string) ManagerOption {
	return func(opts *ManagerOptions) {
		opts.LoginPath = path
	}
}

// WithCurrentUserPath selects the current-user endpoint.
func WithCurrentUserPath(path string) ManagerOption {
	return func(opts *ManagerOptions) {
		opts.CurrentUserPath = path
	}
}

// WithProfilePath selects the profile update endpoint.
func WithProfilePath(path string) ManagerOption {
	return func(opts *ManagerOptions) {
		opts.ProfilePath = path
	}
}

// WithRegisterPath selects the account registration endpoint.
func WithRegisterPath(path string) ManagerOption {
	return func(opts *ManagerOptions) {
		opts.RegisterPath = path
	}
}

// NewManager creates a session manager. store must be the same store the
// transport was built with.
func NewManager(transport *Transport, store SessionStore, optFns ...ManagerOption) *Manager {
	opts := ManagerOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.LoginPath == "" {
		opts.LoginPath = LoginPathCompat
	}
	if opts.CurrentUserPath == "" {
		opts.CurrentUserPath = DefaultCurrentUserPath
	}
	if opts.ProfilePath == "" {
		opts.ProfilePath = DefaultProfilePath
	}
	if opts.RegisterPath == "" {
		opts.RegisterPath = DefaultRegisterPath
	}

	return &Manager{
		transport:       transport,
		store:           store,
		loginPath:       opts.LoginPath,
		currentUserPath: opts.CurrentUserPath,
		profilePath:     opts.ProfilePath,
		registerPath:    opts.RegisterPath,
	}
}

// Transport returns the transport the manager sends requests through.
func (m *Manager) Transport() *Transport {
	return m.transport
}

// Login exchanges identifier and secret for a token pair, persists it and
// resolves the current identity. Nothing is persisted when any step fails.
func (m *Manager) Login(ctx context.Context, identifier, secret string) (*Identity, error) {
	body := loginRequest{Email: identifier, Password: secret}
	if err := validateInput(body); err != nil {
		return nil, &LoginError{Err: err}
	}

	var pair tokenPairResponse
	if err := m.transport.DoJSON(ctx, http.MethodPost, m.loginPath, body, &pair, WithoutAuth()); err != nil {
		return nil, loginError(err)
	}
	creds := Credentials{AccessToken: pair.Access, RefreshToken: pair.Refresh}
	if !creds.Complete() {
		return nil, &LoginError{Err: fmt.Errorf("%w: token pair incomplete", ErrMalformedResponse)}
	}

	if err := m.store.SaveCredentials(ctx, creds); err != nil {
		return nil, &LoginError{Err: fmt.Errorf("persist credentials: %w", err)}
	}

	identity, err := m.CurrentUser(ctx)
	if err != nil {
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			err = errors.Join(err, fmt.Errorf("clear partial session: %w", clearErr))
		}
		return nil, loginError(err)
	}
	return identity, nil
}

func loginError(err error) *LoginError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &LoginError{Detail: apiErr.Detail, Err: err}
	}
	return &LoginError{Err: err}
}

// Logout drops the local session. No server call is made; the access token is
// simply discarded. Logging out without a session is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentUser fetches the identity of the logged in user and caches it. Without
// stored credentials it returns ErrUnauthenticated without a network call.
// On failure the cached identity is dropped; tokens are left to the transport.
func (m *Manager) CurrentUser(ctx context.Context) (*Identity, error) {
	if _, err := m.store.Credentials(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	var identity Identity
	if err := m.transport.DoJSON(ctx, http.MethodGet, m.currentUserPath, nil, &identity); err != nil {
		_ = m.store.ClearIdentity(ctx)
		return nil, err
	}
	if err := m.store.SaveIdentity(ctx, &identity); err != nil {
		return nil, fmt.Errorf("cache identity: %w", err)
	}
	return identity.Clone(), nil
}

// CachedUser returns the identity cached by the last successful resolution.
func (m *Manager) CachedUser(ctx context.Context) (*Identity, error) {
	return m.store.Identity(ctx)
}

// IsAuthenticated reports whether a credential pair is stored locally. It does
// not check the token with the server.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	_, err := m.store.Credentials(ctx)
	return err == nil
}

// State reports Anonymous or Authenticated from local storage.
func (m *Manager) State(ctx context.Context) State {
	if m.IsAuthenticated(ctx) {
		return StateAuthenticated
	}
	return StateAnonymous
}

// UpdateProfile sends the non-nil fields of update and replaces the cached
// identity with the server's response.
func (m *Manager) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Identity, error) {
	if err := validateInput(update); err != nil {
		return nil, err
	}
	if !m.IsAuthenticated(ctx) {
		return nil, ErrUnauthenticated
	}

	var identity Identity
	if err := m.transport.DoJSON(ctx, http.MethodPut, m.profilePath, update, &identity); err != nil {
		return nil, err
	}
	if err := m.store.SaveIdentity(ctx, &identity); err != nil {
		return nil, fmt.Errorf("cache identity: %w", err)
	}
	return identity.Clone(), nil
}

// Register creates a new account. It does not log the new user in.
func (m *Manager) Register(ctx context.Context, reg Registration) (*Identity, error) {
	if err := validateInput(reg); err != nil {
		return nil, err
	}

	var identity Identity
	if err := m.transport.DoJSON(ctx, http.MethodPost, m.registerPath, reg, &identity, WithoutAuth()); err != nil {
		return nil, err
	}
	return &identity, nil
}
