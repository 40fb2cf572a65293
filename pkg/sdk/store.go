package sdk

import (
	"context"
	"fmt"
	"sync"
)

// SessionStore persists the credential pair and the cached identity for one
// browser context. Implementations must write and clear the pair atomically.
type SessionStore interface {
	// Credentials returns the stored pair, or ErrNoSession when the pair is
	// absent or incomplete.
	Credentials(ctx context.Context) (Credentials, error)
	// SaveCredentials replaces the pair. Incomplete pairs are rejected.
	SaveCredentials(ctx context.Context, creds Credentials) error
	// UpdateAccessToken swaps the access token in place, keeping the refresh
	// token. It returns ErrNoSession when no pair is stored.
	UpdateAccessToken(ctx context.Context, accessToken string) error
	// Identity returns the cached identity, or ErrNoSession.
	Identity(ctx context.Context) (*Identity, error)
	SaveIdentity(ctx context.Context, identity *Identity) error
	ClearIdentity(ctx context.Context) error
	// Clear removes the pair and the cached identity together. Clearing an
	// empty store is not an error.
	Clear(ctx context.Context) error
}

// MemoryStore is an in-process SessionStore.
type MemoryStore struct {
	mu       sync.RWMutex
	creds    Credentials
	identity *Identity
}

// Ensure MemoryStore implements SessionStore at compile time.
var _ SessionStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Credentials(context.Context) (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.creds.Complete() {
		return Credentials{}, ErrNoSession
	}
	return s.creds, nil
}

func (s *MemoryStore) SaveCredentials(_ context.Context, creds Credentials) error {
	if err := ValidateCredentials(creds); err != nil {
		return err
	}
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) UpdateAccessToken(_ context.Context, accessToken string) error {
	if accessToken == "" {
		return fmt.Errorf("access token is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.creds.Complete() {
		return ErrNoSession
	}
	s.creds.AccessToken = accessToken
	return nil
}

func (s *MemoryStore) Identity(context.Context) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil, ErrNoSession
	}
	return s.identity.Clone(), nil
}

func (s *MemoryStore) SaveIdentity(_ context.Context, identity *Identity) error {
	if identity == nil {
		return fmt.Errorf("identity is required")
	}
	s.mu.Lock()
	s.identity = identity.Clone()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ClearIdentity(context.Context) error {
	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.creds = Credentials{}
	s.identity = nil
	s.mu.Unlock()
	return nil
}

// ValidateCredentials rejects pairs that would leave a store half-populated.
func ValidateCredentials(creds Credentials) error {
	if !creds.Complete() {
		return fmt.Errorf("credential pair requires both access and refresh tokens")
	}
	return nil
}
