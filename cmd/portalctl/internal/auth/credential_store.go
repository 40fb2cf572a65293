package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
)

const profilesDir = "profiles"

// sessionFile is the on-disk layout of one profile.
type sessionFile struct {
	Credentials *sdk.Credentials `json:"credentials,omitempty"`
	Identity    *sdk.Identity    `json:"identity,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// FileStore implements sdk.SessionStore using one JSON file per profile.
// Writes go through a temp file and a rename so the credential pair is never
// half-written.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// Ensure FileStore implements sdk.SessionStore at compile time.
var _ sdk.SessionStore = (*FileStore)(nil)

// DefaultDir returns ~/.portal/profiles.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".portal", profilesDir), nil
}

// NewFileStore creates the store for profile under dir. An empty dir selects
// DefaultDir.
func NewFileStore(dir, profile string) (*FileStore, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, profile+".json")}, nil
}

// Path returns the profile file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Credentials(context.Context) (sdk.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read()
	if err != nil {
		return sdk.Credentials{}, err
	}
	if rec.Credentials == nil || !rec.Credentials.Complete() {
		return sdk.Credentials{}, sdk.ErrNoSession
	}
	return *rec.Credentials, nil
}

func (s *FileStore) SaveCredentials(_ context.Context, creds sdk.Credentials) error {
	if err := sdk.ValidateCredentials(creds); err != nil {
		return err
	}
	return s.update(func(rec *sessionFile) error {
		rec.Credentials = &creds
		return nil
	})
}

func (s *FileStore) UpdateAccessToken(_ context.Context, accessToken string) error {
	if accessToken == "" {
		return fmt.Errorf("access token is required")
	}
	return s.update(func(rec *sessionFile) error {
		if rec.Credentials == nil || !rec.Credentials.Complete() {
			return sdk.ErrNoSession
		}
		rec.Credentials.AccessToken = accessToken
		return nil
	})
}

func (s *FileStore) Identity(context.Context) (*sdk.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read()
	if err != nil {
		return nil, err
	}
	if rec.Identity == nil {
		return nil, sdk.ErrNoSession
	}
	return rec.Identity, nil
}

func (s *FileStore) SaveIdentity(_ context.Context, identity *sdk.Identity) error {
	if identity == nil {
		return fmt.Errorf("identity is required")
	}
	return s.update(func(rec *sessionFile) error {
		rec.Identity = identity.Clone()
		return nil
	})
}

func (s *FileStore) ClearIdentity(context.Context) error {
	return s.update(func(rec *sessionFile) error {
		rec.Identity = nil
		return nil
	})
}

// Clear deletes the profile file.
func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

func (s *FileStore) read() (*sessionFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &sessionFile{}, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var rec sessionFile
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupted session file %s (invalid JSON): %w", s.path, err)
	}
	return &rec, nil
}

func (s *FileStore) update(mutate func(*sessionFile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read()
	if err != nil {
		return err
	}
	if err := mutate(rec); err != nil {
		return err
	}
	rec.UpdatedAt = time.Now().UTC()
	return s.write(rec)
}

// write replaces the session file atomically.
func (s *FileStore) write(rec *sessionFile) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set session file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp session file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename temp session file: %w", err)
	}
	return nil
}
