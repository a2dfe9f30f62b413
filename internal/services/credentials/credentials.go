// Package credentials stores per-user third-party credentials on disk.
// Audiobook decryption needs the user's activation bytes, which are
// provisioned out of band and read here at pipeline time.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoCredential is returned when a user has no stored credential
var ErrNoCredential = errors.New("no credential on file")

// AudibleCredential holds what is needed to decrypt a user's audiobooks
type AudibleCredential struct {
	ActivationBytes string `json:"activation_bytes"`
	CustomerID      string `json:"customer_id,omitempty"`
}

// Store provides access to per-user Audible credentials
type Store interface {
	Get(ctx context.Context, userID uint) (*AudibleCredential, error)
	Put(ctx context.Context, userID uint, cred *AudibleCredential) error
}

// FileStore keeps one JSON file per user under a base directory
type FileStore struct {
	dir string
}

// NewFileStore creates a credential store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(userID uint) string {
	return filepath.Join(s.dir, fmt.Sprintf("audible_%d.json", userID))
}

func (s *FileStore) Get(_ context.Context, userID uint) (*AudibleCredential, error) {
	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var cred AudibleCredential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	if cred.ActivationBytes == "" {
		return nil, ErrNoCredential
	}
	return &cred, nil
}

func (s *FileStore) Put(_ context.Context, userID uint, cred *AudibleCredential) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	if err := os.WriteFile(s.path(userID), data, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}
