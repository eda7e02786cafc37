package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements TokenStore using the VIEWLEDGER_API_TOKEN
// environment variable. Read-only; useful for CI and one-off runs.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Retrieve(profile string) (*Credential, error) {
	token := os.Getenv("VIEWLEDGER_API_TOKEN")
	if token == "" {
		return nil, ErrTokenNotFound
	}

	if profile == "" {
		profile = DefaultProfile
	}
	return &Credential{
		Profile:      profile,
		Token:        token,
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(profile string) bool {
	return os.Getenv("VIEWLEDGER_API_TOKEN") != ""
}
