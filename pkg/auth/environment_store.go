package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads a session from IGHARVEST_SESSION_ID,
// IGHARVEST_CSRF_TOKEN, and IGHARVEST_USER_AGENT. It is read-only and
// mainly serves CI and one-off runs.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store always fails: environment variables are not writable state.
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve builds an account from the environment. The variables carry
// no username of their own, so the requested one (or "default") is used.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	sessionID := os.Getenv("IGHARVEST_SESSION_ID")
	if sessionID == "" {
		return nil, ErrCredentialsNotFound
	}
	if username == "" {
		username = "default"
	}
	return &Account{
		Username:     username,
		SessionID:    sessionID,
		CSRFToken:    os.Getenv("IGHARVEST_CSRF_TOKEN"),
		UserAgent:    os.Getenv("IGHARVEST_USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

// List yields the single environment account when one is set.
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete always fails, same as Store.
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(username string) bool {
	return os.Getenv("IGHARVEST_SESSION_ID") != ""
}
