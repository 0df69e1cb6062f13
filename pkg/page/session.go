package page

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"igharvest/pkg/errors"
)

// Cookie is one persisted browser cookie.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Session is the persisted authenticated-browser state. It is read-shared
// at the start of every worker's context creation; persistence happens
// only at well-defined checkpoints, never concurrently from multiple
// workers to the same file.
type Session struct {
	Cookies      []Cookie          `json:"cookies"`
	LocalStorage map[string]string `json:"local_storage,omitempty"`
	UserAgent    string            `json:"user_agent,omitempty"`
}

// LoadSession reads a session snapshot from disk.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrorTypeSession,
				fmt.Sprintf("session file %q not found, run 'igharvest session save' first", path))
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.New(errors.ErrorTypeSession,
			fmt.Sprintf("invalid session file %q: %v", path, err))
	}

	if len(sess.Cookies) == 0 {
		return nil, errors.New(errors.ErrorTypeSession,
			fmt.Sprintf("session file %q holds no cookies", path))
	}

	return &sess, nil
}

// Save writes the session snapshot atomically.
func (s *Session) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	return nil
}
