package page

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igharvest/pkg/errors"
)

func TestSessionSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	sess := &Session{
		UserAgent: "Mozilla/5.0",
		Cookies: []Cookie{
			{Name: "sessionid", Value: "abc", Domain: ".instagram.com", Path: "/", HTTPOnly: true, Secure: true},
			{Name: "csrftoken", Value: "def", Domain: ".instagram.com", Path: "/"},
		},
	}

	require.NoError(t, sess.Save(path))

	loaded, err := LoadSession(path)
	require.NoError(t, err)
	assert.Equal(t, sess.UserAgent, loaded.UserAgent)
	require.Len(t, loaded.Cookies, 2)
	assert.Equal(t, "sessionid", loaded.Cookies[0].Name)
	assert.True(t, loaded.Cookies[0].HTTPOnly)
}

func TestLoadSessionMissingFile(t *testing.T) {
	_, err := LoadSession(filepath.Join(t.TempDir(), "absent.json"))

	var herr *errors.Error
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, errors.ErrorTypeSession, herr.Type)
}

func TestLoadSessionEmptyCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cookies":[]}`), 0600))

	_, err := LoadSession(path)

	var herr *errors.Error
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, errors.ErrorTypeSession, herr.Type)
}

func TestLoadSessionCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := LoadSession(path)
	require.Error(t, err)
}

func TestSessionSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	sess := &Session{Cookies: []Cookie{{Name: "sessionid", Value: "abc"}}}
	require.NoError(t, sess.Save(filepath.Join(dir, "session.json")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "session.json", entries[0].Name())
}
