package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igharvest/pkg/page"
)

func TestManagerStoreFallsThroughFailingStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()
	m := NewManagerWithStores(broken, working)

	account := &Account{Username: "someone", SessionID: "sess-value", CSRFToken: "csrf-value"}
	require.NoError(t, m.Store(account))

	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())
	assert.False(t, account.LastModified.IsZero())
}

func TestManagerStoreValidates(t *testing.T) {
	m := NewManagerWithStores(NewMockStore())

	assert.Error(t, m.Store(&Account{SessionID: "x"}))
	assert.Error(t, m.Store(&Account{Username: "someone"}))
}

func TestManagerRetrieveFirstHit(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	require.NoError(t, second.Store(&Account{Username: "someone", SessionID: "from-second"}))
	m := NewManagerWithStores(first, second)

	account, err := m.Retrieve("someone")
	require.NoError(t, err)
	assert.Equal(t, "from-second", account.SessionID)

	_, err = m.Retrieve("nobody")
	assert.Error(t, err)
}

func TestManagerDeleteAcrossStores(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	require.NoError(t, first.Store(&Account{Username: "someone", SessionID: "a"}))
	require.NoError(t, second.Store(&Account{Username: "someone", SessionID: "b"}))
	m := NewManagerWithStores(first, second)

	require.NoError(t, m.Delete("someone"))
	assert.False(t, first.Exists("someone"))
	assert.False(t, second.Exists("someone"))
}

func TestAccountSessionRoundtrip(t *testing.T) {
	account := &Account{
		Username:  "someone",
		SessionID: "sess-value",
		CSRFToken: "csrf-value",
		UserAgent: "Mozilla/5.0",
	}

	sess := account.Session()
	require.Len(t, sess.Cookies, 2)
	assert.Equal(t, "Mozilla/5.0", sess.UserAgent)
	assert.Equal(t, "sessionid", sess.Cookies[0].Name)
	assert.True(t, sess.Cookies[0].HTTPOnly)
	assert.Equal(t, ".instagram.com", sess.Cookies[0].Domain)

	back, err := AccountFromSession("someone", sess)
	require.NoError(t, err)
	assert.Equal(t, account.SessionID, back.SessionID)
	assert.Equal(t, account.CSRFToken, back.CSRFToken)
}

func TestAccountFromSessionRequiresSessionCookie(t *testing.T) {
	_, err := AccountFromSession("someone", &page.Session{
		Cookies: []page.Cookie{{Name: "csrftoken", Value: "x"}},
	})
	assert.Error(t, err)
}

func TestSanitizeMasksSecrets(t *testing.T) {
	masked := Sanitize(&Account{Username: "someone", SessionID: "1234567890abcdef", CSRFToken: "short"})

	assert.Equal(t, "someone", masked.Username)
	assert.Equal(t, "1234...cdef", masked.SessionID)
	assert.Equal(t, "********", masked.CSRFToken)
	assert.Nil(t, Sanitize(nil))
}

func TestEncryptedFileStoreRoundtrip(t *testing.T) {
	t.Setenv("IGHARVEST_PASSPHRASE", "test-passphrase")
	store, err := NewEncryptedFileStore(t.TempDir() + "/credentials.enc")
	require.NoError(t, err)

	account := &Account{Username: "someone", SessionID: "sess", CSRFToken: "csrf"}
	require.NoError(t, store.Store(account))
	assert.True(t, store.Exists("someone"))

	got, err := store.Retrieve("someone")
	require.NoError(t, err)
	assert.Equal(t, "sess", got.SessionID)

	list, err := store.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.Delete("someone"))
	assert.False(t, store.Exists("someone"))
}

func TestEnvironmentStoreRetrieve(t *testing.T) {
	t.Setenv("IGHARVEST_SESSION_ID", "env-sess")
	t.Setenv("IGHARVEST_CSRF_TOKEN", "env-csrf")

	store := NewEnvironmentStore()
	account, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "default", account.Username)
	assert.Equal(t, "env-sess", account.SessionID)

	assert.ErrorIs(t, store.Store(account), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("default"), ErrStoreUnavailable)
}
