package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/resumind-client/internal/core/domain"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	assert.False(t, store.Credentials().Authenticated())

	require.NoError(t, store.SetCredentials(domain.Credentials{Access: "a1", Refresh: "r1"}))
	require.NoError(t, store.SetAccess("a2"))
	assert.Equal(t, domain.Credentials{Access: "a2", Refresh: "r1"}, store.Credentials())

	require.NoError(t, store.Clear())
	assert.Equal(t, domain.Credentials{}, store.Credentials())
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "token.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SetCredentials(domain.Credentials{Access: "a1", Refresh: "r1"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, domain.Credentials{Access: "a1", Refresh: "r1"}, reopened.Credentials())

	require.NoError(t, reopened.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	empty, err := NewFileStore(path)
	require.NoError(t, err)
	assert.False(t, empty.Credentials().Authenticated())
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)
	require.Error(t, err)
}

func TestAccessExpiry(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	got, ok := AccessExpiry(token)
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = AccessExpiry("opaque-token")
	assert.False(t, ok)
	_, ok = AccessExpiry("")
	assert.False(t, ok)
}
