package accounts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f8k8/spotify-house-player/pkg/logger"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.json")
	return NewStore(logger.Nop(), path), path
}

func TestStore_Register(t *testing.T) {
	s, _ := newTestStore(t)

	acc, err := s.Register("kitchen", "client-x", "secret-y", "http://localhost:8080/oauth-callback")
	require.NoError(t, err)
	assert.Equal(t, "kitchen", acc.Name)
	assert.False(t, acc.Authenticated)
	assert.Empty(t, acc.Token)
	assert.Nil(t, acc.ExpiresAt)

	t.Run("duplicate name fails and never overwrites", func(t *testing.T) {
		_, err := s.Register("kitchen", "other-client", "other-secret", "")
		require.ErrorIs(t, err, ErrDuplicateAccount)

		got, ok := s.Get("kitchen")
		require.True(t, ok)
		assert.Equal(t, "client-x", got.ClientID)
	})
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Register("kitchen", "client-x", "secret-y", "uri")
	require.NoError(t, err)

	a, ok := s.Get("kitchen")
	require.True(t, ok)
	a.Token = "mutated"

	b, ok := s.Get("kitchen")
	require.True(t, ok)
	assert.Empty(t, b.Token)
}

func TestStore_Update(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Register("kitchen", "client-x", "secret-y", "uri")
	require.NoError(t, err)

	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	updated, err := s.Update("kitchen", func(a *Account) {
		a.Authenticated = true
		a.Token = "access-1"
		a.RefreshToken = "refresh-1"
		a.ExpiresAt = &expires
	})
	require.NoError(t, err)
	assert.True(t, updated.Authenticated)
	assert.Equal(t, "access-1", updated.Token)

	t.Run("fields not touched by the mutation survive", func(t *testing.T) {
		got, ok := s.Get("kitchen")
		require.True(t, ok)
		assert.Equal(t, "client-x", got.ClientID)
		assert.Equal(t, "secret-y", got.ClientSecret)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := s.Update("garage", func(a *Account) {})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_RoundTrip(t *testing.T) {
	s, path := newTestStore(t)
	_, err := s.Register("kitchen", "client-x", "secret-y", "uri-a")
	require.NoError(t, err)
	_, err = s.Register("lounge", "client-z", "secret-w", "uri-b")
	require.NoError(t, err)

	expires := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	_, err = s.Update("lounge", func(a *Account) {
		a.Authenticated = true
		a.Token = "access-2"
		a.RefreshToken = "refresh-2"
		a.ExpiresAt = &expires
	})
	require.NoError(t, err)

	reloaded := NewStore(logger.Nop(), path)
	for _, name := range []string{"kitchen", "lounge"} {
		want, ok := s.Get(name)
		require.True(t, ok)
		got, ok := reloaded.Get(name)
		require.True(t, ok, "account %s missing after reload", name)
		assert.Equal(t, want.ClientID, got.ClientID)
		assert.Equal(t, want.ClientSecret, got.ClientSecret)
		assert.Equal(t, want.RedirectURI, got.RedirectURI)
		assert.Equal(t, want.Authenticated, got.Authenticated)
		assert.Equal(t, want.Token, got.Token)
		assert.Equal(t, want.RefreshToken, got.RefreshToken)
		if want.ExpiresAt == nil {
			assert.Nil(t, got.ExpiresAt)
		} else {
			require.NotNil(t, got.ExpiresAt)
			assert.True(t, want.ExpiresAt.Equal(*got.ExpiresAt))
		}
	}
}

func TestStore_CorruptSnapshotStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewStore(logger.Nop(), path)
	assert.Empty(t, s.List())

	// Still usable after the reset.
	_, err := s.Register("kitchen", "client-x", "secret-y", "uri")
	require.NoError(t, err)
}

func TestStore_List(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Register("lounge", "c", "s", "u")
	require.NoError(t, err)
	_, err = s.Register("kitchen", "c", "s", "u")
	require.NoError(t, err)

	got := s.List()
	require.Len(t, got, 2)
	assert.Equal(t, "kitchen", got[0].Name)
	assert.Equal(t, "lounge", got[1].Name)
	assert.False(t, got[0].Authenticated)
}
