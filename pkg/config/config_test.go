package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "https://accounts.spotify.com/authorize", cfg.AuthorizeURL)
	assert.Equal(t, "https://accounts.spotify.com/api/token", cfg.TokenURL)
	assert.Equal(t, "http://localhost:8080/oauth-callback", cfg.DefaultRedirectURI())
}

func TestLoadPlayerDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
players:
  kitchen:
    display_name: Kitchen
    audio_destination: kitchen-speaker
    source_id: media_player.kitchen
    entity_id: media_player.kitchen_player
  lounge:
    display_name: Lounge
`), 0o600))

	players := loadPlayerDefaults(path)
	require.Len(t, players, 2)
	assert.Equal(t, "kitchen-speaker", players["kitchen"].AudioDestination)
	assert.Equal(t, "media_player.kitchen", players["kitchen"].SourceID)
	assert.Equal(t, "Lounge", players["lounge"].DisplayName)
	assert.Empty(t, players["lounge"].AudioDestination)

	t.Run("missing file is tolerated", func(t *testing.T) {
		assert.Nil(t, loadPlayerDefaults(filepath.Join(t.TempDir(), "nope.yaml")))
	})

	t.Run("malformed file is tolerated", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("players: ["), 0o600))
		assert.Nil(t, loadPlayerDefaults(bad))
	})
}

func TestDefaultRedirectURITrimsSlash(t *testing.T) {
	cfg := Config{BasePublicURL: "https://player.home/"}
	assert.Equal(t, "https://player.home/oauth-callback", cfg.DefaultRedirectURI())
}
