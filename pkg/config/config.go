// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string
	HTTPAddr string

	// Public base URL, used to derive the default OAuth redirect URI.
	BasePublicURL string

	// Spotify endpoints (overridable for testing against a stub provider)
	AuthorizeURL string
	TokenURL     string
	WebAPIURL    string

	// Accounts snapshot file
	AccountsFile string

	// External player runtime executable
	PlayerExec string

	// Freshness buffer before literal token expiry
	TokenBuffer time.Duration

	// Outbound HTTP timeout (provider exchanges, notifications)
	HTTPTimeout time.Duration

	ShutdownTimeout time.Duration

	// Home Assistant notification sink (optional)
	HomeAssistantURL   string
	HomeAssistantToken string

	// Per-player launch defaults from the optional YAML config file
	Players map[string]PlayerDefaults
}

// PlayerDefaults carries optional per-account launch settings and the
// Home Assistant identifiers reported on playback events.
type PlayerDefaults struct {
	DisplayName      string `yaml:"display_name"`
	AudioDestination string `yaml:"audio_destination"`
	SourceID         string `yaml:"source_id"`
	EntityID         string `yaml:"entity_id"`
}

type fileConfig struct {
	Players map[string]PlayerDefaults `yaml:"players"`
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:                env("HOUSE_PLAYER_ENV", "dev"),
		HTTPAddr:           env("HOUSE_PLAYER_HTTP_ADDR", ":8080"),
		BasePublicURL:      env("BASE_PUBLIC_URL", "http://localhost:8080"),
		AuthorizeURL:       env("SPOTIFY_AUTHORIZE_URL", "https://accounts.spotify.com/authorize"),
		TokenURL:           env("SPOTIFY_TOKEN_URL", "https://accounts.spotify.com/api/token"),
		WebAPIURL:          env("SPOTIFY_API_URL", "https://api.spotify.com"),
		AccountsFile:       env("HOUSE_PLAYER_ACCOUNTS_FILE", "accounts.json"),
		PlayerExec:         env("HOUSE_PLAYER_EXEC", ""),
		TokenBuffer:        envDur("TOKEN_BUFFER_SEC", 300) * time.Second,
		HTTPTimeout:        envDur("HTTP_TIMEOUT_SEC", 30) * time.Second,
		ShutdownTimeout:    envDur("SHUTDOWN_TIMEOUT_SEC", 10) * time.Second,
		HomeAssistantURL:   env("HOME_ASSISTANT_URL", ""),
		HomeAssistantToken: env("HOME_ASSISTANT_TOKEN", ""),
	}
	if path := env("HOUSE_PLAYER_CONFIG", ""); path != "" {
		cfg.Players = loadPlayerDefaults(path)
	}
	if cfg.HomeAssistantURL == "" {
		log.Println("[WARN] HOME_ASSISTANT_URL not set — playback notifications disabled")
	}
	return cfg
}

// DefaultRedirectURI is the callback target registered with the provider when
// an account omits its own.
func (c Config) DefaultRedirectURI() string {
	return strings.TrimRight(c.BasePublicURL, "/") + "/oauth-callback"
}

func loadPlayerDefaults(path string) map[string]PlayerDefaults {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[WARN] player config %s: %v", path, err)
		return nil
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		log.Printf("[WARN] player config %s: %v", path, err)
		return nil
	}
	return fc.Players
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i)
		}
	}
	return time.Duration(def)
}
