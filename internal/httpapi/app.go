// Package httpapi is the thin HTTP surface over the account store, token
// manager and player registry.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/f8k8/spotify-house-player/internal/accounts"
	"github.com/f8k8/spotify-house-player/internal/player"
	"github.com/f8k8/spotify-house-player/internal/spotify"
	"github.com/f8k8/spotify-house-player/internal/tokens"
	"github.com/f8k8/spotify-house-player/pkg/config"
	"github.com/f8k8/spotify-house-player/pkg/problems"
)

// Notifier is the playback event sink. Implementations must be
// fire-and-forget; handlers never wait on delivery.
type Notifier interface {
	Started(sourceID string)
	Stopped(entityID string)
}

// App is the HTTP application container. Handlers and middleware are methods
// on this type.
//
// Keep it lean: shared deps and config only. Request-scoped work uses
// context.
type App struct {
	log      *zap.SugaredLogger
	cfg      config.Config
	store    *accounts.Store
	tokens   *tokens.Manager
	registry *player.Registry
	spotify  *spotify.Client
	notifier Notifier
}

func New(log *zap.SugaredLogger, cfg config.Config, store *accounts.Store, tm *tokens.Manager, reg *player.Registry, sp *spotify.Client, n Notifier) *App {
	return &App{log: log, cfg: cfg, store: store, tokens: tm, registry: reg, spotify: sp, notifier: n}
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the domain error taxonomy onto problem+json responses. All
// of these are recoverable at the request boundary.
func (a *App) writeErr(w http.ResponseWriter, err error) {
	var authErr *spotify.AuthError
	switch {
	case errors.Is(err, accounts.ErrDuplicateAccount):
		problems.Write(w, http.StatusConflict, "duplicate-account", err.Error())
	case errors.Is(err, accounts.ErrNotFound):
		problems.Write(w, http.StatusNotFound, "account-not-found", err.Error())
	case errors.Is(err, tokens.ErrNotAuthenticated):
		problems.Write(w, http.StatusConflict, "not-authenticated", err.Error())
	case errors.Is(err, tokens.ErrNoRefreshToken):
		problems.Write(w, http.StatusConflict, "no-refresh-token", err.Error())
	case errors.Is(err, player.ErrAlreadyRunning):
		problems.Write(w, http.StatusConflict, "already-running", err.Error())
	case errors.Is(err, player.ErrNotRunning):
		problems.Write(w, http.StatusNotFound, "not-running", err.Error())
	case errors.Is(err, player.ErrLaunchFailed):
		problems.Write(w, http.StatusBadGateway, "launch-failed", err.Error())
	case errors.Is(err, player.ErrStopFailed):
		problems.Write(w, http.StatusBadGateway, "stop-failed", err.Error())
	case errors.As(err, &authErr):
		problems.Write(w, http.StatusBadGateway, authErr.Op+"-failed", err.Error())
	default:
		a.log.Errorw("request failed", "err", err)
		problems.Write(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
