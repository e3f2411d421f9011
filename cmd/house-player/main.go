// cmd/house-player/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/f8k8/spotify-house-player/internal/accounts"
	"github.com/f8k8/spotify-house-player/internal/httpapi"
	"github.com/f8k8/spotify-house-player/internal/notify"
	"github.com/f8k8/spotify-house-player/internal/player"
	"github.com/f8k8/spotify-house-player/internal/spotify"
	"github.com/f8k8/spotify-house-player/internal/tokens"
	"github.com/f8k8/spotify-house-player/pkg/config"
	"github.com/f8k8/spotify-house-player/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	store := accounts.NewStore(log, cfg.AccountsFile)
	hc := &http.Client{Timeout: cfg.HTTPTimeout}
	sp := spotify.NewClient(hc, cfg.AuthorizeURL, cfg.TokenURL, cfg.WebAPIURL)
	tm := tokens.NewManager(log, store, sp, cfg.TokenBuffer)

	// Misconfigured runtime path fails loudly here, not on first launch.
	controller, err := player.NewExecController(log, cfg.PlayerExec)
	if err != nil {
		log.Fatalw("player controller", "err", err)
	}
	registry := player.NewRegistry(log, store, tm, controller)
	notifier := notify.NewHomeAssistant(log, hc, cfg.HomeAssistantURL, cfg.HomeAssistantToken)

	app := httpapi.New(log, cfg, store, tm, registry, sp, notifier)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: app.Handler()}

	go func() {
		log.Infow("house-player listening", "addr", cfg.HTTPAddr, "accounts", store.Path())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	// Every live player must be stopped before the process exits.
	log.Infow("shutting down")
	registry.ShutdownAll()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnw("server shutdown", "err", err)
	}
}
