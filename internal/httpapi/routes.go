// internal/httpapi/routes.go
package httpapi

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/f8k8/spotify-house-player/pkg/middleware"
)

//go:embed static
var staticFS embed.FS

// Handler builds the HTTP handler with routes and middleware.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(a.log))
	r.Use(middleware.Tracing())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/accounts", func(ar chi.Router) {
		ar.Post("/", a.createAccount)
		ar.Get("/", a.listAccounts)
		ar.Get("/{name}", a.getAccount)
		ar.Get("/{name}/token", a.getAccountToken)
		ar.Get("/{name}/authorize", a.authorizeRedirect)
	})

	r.Get("/oauth-callback", a.oauthCallback)

	r.Route("/players", func(pr chi.Router) {
		pr.Get("/", a.listPlayers)
		pr.Post("/{name}/launch", a.launchPlayer)
		pr.Delete("/{name}", a.stopPlayer)
		pr.Get("/{name}/devices", a.listDevices)
		pr.Post("/{name}/playback-started", a.playbackStarted)
		pr.Post("/{name}/playback-stopped", a.playbackStopped)
	})

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/*", http.FileServer(http.FS(static)))

	return r
}
