package httpapi

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/f8k8/spotify-house-player/internal/accounts"
	"github.com/f8k8/spotify-house-player/internal/metrics"
)

//go:embed templates/callback.html
var templateFS embed.FS

var callbackTmpl = template.Must(template.ParseFS(templateFS, "templates/callback.html"))

type callbackPage struct {
	Account string
	Err     string
}

// oauthCallback lands the out-of-band authorization redirect. state carries
// the account name; a successful code exchange flips the account to
// authenticated and persists the token set.
func (a *App) oauthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("state")
	acc, ok := a.store.Get(name)
	if !ok {
		a.renderCallback(w, http.StatusNotFound, callbackPage{Account: name, Err: "unknown account"})
		return
	}
	if denied := q.Get("error"); denied != "" {
		metrics.CodeExchanges.WithLabelValues("denied").Inc()
		a.log.Warnw("authorization denied", "account", name, "reason", denied)
		a.renderCallback(w, http.StatusBadRequest, callbackPage{Account: name, Err: denied})
		return
	}
	code := q.Get("code")
	if code == "" {
		a.renderCallback(w, http.StatusBadRequest, callbackPage{Account: name, Err: "missing authorization code"})
		return
	}

	tr, err := a.spotify.ExchangeCode(r.Context(), code, acc.ClientID, acc.ClientSecret, acc.RedirectURI)
	if err != nil {
		metrics.CodeExchanges.WithLabelValues("error").Inc()
		a.log.Warnw("code exchange failed", "account", name, "err", err)
		a.renderCallback(w, http.StatusBadGateway, callbackPage{Account: name, Err: err.Error()})
		return
	}

	expiresAt := time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	if _, err := a.store.Update(name, func(acc *accounts.Account) {
		acc.Authenticated = true
		acc.Token = tr.AccessToken
		acc.RefreshToken = tr.RefreshToken
		acc.ExpiresAt = &expiresAt
	}); err != nil {
		a.writeErr(w, err)
		return
	}
	metrics.CodeExchanges.WithLabelValues("ok").Inc()
	a.log.Infow("account authenticated", "account", name, "expiresAt", expiresAt)
	a.renderCallback(w, http.StatusOK, callbackPage{Account: name})
}

func (a *App) renderCallback(w http.ResponseWriter, status int, page callbackPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := callbackTmpl.Execute(w, page); err != nil {
		a.log.Errorw("render callback page", "err", err)
	}
}
