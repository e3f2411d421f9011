package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/f8k8/spotify-house-player/internal/accounts"
	"github.com/f8k8/spotify-house-player/pkg/problems"
)

type createAccountBody struct {
	Name         string `json:"name"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectUri"`
}

// accountView is the list row: the running flag is joined in from the
// registry, it is not a stored account field.
type accountView struct {
	Name              string `json:"name"`
	Authenticated     bool   `json:"authenticated"`
	HasActiveInstance bool   `json:"hasActiveInstance"`
}

func (a *App) createAccount(w http.ResponseWriter, r *http.Request) {
	var b createAccountBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		problems.Write(w, http.StatusBadRequest, "bad-json", err.Error())
		return
	}
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" || b.ClientID == "" || b.ClientSecret == "" {
		problems.Write(w, http.StatusBadRequest, "missing-fields", "name, clientId and clientSecret are required")
		return
	}
	redirect := b.RedirectURI
	if redirect == "" {
		redirect = a.cfg.DefaultRedirectURI()
	}
	acc, err := a.store.Register(b.Name, b.ClientID, b.ClientSecret, redirect)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	a.log.Infow("account registered", "account", acc.Name)
	writeJSON(w, publicAccount(acc), http.StatusCreated)
}

func (a *App) listAccounts(w http.ResponseWriter, r *http.Request) {
	sums := a.store.List()
	out := make([]accountView, 0, len(sums))
	for _, s := range sums {
		out = append(out, accountView{
			Name:              s.Name,
			Authenticated:     s.Authenticated,
			HasActiveInstance: a.registry.Running(s.Name),
		})
	}
	writeJSON(w, map[string]any{"accounts": out}, http.StatusOK)
}

func (a *App) getAccount(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	acc, ok := a.store.Get(name)
	if !ok {
		problems.Write(w, http.StatusNotFound, "account-not-found", name)
		return
	}
	writeJSON(w, publicAccount(acc), http.StatusOK)
}

func (a *App) getAccountToken(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	token, err := a.tokens.GetValidToken(r.Context(), name)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, map[string]string{"token": token}, http.StatusOK)
}

// authorizeRedirect sends the operator's browser to the provider consent
// page. The account name travels in the state parameter and comes back on
// the callback.
func (a *App) authorizeRedirect(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	acc, ok := a.store.Get(name)
	if !ok {
		problems.Write(w, http.StatusNotFound, "account-not-found", name)
		return
	}
	http.Redirect(w, r, a.spotify.AuthorizeURL(acc.ClientID, acc.RedirectURI, acc.Name), http.StatusFound)
}

// publicAccount strips the secret material from API responses. The snapshot
// file keeps it; the API never echoes it.
func publicAccount(acc *accounts.Account) map[string]any {
	out := map[string]any{
		"name":          acc.Name,
		"clientId":      acc.ClientID,
		"redirectUri":   acc.RedirectURI,
		"authenticated": acc.Authenticated,
	}
	if acc.ExpiresAt != nil {
		out["expiresAt"] = acc.ExpiresAt
	}
	return out
}
