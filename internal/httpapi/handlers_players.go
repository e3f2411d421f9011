package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/f8k8/spotify-house-player/pkg/problems"
)

type launchBody struct {
	AudioDestination string `json:"audioDestination"`
	DisplayName      string `json:"displayName"`
}

func (a *App) launchPlayer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var b launchBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil && err != io.EOF {
		problems.Write(w, http.StatusBadRequest, "bad-json", err.Error())
		return
	}
	if defaults, ok := a.cfg.Players[name]; ok {
		if b.AudioDestination == "" {
			b.AudioDestination = defaults.AudioDestination
		}
		if b.DisplayName == "" {
			b.DisplayName = defaults.DisplayName
		}
	}
	info, err := a.registry.Launch(r.Context(), name, b.AudioDestination, b.DisplayName)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, info, http.StatusCreated)
}

func (a *App) stopPlayer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := a.registry.Stop(name); err != nil {
		a.writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true}, http.StatusOK)
}

func (a *App) listPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"players": a.registry.List()}, http.StatusOK)
}

// listDevices surfaces the Connect devices the account's token can see.
// Useful for picking an audio destination before launching.
func (a *App) listDevices(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	token, err := a.tokens.GetValidToken(r.Context(), name)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	devices, err := a.spotify.Devices(r.Context(), token)
	if err != nil {
		problems.Write(w, http.StatusBadGateway, "devices-failed", err.Error())
		return
	}
	writeJSON(w, map[string]any{"devices": devices}, http.StatusOK)
}

// playbackStarted and playbackStopped are inbound events from the player
// runtime. Beyond locating the instance they are not validated; the notifier
// is fire-and-forget and its failures never touch registry state.

func (a *App) playbackStarted(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !a.registry.Running(name) {
		problems.Write(w, http.StatusNotFound, "not-running", name)
		return
	}
	a.notifier.Started(a.sourceID(name))
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) playbackStopped(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !a.registry.Running(name) {
		problems.Write(w, http.StatusNotFound, "not-running", name)
		return
	}
	a.notifier.Stopped(a.entityID(name))
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) sourceID(name string) string {
	if d, ok := a.cfg.Players[name]; ok && d.SourceID != "" {
		return d.SourceID
	}
	return name
}

func (a *App) entityID(name string) string {
	if d, ok := a.cfg.Players[name]; ok && d.EntityID != "" {
		return d.EntityID
	}
	return name
}
