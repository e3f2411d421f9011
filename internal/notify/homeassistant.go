// Package notify relays playback state changes to Home Assistant. Delivery
// is fire-and-forget: a failure is counted and logged, never surfaced to the
// caller, and never touches account or instance state.
package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/f8k8/spotify-house-player/internal/metrics"
)

type HomeAssistant struct {
	log     *zap.SugaredLogger
	http    *http.Client
	baseURL string
	token   string
}

// NewHomeAssistant builds the sink. An empty baseURL disables it; Started
// and Stopped become no-ops.
func NewHomeAssistant(log *zap.SugaredLogger, hc *http.Client, baseURL, token string) *HomeAssistant {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HomeAssistant{log: log, http: hc, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

// Started reports that playback began on the given source.
func (h *HomeAssistant) Started(sourceID string) {
	h.fire("house_player_playback_started", map[string]string{"source_id": sourceID})
}

// Stopped reports that playback ended on the given entity.
func (h *HomeAssistant) Stopped(entityID string) {
	h.fire("house_player_playback_stopped", map[string]string{"entity_id": entityID})
}

func (h *HomeAssistant) fire(event string, payload map[string]string) {
	if h.baseURL == "" {
		return
	}
	go func() {
		body, _ := json.Marshal(payload)
		req, err := http.NewRequest(http.MethodPost, h.baseURL+"/api/events/"+event, bytes.NewReader(body))
		if err != nil {
			h.deliveryFailed(event, err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if h.token != "" {
			req.Header.Set("Authorization", "Bearer "+h.token)
		}
		resp, err := h.http.Do(req)
		if err != nil {
			h.deliveryFailed(event, err)
			return
		}
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			h.log.Warnw("home assistant rejected event", "event", event, "status", resp.StatusCode)
			metrics.NotifyFailures.Inc()
		}
	}()
}

func (h *HomeAssistant) deliveryFailed(event string, err error) {
	h.log.Warnw("home assistant notification failed", "event", event, "err", err)
	metrics.NotifyFailures.Inc()
}
