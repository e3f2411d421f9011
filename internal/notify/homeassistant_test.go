package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f8k8/spotify-house-player/pkg/logger"
)

type capturedEvent struct {
	path    string
	auth    string
	payload map[string]string
}

func TestHomeAssistant_Started(t *testing.T) {
	events := make(chan capturedEvent, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		_ = json.Unmarshal(body, &payload)
		events <- capturedEvent{path: r.URL.Path, auth: r.Header.Get("Authorization"), payload: payload}
	}))
	defer srv.Close()

	h := NewHomeAssistant(logger.Nop(), srv.Client(), srv.URL, "ha-token")
	h.Started("media_player.kitchen")

	select {
	case ev := <-events:
		assert.Equal(t, "/api/events/house_player_playback_started", ev.path)
		assert.Equal(t, "Bearer ha-token", ev.auth)
		assert.Equal(t, "media_player.kitchen", ev.payload["source_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestHomeAssistant_Stopped(t *testing.T) {
	events := make(chan capturedEvent, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		_ = json.Unmarshal(body, &payload)
		events <- capturedEvent{path: r.URL.Path, payload: payload}
	}))
	defer srv.Close()

	h := NewHomeAssistant(logger.Nop(), srv.Client(), srv.URL, "")
	h.Stopped("media_player.lounge")

	select {
	case ev := <-events:
		assert.Equal(t, "/api/events/house_player_playback_stopped", ev.path)
		assert.Equal(t, "media_player.lounge", ev.payload["entity_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestHomeAssistant_DisabledWhenUnconfigured(t *testing.T) {
	h := NewHomeAssistant(logger.Nop(), nil, "", "")
	// Must be a no-op, not a panic or a dial attempt.
	h.Started("media_player.kitchen")
	h.Stopped("media_player.kitchen")
}

func TestHomeAssistant_DeliveryFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	h := NewHomeAssistant(logger.Nop(), srv.Client(), srv.URL, "bad-token")
	require.NotPanics(t, func() {
		h.Started("media_player.kitchen")
		time.Sleep(100 * time.Millisecond)
	})
}
