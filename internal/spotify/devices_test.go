package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/me/player/devices", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"devices": [
				{"id": "dev-1", "is_active": true, "name": "Kitchen Speaker", "type": "Speaker", "volume_percent": 70, "supports_volume": true},
				{"id": "dev-2", "is_active": false, "name": "Lounge TV", "type": "TV", "volume_percent": 30}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, srv.URL, srv.URL)
	devices, err := c.Devices(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, Device{ID: "dev-1", Name: "Kitchen Speaker", Type: "Speaker", Active: true, VolumePercent: 70}, devices[0])
	assert.Equal(t, "Lounge TV", devices[1].Name)
	assert.False(t, devices[1].Active)
}

func TestDevices_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, srv.URL, srv.URL)
	_, err := c.Devices(context.Background(), "tok-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestDevices_EmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, srv.URL, srv.URL)
	devices, err := c.Devices(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Empty(t, devices)
}
