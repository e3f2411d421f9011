package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	jmes "github.com/jmespath/go-jmespath"
)

// Device is a Spotify Connect playback target visible to an account.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Active        bool   `json:"active"`
	VolumePercent int    `json:"volumePercent"`
}

// Devices lists the Connect devices visible to the bearer token. Field
// extraction goes through jmespath so provider payload drift (extra or
// reordered fields) never breaks decoding.
func (c *Client) Devices(ctx context.Context, token string) ([]Device, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/v1/me/player/devices", nil)
	if err != nil {
		return nil, fmt.Errorf("build devices request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("devices request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("devices request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("malformed devices response: %w", err)
	}
	items, err := jmes.Search("devices", doc)
	if err != nil {
		return nil, fmt.Errorf("devices path: %w", err)
	}
	list, ok := items.([]any)
	if !ok {
		return nil, nil
	}
	out := make([]Device, 0, len(list))
	for _, item := range list {
		out = append(out, Device{
			ID:            jmesString(item, "id"),
			Name:          jmesString(item, "name"),
			Type:          jmesString(item, "type"),
			Active:        jmesBool(item, "is_active"),
			VolumePercent: jmesInt(item, "volume_percent"),
		})
	}
	return out, nil
}

func jmesString(doc any, path string) string {
	if v, err := jmes.Search(path, doc); err == nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func jmesBool(doc any, path string) bool {
	if v, err := jmes.Search(path, doc); err == nil {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func jmesInt(doc any, path string) int {
	if v, err := jmes.Search(path, doc); err == nil {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return 0
}
