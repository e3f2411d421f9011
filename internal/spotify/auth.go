// Package spotify is a stateless client for the Spotify account service and
// Web API. It holds no tokens; callers supply credentials per call.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Scopes is the fixed scope set required for Connect playback control. It is
// a contract with the provider, not negotiable per account.
const Scopes = "streaming user-read-email user-read-private user-read-playback-state user-modify-playback-state"

const defaultExpiresIn = 3600

type Client struct {
	http         *http.Client
	authorizeURL string
	tokenURL     string
	apiURL       string
}

func NewClient(hc *http.Client, authorizeURL, tokenURL, apiURL string) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		http:         hc,
		authorizeURL: authorizeURL,
		tokenURL:     strings.TrimRight(tokenURL, "/"),
		apiURL:       strings.TrimRight(apiURL, "/"),
	}
}

// TokenResponse is a validated provider token payload. RefreshToken is empty
// when the provider omitted one (common on refresh).
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// AuthError is a failed exchange or refresh. Detail carries the provider
// response body verbatim.
type AuthError struct {
	Op     string // "exchange" or "refresh"
	Status int
	Detail string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("spotify %s failed (status %d): %s", e.Op, e.Status, e.Detail)
}

// AuthorizeURL builds the user-facing authorization redirect. state carries
// the account name so the callback can correlate without sessions.
func (c *Client) AuthorizeURL(clientID, redirectURI, state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", clientID)
	q.Set("scope", Scopes)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return c.authorizeURL + "?" + q.Encode()
}

// ExchangeCode converts a one-time authorization code into a token pair.
// Single POST, no retry; any non-2xx maps to AuthError.
func (c *Client) ExchangeCode(ctx context.Context, code, clientID, clientSecret, redirectURI string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	return c.tokenRequest(ctx, "exchange", form, clientID, clientSecret)
}

// Refresh exchanges a refresh token for a new access token. The provider may
// omit a replacement refresh token; callers keep the old one then.
func (c *Client) Refresh(ctx context.Context, refreshToken, clientID, clientSecret string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.tokenRequest(ctx, "refresh", form, clientID, clientSecret)
}

func (c *Client) tokenRequest(ctx context.Context, op string, form url.Values, clientID, clientSecret string) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(clientID, clientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &AuthError{Op: op, Detail: err.Error()}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &AuthError{Op: op, Status: resp.StatusCode, Detail: strings.TrimSpace(string(body))}
	}
	tr, err := parseTokenResponse(body)
	if err != nil {
		return nil, &AuthError{Op: op, Status: resp.StatusCode, Detail: err.Error()}
	}
	return tr, nil
}

// parseTokenResponse validates the payload shape before anything is
// persisted. The access token must be a non-empty string; a missing or
// non-numeric expires_in falls back to one hour.
func parseTokenResponse(body []byte) (*TokenResponse, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("malformed token response: %w", err)
	}
	access, ok := raw["access_token"].(string)
	if !ok || access == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	tr := &TokenResponse{AccessToken: access, ExpiresIn: defaultExpiresIn}
	if n, ok := raw["expires_in"].(float64); ok && n > 0 {
		tr.ExpiresIn = int(n)
	}
	if rt, ok := raw["refresh_token"].(string); ok {
		tr.RefreshToken = rt
	}
	return tr, nil
}
