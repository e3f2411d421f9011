package accounts

import "time"

// Account is a named Spotify OAuth credential profile. Name is the operator
// chosen key and never changes once created. Token fields are empty until the
// first successful code exchange.
type Account struct {
	Name          string     `json:"name"`
	ClientID      string     `json:"clientId"`
	ClientSecret  string     `json:"clientSecret"`
	RedirectURI   string     `json:"redirectUri"`
	Authenticated bool       `json:"authenticated"`
	Token         string     `json:"token,omitempty"`
	RefreshToken  string     `json:"refreshToken,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// Summary is the list projection. Whether a player instance is running for
// the account is joined in by the HTTP layer, not stored here.
type Summary struct {
	Name          string `json:"name"`
	Authenticated bool   `json:"authenticated"`
}
