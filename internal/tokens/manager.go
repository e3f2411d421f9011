// Package tokens decides, per read, whether a stored access token is still
// usable or must be refreshed first.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/f8k8/spotify-house-player/internal/accounts"
	"github.com/f8k8/spotify-house-player/internal/metrics"
	"github.com/f8k8/spotify-house-player/internal/spotify"
)

var (
	ErrNotAuthenticated = errors.New("account not authenticated")
	ErrNoRefreshToken   = errors.New("account has no refresh token")
)

// DefaultBuffer is the freshness margin before literal expiry within which a
// refresh is triggered proactively. Covers clock skew and in-flight latency.
const DefaultBuffer = 5 * time.Minute

// Exchanger is the refresh-capable slice of the provider client.
type Exchanger interface {
	Refresh(ctx context.Context, refreshToken, clientID, clientSecret string) (*spotify.TokenResponse, error)
}

type Manager struct {
	log       *zap.SugaredLogger
	store     *accounts.Store
	exchanger Exchanger
	buffer    time.Duration
	now       func() time.Time
}

func NewManager(log *zap.SugaredLogger, store *accounts.Store, exchanger Exchanger, buffer time.Duration) *Manager {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Manager{log: log, store: store, exchanger: exchanger, buffer: buffer, now: time.Now}
}

// GetValidToken returns a token guaranteed to outlive the freshness buffer,
// refreshing through the provider when the stored one is stale. A failed
// refresh leaves the stored credential untouched; the stale token may still
// be valid and is not discarded on a transient provider outage.
//
// Two calls for the same account can race past the freshness check and both
// refresh; the provider tolerates redundant refreshes, last writer wins.
func (m *Manager) GetValidToken(ctx context.Context, name string) (string, error) {
	a, ok := m.store.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", accounts.ErrNotFound, name)
	}
	if !a.Authenticated {
		return "", fmt.Errorf("%w: %s", ErrNotAuthenticated, name)
	}
	if a.ExpiresAt != nil && m.now().Add(m.buffer).Before(*a.ExpiresAt) {
		return a.Token, nil
	}
	if a.RefreshToken == "" {
		return "", fmt.Errorf("%w: %s", ErrNoRefreshToken, name)
	}

	tr, err := m.exchanger.Refresh(ctx, a.RefreshToken, a.ClientID, a.ClientSecret)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		m.log.Warnw("token refresh failed", "account", name, "err", err)
		return "", err
	}

	expiresAt := m.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	if _, err := m.store.Update(name, func(acc *accounts.Account) {
		acc.Token = tr.AccessToken
		acc.ExpiresAt = &expiresAt
		if tr.RefreshToken != "" {
			acc.RefreshToken = tr.RefreshToken
		}
	}); err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.TokenRefreshes.WithLabelValues("ok").Inc()
	m.log.Infow("token refreshed", "account", name, "expiresAt", expiresAt)
	return tr.AccessToken, nil
}
