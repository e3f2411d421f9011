// Package metrics registers the process-wide Prometheus collectors, exposed
// via /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CodeExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "house_player_code_exchanges_total",
		Help: "Authorization code exchanges by outcome.",
	}, []string{"outcome"})

	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "house_player_token_refreshes_total",
		Help: "Refresh token exchanges by outcome.",
	}, []string{"outcome"})

	Launches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "house_player_launches_total",
		Help: "Player launch attempts by outcome.",
	}, []string{"outcome"})

	Stops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "house_player_stops_total",
		Help: "Player stop attempts by outcome.",
	}, []string{"outcome"})

	RunningPlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "house_player_running_players",
		Help: "Player instances currently registered as running.",
	})

	NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "house_player_notify_failures_total",
		Help: "Home Assistant notifications that failed to deliver.",
	})
)
