// Package metrics exposes Prometheus instrumentation for the playground
// backend: realtime session counts, frame throughput and the outcome of
// calls into external collaborators.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionsActive tracks the number of open realtime sessions.
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playground_ws_sessions_active",
		Help: "Current number of open realtime sessions",
	})

	// FramesTotal counts frames by direction ("in", "out") and kind.
	FramesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "playground_ws_frames_total",
		Help: "Total number of websocket frames handled",
	}, []string{"direction", "kind"})

	// PayloadsDropped counts text frames ignored because they carried no
	// usable chat_message.
	PayloadsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playground_ws_payloads_dropped_total",
		Help: "Text frames ignored because they could not be decoded",
	})

	// CounterIncrements counts hits on the shared counter demo.
	CounterIncrements = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playground_counter_increments_total",
		Help: "Total number of shared counter increments",
	})

	// LoginAttempts counts token exchanges by result: "ok", "invalid", "error".
	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "playground_login_attempts_total",
		Help: "Login attempts against the identity provider",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		SessionsActive,
		FramesTotal,
		PayloadsDropped,
		CounterIncrements,
		LoginAttempts,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
