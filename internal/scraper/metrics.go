package scraper

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for extraction sessions.
type Metrics struct {
	Registry      *prometheus.Registry
	PostsAccepted prometheus.Counter
	NodesSkipped  *prometheus.CounterVec
	ErrorsTotal   *prometheus.CounterVec
	Pauses        *prometheus.CounterVec
	Scrolls       prometheus.Counter
	Sessions      *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	accepted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "xextract_posts_accepted_total",
			Help: "Posts accepted into a session collection.",
		},
	)
	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xextract_nodes_skipped_total",
			Help: "Post nodes skipped by reason.",
		},
		[]string{"reason"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xextract_errors_total",
			Help: "Scan pass errors by kind.",
		},
		[]string{"kind"},
	)
	pauses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xextract_pauses_total",
			Help: "Human-like pauses taken by kind.",
		},
		[]string{"kind"},
	)
	scrolls := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "xextract_scrolls_total",
			Help: "Smooth scroll actions performed.",
		},
	)
	sessions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xextract_sessions_total",
			Help: "Finished extraction sessions by terminal state.",
		},
		[]string{"state"},
	)

	registry.MustRegister(accepted, skipped, errorsTotal, pauses, scrolls, sessions)

	return &Metrics{
		Registry:      registry,
		PostsAccepted: accepted,
		NodesSkipped:  skipped,
		ErrorsTotal:   errorsTotal,
		Pauses:        pauses,
		Scrolls:       scrolls,
		Sessions:      sessions,
	}
}

// IncAccepted increments the accepted posts counter.
func (m *Metrics) IncAccepted() {
	if m == nil {
		return
	}
	m.PostsAccepted.Inc()
}

// IncSkipped increments the skipped nodes counter for a reason label.
func (m *Metrics) IncSkipped(reason string) {
	if m == nil {
		return
	}
	m.NodesSkipped.WithLabelValues(reason).Inc()
}

// IncError increments the errors counter for a kind label.
func (m *Metrics) IncError(kind string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(kind).Inc()
}

// IncPause increments the pauses counter for a kind label.
func (m *Metrics) IncPause(kind string) {
	if m == nil {
		return
	}
	m.Pauses.WithLabelValues(kind).Inc()
}

// IncScroll increments the scroll counter.
func (m *Metrics) IncScroll() {
	if m == nil {
		return
	}
	m.Scrolls.Inc()
}

// IncSession records a finished session.
func (m *Metrics) IncSession(state State) {
	if m == nil {
		return
	}
	m.Sessions.WithLabelValues(state.String()).Inc()
}
