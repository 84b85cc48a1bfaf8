package activity

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for activity_router_outcomes_total.
const (
	outcomeDelivered        = "delivered"
	outcomeSkipped          = "skipped"
	outcomeAccessDenied     = "access_denied"
	outcomeAccessRevoked    = "access_revoked"
	outcomePermanentRemoved = "permanent_removed"
	outcomeTransientError   = "transient_error"
	outcomeInfraError       = "infrastructure_error"
)

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	Outcomes      *prometheus.CounterVec
	RouteDuration prometheus.Histogram
	Candidates    prometheus.Histogram
}

// NewMetrics registers the router metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "activity_router_outcomes_total",
			Help: "Per-subscription routing outcomes",
		}, []string{"outcome", "event"}),
		RouteDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "activity_router_route_duration_seconds",
			Help:    "Duration of routing one event to all of its subscriptions",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Candidates: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "activity_router_candidates",
			Help:    "Number of candidate subscriptions resolved per event",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

func (m *Metrics) outcome(outcome, eventType string) {
	if m != nil {
		m.Outcomes.WithLabelValues(outcome, eventLabel(eventType)).Inc()
	}
}

// eventLabel keeps the event label to known webhook types. The event
// header is not covered by the signature.
func eventLabel(eventType string) string {
	if _, ok := eventFeatures[eventType]; ok || eventType == "repository" {
		return eventType
	}
	return "other"
}

func (m *Metrics) observeRoute(d time.Duration, candidates int) {
	if m != nil {
		m.RouteDuration.Observe(d.Seconds())
		m.Candidates.Observe(float64(candidates))
	}
}
