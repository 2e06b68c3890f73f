package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity resolution module.
type Metrics struct {
	// Submissions by terminal outcome
	SubmissionsTotal *prometheus.CounterVec

	// End-to-end identify latency
	ResolveLatency prometheus.Histogram

	// Contact rows created (primaries and secondaries)
	ContactsCreated prometheus.Counter
}

// New creates a Metrics instance with all identity metrics registered.
func New() *Metrics {
	return &Metrics{
		SubmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coalesce_identity_submissions_total",
			Help: "Total identify submissions by outcome",
		}, []string{"outcome"}), // outcome: "created", "linked", "merged", "noop"

		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "coalesce_identity_resolve_duration_seconds",
			Help:    "Duration of full identity resolution including storage access",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		ContactsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coalesce_identity_contacts_created_total",
			Help: "Total contact rows created by the resolution engine",
		}),
	}
}

// IncrementSubmission records a submission outcome.
func (m *Metrics) IncrementSubmission(outcome string) {
	if m != nil && m.SubmissionsTotal != nil {
		m.SubmissionsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveResolveLatency records the duration of one resolution.
func (m *Metrics) ObserveResolveLatency(d time.Duration) {
	if m != nil && m.ResolveLatency != nil {
		m.ResolveLatency.Observe(d.Seconds())
	}
}

// IncrementContactsCreated records one created contact row.
func (m *Metrics) IncrementContactsCreated() {
	if m != nil && m.ContactsCreated != nil {
		m.ContactsCreated.Inc()
	}
}
