package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks doctor lifecycle operations.
type Metrics struct {
	DoctorsCreated     prometheus.Counter
	DoctorsSuspended   prometheus.Counter
	DoctorsUnsuspended prometheus.Counter
	DoctorsDeleted     prometheus.Counter
	StrikeDeletions    prometheus.Counter
	SuspensionsRevoked prometheus.Counter
	LifecycleDuration  *prometheus.HistogramVec
}

// New registers doctor metrics on the given registerer. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry so
// parallel suites don't collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DoctorsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "doctor_created_total",
			Help: "Number of doctors created or approved from candidates.",
		}),
		DoctorsSuspended: factory.NewCounter(prometheus.CounterOpts{
			Name: "doctor_suspended_total",
			Help: "Number of suspensions applied.",
		}),
		DoctorsUnsuspended: factory.NewCounter(prometheus.CounterOpts{
			Name: "doctor_unsuspended_total",
			Help: "Number of suspensions lifted.",
		}),
		DoctorsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "doctor_deleted_total",
			Help: "Number of doctors removed, explicit and strike-limit.",
		}),
		StrikeDeletions: factory.NewCounter(prometheus.CounterOpts{
			Name: "doctor_strike_deletion_total",
			Help: "Number of deletions triggered by the suspension strike limit.",
		}),
		SuspensionsRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "doctor_suspension_revoked_total",
			Help: "Number of suspension ledger records revoked.",
		}),
		LifecycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "doctor_lifecycle_duration_seconds",
			Help:    "Latency of doctor lifecycle operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}
