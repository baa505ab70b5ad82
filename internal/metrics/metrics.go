// Package metrics holds the prometheus collectors the service exports.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taskboard"

// Deletion outcomes used as the "outcome" label.
const (
	OutcomeSuccess          = "success"
	OutcomeNotFound         = "not_found"
	OutcomePermissionDenied = "permission_denied"
	OutcomeInvariant        = "invariant_violation"
	OutcomeFailed           = "failed"
)

type Metrics struct {
	Deletions        *prometheus.CounterVec
	DeletedRows      *prometheus.CounterVec
	DeletionDuration *prometheus.HistogramVec
	ExpiredInvites   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_total",
			Help:      "Cascading deletions by root type and outcome.",
		}, []string{"root", "outcome"}),
		DeletedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_rows_total",
			Help:      "Rows removed by cascading deletions, by entity type.",
		}, []string{"entity"}),
		DeletionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "deletion_duration_seconds",
			Help:      "Wall time of cascading deletions, transaction included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"root"}),
		ExpiredInvites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_expired_total",
			Help:      "Pending invitations moved to expired by the sweeper.",
		}),
	}

	reg.MustRegister(m.Deletions, m.DeletedRows, m.DeletionDuration, m.ExpiredInvites)

	return m
}

func (m *Metrics) ObserveDeletion(root, outcome string, took time.Duration) {
	m.Deletions.WithLabelValues(root, outcome).Inc()
	m.DeletionDuration.WithLabelValues(root).Observe(took.Seconds())
}

func (m *Metrics) AddDeletedRows(entity string, n int64) {
	if n > 0 {
		m.DeletedRows.WithLabelValues(entity).Add(float64(n))
	}
}
