package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveDeletion(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDeletion("project", OutcomeSuccess, 20*time.Millisecond)
	m.ObserveDeletion("project", OutcomeSuccess, 10*time.Millisecond)
	m.ObserveDeletion("task", OutcomeNotFound, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Deletions.WithLabelValues("project", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deletions.WithLabelValues("task", OutcomeNotFound)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.DeletionDuration))
}

func TestAddDeletedRowsIgnoresZero(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.AddDeletedRows("task", 0)
	assert.Equal(t, 0, testutil.CollectAndCount(m.DeletedRows))

	m.AddDeletedRows("task", 3)
	m.AddDeletedRows("comment", 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DeletedRows.WithLabelValues("task")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.DeletedRows))
}
