package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/internal/metrics"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/testutil"
)

func TestJobRunsImmediatelyAndRepeats(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var runs atomic.Int32
	s.Add(Job{Name: "tick", Interval: 20 * time.Millisecond, Run: func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}})

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestRemoveAndStatus(t *testing.T) {
	s := NewScheduler()

	s.Add(Job{Name: "broken", Interval: time.Hour, Run: func(ctx context.Context) error {
		return errors.New("nope")
	}})

	require.Eventually(t, func() bool {
		jobs := s.GetStatus()["jobs"].(map[string]interface{})
		status, ok := jobs["broken"].(map[string]interface{})
		return ok && status["last_error"] == "nope"
	}, time.Second, 5*time.Millisecond)

	s.Remove("broken")
	assert.Empty(t, s.GetStatus()["jobs"])

	s.Stop()
	assert.Equal(t, false, s.GetStatus()["running"])
}

func TestExpireInvitations(t *testing.T) {
	store := testutil.NewStore(t)
	fx := testutil.NewFixtures(t, store)
	m := metrics.New(prometheus.NewRegistry())

	owner := fx.User("owner")
	project := fx.Project(owner, "Demo")
	stale := fx.Invitation(project, owner, "stale@example.com")
	fresh := fx.Invitation(project, owner, "fresh@example.com")
	answered := fx.Invitation(project, owner, "answered@example.com")

	past := time.Now().Add(-time.Hour)
	require.NoError(t, store.Model(&stale).Update("expires_at", past).Error)
	require.NoError(t, store.Model(&answered).Updates(map[string]interface{}{"expires_at": past, "status": models.InvitationAccepted}).Error)

	require.NoError(t, ExpireInvitations(store, m, time.Now)(context.Background()))

	status := func(inv models.ProjectInvitation) string {
		var got models.ProjectInvitation
		require.NoError(t, store.First(&got, "id = ?", inv.ID).Error)
		return got.Status
	}

	assert.Equal(t, models.InvitationExpired, status(stale))
	assert.Equal(t, models.InvitationPending, status(fresh))
	assert.Equal(t, models.InvitationAccepted, status(answered))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.ExpiredInvites))
}
