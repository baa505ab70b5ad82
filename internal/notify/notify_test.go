package notify

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/testutil"
)

type mockHub struct {
	mock.Mock
}

func (m *mockHub) BroadcastRefresh(projectID uuid.UUID) {
	m.Called(projectID)
}

func TestTaskUpdatedSkipsSender(t *testing.T) {
	store := testutil.NewStore(t)
	fx := testutil.NewFixtures(t, store)
	d := NewDispatcher(nil)

	owner := fx.User("owner")
	assignee := fx.User("assignee")
	project := fx.Project(owner, "Demo")
	task := fx.Task(project, owner, "A", nil)

	err := d.TaskUpdated(store, []models.User{owner, assignee}, task, owner, map[string]string{"status": "review"})
	require.NoError(t, err)

	var notifications []models.Notification
	require.NoError(t, store.Find(&notifications).Error)
	require.Len(t, notifications, 1)

	n := notifications[0]
	assert.Equal(t, assignee.ID, n.RecipientID)
	assert.Equal(t, models.NotificationTaskUpdated, n.NotificationType)
	assert.Equal(t, "Task Updated: A", n.Title)
	require.NotNil(t, n.TaskID)
	assert.Equal(t, task.ID, *n.TaskID)

	var data map[string]map[string]string
	require.NoError(t, json.Unmarshal(n.ExtraData, &data))
	assert.Equal(t, "review", data["changes"]["status"])
}

func TestMemberRemovedHasNoProjectReference(t *testing.T) {
	store := testutil.NewStore(t)
	fx := testutil.NewFixtures(t, store)
	d := NewDispatcher(nil)

	owner := fx.User("owner")
	member := fx.User("member")
	project := fx.Project(owner, "Demo")

	require.NoError(t, d.MemberRemoved(store, member, project, owner))

	var n models.Notification
	require.NoError(t, store.Where("recipient_id = ?", member.ID).Take(&n).Error)
	assert.Nil(t, n.ProjectID)
	assert.Equal(t, "Removed from Demo", n.Title)
}

func TestRecord(t *testing.T) {
	store := testutil.NewStore(t)
	fx := testutil.NewFixtures(t, store)
	d := NewDispatcher(nil)

	owner := fx.User("owner")
	project := fx.Project(owner, "Demo")
	task := fx.Task(project, owner, "A", nil)

	require.NoError(t, d.Record(store, task, owner, models.ActivityStatusChanged, "moved", "todo", "review"))
	assert.Equal(t, int64(1), testutil.Count(t, store, "task_activities", "task_id", task.ID))
}

func TestRefresh(t *testing.T) {
	hub := new(mockHub)
	projectID := uuid.New()
	hub.On("BroadcastRefresh", projectID).Once()

	NewDispatcher(hub).Refresh(projectID)
	NewDispatcher(nil).Refresh(projectID)

	hub.AssertExpectations(t)
}

func TestCreateHonoursPreferences(t *testing.T) {
	store := testutil.NewStore(t)
	fx := testutil.NewFixtures(t, store)
	d := NewDispatcher(nil)

	owner := fx.User("owner")
	member := fx.User("member")
	project := fx.Project(owner, "Demo")
	task := fx.Task(project, owner, "A", nil)
	comment := fx.Comment(task, owner, "hello", nil)

	pref := models.DefaultNotificationPreference(member.ID)
	pref.Comments = false
	require.NoError(t, store.Create(&pref).Error)

	require.NoError(t, d.CommentAdded(store, []models.User{member}, task, owner, comment))
	require.NoError(t, d.TaskAssigned(store, member, task, project, owner))
	require.NoError(t, d.MemberAdded(store, member, project, owner))

	var kinds []string
	require.NoError(t, store.Model(&models.Notification{}).Where("recipient_id = ?", member.ID).Order("notification_type").Pluck("notification_type", &kinds).Error)
	assert.Equal(t, []string{models.NotificationMemberAdded, models.NotificationTaskAssigned}, kinds)

	got, err := Preference(store, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultNotificationPreference(owner.ID), got)
}

func TestCommentAddedReferencesComment(t *testing.T) {
	store := testutil.NewStore(t)
	fx := testutil.NewFixtures(t, store)
	d := NewDispatcher(nil)

	owner := fx.User("owner")
	member := fx.User("member")
	project := fx.Project(owner, "Demo")
	task := fx.Task(project, owner, "A", nil)
	comment := fx.Comment(task, owner, "hello", nil)

	require.NoError(t, d.CommentAdded(store, []models.User{owner, member}, task, owner, comment))

	var notifications []models.Notification
	require.NoError(t, store.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	require.NotNil(t, notifications[0].CommentID)
	assert.Equal(t, comment.ID, *notifications[0].CommentID)
}
