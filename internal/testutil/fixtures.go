package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/internal/models"
	"gorm.io/gorm"
)

// Fixtures inserts rows with sensible defaults and fails the test on error.
type Fixtures struct {
	t  testing.TB
	db *gorm.DB
	n  int
}

func NewFixtures(t testing.TB, conn *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: conn}
}

func (f *Fixtures) create(value interface{}) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(value).Error)
}

func (f *Fixtures) seq() int {
	f.n++
	return f.n
}

func (f *Fixtures) User(username string) models.User {
	f.t.Helper()

	user := models.User{Username: username, Email: username + "@example.com", Name: username}
	f.create(&user)
	return user
}

// Project creates a project owned by owner, with the owner as admin member.
func (f *Fixtures) Project(owner models.User, name string) models.Project {
	f.t.Helper()

	project := models.Project{
		Name:     name,
		OwnerID:  owner.ID,
		Status:   models.ProjectStatusActive,
		Priority: models.PriorityMedium,
	}
	f.create(&project)
	f.Member(project, owner, models.RoleAdmin)
	return project
}

func (f *Fixtures) Member(project models.Project, user models.User, role string) models.ProjectMembership {
	f.t.Helper()

	membership := models.ProjectMembership{ProjectID: project.ID, UserID: user.ID, Role: role, IsActive: true}
	f.create(&membership)
	return membership
}

func (f *Fixtures) Invitation(project models.Project, inviter models.User, email string) models.ProjectInvitation {
	f.t.Helper()

	invitation := models.ProjectInvitation{
		ProjectID:   project.ID,
		InvitedByID: inviter.ID,
		Email:       email,
		Role:        models.RoleMember,
		Status:      models.InvitationPending,
		Token:       uuid.NewString(),
		ExpiresAt:   time.Now().Add(7 * 24 * time.Hour),
	}
	f.create(&invitation)
	return invitation
}

// Task creates a task in project; parent may be nil.
func (f *Fixtures) Task(project models.Project, creator models.User, title string, parent *models.Task) models.Task {
	f.t.Helper()

	task := models.Task{
		ProjectID:   project.ID,
		Title:       title,
		Status:      models.TaskStatusTodo,
		Priority:    models.PriorityMedium,
		CreatedByID: creator.ID,
		Position:    f.seq(),
	}
	if parent != nil {
		task.ParentTaskID = &parent.ID
	}
	f.create(&task)
	return task
}

func (f *Fixtures) Comment(task models.Task, author models.User, content string, parent *models.TaskComment) models.TaskComment {
	f.t.Helper()

	comment := models.TaskComment{TaskID: task.ID, AuthorID: author.ID, Content: content}
	if parent != nil {
		comment.ParentCommentID = &parent.ID
	}
	f.create(&comment)
	return comment
}

func (f *Fixtures) Attachment(task models.Task, uploader models.User) models.TaskAttachment {
	f.t.Helper()

	n := f.seq()
	attachment := models.TaskAttachment{
		TaskID:       task.ID,
		UploadedByID: uploader.ID,
		FileRef:      fmt.Sprintf("attachments/%d", n),
		OriginalName: fmt.Sprintf("file-%d.txt", n),
		FileSize:     int64(n * 100),
	}
	f.create(&attachment)
	return attachment
}

func (f *Fixtures) Activity(task models.Task, user models.User, activityType string) models.TaskActivity {
	f.t.Helper()

	activity := models.TaskActivity{TaskID: task.ID, UserID: user.ID, ActivityType: activityType}
	f.create(&activity)
	return activity
}

// Notification creates a notification for recipient about project and/or
// task, either of which may be nil.
func (f *Fixtures) Notification(recipient models.User, project *models.Project, task *models.Task) models.Notification {
	f.t.Helper()

	notification := models.Notification{
		RecipientID:      recipient.ID,
		Title:            "heads up",
		Message:          "something happened",
		NotificationType: models.NotificationSystem,
	}
	if project != nil {
		notification.ProjectID = &project.ID
	}
	if task != nil {
		notification.TaskID = &task.ID
	}
	f.create(&notification)
	return notification
}

func (f *Fixtures) Tag(name string) models.Tag {
	f.t.Helper()

	tag := models.Tag{Name: name, Color: "#336699"}
	f.create(&tag)
	return tag
}

func (f *Fixtures) Assign(task models.Task, users ...models.User) {
	f.t.Helper()

	for _, user := range users {
		err := f.db.Table("task_assignees").Create(map[string]interface{}{"task_id": task.ID, "user_id": user.ID}).Error
		require.NoError(f.t, err)
	}
}

func (f *Fixtures) TagTask(task models.Task, tags ...models.Tag) {
	f.t.Helper()

	for _, tag := range tags {
		err := f.db.Table("task_tags").Create(map[string]interface{}{"task_id": task.ID, "tag_id": tag.ID}).Error
		require.NoError(f.t, err)
	}
}

// SetParent rewrites a task's parent directly, bypassing handler checks,
// so tests can build chains the API would refuse.
func (f *Fixtures) SetParent(task models.Task, parent models.Task) {
	f.t.Helper()

	require.NoError(f.t, f.db.Model(&models.Task{}).Where("id = ?", task.ID).Update("parent_task_id", parent.ID).Error)
}
