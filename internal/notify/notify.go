// Package notify records in-app notifications and task activity for
// mutations, and pushes board refreshes once the change is committed.
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskboard-dev/taskboard/internal/models"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Broadcaster pushes a refresh to everyone watching a project board.
type Broadcaster interface {
	BroadcastRefresh(projectID uuid.UUID)
}

type Dispatcher struct {
	hub Broadcaster
}

func NewDispatcher(hub Broadcaster) *Dispatcher {
	return &Dispatcher{hub: hub}
}

func displayName(u models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

func extra(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// Create stores n in tx unless it would notify the sender about their own
// action or the recipient switched that kind of notification off.
func (d *Dispatcher) Create(tx *gorm.DB, n models.Notification) error {
	if n.SenderID != nil && *n.SenderID == n.RecipientID {
		return nil
	}

	pref, err := Preference(tx, n.RecipientID)
	if err != nil {
		return err
	}
	if !pref.Allows(n.NotificationType) {
		return nil
	}

	if err := tx.Create(&n).Error; err != nil {
		return fmt.Errorf("create %s notification: %w", n.NotificationType, err)
	}

	return nil
}

// Preference returns the user's stored switches, or the defaults when the
// user never changed them.
func Preference(tx *gorm.DB, userID uuid.UUID) (models.NotificationPreference, error) {
	var prefs []models.NotificationPreference
	if err := tx.Where("user_id = ?", userID).Limit(1).Find(&prefs).Error; err != nil {
		return models.NotificationPreference{}, fmt.Errorf("load notification preference: %w", err)
	}

	if len(prefs) == 0 {
		return models.DefaultNotificationPreference(userID), nil
	}

	return prefs[0], nil
}

func (d *Dispatcher) ProjectInvitation(tx *gorm.DB, recipient models.User, project models.Project, sender models.User) error {
	return d.Create(tx, models.Notification{
		RecipientID:      recipient.ID,
		SenderID:         &sender.ID,
		Title:            fmt.Sprintf("Invited to %s", project.Name),
		Message:          fmt.Sprintf("You have been invited to join the project '%s' by %s.", project.Name, displayName(sender)),
		NotificationType: models.NotificationProjectInvitation,
		ProjectID:        &project.ID,
	})
}

func (d *Dispatcher) TaskAssigned(tx *gorm.DB, recipient models.User, task models.Task, project models.Project, sender models.User) error {
	return d.Create(tx, models.Notification{
		RecipientID:      recipient.ID,
		SenderID:         &sender.ID,
		Title:            fmt.Sprintf("New Task Assigned: %s", task.Title),
		Message:          fmt.Sprintf("You have been assigned to task '%s' in project '%s'.", task.Title, project.Name),
		NotificationType: models.NotificationTaskAssigned,
		ProjectID:        &project.ID,
		TaskID:           &task.ID,
	})
}

// TaskUpdated tells every recipient which fields changed.
func (d *Dispatcher) TaskUpdated(tx *gorm.DB, recipients []models.User, task models.Task, sender models.User, changes map[string]string) error {
	for _, recipient := range recipients {
		err := d.Create(tx, models.Notification{
			RecipientID:      recipient.ID,
			SenderID:         &sender.ID,
			Title:            fmt.Sprintf("Task Updated: %s", task.Title),
			Message:          fmt.Sprintf("Task '%s' has been updated by %s.", task.Title, displayName(sender)),
			NotificationType: models.NotificationTaskUpdated,
			ProjectID:        &task.ProjectID,
			TaskID:           &task.ID,
			ExtraData:        extra(map[string]interface{}{"changes": changes}),
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (d *Dispatcher) TaskCompleted(tx *gorm.DB, recipients []models.User, task models.Task, sender models.User) error {
	for _, recipient := range recipients {
		err := d.Create(tx, models.Notification{
			RecipientID:      recipient.ID,
			SenderID:         &sender.ID,
			Title:            fmt.Sprintf("Task Completed: %s", task.Title),
			Message:          fmt.Sprintf("Task '%s' has been marked as completed by %s.", task.Title, displayName(sender)),
			NotificationType: models.NotificationTaskCompleted,
			ProjectID:        &task.ProjectID,
			TaskID:           &task.ID,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (d *Dispatcher) CommentAdded(tx *gorm.DB, recipients []models.User, task models.Task, sender models.User, comment models.TaskComment) error {
	for _, recipient := range recipients {
		err := d.Create(tx, models.Notification{
			RecipientID:      recipient.ID,
			SenderID:         &sender.ID,
			Title:            fmt.Sprintf("New Comment on %s", task.Title),
			Message:          fmt.Sprintf("%s commented on task '%s'.", displayName(sender), task.Title),
			NotificationType: models.NotificationCommentAdded,
			ProjectID:        &task.ProjectID,
			TaskID:           &task.ID,
			CommentID:        &comment.ID,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (d *Dispatcher) MemberAdded(tx *gorm.DB, recipient models.User, project models.Project, sender models.User) error {
	return d.Create(tx, models.Notification{
		RecipientID:      recipient.ID,
		SenderID:         &sender.ID,
		Title:            fmt.Sprintf("Welcome to %s", project.Name),
		Message:          fmt.Sprintf("%s added you to the project '%s'.", displayName(sender), project.Name),
		NotificationType: models.NotificationMemberAdded,
		ProjectID:        &project.ID,
	})
}

// MemberRemoved does not point at the project: the recipient can no longer open it.
func (d *Dispatcher) MemberRemoved(tx *gorm.DB, recipient models.User, project models.Project, sender models.User) error {
	return d.Create(tx, models.Notification{
		RecipientID:      recipient.ID,
		SenderID:         &sender.ID,
		Title:            fmt.Sprintf("Removed from %s", project.Name),
		Message:          fmt.Sprintf("%s removed you from the project '%s'.", displayName(sender), project.Name),
		NotificationType: models.NotificationMemberRemoved,
	})
}

// Record appends an entry to the task's activity log.
func (d *Dispatcher) Record(tx *gorm.DB, task models.Task, user models.User, activityType, description, oldValue, newValue string) error {
	activity := models.TaskActivity{
		TaskID:       task.ID,
		UserID:       user.ID,
		ActivityType: activityType,
		Description:  description,
		OldValue:     oldValue,
		NewValue:     newValue,
	}

	if err := tx.Create(&activity).Error; err != nil {
		return fmt.Errorf("record %s activity: %w", activityType, err)
	}

	return nil
}

// Refresh must only be called after the surrounding transaction committed.
func (d *Dispatcher) Refresh(projectID uuid.UUID) {
	if d.hub == nil {
		return
	}

	zap.L().Debug("board refresh", zap.String("project_id", projectID.String()))
	d.hub.BroadcastRefresh(projectID)
}
