package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	NotificationProjectInvitation = "project_invitation"
	NotificationTaskAssigned      = "task_assigned"
	NotificationTaskUpdated       = "task_updated"
	NotificationTaskCompleted     = "task_completed"
	NotificationCommentAdded      = "comment_added"
	NotificationProjectUpdated    = "project_updated"
	NotificationMemberAdded       = "member_added"
	NotificationMemberRemoved     = "member_removed"
	NotificationSystem            = "system"
)

// Notification points at its project, task and comment for display only.
// Those references never keep the subject alive: the cascade engine removes
// the notification together with whatever it talks about.
type Notification struct {
	BaseModel

	RecipientID      uuid.UUID      `gorm:"type:char(36);not null;index:idx_notification_recipient_read"`
	SenderID         *uuid.UUID     `gorm:"type:char(36);index"`
	Title            string         `gorm:"not null;size:200"`
	Message          string         `gorm:"not null"`
	NotificationType string         `gorm:"not null;size:30;index"`
	ProjectID        *uuid.UUID     `gorm:"type:char(36);index"`
	TaskID           *uuid.UUID     `gorm:"type:char(36);index"`
	CommentID        *uuid.UUID     `gorm:"type:char(36);index"`
	IsRead           bool           `gorm:"default:false;index:idx_notification_recipient_read"`
	ReadAt           *time.Time
	ExtraData        datatypes.JSON `gorm:"type:json"`

	// Relationships
	Recipient User         `gorm:"foreignKey:RecipientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Sender    *User        `gorm:"foreignKey:SenderID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Project   *Project     `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Task      *Task        `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Comment   *TaskComment `gorm:"foreignKey:CommentID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (n *Notification) MarkRead(now time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	n.ReadAt = &now
}

// NotificationPreference holds one user's in-app notification switches. A
// user without a row gets every notification.
type NotificationPreference struct {
	BaseModel

	UserID             uuid.UUID `gorm:"type:char(36);not null;uniqueIndex"`
	ProjectInvitations bool      `gorm:"not null"`
	TaskAssignments    bool      `gorm:"not null"`
	TaskUpdates        bool      `gorm:"not null"`
	Comments           bool      `gorm:"not null"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func DefaultNotificationPreference(userID uuid.UUID) NotificationPreference {
	return NotificationPreference{
		UserID:             userID,
		ProjectInvitations: true,
		TaskAssignments:    true,
		TaskUpdates:        true,
		Comments:           true,
	}
}

// Allows reports whether notifications of the given type reach the user.
// Membership and system notices cannot be switched off.
func (p NotificationPreference) Allows(notificationType string) bool {
	switch notificationType {
	case NotificationProjectInvitation:
		return p.ProjectInvitations
	case NotificationTaskAssigned:
		return p.TaskAssignments
	case NotificationTaskUpdated, NotificationTaskCompleted:
		return p.TaskUpdates
	case NotificationCommentAdded:
		return p.Comments
	}
	return true
}
