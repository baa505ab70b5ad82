package models

import "github.com/google/uuid"

const (
	ActivityCreated         = "created"
	ActivityUpdated         = "updated"
	ActivityStatusChanged   = "status_changed"
	ActivityAssigned        = "assigned"
	ActivityUnassigned      = "unassigned"
	ActivityCommented       = "commented"
	ActivityAttachmentAdded = "attachment_added"
	ActivityDueDateChanged  = "due_date_changed"
	ActivityPriorityChanged = "priority_changed"
)

// TaskActivity is append-only. Rows only disappear together with their task.
type TaskActivity struct {
	BaseModel

	TaskID       uuid.UUID `gorm:"type:char(36);not null;index"`
	UserID       uuid.UUID `gorm:"type:char(36);not null;index"`
	ActivityType string    `gorm:"not null;size:20"`
	Description  string
	OldValue     string
	NewValue     string

	// Relationships
	Task Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}
