package models

import "github.com/google/uuid"

const (
	ProjectStatusPlanning  = "planning"
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on_hold"
	ProjectStatusCompleted = "completed"
	ProjectStatusCancelled = "cancelled"
)

const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical" // projects only
	PriorityUrgent   = "urgent"   // tasks only
)

type Project struct {
	BaseModel

	Name           string    `gorm:"not null;size:200"`
	Description    string
	Status         string    `gorm:"not null;default:planning;index:idx_project_status_priority"`
	Priority       string    `gorm:"not null;default:medium;index:idx_project_status_priority"`
	OwnerID        uuid.UUID `gorm:"type:char(36);not null;index"`
	IsArchived     bool      `gorm:"default:false"`
	DiscordWebhook string
	SlackWebhook   string

	// Relationships
	Owner User `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}
