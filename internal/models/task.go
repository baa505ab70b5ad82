package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusReview     = "review"
	TaskStatusCompleted  = "completed"
)

// TaskStatuses lists the Kanban lanes in board order.
var TaskStatuses = []string{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusCompleted}

type Task struct {
	BaseModel

	ProjectID    uuid.UUID  `gorm:"type:char(36);not null;index:idx_task_project_status"`
	Title        string     `gorm:"not null;size:200"`
	Description  string
	Status       string     `gorm:"not null;default:todo;index:idx_task_project_status"`
	Priority     string     `gorm:"not null;default:medium"`
	CreatedByID  uuid.UUID  `gorm:"type:char(36);not null;index"`
	ParentTaskID *uuid.UUID `gorm:"type:char(36);index"`
	Position     int        `gorm:"default:0"`
	DueDate      *time.Time `gorm:"index"`
	CompletedAt  *time.Time

	// Relationships
	Project    Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CreatedBy  User    `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	ParentTask *Task   `gorm:"foreignKey:ParentTaskID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Assignees  []User  `gorm:"many2many:task_assignees" json:"-"`
	Tags       []Tag   `gorm:"many2many:task_tags" json:"-"`
}

// SetStatus keeps CompletedAt in step with the status the way the board expects:
// stamped on the first move to completed, cleared when the task leaves it.
func (t *Task) SetStatus(status string, now time.Time) {
	t.Status = status

	if status == TaskStatusCompleted {
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
		return
	}

	t.CompletedAt = nil
}

func IsValidTaskStatus(status string) bool {
	for _, s := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}
