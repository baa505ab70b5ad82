package models

import "github.com/google/uuid"

type TaskComment struct {
	BaseModel

	TaskID          uuid.UUID  `gorm:"type:char(36);not null;index"`
	AuthorID        uuid.UUID  `gorm:"type:char(36);not null;index"`
	Content         string     `gorm:"not null"`
	ParentCommentID *uuid.UUID `gorm:"type:char(36);index"`

	// Relationships
	Task          Task         `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Author        User         `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	ParentComment *TaskComment `gorm:"foreignKey:ParentCommentID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}
