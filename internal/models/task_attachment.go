package models

import "github.com/google/uuid"

type TaskAttachment struct {
	BaseModel

	TaskID       uuid.UUID `gorm:"type:char(36);not null;index"`
	UploadedByID uuid.UUID `gorm:"type:char(36);not null;index"`
	FileRef      string    `gorm:"not null"` // storage key, uploads happen elsewhere
	OriginalName string    `gorm:"not null;size:255"`
	FileSize     int64     `gorm:"default:0"` // bytes

	// Relationships
	Task       Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	UploadedBy User `gorm:"foreignKey:UploadedByID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}
