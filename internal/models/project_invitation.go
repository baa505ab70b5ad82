package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
	InvitationExpired  = "expired"
)

type ProjectInvitation struct {
	BaseModel

	ProjectID     uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:idx_project_email"`
	InvitedByID   uuid.UUID  `gorm:"type:char(36);not null;index"`
	InvitedUserID *uuid.UUID `gorm:"type:char(36);index"`
	Email         string     `gorm:"not null;size:254;uniqueIndex:idx_project_email"`
	Role          string     `gorm:"not null;default:member"`
	Status        string     `gorm:"not null;default:pending;index:idx_invitation_status_expiry"`
	Message       string
	Token         string     `gorm:"not null;size:64;uniqueIndex"`
	ExpiresAt     time.Time  `gorm:"not null;index:idx_invitation_status_expiry"`
	RespondedAt   *time.Time

	// Relationships
	Project     Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	InvitedBy   User    `gorm:"foreignKey:InvitedByID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	InvitedUser *User   `gorm:"foreignKey:InvitedUserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}

func (i ProjectInvitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
