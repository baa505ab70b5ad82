package models

import "github.com/google/uuid"

const (
	RoleMember  = "member"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

type ProjectMembership struct {
	BaseModel

	ProjectID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_project_user"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_project_user"`
	Role      string    `gorm:"not null;default:member"`
	IsActive  bool      `gorm:"default:true"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}
