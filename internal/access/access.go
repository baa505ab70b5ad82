// Package access answers "may this user do that to this project" from
// project ownership and membership roles.
package access

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/taskboard-dev/taskboard/internal/models"
	"gorm.io/gorm"
)

var ErrProjectNotFound = errors.New("project not found")

// Role returns the requester's role in the project: "owner" for the owner,
// the active membership role otherwise, or "" when the user has no access.
func Role(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) (string, error) {
	var project models.Project

	err := tx.WithContext(ctx).Select("id", "owner_id").Where("id = ?", projectID).Take(&project).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrProjectNotFound
		}
		return "", err
	}

	if project.OwnerID == userID {
		return RoleOwner, nil
	}

	var membership models.ProjectMembership

	err = tx.WithContext(ctx).
		Select("role").
		Where("project_id = ? AND user_id = ? AND is_active = ?", projectID, userID, true).
		Take(&membership).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	return membership.Role, nil
}

const RoleOwner = "owner"

func IsMember(role string) bool {
	return role != ""
}

// CanEdit matches who may change project settings and manage members.
func CanEdit(role string) bool {
	return role == RoleOwner || role == models.RoleAdmin || role == models.RoleManager
}

// CanDelete matches who may delete the whole project.
func CanDelete(role string) bool {
	return role == RoleOwner || role == models.RoleAdmin
}
