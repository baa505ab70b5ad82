package cascade

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/taskboard-dev/taskboard/internal/access"
	"github.com/taskboard-dev/taskboard/internal/graph"
	"github.com/taskboard-dev/taskboard/internal/models"
	"gorm.io/gorm"
)

// AuthorizeFunc decides whether requester may delete root. It runs inside
// the deletion transaction, after the root row is locked.
type AuthorizeFunc func(ctx context.Context, tx *gorm.DB, rootID, requesterID uuid.UUID) error

func DefaultPolicies() map[graph.EntityType]AuthorizeFunc {
	return map[graph.EntityType]AuthorizeFunc{
		graph.Project: CanDeleteProject,
		graph.Task:    CanDeleteTask,
		graph.Comment: CanDeleteComment,
		graph.User:    CanDeleteUser,
	}
}

// CanDeleteProject allows the owner and project admins.
func CanDeleteProject(ctx context.Context, tx *gorm.DB, projectID, requesterID uuid.UUID) error {
	role, err := access.Role(ctx, tx, projectID, requesterID)

	if err != nil {
		if errors.Is(err, access.ErrProjectNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !access.CanDelete(role) {
		return ErrPermissionDenied
	}

	return nil
}

// CanDeleteTask allows the task's creator plus the project's owner,
// admins and managers.
func CanDeleteTask(ctx context.Context, tx *gorm.DB, taskID, requesterID uuid.UUID) error {
	var task models.Task

	err := tx.WithContext(ctx).Select("id", "project_id", "created_by_id").Where("id = ?", taskID).Take(&task).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if task.CreatedByID == requesterID {
		return nil
	}

	role, err := access.Role(ctx, tx, task.ProjectID, requesterID)

	if err != nil {
		return err
	}

	if !access.CanEdit(role) {
		return ErrPermissionDenied
	}

	return nil
}

// CanDeleteComment allows the author plus the project's owner, admins and
// managers. Replies go with the comment.
func CanDeleteComment(ctx context.Context, tx *gorm.DB, commentID, requesterID uuid.UUID) error {
	var comment models.TaskComment

	err := tx.WithContext(ctx).Select("id", "task_id", "author_id").Where("id = ?", commentID).Take(&comment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if comment.AuthorID == requesterID {
		return nil
	}

	var task models.Task

	if err := tx.WithContext(ctx).Select("id", "project_id").Where("id = ?", comment.TaskID).Take(&task).Error; err != nil {
		return err
	}

	role, err := access.Role(ctx, tx, task.ProjectID, requesterID)

	if err != nil {
		return err
	}

	if !access.CanEdit(role) {
		return ErrPermissionDenied
	}

	return nil
}

// CanDeleteUser only lets users remove their own account.
func CanDeleteUser(_ context.Context, _ *gorm.DB, userID, requesterID uuid.UUID) error {
	if userID != requesterID {
		return ErrPermissionDenied
	}

	return nil
}
