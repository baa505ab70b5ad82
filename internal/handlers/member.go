package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskboard-dev/taskboard/internal/access"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/pkg/apierrors"
	"gorm.io/gorm"
)

type UpdateMemberRequest struct {
	Role string `json:"role" binding:"required"`
}

func isValidRole(role string) bool {
	return role == models.RoleMember || role == models.RoleManager || role == models.RoleAdmin
}

// projectMembers returns the active members' users, the owner included.
func (h *Handler) projectMembers(ctx *gin.Context, tx *gorm.DB, projectID uuid.UUID) ([]models.User, error) {
	var users []models.User

	err := tx.WithContext(ctx).
		Where("id IN (?)", tx.Model(&models.ProjectMembership{}).Select("user_id").
			Where("project_id = ? AND is_active = ?", projectID, true)).
		Or("id IN (?)", tx.Model(&models.Project{}).Select("owner_id").Where("id = ?", projectID)).
		Order("username").
		Find(&users).Error

	return users, err
}

func (h *Handler) ListMembers(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	projectID, ok := h.paramID(ctx, "project_id")

	if !ok {
		return
	}

	if _, _, ok := h.projectAccess(ctx, projectID, user.ID); !ok {
		return
	}

	var memberships []models.ProjectMembership

	err := h.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ? AND is_active = ?", projectID, true).
		Order("created_at").
		Find(&memberships).Error

	if err != nil {
		h.internal(ctx, err)
		return
	}

	response := make([]types.MemberResponse, 0, len(memberships))

	for _, m := range memberships {
		response = append(response, types.MemberResponse{
			ID:       m.ID,
			User:     userResponse(m.User),
			Role:     m.Role,
			IsActive: m.IsActive,
			JoinedAt: m.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *Handler) membership(ctx *gin.Context, projectID, userID uuid.UUID) (models.ProjectMembership, bool) {
	var m models.ProjectMembership

	err := h.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ? AND user_id = ? AND is_active = ?", projectID, userID, true).
		Take(&m).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(ctx, http.StatusNotFound, apierrors.MsgMemberNotFound)
		} else {
			h.internal(ctx, err)
		}
		return models.ProjectMembership{}, false
	}

	return m, true
}

func (h *Handler) UpdateMember(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	projectID, ok := h.paramID(ctx, "project_id")

	if !ok {
		return
	}

	memberID, ok := h.paramID(ctx, "user_id")

	if !ok {
		return
	}

	var body UpdateMemberRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidRequest)
		return
	}

	if !isValidRole(body.Role) {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidRole)
		return
	}

	project, role, ok := h.projectAccess(ctx, projectID, user.ID)

	if !ok {
		return
	}

	if !access.CanDelete(role) {
		h.fail(ctx, http.StatusForbidden, apierrors.MsgForbidden)
		return
	}

	if memberID == project.OwnerID {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgCannotRemoveOwner)
		return
	}

	m, ok := h.membership(ctx, project.ID, memberID)

	if !ok {
		return
	}

	if err := h.db.WithContext(ctx).Model(&m).Update("role", body.Role).Error; err != nil {
		h.internal(ctx, err)
		return
	}

	h.notifier.Refresh(project.ID)

	ctx.JSON(http.StatusOK, types.MemberResponse{
		ID:       m.ID,
		User:     userResponse(m.User),
		Role:     body.Role,
		IsActive: m.IsActive,
		JoinedAt: m.CreatedAt,
	})
}

// RemoveMember lets editors remove others and anyone leave. The owner stays.
func (h *Handler) RemoveMember(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	projectID, ok := h.paramID(ctx, "project_id")

	if !ok {
		return
	}

	memberID, ok := h.paramID(ctx, "user_id")

	if !ok {
		return
	}

	project, role, ok := h.projectAccess(ctx, projectID, user.ID)

	if !ok {
		return
	}

	leaving := memberID == user.ID

	if !leaving && !access.CanEdit(role) {
		h.fail(ctx, http.StatusForbidden, apierrors.MsgForbidden)
		return
	}

	if memberID == project.OwnerID {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgCannotRemoveOwner)
		return
	}

	m, ok := h.membership(ctx, project.ID, memberID)

	if !ok {
		return
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&m).Error; err != nil {
			return err
		}

		if leaving {
			return nil
		}

		return h.notifier.MemberRemoved(tx, m.User, project, user)
	})

	if err != nil {
		h.internal(ctx, err)
		return
	}

	h.notifier.Refresh(project.ID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}
