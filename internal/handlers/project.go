package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/access"
	"github.com/taskboard-dev/taskboard/internal/graph"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/pkg/apierrors"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Name           string `json:"name" binding:"required,max=200"`
	Description    string `json:"description"`
	Status         string `json:"status"`
	Priority       string `json:"priority"`
	DiscordWebhook string `json:"discord_webhook"`
	SlackWebhook   string `json:"slack_webhook"`
}

type UpdateProjectRequest struct {
	Name           *string `json:"name" binding:"omitempty,max=200"`
	Description    *string `json:"description"`
	Status         *string `json:"status"`
	Priority       *string `json:"priority"`
	IsArchived     *bool   `json:"is_archived"`
	DiscordWebhook *string `json:"discord_webhook"`
	SlackWebhook   *string `json:"slack_webhook"`
}

var projectStatuses = map[string]bool{
	models.ProjectStatusPlanning:  true,
	models.ProjectStatusActive:    true,
	models.ProjectStatusOnHold:    true,
	models.ProjectStatusCompleted: true,
	models.ProjectStatusCancelled: true,
}

var projectPriorities = map[string]bool{
	models.PriorityLow:      true,
	models.PriorityMedium:   true,
	models.PriorityHigh:     true,
	models.PriorityCritical: true,
}

func (h *Handler) CreateProject(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	var body CreateProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidRequest)
		return
	}

	project := models.Project{
		Name:           strings.TrimSpace(body.Name),
		Description:    body.Description,
		Status:         models.ProjectStatusPlanning,
		Priority:       models.PriorityMedium,
		OwnerID:        user.ID,
		DiscordWebhook: body.DiscordWebhook,
		SlackWebhook:   body.SlackWebhook,
	}

	if body.Status != "" {
		if !projectStatuses[body.Status] {
			h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidStatus)
			return
		}
		project.Status = body.Status
	}

	if body.Priority != "" {
		if !projectPriorities[body.Priority] {
			h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidPriority)
			return
		}
		project.Priority = body.Priority
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		// the owner is also an admin member so membership queries see them
		return tx.Create(&models.ProjectMembership{
			ProjectID: project.ID,
			UserID:    user.ID,
			Role:      models.RoleAdmin,
			IsActive:  true,
		}).Error
	})

	if err != nil {
		h.internal(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, projectResponse(project, access.RoleOwner))
}

func (h *Handler) ListProjects(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	var projects []models.Project

	err := h.db.WithContext(ctx).
		Where("owner_id = ? OR id IN (?)", user.ID,
			h.db.Model(&models.ProjectMembership{}).Select("project_id").
				Where("user_id = ? AND is_active = ?", user.ID, true)).
		Order("created_at DESC").
		Find(&projects).Error

	if err != nil {
		h.internal(ctx, err)
		return
	}

	response := make([]types.ProjectResponse, 0, len(projects))

	for _, project := range projects {
		role, err := access.Role(ctx, h.db, project.ID, user.ID)
		if err != nil {
			h.internal(ctx, err)
			return
		}
		response = append(response, projectResponse(project, role))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *Handler) GetProject(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	projectID, ok := h.paramID(ctx, "project_id")

	if !ok {
		return
	}

	project, role, ok := h.projectAccess(ctx, projectID, user.ID)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(project, role))
}

func (h *Handler) UpdateProject(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	projectID, ok := h.paramID(ctx, "project_id")

	if !ok {
		return
	}

	var body UpdateProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidRequest)
		return
	}

	project, role, ok := h.projectAccess(ctx, projectID, user.ID)

	if !ok {
		return
	}

	if !access.CanEdit(role) {
		h.fail(ctx, http.StatusForbidden, apierrors.MsgForbidden)
		return
	}

	if body.Status != nil && !projectStatuses[*body.Status] {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidStatus)
		return
	}

	if body.Priority != nil && !projectPriorities[*body.Priority] {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidPriority)
		return
	}

	if body.Name != nil {
		project.Name = strings.TrimSpace(*body.Name)
	}
	if body.Description != nil {
		project.Description = *body.Description
	}
	if body.Status != nil {
		project.Status = *body.Status
	}
	if body.Priority != nil {
		project.Priority = *body.Priority
	}
	if body.IsArchived != nil {
		project.IsArchived = *body.IsArchived
	}
	if body.DiscordWebhook != nil {
		project.DiscordWebhook = *body.DiscordWebhook
	}
	if body.SlackWebhook != nil {
		project.SlackWebhook = *body.SlackWebhook
	}

	if err := h.db.WithContext(ctx).Save(&project).Error; err != nil {
		h.internal(ctx, err)
		return
	}

	h.notifier.Refresh(project.ID)

	ctx.JSON(http.StatusOK, projectResponse(project, role))
}

// DeleteProject removes the project and everything that depends on it in
// one transaction. Webhooks fire only after the commit.
func (h *Handler) DeleteProject(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	projectID, ok := h.paramID(ctx, "project_id")

	if !ok {
		return
	}

	project, _, ok := h.projectAccess(ctx, projectID, user.ID)

	if !ok {
		return
	}

	summary, err := h.engine.Delete(ctx, graph.Project, project.ID, user.ID)

	if err != nil {
		h.deletionFailed(ctx, err)
		return
	}

	if h.webhooks != nil {
		h.webhook(ctx, "project deleted", func(c context.Context) error {
			return h.webhooks.ProjectDeleted(c, project, user, summary)
		})
	}

	ctx.JSON(http.StatusOK, deleteResponse("Project deleted successfully", summary))
}
