package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskboard-dev/taskboard/internal/access"
	"github.com/taskboard-dev/taskboard/internal/cascade"
	"github.com/taskboard-dev/taskboard/internal/graph"
	"github.com/taskboard-dev/taskboard/internal/middleware"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/notify"
	"github.com/taskboard-dev/taskboard/internal/realtime"
	"github.com/taskboard-dev/taskboard/internal/services"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/internal/utils"
	"github.com/taskboard-dev/taskboard/pkg/apierrors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const webhookTimeout = 10 * time.Second

// StatusReporter is satisfied by the job scheduler.
type StatusReporter interface {
	GetStatus() map[string]interface{}
}

type Config struct {
	DB            *gorm.DB
	Engine        *cascade.Engine
	Notifier      *notify.Dispatcher
	Hub           *realtime.Hub
	Webhooks      *services.Webhooks
	Jobs          StatusReporter
	InvitationTTL time.Duration
	Domain        string
	Secure        bool
}

type Handler struct {
	db            *gorm.DB
	engine        *cascade.Engine
	notifier      *notify.Dispatcher
	hub           *realtime.Hub
	webhooks      *services.Webhooks
	jobs          StatusReporter
	invitationTTL time.Duration
	domain        string
	secure        bool
	now           func() time.Time
}

func New(cfg Config) *Handler {
	ttl := cfg.InvitationTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	return &Handler{
		db:            cfg.DB,
		engine:        cfg.Engine,
		notifier:      cfg.Notifier,
		hub:           cfg.Hub,
		webhooks:      cfg.Webhooks,
		jobs:          cfg.Jobs,
		invitationTTL: ttl,
		domain:        cfg.Domain,
		secure:        cfg.Secure,
		now:           time.Now,
	}
}

func (h *Handler) fail(ctx *gin.Context, code int, msgKey string) {
	ctx.JSON(code, apierrors.CreateError(code, msgKey, middleware.GetLang(ctx)))
}

func (h *Handler) internal(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	h.fail(ctx, http.StatusInternalServerError, apierrors.MsgInternal)
}

// currentUser loads the authenticated user's row.
func (h *Handler) currentUser(ctx *gin.Context) (models.User, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		h.fail(ctx, http.StatusUnauthorized, apierrors.MsgUnauthorized)
		return models.User{}, false
	}

	var user models.User

	if err := h.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error; err != nil {
		h.fail(ctx, http.StatusUnauthorized, apierrors.MsgUnauthorized)
		return models.User{}, false
	}

	return user, true
}

func (h *Handler) paramID(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := utils.ParamID(ctx, name)

	if err != nil {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidID)
		return uuid.Nil, false
	}

	return id, true
}

// projectAccess loads a project the user can see, with their role in it.
// Outsiders get the same 404 as for a missing project.
func (h *Handler) projectAccess(ctx *gin.Context, projectID, userID uuid.UUID) (models.Project, string, bool) {
	role, err := access.Role(ctx, h.db, projectID, userID)

	if err != nil && !errors.Is(err, access.ErrProjectNotFound) {
		h.internal(ctx, err)
		return models.Project{}, "", false
	}

	if errors.Is(err, access.ErrProjectNotFound) || !access.IsMember(role) {
		h.fail(ctx, http.StatusNotFound, apierrors.MsgProjectNotFound)
		return models.Project{}, "", false
	}

	var project models.Project

	if err := h.db.WithContext(ctx).Where("id = ?", projectID).Take(&project).Error; err != nil {
		h.internal(ctx, err)
		return models.Project{}, "", false
	}

	return project, role, true
}

// taskAccess loads a task in a project the user belongs to.
func (h *Handler) taskAccess(ctx *gin.Context, taskID, userID uuid.UUID) (models.Task, models.Project, string, bool) {
	var task models.Task

	if err := h.db.WithContext(ctx).Where("id = ?", taskID).Take(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(ctx, http.StatusNotFound, apierrors.MsgTaskNotFound)
		} else {
			h.internal(ctx, err)
		}
		return models.Task{}, models.Project{}, "", false
	}

	role, err := access.Role(ctx, h.db, task.ProjectID, userID)

	if err != nil {
		h.internal(ctx, err)
		return models.Task{}, models.Project{}, "", false
	}

	if !access.IsMember(role) {
		h.fail(ctx, http.StatusNotFound, apierrors.MsgTaskNotFound)
		return models.Task{}, models.Project{}, "", false
	}

	var project models.Project

	if err := h.db.WithContext(ctx).Where("id = ?", task.ProjectID).Take(&project).Error; err != nil {
		h.internal(ctx, err)
		return models.Task{}, models.Project{}, "", false
	}

	return task, project, role, true
}

// deletionFailed maps engine errors onto responses.
func (h *Handler) deletionFailed(ctx *gin.Context, err error) {
	var (
		violation *graph.InvariantViolation
		failed    *cascade.DeletionFailedError
	)

	_ = ctx.Error(err)

	switch {
	case errors.Is(err, cascade.ErrNotFound):
		h.fail(ctx, http.StatusNotFound, apierrors.MsgDeleteNotFound)
	case errors.Is(err, cascade.ErrPermissionDenied):
		h.fail(ctx, http.StatusForbidden, apierrors.MsgDeleteForbidden)
	case errors.As(err, &violation):
		zap.L().Error("referential graph is invalid", zap.Error(err))
		h.fail(ctx, http.StatusInternalServerError, apierrors.MsgDeleteMisconfigured)
	case errors.As(err, &failed):
		h.fail(ctx, http.StatusConflict, apierrors.MsgDeleteFailed)
	default:
		h.fail(ctx, http.StatusInternalServerError, apierrors.MsgInternal)
	}
}

// webhook delivers a post-commit hook. Failures are logged and never reach
// the client; the hook outlives request cancellation but not the timeout.
func (h *Handler) webhook(ctx *gin.Context, event string, send func(context.Context) error) {
	c, cancel := context.WithTimeout(context.WithoutCancel(ctx.Request.Context()), webhookTimeout)
	defer cancel()

	if err := send(c); err != nil {
		zap.L().Warn("webhook delivery failed", zap.String("event", event), zap.Error(err))
	}
}

func deleteResponse(message string, summary *cascade.Summary) types.DeleteResponse {
	return types.DeleteResponse{
		Message:   message,
		Removed:   summary.RemovedCounts(),
		Nullified: summary.NullifiedCounts(),
	}
}

func userResponse(u models.User) types.UserResponse {
	return types.UserResponse{ID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email}
}

func projectResponse(p models.Project, role string) types.ProjectResponse {
	return types.ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		Priority:    p.Priority,
		OwnerID:     p.OwnerID,
		IsArchived:  p.IsArchived,
		Role:        role,
		CreatedAt:   p.CreatedAt,
	}
}

func taskResponse(t models.Task) types.TaskResponse {
	resp := types.TaskResponse{
		ID:           t.ID,
		ProjectID:    t.ProjectID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		Priority:     t.Priority,
		CreatedByID:  t.CreatedByID,
		ParentTaskID: t.ParentTaskID,
		Position:     t.Position,
		DueDate:      t.DueDate,
		CompletedAt:  t.CompletedAt,
		Assignees:    []types.UserResponse{},
		Tags:         []string{},
	}

	for _, u := range t.Assignees {
		resp.Assignees = append(resp.Assignees, userResponse(u))
	}

	for _, tag := range t.Tags {
		resp.Tags = append(resp.Tags, tag.Name)
	}

	return resp
}

func notificationResponse(n models.Notification) types.NotificationResponse {
	resp := types.NotificationResponse{
		ID:               n.ID,
		Title:            n.Title,
		Message:          n.Message,
		NotificationType: n.NotificationType,
		SenderID:         n.SenderID,
		ProjectID:        n.ProjectID,
		TaskID:           n.TaskID,
		CommentID:        n.CommentID,
		IsRead:           n.IsRead,
		ReadAt:           n.ReadAt,
		CreatedAt:        n.CreatedAt,
	}

	if len(n.ExtraData) > 0 {
		resp.ExtraData = json.RawMessage(n.ExtraData)
	}

	return resp
}
