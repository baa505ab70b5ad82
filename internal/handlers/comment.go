package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskboard-dev/taskboard/internal/graph"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/pkg/apierrors"
	"gorm.io/gorm"
)

type CreateCommentRequest struct {
	Content         string     `json:"content" binding:"required"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id"`
}

func commentResponse(c models.TaskComment) types.CommentResponse {
	return types.CommentResponse{
		ID:              c.ID,
		TaskID:          c.TaskID,
		AuthorID:        c.AuthorID,
		Content:         c.Content,
		ParentCommentID: c.ParentCommentID,
		CreatedAt:       c.CreatedAt,
	}
}

func (h *Handler) ListComments(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	taskID, ok := h.paramID(ctx, "task_id")

	if !ok {
		return
	}

	if _, _, _, ok := h.taskAccess(ctx, taskID, user.ID); !ok {
		return
	}

	var comments []models.TaskComment

	if err := h.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at").Find(&comments).Error; err != nil {
		h.internal(ctx, err)
		return
	}

	response := make([]types.CommentResponse, 0, len(comments))

	for _, c := range comments {
		response = append(response, commentResponse(c))
	}

	ctx.JSON(http.StatusOK, response)
}

// CreateComment notifies the task's creator and assignees.
func (h *Handler) CreateComment(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	taskID, ok := h.paramID(ctx, "task_id")

	if !ok {
		return
	}

	var body CreateCommentRequest

	if err := ctx.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Content) == "" {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidRequest)
		return
	}

	task, _, _, ok := h.taskAccess(ctx, taskID, user.ID)

	if !ok {
		return
	}

	if body.ParentCommentID != nil {
		var parent models.TaskComment

		err := h.db.WithContext(ctx).Select("id", "task_id").Where("id = ?", *body.ParentCommentID).Take(&parent).Error

		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			h.internal(ctx, err)
			return
		}

		// replies stay on the parent's task
		if err != nil || parent.TaskID != task.ID {
			h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidParent)
			return
		}
	}

	comment := models.TaskComment{
		TaskID:          task.ID,
		AuthorID:        user.ID,
		Content:         body.Content,
		ParentCommentID: body.ParentCommentID,
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		if err := h.notifier.Record(tx, task, user, models.ActivityCommented,
			fmt.Sprintf("%s commented", user.Username), "", ""); err != nil {
			return err
		}

		recipients, err := h.taskWatchers(tx, task)
		if err != nil {
			return err
		}

		return h.notifier.CommentAdded(tx, recipients, task, user, comment)
	})

	if err != nil {
		h.internal(ctx, err)
		return
	}

	h.notifier.Refresh(task.ProjectID)

	ctx.JSON(http.StatusCreated, commentResponse(comment))
}

func (h *Handler) DeleteComment(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	commentID, ok := h.paramID(ctx, "comment_id")

	if !ok {
		return
	}

	var comment models.TaskComment

	if err := h.db.WithContext(ctx).Where("id = ?", commentID).Take(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(ctx, http.StatusNotFound, apierrors.MsgCommentNotFound)
		} else {
			h.internal(ctx, err)
		}
		return
	}

	task, _, _, ok := h.taskAccess(ctx, comment.TaskID, user.ID)

	if !ok {
		return
	}

	summary, err := h.engine.Delete(ctx, graph.Comment, comment.ID, user.ID)

	if err != nil {
		h.deletionFailed(ctx, err)
		return
	}

	h.notifier.Refresh(task.ProjectID)

	ctx.JSON(http.StatusOK, deleteResponse("Comment deleted", summary))
}

// taskWatchers are the creator and assignees of a task.
func (h *Handler) taskWatchers(tx *gorm.DB, task models.Task) ([]models.User, error) {
	var users []models.User

	err := tx.Where("id = ?", task.CreatedByID).
		Or("id IN (?)", tx.Table("task_assignees").Select("user_id").Where("task_id = ?", task.ID)).
		Find(&users).Error

	return users, err
}
