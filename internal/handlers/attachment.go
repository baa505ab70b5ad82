package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/pkg/apierrors"
	"gorm.io/gorm"
)

// CreateAttachmentRequest registers a file that was uploaded to storage
// elsewhere; only the reference is kept here.
type CreateAttachmentRequest struct {
	FileRef      string `json:"file_ref" binding:"required"`
	OriginalName string `json:"original_name" binding:"required,max=255"`
	FileSize     int64  `json:"file_size" binding:"gte=0"`
}

func attachmentResponse(a models.TaskAttachment) types.AttachmentResponse {
	return types.AttachmentResponse{
		ID:           a.ID,
		TaskID:       a.TaskID,
		UploadedByID: a.UploadedByID,
		FileRef:      a.FileRef,
		OriginalName: a.OriginalName,
		FileSize:     a.FileSize,
		CreatedAt:    a.CreatedAt,
	}
}

func (h *Handler) ListAttachments(ctx *gin.Context) {
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

	var attachments []models.TaskAttachment

	if err := h.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at").Find(&attachments).Error; err != nil {
		h.internal(ctx, err)
		return
	}

	response := make([]types.AttachmentResponse, 0, len(attachments))

	for _, a := range attachments {
		response = append(response, attachmentResponse(a))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *Handler) CreateAttachment(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	taskID, ok := h.paramID(ctx, "task_id")

	if !ok {
		return
	}

	var body CreateAttachmentRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidRequest)
		return
	}

	task, _, _, ok := h.taskAccess(ctx, taskID, user.ID)

	if !ok {
		return
	}

	attachment := models.TaskAttachment{
		TaskID:       task.ID,
		UploadedByID: user.ID,
		FileRef:      body.FileRef,
		OriginalName: body.OriginalName,
		FileSize:     body.FileSize,
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&attachment).Error; err != nil {
			return err
		}

		return h.notifier.Record(tx, task, user, models.ActivityAttachmentAdded,
			"attachment added", "", attachment.OriginalName)
	})

	if err != nil {
		h.internal(ctx, err)
		return
	}

	h.notifier.Refresh(task.ProjectID)

	ctx.JSON(http.StatusCreated, attachmentResponse(attachment))
}
