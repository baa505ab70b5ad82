package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/notify"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/pkg/apierrors"
	"gorm.io/gorm"
)

const maxNotifications = 100

// ListNotifications returns the newest notifications first. ?unread=true
// narrows the list to unread ones.
func (h *Handler) ListNotifications(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	query := h.db.WithContext(ctx).Where("recipient_id = ?", user.ID)

	if unread, _ := strconv.ParseBool(ctx.Query("unread")); unread {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification

	if err := query.Order("created_at DESC").Limit(maxNotifications).Find(&notifications).Error; err != nil {
		h.internal(ctx, err)
		return
	}

	var unread int64

	err := h.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", user.ID, false).
		Count(&unread).Error

	if err != nil {
		h.internal(ctx, err)
		return
	}

	response := make([]types.NotificationResponse, 0, len(notifications))

	for _, n := range notifications {
		response = append(response, notificationResponse(n))
	}

	ctx.JSON(http.StatusOK, gin.H{"notifications": response, "unread": unread})
}

func (h *Handler) MarkNotificationRead(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	notificationID, ok := h.paramID(ctx, "notification_id")

	if !ok {
		return
	}

	var notification models.Notification

	err := h.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", notificationID, user.ID).
		Take(&notification).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(ctx, http.StatusNotFound, apierrors.MsgNotificationNotFound)
		} else {
			h.internal(ctx, err)
		}
		return
	}

	notification.MarkRead(h.now())

	err = h.db.WithContext(ctx).Model(&notification).Updates(map[string]interface{}{
		"is_read": notification.IsRead,
		"read_at": notification.ReadAt,
	}).Error

	if err != nil {
		h.internal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, notificationResponse(notification))
}

func (h *Handler) MarkAllNotificationsRead(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	result := h.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", user.ID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": h.now()})

	if result.Error != nil {
		h.internal(ctx, result.Error)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"updated": result.RowsAffected})
}

type UpdateNotificationPreferenceRequest struct {
	ProjectInvitations *bool `json:"project_invitations"`
	TaskAssignments    *bool `json:"task_assignments"`
	TaskUpdates        *bool `json:"task_updates"`
	Comments           *bool `json:"comments"`
}

func preferenceResponse(p models.NotificationPreference) types.NotificationPreferenceResponse {
	return types.NotificationPreferenceResponse{
		ProjectInvitations: p.ProjectInvitations,
		TaskAssignments:    p.TaskAssignments,
		TaskUpdates:        p.TaskUpdates,
		Comments:           p.Comments,
	}
}

func (h *Handler) GetNotificationPreferences(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	pref, err := notify.Preference(h.db.WithContext(ctx), user.ID)

	if err != nil {
		h.internal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, preferenceResponse(pref))
}

// UpdateNotificationPreferences stores the switches present in the body and
// keeps the others.
func (h *Handler) UpdateNotificationPreferences(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	var body UpdateNotificationPreferenceRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidRequest)
		return
	}

	var pref models.NotificationPreference

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if pref, err = notify.Preference(tx, user.ID); err != nil {
			return err
		}

		if body.ProjectInvitations != nil {
			pref.ProjectInvitations = *body.ProjectInvitations
		}
		if body.TaskAssignments != nil {
			pref.TaskAssignments = *body.TaskAssignments
		}
		if body.TaskUpdates != nil {
			pref.TaskUpdates = *body.TaskUpdates
		}
		if body.Comments != nil {
			pref.Comments = *body.Comments
		}

		return tx.Save(&pref).Error
	})

	if err != nil {
		h.internal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, preferenceResponse(pref))
}
