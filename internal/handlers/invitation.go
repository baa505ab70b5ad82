package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskboard-dev/taskboard/internal/access"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/pkg/apierrors"
	"gorm.io/gorm"
)

type CreateInvitationRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

func invitationResponse(i models.ProjectInvitation, withToken bool) types.InvitationResponse {
	resp := types.InvitationResponse{
		ID:        i.ID,
		ProjectID: i.ProjectID,
		Email:     i.Email,
		Role:      i.Role,
		Status:    i.Status,
		Message:   i.Message,
		ExpiresAt: i.ExpiresAt,
		InvitedBy: i.InvitedByID,
		Responded: i.RespondedAt,
	}

	if withToken {
		resp.Token = i.Token
	}

	return resp
}

// CreateInvitation invites an email address. Re-inviting the same address
// renews the existing invitation.
func (h *Handler) CreateInvitation(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	projectID, ok := h.paramID(ctx, "project_id")

	if !ok {
		return
	}

	var body CreateInvitationRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidRequest)
		return
	}

	if body.Role == "" {
		body.Role = models.RoleMember
	}

	if !isValidRole(body.Role) {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidRole)
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

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var invitee *models.User

	var found models.User
	err := h.db.WithContext(ctx).Where("email = ?", email).Take(&found).Error

	switch {
	case err == nil:
		invitee = &found
	case !errors.Is(err, gorm.ErrRecordNotFound):
		h.internal(ctx, err)
		return
	}

	if invitee != nil {
		existing, err := access.Role(ctx, h.db, project.ID, invitee.ID)
		if err != nil {
			h.internal(ctx, err)
			return
		}
		if access.IsMember(existing) {
			h.fail(ctx, http.StatusConflict, apierrors.MsgAlreadyMember)
			return
		}
	}

	var invitation models.ProjectInvitation

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("project_id = ? AND email = ?", project.ID, email).Take(&invitation).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		invitation.ProjectID = project.ID
		invitation.InvitedByID = user.ID
		invitation.Email = email
		invitation.Role = body.Role
		invitation.Message = body.Message
		invitation.Status = models.InvitationPending
		invitation.Token = strings.ReplaceAll(uuid.NewString(), "-", "")
		invitation.ExpiresAt = h.now().Add(h.invitationTTL)
		invitation.RespondedAt = nil
		invitation.InvitedUserID = nil

		if invitee != nil {
			invitation.InvitedUserID = &invitee.ID
		}

		if err := tx.Save(&invitation).Error; err != nil {
			return err
		}

		if invitee == nil {
			return nil
		}

		return h.notifier.ProjectInvitation(tx, *invitee, project, user)
	})

	if err != nil {
		h.internal(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, invitationResponse(invitation, true))
}

func (h *Handler) ListInvitations(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	projectID, ok := h.paramID(ctx, "project_id")

	if !ok {
		return
	}

	_, role, ok := h.projectAccess(ctx, projectID, user.ID)

	if !ok {
		return
	}

	if !access.CanEdit(role) {
		h.fail(ctx, http.StatusForbidden, apierrors.MsgForbidden)
		return
	}

	var invitations []models.ProjectInvitation

	err := h.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&invitations).Error

	if err != nil {
		h.internal(ctx, err)
		return
	}

	response := make([]types.InvitationResponse, 0, len(invitations))

	for _, i := range invitations {
		response = append(response, invitationResponse(i, false))
	}

	ctx.JSON(http.StatusOK, response)
}

// pendingInvitation finds the invitation behind a token, as long as it was
// sent to the current user's address and is still open.
func (h *Handler) pendingInvitation(ctx *gin.Context, tx *gorm.DB, user models.User) (models.ProjectInvitation, bool) {
	var invitation models.ProjectInvitation

	err := tx.Where("token = ?", ctx.Param("token")).Take(&invitation).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(ctx, http.StatusNotFound, apierrors.MsgInvitationNotFound)
		} else {
			h.internal(ctx, err)
		}
		return models.ProjectInvitation{}, false
	}

	if !strings.EqualFold(invitation.Email, user.Email) {
		h.fail(ctx, http.StatusNotFound, apierrors.MsgInvitationNotFound)
		return models.ProjectInvitation{}, false
	}

	if invitation.Status != models.InvitationPending {
		if invitation.Status == models.InvitationExpired {
			h.fail(ctx, http.StatusGone, apierrors.MsgInvitationExpired)
		} else {
			h.fail(ctx, http.StatusConflict, apierrors.MsgInvitationAnswered)
		}
		return models.ProjectInvitation{}, false
	}

	if invitation.IsExpired(h.now()) {
		h.fail(ctx, http.StatusGone, apierrors.MsgInvitationExpired)
		return models.ProjectInvitation{}, false
	}

	return invitation, true
}

func (h *Handler) AcceptInvitation(ctx *gin.Context) {
	h.answerInvitation(ctx, models.InvitationAccepted)
}

func (h *Handler) DeclineInvitation(ctx *gin.Context) {
	h.answerInvitation(ctx, models.InvitationDeclined)
}

func (h *Handler) answerInvitation(ctx *gin.Context, status string) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	invitation, ok := h.pendingInvitation(ctx, h.db.WithContext(ctx), user)

	if !ok {
		return
	}

	now := h.now()

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invitation.Status = status
		invitation.RespondedAt = &now
		invitation.InvitedUserID = &user.ID

		if err := tx.Save(&invitation).Error; err != nil {
			return err
		}

		if status != models.InvitationAccepted {
			return nil
		}

		var membership models.ProjectMembership

		err := tx.Where("project_id = ? AND user_id = ?", invitation.ProjectID, user.ID).Take(&membership).Error

		switch {
		case err == nil:
			return tx.Model(&membership).Updates(map[string]interface{}{
				"role":      invitation.Role,
				"is_active": true,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&models.ProjectMembership{
				ProjectID: invitation.ProjectID,
				UserID:    user.ID,
				Role:      invitation.Role,
				IsActive:  true,
			}).Error
		default:
			return err
		}
	})

	if err != nil {
		h.internal(ctx, err)
		return
	}

	if status == models.InvitationAccepted {
		h.notifier.Refresh(invitation.ProjectID)
	}

	ctx.JSON(http.StatusOK, invitationResponse(invitation, false))
}
