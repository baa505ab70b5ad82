package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/graph"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/pkg/apierrors"
	"go.uber.org/zap"
)

type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
}

func (h *Handler) Me(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, userResponse(user))
}

func (h *Handler) UpdateMe(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	var body UpdateUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidRequest)
		return
	}

	if body.Name != nil {
		user.Name = strings.TrimSpace(*body.Name)
	}

	if body.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*body.Email))
	}

	if err := h.db.WithContext(ctx).Save(&user).Error; err != nil {
		h.internal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, userResponse(user))
}

// DeleteMe removes the account with the projects it owns and the content it
// authored. References that merely mention the user are cleared.
func (h *Handler) DeleteMe(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	summary, err := h.engine.Delete(ctx, graph.User, user.ID, user.ID)

	if err != nil {
		h.deletionFailed(ctx, err)
		return
	}

	zap.L().Info("account deleted", zap.String("user_id", user.ID.String()))

	h.clearCookie(ctx)
	ctx.JSON(http.StatusOK, deleteResponse("Account deleted", summary))
}

func (h *Handler) Logout(ctx *gin.Context) {
	h.clearCookie(ctx)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) clearCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(types.TokenCookie, "", -1, "/", h.domain, h.secure, true)
}
