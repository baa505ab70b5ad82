package handlers

import (
	"github.com/gin-gonic/gin"
)

// WebSocket subscribes a project member to board refreshes.
func (h *Handler) WebSocket(c *gin.Context) {
	user, ok := h.currentUser(c)

	if !ok {
		return
	}

	projectID, ok := h.paramID(c, "project_id")

	if !ok {
		return
	}

	if _, _, ok := h.projectAccess(c, projectID, user.ID); !ok {
		return
	}

	h.hub.Serve(c.Writer, c.Request, projectID)
}
