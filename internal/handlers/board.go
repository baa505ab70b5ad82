package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
)

// Board returns the project's top-level tasks as Kanban lanes. Subtasks are
// reachable through their parent and stay off the board.
func (h *Handler) Board(ctx *gin.Context) {
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

	var tasks []models.Task

	err := h.db.WithContext(ctx).
		Preload("Assignees").
		Preload("Tags").
		Where("project_id = ? AND parent_task_id IS NULL", project.ID).
		Order("position ASC, created_at ASC").
		Find(&tasks).Error

	if err != nil {
		h.internal(ctx, err)
		return
	}

	var members int64

	err = h.db.WithContext(ctx).Model(&models.ProjectMembership{}).
		Where("project_id = ? AND is_active = ?", project.ID, true).
		Count(&members).Error

	if err != nil {
		h.internal(ctx, err)
		return
	}

	lanes := make(map[string][]types.TaskResponse, len(models.TaskStatuses))
	now := h.now()
	overdue := 0

	for _, task := range tasks {
		lanes[task.Status] = append(lanes[task.Status], taskResponse(task))

		if task.DueDate != nil && task.DueDate.Before(now) && task.Status != models.TaskStatusCompleted {
			overdue++
		}
	}

	response := types.BoardResponse{
		Project: projectResponse(project, role),
		Lanes:   make([]types.BoardLane, 0, len(models.TaskStatuses)),
		Members: int(members),
		Total:   len(tasks),
		Overdue: overdue,
	}

	for _, status := range models.TaskStatuses {
		lane := types.BoardLane{Status: status, Tasks: lanes[status]}
		if lane.Tasks == nil {
			lane.Tasks = []types.TaskResponse{}
		}
		response.Lanes = append(response.Lanes, lane)
	}

	ctx.JSON(http.StatusOK, response)
}
