package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskboard-dev/taskboard/internal/access"
	"github.com/taskboard-dev/taskboard/internal/graph"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/pkg/apierrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateTaskRequest struct {
	Title        string     `json:"title" binding:"required,max=200"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	ParentTaskID *uuid.UUID `json:"parent_task_id"`
	DueDate      *time.Time `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title        *string    `json:"title" binding:"omitempty,max=200"`
	Description  *string    `json:"description"`
	Status       *string    `json:"status"`
	Priority     *string    `json:"priority"`
	ParentTaskID *uuid.UUID `json:"parent_task_id"`
	ClearParent  bool       `json:"clear_parent"`
	DueDate      *time.Time `json:"due_date"`
	Position     *int       `json:"position"`
}

type AssignRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

var taskPriorities = map[string]bool{
	models.PriorityLow:    true,
	models.PriorityMedium: true,
	models.PriorityHigh:   true,
	models.PriorityUrgent: true,
}

var errInvalidParent = errors.New("invalid parent task")

// checkParent rejects parents outside the project and parents that would
// close a cycle through the task itself.
func checkParent(tx *gorm.DB, taskID uuid.UUID, projectID, parentID uuid.UUID) error {
	seen := map[uuid.UUID]bool{}
	current := &parentID

	for current != nil {
		if *current == taskID || seen[*current] {
			return errInvalidParent
		}
		seen[*current] = true

		var parent models.Task

		err := tx.Select("id", "project_id", "parent_task_id").Where("id = ?", *current).Take(&parent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errInvalidParent
			}
			return err
		}

		if parent.ProjectID != projectID {
			return errInvalidParent
		}

		current = parent.ParentTaskID
	}

	return nil
}

func (h *Handler) CreateTask(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	projectID, ok := h.paramID(ctx, "project_id")

	if !ok {
		return
	}

	var body CreateTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidRequest)
		return
	}

	if body.Status == "" {
		body.Status = models.TaskStatusTodo
	}

	if body.Priority == "" {
		body.Priority = models.PriorityMedium
	}

	if !models.IsValidTaskStatus(body.Status) {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidStatus)
		return
	}

	if !taskPriorities[body.Priority] {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidPriority)
		return
	}

	project, _, ok := h.projectAccess(ctx, projectID, user.ID)

	if !ok {
		return
	}

	task := models.Task{
		ProjectID:    project.ID,
		Title:        strings.TrimSpace(body.Title),
		Description:  body.Description,
		Priority:     body.Priority,
		CreatedByID:  user.ID,
		ParentTaskID: body.ParentTaskID,
		DueDate:      body.DueDate,
	}
	task.SetStatus(body.Status, h.now())

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if task.ParentTaskID != nil {
			if err := checkParent(tx, uuid.Nil, project.ID, *task.ParentTaskID); err != nil {
				return err
			}
		}

		var last struct{ Position int }

		err := tx.Model(&models.Task{}).
			Select("COALESCE(MAX(position), 0) AS position").
			Where("project_id = ? AND status = ?", project.ID, task.Status).
			Scan(&last).Error
		if err != nil {
			return err
		}
		task.Position = last.Position + 1

		if err := tx.Create(&task).Error; err != nil {
			return err
		}

		return h.notifier.Record(tx, task, user, models.ActivityCreated,
			fmt.Sprintf("%s created the task", user.Username), "", task.Title)
	})

	if errors.Is(err, errInvalidParent) {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidParent)
		return
	}

	if err != nil {
		h.internal(ctx, err)
		return
	}

	h.notifier.Refresh(project.ID)

	ctx.JSON(http.StatusCreated, taskResponse(task))
}

func (h *Handler) ListTasks(ctx *gin.Context) {
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

	query := h.db.WithContext(ctx).
		Preload("Assignees").
		Preload("Tags").
		Where("project_id = ?", projectID)

	if status := ctx.Query("status"); status != "" {
		if !models.IsValidTaskStatus(status) {
			h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidStatus)
			return
		}
		query = query.Where("status = ?", status)
	}

	if parent := ctx.Query("parent_task_id"); parent != "" {
		parentID, err := uuid.Parse(parent)
		if err != nil {
			h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidID)
			return
		}
		query = query.Where("parent_task_id = ?", parentID)
	}

	var tasks []models.Task

	if err := query.Order("position ASC, created_at ASC").Find(&tasks).Error; err != nil {
		h.internal(ctx, err)
		return
	}

	response := make([]types.TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		response = append(response, taskResponse(task))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *Handler) GetTask(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	taskID, ok := h.paramID(ctx, "task_id")

	if !ok {
		return
	}

	task, _, _, ok := h.taskAccess(ctx, taskID, user.ID)

	if !ok {
		return
	}

	if err := h.db.WithContext(ctx).Model(&task).Association("Assignees").Find(&task.Assignees); err != nil {
		h.internal(ctx, err)
		return
	}

	if err := h.db.WithContext(ctx).Model(&task).Association("Tags").Find(&task.Tags); err != nil {
		h.internal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, taskResponse(task))
}

// UpdateTask applies the changes, records one activity per changed field
// and tells the other members what changed.
func (h *Handler) UpdateTask(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	taskID, ok := h.paramID(ctx, "task_id")

	if !ok {
		return
	}

	var body UpdateTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidRequest)
		return
	}

	if body.Status != nil && !models.IsValidTaskStatus(*body.Status) {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidStatus)
		return
	}

	if body.Priority != nil && !taskPriorities[*body.Priority] {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidPriority)
		return
	}

	task, _, _, ok := h.taskAccess(ctx, taskID, user.ID)

	if !ok {
		return
	}

	changes := map[string]string{}
	completed := false

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if body.Title != nil && strings.TrimSpace(*body.Title) != task.Title {
			changes["title"] = strings.TrimSpace(*body.Title)
			if err := h.notifier.Record(tx, task, user, models.ActivityUpdated, "title changed", task.Title, changes["title"]); err != nil {
				return err
			}
			task.Title = changes["title"]
		}

		if body.Description != nil && *body.Description != task.Description {
			changes["description"] = "updated"
			task.Description = *body.Description
		}

		if body.Status != nil && *body.Status != task.Status {
			if err := h.notifier.Record(tx, task, user, models.ActivityStatusChanged, "status changed", task.Status, *body.Status); err != nil {
				return err
			}
			changes["status"] = *body.Status
			completed = *body.Status == models.TaskStatusCompleted
			task.SetStatus(*body.Status, h.now())
		}

		if body.Priority != nil && *body.Priority != task.Priority {
			if err := h.notifier.Record(tx, task, user, models.ActivityPriorityChanged, "priority changed", task.Priority, *body.Priority); err != nil {
				return err
			}
			changes["priority"] = *body.Priority
			task.Priority = *body.Priority
		}

		if body.DueDate != nil && (task.DueDate == nil || !task.DueDate.Equal(*body.DueDate)) {
			old := ""
			if task.DueDate != nil {
				old = task.DueDate.Format(time.RFC3339)
			}
			if err := h.notifier.Record(tx, task, user, models.ActivityDueDateChanged, "due date changed", old, body.DueDate.Format(time.RFC3339)); err != nil {
				return err
			}
			changes["due_date"] = body.DueDate.Format(time.RFC3339)
			task.DueDate = body.DueDate
		}

		if body.Position != nil {
			task.Position = *body.Position
		}

		switch {
		case body.ClearParent:
			task.ParentTaskID = nil
		case body.ParentTaskID != nil:
			if err := checkParent(tx, task.ID, task.ProjectID, *body.ParentTaskID); err != nil {
				return err
			}
			task.ParentTaskID = body.ParentTaskID
		}

		if err := tx.Omit(clause.Associations).Save(&task).Error; err != nil {
			return err
		}

		if len(changes) == 0 {
			return nil
		}

		recipients, err := h.projectMembers(ctx, tx, task.ProjectID)
		if err != nil {
			return err
		}

		if completed {
			return h.notifier.TaskCompleted(tx, recipients, task, user)
		}

		return h.notifier.TaskUpdated(tx, recipients, task, user, changes)
	})

	if errors.Is(err, errInvalidParent) {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidParent)
		return
	}

	if err != nil {
		h.internal(ctx, err)
		return
	}

	h.notifier.Refresh(task.ProjectID)

	ctx.JSON(http.StatusOK, taskResponse(task))
}

func (h *Handler) AssignTask(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	taskID, ok := h.paramID(ctx, "task_id")

	if !ok {
		return
	}

	var body AssignRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgInvalidRequest)
		return
	}

	task, project, _, ok := h.taskAccess(ctx, taskID, user.ID)

	if !ok {
		return
	}

	role, err := access.Role(ctx, h.db, project.ID, body.UserID)

	if err != nil {
		h.internal(ctx, err)
		return
	}

	if !access.IsMember(role) {
		h.fail(ctx, http.StatusBadRequest, apierrors.MsgMemberNotFound)
		return
	}

	var assignee models.User

	if err := h.db.WithContext(ctx).Where("id = ?", body.UserID).Take(&assignee).Error; err != nil {
		h.internal(ctx, err)
		return
	}

	var already int64

	err = h.db.WithContext(ctx).Table("task_assignees").
		Where("task_id = ? AND user_id = ?", task.ID, assignee.ID).
		Count(&already).Error

	if err != nil {
		h.internal(ctx, err)
		return
	}

	if already > 0 {
		ctx.JSON(http.StatusOK, gin.H{"message": "Already assigned"})
		return
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&task).Association("Assignees").Append(&assignee); err != nil {
			return err
		}

		if err := h.notifier.Record(tx, task, user, models.ActivityAssigned,
			fmt.Sprintf("assigned to %s", assignee.Username), "", assignee.Username); err != nil {
			return err
		}

		return h.notifier.TaskAssigned(tx, assignee, task, project, user)
	})

	if err != nil {
		h.internal(ctx, err)
		return
	}

	h.notifier.Refresh(project.ID)

	if h.webhooks != nil {
		h.webhook(ctx, "task assigned", func(c context.Context) error {
			return h.webhooks.TaskAssigned(c, project, task, assignee, user)
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task assigned"})
}

func (h *Handler) UnassignTask(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	taskID, ok := h.paramID(ctx, "task_id")

	if !ok {
		return
	}

	assigneeID, ok := h.paramID(ctx, "user_id")

	if !ok {
		return
	}

	task, _, _, ok := h.taskAccess(ctx, taskID, user.ID)

	if !ok {
		return
	}

	var assignee models.User

	if err := h.db.WithContext(ctx).Where("id = ?", assigneeID).Take(&assignee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(ctx, http.StatusNotFound, apierrors.MsgUserNotFound)
		} else {
			h.internal(ctx, err)
		}
		return
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&task).Association("Assignees").Delete(&assignee); err != nil {
			return err
		}

		return h.notifier.Record(tx, task, user, models.ActivityUnassigned,
			fmt.Sprintf("unassigned %s", assignee.Username), assignee.Username, "")
	})

	if err != nil {
		h.internal(ctx, err)
		return
	}

	h.notifier.Refresh(task.ProjectID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Task unassigned"})
}

// DeleteTask removes the task with its subtasks and everything hanging off them.
func (h *Handler) DeleteTask(ctx *gin.Context) {
	user, ok := h.currentUser(ctx)

	if !ok {
		return
	}

	taskID, ok := h.paramID(ctx, "task_id")

	if !ok {
		return
	}

	task, _, _, ok := h.taskAccess(ctx, taskID, user.ID)

	if !ok {
		return
	}

	summary, err := h.engine.Delete(ctx, graph.Task, task.ID, user.ID)

	if err != nil {
		h.deletionFailed(ctx, err)
		return
	}

	h.notifier.Refresh(task.ProjectID)

	ctx.JSON(http.StatusOK, deleteResponse("Task deleted successfully", summary))
}

func (h *Handler) ListActivities(ctx *gin.Context) {
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

	var activities []models.TaskActivity

	err := h.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&activities).Error

	if err != nil {
		h.internal(ctx, err)
		return
	}

	response := make([]types.ActivityResponse, 0, len(activities))

	for _, a := range activities {
		response = append(response, types.ActivityResponse{
			ID:           a.ID,
			UserID:       a.UserID,
			ActivityType: a.ActivityType,
			Description:  a.Description,
			OldValue:     a.OldValue,
			NewValue:     a.NewValue,
			CreatedAt:    a.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, response)
}
