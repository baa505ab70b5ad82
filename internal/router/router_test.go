package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/cascade"
	"github.com/taskboard-dev/taskboard/internal/graph"
	"github.com/taskboard-dev/taskboard/internal/handlers"
	"github.com/taskboard-dev/taskboard/internal/metrics"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/notify"
	"github.com/taskboard-dev/taskboard/internal/realtime"
	"github.com/taskboard-dev/taskboard/internal/services"
	"github.com/taskboard-dev/taskboard/internal/testutil"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/pkg/apierrors"
	"github.com/taskboard-dev/taskboard/pkg/translator"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	translator.InitTranslator(translator.Config{})
}

type APISuite struct {
	suite.Suite
	store  *gorm.DB
	fx     *testutil.Fixtures
	signer *auth.Signer
	router *gin.Engine

	hookServer *httptest.Server
	hooksMu    sync.Mutex
	hooks      []string

	owner models.User
	other models.User
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.store = testutil.NewStore(s.T())
	s.fx = testutil.NewFixtures(s.T(), s.store)

	signer, err := auth.NewSigner("test-secret", time.Hour)
	s.Require().NoError(err)
	s.signer = signer

	s.hooks = nil
	s.hookServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hooksMu.Lock()
		s.hooks = append(s.hooks, r.URL.Path)
		s.hooksMu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	s.T().Cleanup(s.hookServer.Close)

	reg := prometheus.NewRegistry()
	hub := realtime.NewHub(nil)
	engine := cascade.NewEngine(s.store, graph.Default(),
		cascade.WithMetrics(metrics.New(reg)),
		cascade.WithObserver(hub.DeletionObserver()),
	)

	h := handlers.New(handlers.Config{
		DB:       s.store,
		Engine:   engine,
		Notifier: notify.NewDispatcher(hub),
		Hub:      hub,
		Webhooks: services.NewWebhooks(s.hookServer.Client()),
	})

	s.router = NewRouter(Config{
		DB:             s.store,
		Signer:         signer,
		Handler:        h,
		AllowedOrigins: []string{"http://localhost:3000"},
		Gatherer:       reg,
	})

	s.owner = s.fx.User("owner")
	s.other = s.fx.User("other")
}

func (s *APISuite) do(method, path string, body interface{}, as *models.User) *httptest.ResponseRecorder {
	var reader io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if as != nil {
		token, err := s.signer.GenerateJWT(as.ID, as.Email)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	return rec
}

func (s *APISuite) decode(rec *httptest.ResponseRecorder, v interface{}) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *APISuite) requireError(rec *httptest.ResponseRecorder, code int, message string) {
	s.Require().Equal(code, rec.Code, rec.Body.String())

	var got apierrors.JsonErr
	s.decode(rec, &got)
	s.Equal(code, got.ErrDetails.Code)
	s.Equal(message, got.ErrDetails.Message)
}

func (s *APISuite) count(table, column string, value interface{}) int64 {
	return testutil.Count(s.T(), s.store, table, column, value)
}

func (s *APISuite) notifications(recipient models.User, kind string) int64 {
	var n int64
	s.Require().NoError(s.store.Model(&models.Notification{}).
		Where("recipient_id = ? AND notification_type = ?", recipient.ID, kind).
		Count(&n).Error)
	return n
}

func (s *APISuite) TestHealth() {
	rec := s.do(http.MethodGet, "/api/health", nil, nil)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"status":"ok"`)
}

func (s *APISuite) TestUnauthenticated() {
	s.requireError(s.do(http.MethodGet, "/api/me", nil, nil), http.StatusUnauthorized, "User not authenticated.")
}

func (s *APISuite) TestMeAndUpdate() {
	rec := s.do(http.MethodPatch, "/api/me", map[string]string{"name": "  Owner Name "}, &s.owner)
	s.Require().Equal(http.StatusOK, rec.Code)

	var me types.UserResponse
	s.decode(s.do(http.MethodGet, "/api/me", nil, &s.owner), &me)
	s.Equal(s.owner.ID, me.ID)
	s.Equal("Owner Name", me.Name)
}

func (s *APISuite) TestProjectLifecycle() {
	rec := s.do(http.MethodPost, "/api/projects", map[string]string{"name": "Demo"}, &s.owner)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var created types.ProjectResponse
	s.decode(rec, &created)
	s.Equal("owner", created.Role)
	s.Equal(models.ProjectStatusPlanning, created.Status)
	s.Equal(int64(1), s.count("project_memberships", "project_id", created.ID))

	var mine []types.ProjectResponse
	s.decode(s.do(http.MethodGet, "/api/projects", nil, &s.owner), &mine)
	s.Len(mine, 1)

	var theirs []types.ProjectResponse
	s.decode(s.do(http.MethodGet, "/api/projects", nil, &s.other), &theirs)
	s.Empty(theirs)

	path := fmt.Sprintf("/api/projects/%s", created.ID)

	s.requireError(s.do(http.MethodPatch, path, map[string]string{"name": "Stolen"}, &s.other), http.StatusNotFound, "Project not found.")
	s.requireError(s.do(http.MethodPatch, path, map[string]string{"status": "bogus"}, &s.owner), http.StatusBadRequest, "Unknown status.")

	rec = s.do(http.MethodPatch, path, map[string]string{"status": models.ProjectStatusActive}, &s.owner)
	s.Require().Equal(http.StatusOK, rec.Code)

	var updated types.ProjectResponse
	s.decode(rec, &updated)
	s.Equal(models.ProjectStatusActive, updated.Status)
	s.Equal("Demo", updated.Name)
}

func (s *APISuite) TestDeleteProjectCascades() {
	project := s.fx.Project(s.owner, "Demo")
	s.fx.Member(project, s.other, models.RoleMember)
	s.Require().NoError(s.store.Model(&project).Update("discord_webhook", s.hookServer.URL+"/discord").Error)

	a := s.fx.Task(project, s.owner, "A", nil)
	b := s.fx.Task(project, s.owner, "B", &a)
	c1 := s.fx.Comment(a, s.owner, "C1", nil)
	s.fx.Comment(a, s.other, "C2", &c1)
	s.fx.Attachment(b, s.other)
	s.fx.Activity(a, s.owner, models.ActivityCreated)
	s.fx.Notification(s.other, nil, &b)
	s.fx.Invitation(project, s.owner, "guest@example.com")
	s.fx.Assign(b, s.other)
	s.fx.TagTask(a, s.fx.Tag("urgent"))

	path := fmt.Sprintf("/api/projects/%s", project.ID)

	s.requireError(s.do(http.MethodDelete, path, nil, &s.other), http.StatusForbidden, "You are not allowed to delete this.")
	s.Equal(int64(2), s.count("tasks", "project_id", project.ID))

	rec := s.do(http.MethodDelete, path, nil, &s.owner)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp types.DeleteResponse
	s.decode(rec, &resp)
	s.Equal(map[string]int64{
		"project":       1,
		"task":          2,
		"membership":    2,
		"invitation":    1,
		"comment":       2,
		"attachment":    1,
		"activity":      1,
		"notification":  1,
		"task_assignee": 1,
		"task_tag":      1,
	}, resp.Removed)

	for _, table := range []string{"projects", "tasks", "task_comments", "task_attachments", "task_activities", "notifications", "task_assignees", "task_tags", "project_invitations"} {
		var n int64
		s.Require().NoError(s.store.Table(table).Count(&n).Error)
		s.Zero(n, table)
	}

	// users and tags are not part of the project
	s.Equal(int64(1), s.count("users", "id", s.other.ID))
	s.Equal(int64(1), s.count("tags", "name", "urgent"))

	s.hooksMu.Lock()
	s.Equal([]string{"/discord"}, s.hooks)
	s.hooksMu.Unlock()

	s.requireError(s.do(http.MethodDelete, path, nil, &s.owner), http.StatusNotFound, "Project not found.")
	s.requireError(s.do(http.MethodGet, path+"/board", nil, &s.owner), http.StatusNotFound, "Project not found.")

	metricsBody := s.do(http.MethodGet, "/metrics", nil, nil).Body.String()
	s.Contains(metricsBody, `taskboard_deletions_total{outcome="success",root="project"} 1`)
	s.Contains(metricsBody, `taskboard_deletions_total{outcome="permission_denied",root="project"} 1`)
	s.Contains(metricsBody, `taskboard_deleted_rows_total{entity="task"} 2`)
}

func (s *APISuite) TestDeleteTask() {
	project := s.fx.Project(s.owner, "Demo")
	s.fx.Member(project, s.other, models.RoleMember)
	stranger := s.fx.User("stranger")

	rec := s.do(http.MethodPost, fmt.Sprintf("/api/projects/%s/tasks", project.ID), map[string]string{"title": "parent"}, &s.other)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var parent types.TaskResponse
	s.decode(rec, &parent)

	rec = s.do(http.MethodPost, fmt.Sprintf("/api/projects/%s/tasks", project.ID), map[string]interface{}{"title": "child", "parent_task_id": parent.ID}, &s.other)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	byOwner := s.fx.Task(project, s.owner, "owner's", nil)

	s.requireError(s.do(http.MethodDelete, fmt.Sprintf("/api/tasks/%s", parent.ID), nil, &stranger), http.StatusNotFound, "Task not found.")
	s.requireError(s.do(http.MethodDelete, fmt.Sprintf("/api/tasks/%s", byOwner.ID), nil, &s.other), http.StatusForbidden, "You are not allowed to delete this.")

	rec = s.do(http.MethodDelete, fmt.Sprintf("/api/tasks/%s", parent.ID), nil, &s.other)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp types.DeleteResponse
	s.decode(rec, &resp)
	s.Equal(int64(2), resp.Removed["task"])
	s.Equal(int64(2), resp.Removed["activity"])

	s.Equal(int64(1), s.count("tasks", "project_id", project.ID))
	s.Equal(int64(1), s.count("projects", "id", project.ID))
}

func (s *APISuite) TestTaskParentValidation() {
	project := s.fx.Project(s.owner, "Demo")
	elsewhere := s.fx.Project(s.owner, "Elsewhere")
	foreign := s.fx.Task(elsewhere, s.owner, "foreign", nil)
	a := s.fx.Task(project, s.owner, "A", nil)
	b := s.fx.Task(project, s.owner, "B", &a)

	s.requireError(
		s.do(http.MethodPost, fmt.Sprintf("/api/projects/%s/tasks", project.ID), map[string]interface{}{"title": "x", "parent_task_id": foreign.ID}, &s.owner),
		http.StatusBadRequest, "The parent must belong to the same project and must not create a loop.",
	)

	s.requireError(
		s.do(http.MethodPatch, fmt.Sprintf("/api/tasks/%s", a.ID), map[string]interface{}{"parent_task_id": b.ID}, &s.owner),
		http.StatusBadRequest, "The parent must belong to the same project and must not create a loop.",
	)

	s.requireError(
		s.do(http.MethodPatch, fmt.Sprintf("/api/tasks/%s", a.ID), map[string]interface{}{"parent_task_id": a.ID}, &s.owner),
		http.StatusBadRequest, "The parent must belong to the same project and must not create a loop.",
	)

	rec := s.do(http.MethodPatch, fmt.Sprintf("/api/tasks/%s", b.ID), map[string]interface{}{"clear_parent": true}, &s.owner)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var task types.TaskResponse
	s.decode(rec, &task)
	s.Nil(task.ParentTaskID)
}

func (s *APISuite) TestUpdateTaskRecordsActivityAndNotifies() {
	project := s.fx.Project(s.owner, "Demo")
	s.fx.Member(project, s.other, models.RoleMember)
	task := s.fx.Task(project, s.owner, "A", nil)

	rec := s.do(http.MethodPatch, fmt.Sprintf("/api/tasks/%s", task.ID), map[string]string{"status": models.TaskStatusCompleted, "priority": models.PriorityUrgent}, &s.other)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var updated types.TaskResponse
	s.decode(rec, &updated)
	s.Equal(models.TaskStatusCompleted, updated.Status)
	s.NotNil(updated.CompletedAt)

	var activities []types.ActivityResponse
	s.decode(s.do(http.MethodGet, fmt.Sprintf("/api/tasks/%s/activities", task.ID), nil, &s.owner), &activities)

	kinds := map[string]bool{}
	for _, a := range activities {
		kinds[a.ActivityType] = true
	}
	s.True(kinds[models.ActivityStatusChanged])
	s.True(kinds[models.ActivityPriorityChanged])

	s.Equal(int64(1), s.notifications(s.owner, models.NotificationTaskCompleted))
	s.Zero(s.notifications(s.other, models.NotificationTaskCompleted))

	s.requireError(
		s.do(http.MethodPatch, fmt.Sprintf("/api/tasks/%s", task.ID), map[string]string{"priority": models.PriorityCritical}, &s.owner),
		http.StatusBadRequest, "Unknown priority.",
	)
}

func (s *APISuite) TestBoard() {
	project := s.fx.Project(s.owner, "Demo")
	s.fx.Member(project, s.other, models.RoleMember)

	a := s.fx.Task(project, s.owner, "A", nil)
	s.fx.Task(project, s.owner, "A.1", &a)
	done := s.fx.Task(project, s.owner, "done", nil)
	late := s.fx.Task(project, s.owner, "late", nil)

	s.Require().NoError(s.store.Model(&models.Task{}).Where("id = ?", done.ID).Update("status", models.TaskStatusCompleted).Error)
	s.Require().NoError(s.store.Model(&models.Task{}).Where("id = ?", late.ID).Update("due_date", time.Now().Add(-time.Hour)).Error)

	rec := s.do(http.MethodGet, fmt.Sprintf("/api/projects/%s/board", project.ID), nil, &s.other)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var board types.BoardResponse
	s.decode(rec, &board)

	s.Equal(3, board.Total)
	s.Equal(1, board.Overdue)
	s.Equal(2, board.Members)
	s.Equal("member", board.Project.Role)
	s.Require().Len(board.Lanes, len(models.TaskStatuses))

	for i, status := range models.TaskStatuses {
		s.Equal(status, board.Lanes[i].Status)
	}
	s.Len(board.Lanes[0].Tasks, 2)
	s.Len(board.Lanes[3].Tasks, 1)
}

func (s *APISuite) TestInvitationFlow() {
	project := s.fx.Project(s.owner, "Demo")
	invitee := s.fx.User("invitee")

	s.requireError(
		s.do(http.MethodPost, fmt.Sprintf("/api/projects/%s/invitations", project.ID), map[string]string{"email": s.owner.Email}, &s.owner),
		http.StatusConflict, "This user is already a member of the project.",
	)

	rec := s.do(http.MethodPost, fmt.Sprintf("/api/projects/%s/invitations", project.ID), map[string]string{"email": "Invitee@Example.com", "role": models.RoleManager}, &s.owner)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var invitation types.InvitationResponse
	s.decode(rec, &invitation)
	s.Equal("invitee@example.com", invitation.Email)
	s.NotEmpty(invitation.Token)
	s.Equal(int64(1), s.notifications(invitee, models.NotificationProjectInvitation))

	accept := fmt.Sprintf("/api/invitations/%s/accept", invitation.Token)

	s.requireError(s.do(http.MethodPost, accept, nil, &s.other), http.StatusNotFound, "Invitation not found.")

	rec = s.do(http.MethodPost, accept, nil, &invitee)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var membership models.ProjectMembership
	s.Require().NoError(s.store.Where("project_id = ? AND user_id = ?", project.ID, invitee.ID).Take(&membership).Error)
	s.Equal(models.RoleManager, membership.Role)

	s.requireError(s.do(http.MethodPost, accept, nil, &invitee), http.StatusConflict, "This invitation has already been answered.")

	expired := s.fx.Invitation(project, s.owner, s.other.Email)
	s.Require().NoError(s.store.Model(&expired).Update("expires_at", time.Now().Add(-time.Minute)).Error)

	s.requireError(s.do(http.MethodPost, fmt.Sprintf("/api/invitations/%s/decline", expired.Token), nil, &s.other), http.StatusGone, "This invitation has expired.")
}

func (s *APISuite) TestMembers() {
	project := s.fx.Project(s.owner, "Demo")
	manager := s.fx.User("manager")
	third := s.fx.User("third")
	s.fx.Member(project, s.other, models.RoleMember)
	s.fx.Member(project, manager, models.RoleManager)
	s.fx.Member(project, third, models.RoleMember)

	members := fmt.Sprintf("/api/projects/%s/members", project.ID)

	var list []types.MemberResponse
	s.decode(s.do(http.MethodGet, members, nil, &s.other), &list)
	s.Len(list, 4)

	s.requireError(s.do(http.MethodDelete, members+"/"+s.owner.ID.String(), nil, &manager), http.StatusBadRequest, "The project owner cannot be removed.")
	s.requireError(s.do(http.MethodDelete, members+"/"+third.ID.String(), nil, &s.other), http.StatusForbidden, "You do not have access to this resource.")
	s.requireError(s.do(http.MethodPatch, members+"/"+third.ID.String(), map[string]string{"role": models.RoleAdmin}, &manager), http.StatusForbidden, "You do not have access to this resource.")

	rec := s.do(http.MethodPatch, members+"/"+third.ID.String(), map[string]string{"role": models.RoleManager}, &s.owner)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodDelete, members+"/"+s.other.ID.String(), nil, &s.other)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Zero(s.notifications(s.other, models.NotificationMemberRemoved))

	rec = s.do(http.MethodDelete, members+"/"+third.ID.String(), nil, &manager)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(int64(1), s.notifications(third, models.NotificationMemberRemoved))

	s.requireError(s.do(http.MethodGet, fmt.Sprintf("/api/projects/%s", project.ID), nil, &third), http.StatusNotFound, "Project not found.")
}

func (s *APISuite) TestAssignCommentAndNotifications() {
	project := s.fx.Project(s.owner, "Demo")
	s.fx.Member(project, s.other, models.RoleMember)
	stranger := s.fx.User("stranger")
	task := s.fx.Task(project, s.owner, "A", nil)
	sibling := s.fx.Task(project, s.owner, "B", nil)
	foreign := s.fx.Comment(sibling, s.owner, "elsewhere", nil)

	assignees := fmt.Sprintf("/api/tasks/%s/assignees", task.ID)

	s.requireError(s.do(http.MethodPost, assignees, map[string]interface{}{"user_id": stranger.ID}, &s.owner), http.StatusBadRequest, "Member not found.")

	rec := s.do(http.MethodPost, assignees, map[string]interface{}{"user_id": s.other.ID}, &s.owner)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(int64(1), s.count("task_assignees", "task_id", task.ID))
	s.Equal(int64(1), s.notifications(s.other, models.NotificationTaskAssigned))

	rec = s.do(http.MethodPost, assignees, map[string]interface{}{"user_id": s.other.ID}, &s.owner)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(int64(1), s.count("task_assignees", "task_id", task.ID))

	comments := fmt.Sprintf("/api/tasks/%s/comments", task.ID)

	s.requireError(
		s.do(http.MethodPost, comments, map[string]interface{}{"content": "reply", "parent_comment_id": foreign.ID}, &s.other),
		http.StatusBadRequest, "The parent must belong to the same project and must not create a loop.",
	)

	rec = s.do(http.MethodPost, comments, map[string]string{"content": "looks good"}, &s.other)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var comment types.CommentResponse
	s.decode(rec, &comment)

	rec = s.do(http.MethodPost, comments, map[string]interface{}{"content": "thanks", "parent_comment_id": comment.ID}, &s.owner)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	s.Equal(int64(1), s.notifications(s.owner, models.NotificationCommentAdded))
	s.Equal(int64(1), s.notifications(s.other, models.NotificationCommentAdded))

	var listed struct {
		Notifications []types.NotificationResponse `json:"notifications"`
		Unread        int64                        `json:"unread"`
	}
	s.decode(s.do(http.MethodGet, "/api/notifications", nil, &s.other), &listed)
	s.Equal(int64(2), listed.Unread)
	s.Len(listed.Notifications, 2)

	first := listed.Notifications[0].ID
	rec = s.do(http.MethodPost, fmt.Sprintf("/api/notifications/%s/read", first), nil, &s.other)
	s.Require().Equal(http.StatusOK, rec.Code)

	s.requireError(s.do(http.MethodPost, fmt.Sprintf("/api/notifications/%s/read", first), nil, &s.owner), http.StatusNotFound, "Notification not found.")

	var readAll struct {
		Updated int64 `json:"updated"`
	}
	s.decode(s.do(http.MethodPost, "/api/notifications/read-all", nil, &s.other), &readAll)
	s.Equal(int64(1), readAll.Updated)

	// deleting the thread root takes the reply with it
	rec = s.do(http.MethodDelete, fmt.Sprintf("/api/comments/%s", comment.ID), nil, &s.other)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp types.DeleteResponse
	s.decode(rec, &resp)
	s.Equal(int64(2), resp.Removed["comment"])
	s.Equal(int64(2), resp.Removed["notification"])
	s.Equal(int64(1), s.count("task_comments", "task_id", sibling.ID))
	s.Zero(s.notifications(s.owner, models.NotificationCommentAdded))
	s.Zero(s.notifications(s.other, models.NotificationCommentAdded))
	s.Equal(int64(1), s.notifications(s.other, models.NotificationTaskAssigned))
}

func (s *APISuite) TestNotificationPreferences() {
	project := s.fx.Project(s.owner, "Demo")
	s.fx.Member(project, s.other, models.RoleMember)
	task := s.fx.Task(project, s.owner, "A", nil)

	var pref types.NotificationPreferenceResponse
	rec := s.do(http.MethodGet, "/api/me/notification-preferences", nil, &s.other)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &pref)
	s.Equal(types.NotificationPreferenceResponse{ProjectInvitations: true, TaskAssignments: true, TaskUpdates: true, Comments: true}, pref)
	s.Zero(s.count("notification_preferences", "user_id", s.other.ID))

	rec = s.do(http.MethodPatch, "/api/me/notification-preferences", map[string]bool{"task_assignments": false}, &s.other)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &pref)
	s.False(pref.TaskAssignments)
	s.True(pref.Comments)

	rec = s.do(http.MethodPatch, "/api/me/notification-preferences", map[string]bool{"comments": false}, &s.other)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &pref)
	s.False(pref.TaskAssignments)
	s.False(pref.Comments)
	s.Equal(int64(1), s.count("notification_preferences", "user_id", s.other.ID))

	rec = s.do(http.MethodPost, fmt.Sprintf("/api/tasks/%s/assignees", task.ID), map[string]interface{}{"user_id": s.other.ID}, &s.owner)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(int64(1), s.count("task_assignees", "task_id", task.ID))
	s.Zero(s.notifications(s.other, models.NotificationTaskAssigned))

	rec = s.do(http.MethodPatch, fmt.Sprintf("/api/tasks/%s", task.ID), map[string]string{"status": models.TaskStatusInProgress}, &s.owner)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(int64(1), s.notifications(s.other, models.NotificationTaskUpdated))

	rec = s.do(http.MethodDelete, "/api/me", nil, &s.other)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp types.DeleteResponse
	s.decode(rec, &resp)
	s.Equal(int64(1), resp.Removed["notification_preference"])
	s.Zero(s.count("notification_preferences", "user_id", s.other.ID))
}

func TestNewRouterWithoutOrigins(t *testing.T) {
	store := testutil.NewStore(t)
	signer, err := auth.NewSigner("test-secret", time.Hour)
	require.NoError(t, err)

	var r *gin.Engine
	require.NotPanics(t, func() {
		r = NewRouter(Config{
			DB:      store,
			Signer:  signer,
			Handler: handlers.New(handlers.Config{DB: store, Engine: cascade.NewEngine(store, graph.Default())}),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func (s *APISuite) TestCORSAllowsConfiguredOrigin() {
	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func (s *APISuite) TestAttachments() {
	project := s.fx.Project(s.owner, "Demo")
	task := s.fx.Task(project, s.owner, "A", nil)
	path := fmt.Sprintf("/api/tasks/%s/attachments", task.ID)

	s.requireError(s.do(http.MethodPost, path, map[string]string{"original_name": "a.txt"}, &s.owner), http.StatusBadRequest, "Invalid request.")

	rec := s.do(http.MethodPost, path, map[string]interface{}{"file_ref": "s3://bucket/a.txt", "original_name": "a.txt", "file_size": 42}, &s.owner)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var list []types.AttachmentResponse
	s.decode(s.do(http.MethodGet, path, nil, &s.owner), &list)
	s.Require().Len(list, 1)
	s.Equal(int64(42), list[0].FileSize)
	s.Equal(int64(1), s.count("task_activities", "activity_type", models.ActivityAttachmentAdded))
}

func (s *APISuite) TestDeleteMe() {
	leaver := s.fx.User("leaver")
	project := s.fx.Project(leaver, "Leaving")
	s.fx.Task(project, leaver, "A", nil)

	shared := s.fx.Project(s.owner, "Shared")
	s.fx.Member(shared, leaver, models.RoleMember)

	rec := s.do(http.MethodDelete, "/api/me", nil, &leaver)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp types.DeleteResponse
	s.decode(rec, &resp)
	s.Equal(int64(1), resp.Removed["user"])
	s.Equal(int64(1), resp.Removed["project"])
	s.Equal(int64(2), resp.Removed["membership"])

	s.Equal(int64(1), s.count("projects", "id", shared.ID))
	s.requireError(s.do(http.MethodGet, "/api/me", nil, &leaver), http.StatusUnauthorized, "User not authenticated.")
}

func (s *APISuite) TestFrenchErrors() {
	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+uuid.NewString(), nil)
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")
	token, err := s.signer.GenerateJWT(s.owner.ID, s.owner.Email)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusNotFound, rec.Code)

	var got apierrors.JsonErr
	s.decode(rec, &got)
	s.NotEqual("Project not found.", got.ErrDetails.Message)
	s.NotEmpty(got.ErrDetails.Message)
}

func (s *APISuite) TestInvalidID() {
	s.requireError(s.do(http.MethodGet, "/api/tasks/not-a-uuid", nil, &s.owner), http.StatusBadRequest, "Invalid identifier.")
}
