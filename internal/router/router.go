package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/handlers"
	"github.com/taskboard-dev/taskboard/internal/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Config struct {
	DB             *gorm.DB
	Signer         *auth.Signer
	Handler        *handlers.Handler
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
}

func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	logger := cfg.Logger
	if logger == nil {
		logger = zap.L()
	}

	r.Use(gin.Recovery())
	r.Use(middleware.GinZapMiddleware(logger))
	// cors refuses an empty origin list; without one only same-origin
	// clients can call the API
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "Accept-Language", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(middleware.LanguageMiddleware())

	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	h := cfg.Handler
	authenticated := middleware.AuthMiddleware(cfg.DB, cfg.Signer)

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/ws/:project_id", authenticated, h.WebSocket)

		api.POST("/auth/logout", authenticated, h.Logout)

		me := api.Group("/me", authenticated)
		{
			me.GET("", h.Me)
			me.PATCH("", h.UpdateMe)
			me.DELETE("", h.DeleteMe)
			me.GET("/notification-preferences", h.GetNotificationPreferences)
			me.PATCH("/notification-preferences", h.UpdateNotificationPreferences)
		}

		projects := api.Group("/projects", authenticated)
		{
			projects.POST("", h.CreateProject)
			projects.GET("", h.ListProjects)
			projects.GET("/:project_id", h.GetProject)
			projects.PATCH("/:project_id", h.UpdateProject)
			projects.DELETE("/:project_id", h.DeleteProject)

			// Board endpoint
			projects.GET("/:project_id/board", h.Board)

			projects.GET("/:project_id/members", h.ListMembers)
			projects.PATCH("/:project_id/members/:user_id", h.UpdateMember)
			projects.DELETE("/:project_id/members/:user_id", h.RemoveMember)

			projects.POST("/:project_id/invitations", h.CreateInvitation)
			projects.GET("/:project_id/invitations", h.ListInvitations)

			projects.POST("/:project_id/tasks", h.CreateTask)
			projects.GET("/:project_id/tasks", h.ListTasks)
		}

		invitations := api.Group("/invitations", authenticated)
		{
			invitations.POST("/:token/accept", h.AcceptInvitation)
			invitations.POST("/:token/decline", h.DeclineInvitation)
		}

		tasks := api.Group("/tasks", authenticated)
		{
			tasks.GET("/:task_id", h.GetTask)
			tasks.PATCH("/:task_id", h.UpdateTask)
			tasks.DELETE("/:task_id", h.DeleteTask)

			tasks.POST("/:task_id/assignees", h.AssignTask)
			tasks.DELETE("/:task_id/assignees/:user_id", h.UnassignTask)

			tasks.GET("/:task_id/comments", h.ListComments)
			tasks.POST("/:task_id/comments", h.CreateComment)

			tasks.GET("/:task_id/attachments", h.ListAttachments)
			tasks.POST("/:task_id/attachments", h.CreateAttachment)

			tasks.GET("/:task_id/activities", h.ListActivities)
		}

		api.DELETE("/comments/:comment_id", authenticated, h.DeleteComment)

		notifications := api.Group("/notifications", authenticated)
		{
			notifications.GET("", h.ListNotifications)
			notifications.POST("/read-all", h.MarkAllNotificationsRead)
			notifications.POST("/:notification_id/read", h.MarkNotificationRead)
		}
	}

	return r
}
