package router

import (
	"time"

	"github.com/fundtrack/fundtrack/internal/handlers"
	"github.com/fundtrack/fundtrack/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Handler        *handlers.Handler
	Auth           gin.HandlerFunc
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.Default()
	h := deps.Handler

	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(deps.Metrics.Middleware())

	r.GET("/health", h.HealthCheck)

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/google", h.GoogleLogin)
		auth.GET("/google/callback", h.GoogleCallback)
		auth.GET("/me", deps.Auth, h.Me)
		auth.GET("/test", deps.Auth, h.TestAuth)
	}

	company := r.Group("/company", deps.Auth)
	{
		company.GET("", h.GetCompany)
		company.PUT("/logo", h.UpdateLogo)
		company.PUT("/info", h.UpdateCompanyInfo)
	}

	notifications := r.Group("/notifications", deps.Auth)
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("", h.CreateNotification)
		notifications.GET("/ws", h.NotificationSocket)
		notifications.PATCH("/read-all", h.MarkAllNotificationsRead)
		notifications.PATCH("/:notification_id/read", h.MarkNotificationRead)
	}

	projects := r.Group("/projects", deps.Auth)
	{
		projects.GET("", h.ListProjects)
		projects.POST("", h.CreateProject)
		projects.GET("/count", h.CountProjects)
		projects.GET("/:project_id", h.GetProject)
		projects.PUT("/:project_id", h.UpdateProject)
		projects.PATCH("/:project_id/spending", h.UpdateSpending)
		projects.GET("/:project_id/spending/:subtitle_id/history", h.GetSpendingHistory)
	}

	return r
}
