package router

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/jobconnect-app/controllers"
	"github.com/yeremiapane/jobconnect-app/middlewares"
	"github.com/yeremiapane/jobconnect-app/realtime"
	"github.com/yeremiapane/jobconnect-app/services"
)

func SetupRouter(db *gorm.DB, hub *realtime.Hub, chatSvc *services.ChatService, notifSvc *services.NotificationService) *gin.Engine {
	r := gin.Default()

	// File attachment & resume dilayani statis
	r.Static("/uploads", filepath.Join("public", "uploads"))

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	// Rate limiter umum per IP (50 request per detik); dipasang sebelum
	// registrasi route supaya masuk ke chain semua handler
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	authCtrl := controllers.NewAuthController(db)
	chatCtrl := controllers.NewChatController(db, hub, chatSvc)
	notifCtrl := controllers.NewNotificationController(notifSvc)
	resumeCtrl := controllers.NewResumeController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter ketat untuk endpoint auth
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/candidates/register", authCtrl.RegisterCandidate)
		public.POST("/employers/register", authCtrl.RegisterEmployer)
		public.POST("/login", authCtrl.Login)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/api")
	auth.Use(middlewares.AuthMiddleware())

	auth.POST("/logout", authCtrl.Logout)
	auth.GET("/profile", authCtrl.GetProfile)
	auth.DELETE("/account", authCtrl.DeleteAccount)

	// CONVERSATIONS & MESSAGES
	auth.GET("/conversations", chatCtrl.GetConversations)
	auth.POST("/conversations", chatCtrl.StartConversation)
	auth.GET("/conversations/:conversation_id/messages", chatCtrl.GetMessages)
	auth.POST("/conversations/:conversation_id/messages", chatCtrl.SendMessage)
	auth.POST("/conversations/:conversation_id/read", chatCtrl.MarkRead)
	auth.PATCH("/conversations/:conversation_id/archive", chatCtrl.ArchiveConversation)

	// PRESENCE
	auth.GET("/presence/:type/:id", chatCtrl.GetPresence)

	// NOTIFICATIONS
	auth.GET("/notifications", notifCtrl.GetMyNotifications)
	auth.GET("/notifications/unread-count", notifCtrl.GetUnreadCount)
	auth.POST("/notifications", notifCtrl.CreateNotification)
	auth.POST("/notifications/read-all", notifCtrl.MarkAllNotificationsRead)
	auth.PATCH("/notifications/:notif_id/read", notifCtrl.MarkNotificationRead)
	auth.DELETE("/notifications/:notif_id", notifCtrl.DeleteNotification)
	auth.DELETE("/notifications", notifCtrl.DeleteAllNotifications)

	// RESUME (candidate only)
	auth.POST("/resume", resumeCtrl.UploadResume)

	// WebSocket endpoint dengan middleware khusus (token via query)
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/chat", controllers.ChatWSHandler(hub))
	}

	return r
}
