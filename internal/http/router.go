package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	httpH "github.com/yungbote/coursehub-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursehub-backend/internal/http/middleware"
	"github.com/yungbote/coursehub-backend/internal/observability"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler       *httpH.HealthHandler
	AuthHandler         *httpH.AuthHandler
	UserHandler         *httpH.UserHandler
	CategoryHandler     *httpH.CategoryHandler
	CourseHandler       *httpH.CourseHandler
	ModuleHandler       *httpH.ModuleHandler
	LessonHandler       *httpH.LessonHandler
	QuestionHandler     *httpH.QuestionHandler
	AttemptHandler      *httpH.AttemptHandler
	EnrollmentHandler   *httpH.EnrollmentHandler
	OrderHandler        *httpH.OrderHandler
	WalletHandler       *httpH.WalletHandler
	ClassroomHandler    *httpH.ClassroomHandler
	MessageHandler      *httpH.MessageHandler
	NotificationHandler *httpH.NotificationHandler
	RealtimeHandler     *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "coursehub"
	}

	r := gin.New()
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(gin.Recovery())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/v1")

	// Auth (public)
	if cfg.AuthHandler != nil {
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
		api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
	}

	// Catalog (public, admins see drafts)
	catalog := api.Group("/")
	if cfg.AuthMiddleware != nil {
		catalog.Use(cfg.AuthMiddleware.OptionalAuth())
	}
	{
		if cfg.CategoryHandler != nil {
			catalog.GET("/categories", cfg.CategoryHandler.List)
			catalog.GET("/categories/:id", cfg.CategoryHandler.Get)
		}
		if cfg.CourseHandler != nil {
			catalog.GET("/courses", cfg.CourseHandler.List)
			catalog.GET("/courses/:id", cfg.CourseHandler.Get)
		}
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	admin := httpMW.RequireRole(types.RoleAdmin)
	instructor := httpMW.RequireRole(types.RoleInstructor, types.RoleAdmin)

	// Auth (protected)
	if cfg.AuthHandler != nil {
		protected.POST("/auth/logout", cfg.AuthHandler.Logout)
	}

	// Users
	if cfg.UserHandler != nil {
		protected.GET("/users/me", cfg.UserHandler.GetMe)
		protected.PATCH("/users/me", cfg.UserHandler.UpdateMe)
		protected.GET("/users", admin, cfg.UserHandler.List)
		protected.GET("/users/:id", admin, cfg.UserHandler.Get)
		protected.PATCH("/users/:id/role", admin, cfg.UserHandler.UpdateRole)
		protected.DELETE("/users/:id", admin, cfg.UserHandler.Delete)
	}

	// Categories
	if cfg.CategoryHandler != nil {
		protected.POST("/categories", admin, cfg.CategoryHandler.Create)
		protected.PATCH("/categories/:id", admin, cfg.CategoryHandler.Update)
		protected.DELETE("/categories/:id", admin, cfg.CategoryHandler.Delete)
	}

	// Courses
	if cfg.CourseHandler != nil {
		protected.POST("/courses", instructor, cfg.CourseHandler.Create)
		protected.PATCH("/courses/:id", cfg.CourseHandler.Update)
		protected.DELETE("/courses/:id", cfg.CourseHandler.Delete)
		protected.POST("/courses/:id/publish", cfg.CourseHandler.Publish)
		protected.POST("/courses/:id/thumbnail", cfg.CourseHandler.UploadThumbnail)
	}

	// Modules
	if cfg.ModuleHandler != nil {
		protected.POST("/courses/:id/modules", cfg.ModuleHandler.Create)
		protected.GET("/courses/:id/modules", cfg.ModuleHandler.ListByCourse)
		protected.PATCH("/modules/:id", cfg.ModuleHandler.Update)
		protected.DELETE("/modules/:id", cfg.ModuleHandler.Delete)
	}

	// Lessons
	if cfg.LessonHandler != nil {
		protected.POST("/modules/:id/lessons", cfg.LessonHandler.Create)
		protected.GET("/lessons/:id", cfg.LessonHandler.Get)
		protected.PATCH("/lessons/:id", cfg.LessonHandler.Update)
		protected.DELETE("/lessons/:id", cfg.LessonHandler.Delete)
		protected.POST("/lessons/:id/complete", cfg.LessonHandler.Complete)
	}

	// Questions
	if cfg.QuestionHandler != nil {
		protected.POST("/lessons/:id/questions", cfg.QuestionHandler.Create)
		protected.GET("/lessons/:id/questions", cfg.QuestionHandler.ListByLesson)
		protected.PATCH("/questions/:id", cfg.QuestionHandler.Update)
		protected.DELETE("/questions/:id", cfg.QuestionHandler.Delete)
	}

	// Attempts
	if cfg.AttemptHandler != nil {
		protected.POST("/lessons/:id/attempts", cfg.AttemptHandler.Start)
		protected.GET("/lessons/:id/attempts", cfg.AttemptHandler.ListMine)
		protected.POST("/attempts/:id/submit", cfg.AttemptHandler.Submit)
		protected.GET("/attempts/:id", cfg.AttemptHandler.Get)
	}

	// Enrollments
	if cfg.EnrollmentHandler != nil {
		protected.POST("/courses/:id/enroll", cfg.EnrollmentHandler.Enroll)
		protected.GET("/courses/:id/enrollment", cfg.EnrollmentHandler.GetMine)
		protected.GET("/courses/:id/enrollments", cfg.EnrollmentHandler.ListByCourse)
		protected.GET("/enrollments/me", cfg.EnrollmentHandler.ListMine)
	}

	// Orders
	if cfg.OrderHandler != nil {
		protected.POST("/orders", cfg.OrderHandler.Create)
		protected.GET("/orders/me", cfg.OrderHandler.ListMine)
		protected.GET("/orders", admin, cfg.OrderHandler.List)
		protected.GET("/orders/:id", cfg.OrderHandler.Get)
		protected.POST("/orders/:id/pay", cfg.OrderHandler.Pay)
		protected.POST("/orders/:id/cancel", cfg.OrderHandler.Cancel)
		protected.POST("/orders/:id/refund", admin, cfg.OrderHandler.Refund)
	}

	// Wallet
	if cfg.WalletHandler != nil {
		protected.GET("/wallet", cfg.WalletHandler.Balance)
		protected.POST("/wallet/deposit", cfg.WalletHandler.Deposit)
		protected.POST("/wallet/withdraw", cfg.WalletHandler.Withdraw)
		protected.GET("/wallet/transactions", cfg.WalletHandler.ListMine)
		protected.GET("/transactions", admin, cfg.WalletHandler.List)
	}

	// Classrooms
	if cfg.ClassroomHandler != nil {
		protected.POST("/classrooms", cfg.ClassroomHandler.Create)
		protected.GET("/classrooms", cfg.ClassroomHandler.ListMine)
		protected.POST("/classrooms/join", cfg.ClassroomHandler.Join)
		protected.GET("/classrooms/:id", cfg.ClassroomHandler.Get)
		protected.PATCH("/classrooms/:id", cfg.ClassroomHandler.Update)
		protected.DELETE("/classrooms/:id", cfg.ClassroomHandler.Delete)
		protected.POST("/classrooms/:id/members", cfg.ClassroomHandler.AddMember)
		protected.PATCH("/classrooms/:id/members/:userId", cfg.ClassroomHandler.UpdateMember)
		protected.DELETE("/classrooms/:id/members/:userId", cfg.ClassroomHandler.RemoveMember)
		protected.POST("/classrooms/:id/materials", cfg.ClassroomHandler.AddMaterial)
		protected.GET("/classrooms/:id/materials", cfg.ClassroomHandler.ListMaterials)
		protected.DELETE("/classrooms/:id/materials/:materialId", cfg.ClassroomHandler.DeleteMaterial)
	}

	// Messages
	if cfg.MessageHandler != nil {
		protected.POST("/classrooms/:id/messages", cfg.MessageHandler.Post)
		protected.GET("/classrooms/:id/messages", cfg.MessageHandler.List)
		protected.DELETE("/messages/:id", cfg.MessageHandler.Delete)
	}

	// Notifications
	if cfg.NotificationHandler != nil {
		protected.POST("/notifications", admin, cfg.NotificationHandler.Send)
		protected.GET("/notifications", cfg.NotificationHandler.List)
		protected.GET("/notifications/unread-count", cfg.NotificationHandler.UnreadCount)
		protected.PATCH("/notifications/read-all", cfg.NotificationHandler.MarkAllRead)
		protected.PATCH("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
		protected.DELETE("/notifications/:id", cfg.NotificationHandler.Delete)
	}

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil {
		protected.GET("/realtime/stream", cfg.RealtimeHandler.Stream)
		protected.POST("/realtime/subscribe", cfg.RealtimeHandler.Subscribe)
		protected.POST("/realtime/unsubscribe", cfg.RealtimeHandler.Unsubscribe)
	}

	return r
}
