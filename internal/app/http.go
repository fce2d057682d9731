package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/http"
	httpH "github.com/yungbote/coursehub-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursehub-backend/internal/http/middleware"
	"github.com/yungbote/coursehub-backend/internal/observability"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	User         *httpH.UserHandler
	Category     *httpH.CategoryHandler
	Course       *httpH.CourseHandler
	Module       *httpH.ModuleHandler
	Lesson       *httpH.LessonHandler
	Question     *httpH.QuestionHandler
	Attempt      *httpH.AttemptHandler
	Enrollment   *httpH.EnrollmentHandler
	Order        *httpH.OrderHandler
	Wallet       *httpH.WalletHandler
	Classroom    *httpH.ClassroomHandler
	Message      *httpH.MessageHandler
	Notification *httpH.NotificationHandler
	Realtime     *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, cfg Config, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(db),
		Auth:         httpH.NewAuthHandler(services.Auth),
		User:         httpH.NewUserHandler(services.User),
		Category:     httpH.NewCategoryHandler(services.Category),
		Course:       httpH.NewCourseHandler(log, services.Course),
		Module:       httpH.NewModuleHandler(services.Module),
		Lesson:       httpH.NewLessonHandler(services.Lesson),
		Question:     httpH.NewQuestionHandler(services.Question),
		Attempt:      httpH.NewAttemptHandler(services.Attempt),
		Enrollment:   httpH.NewEnrollmentHandler(services.Enrollment),
		Order:        httpH.NewOrderHandler(services.Order),
		Wallet:       httpH.NewWalletHandler(services.Wallet),
		Classroom:    httpH.NewClassroomHandler(log, services.Classroom, cfg.MaxUploadBytes),
		Message:      httpH.NewMessageHandler(services.Message),
		Notification: httpH.NewNotificationHandler(services.Notification),
		Realtime:     httpH.NewRealtimeHandler(log, hub, services.Classroom),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		ServiceName:    cfg.Otel.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		Metrics:        metrics,
		AuthMiddleware: middleware.Auth,

		HealthHandler:       handlers.Health,
		AuthHandler:         handlers.Auth,
		UserHandler:         handlers.User,
		CategoryHandler:     handlers.Category,
		CourseHandler:       handlers.Course,
		ModuleHandler:       handlers.Module,
		LessonHandler:       handlers.Lesson,
		QuestionHandler:     handlers.Question,
		AttemptHandler:      handlers.Attempt,
		EnrollmentHandler:   handlers.Enrollment,
		OrderHandler:        handlers.Order,
		WalletHandler:       handlers.Wallet,
		ClassroomHandler:    handlers.Classroom,
		MessageHandler:      handlers.Message,
		NotificationHandler: handlers.Notification,
		RealtimeHandler:     handlers.Realtime,
	})
}
