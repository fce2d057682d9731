package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/realtime"
	"github.com/yungbote/coursehub-backend/internal/realtime/bus"
	"github.com/yungbote/coursehub-backend/internal/services"
)

type Services struct {
	// Core
	Avatar services.AvatarService
	Auth   services.AuthService
	User   services.UserService

	// Catalog
	Category services.CategoryService
	Course   services.CourseService
	Module   services.ModuleService
	Lesson   services.LessonService
	Question services.QuestionService

	// Learning
	Progress   *services.ProgressTracker
	Enrollment services.EnrollmentService
	Attempt    services.AttemptService

	// Commerce
	Wallet services.WalletService
	Order  services.OrderService

	// Classroom
	Classroom services.ClassroomService
	Message   services.MessageService

	// Notifications + realtime push
	Notification services.NotificationService
	Realtime     services.RealtimeNotifier
}

// realtimeEmitter publishes through the redis bus when present so every API instance sees the
// message; otherwise it broadcasts on the local hub.
func realtimeEmitter(log *logger.Logger, clients Clients, hub *realtime.SSEHub) realtime.Emitter {
	if clients.RealtimeBus != nil {
		return &bus.Emitter{Bus: clients.RealtimeBus, Log: log}
	}
	return &realtime.HubEmitter{Hub: hub}
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, hub *realtime.SSEHub, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	avatarService, err := services.NewAvatarService(log, clients.Bucket)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}

	rt := services.NewRealtimeNotifier(realtimeEmitter(log, clients, hub))

	authService := services.NewAuthService(
		db, log,
		repos.User,
		repos.UserToken,
		avatarService,
		cfg.JWTSecretKey,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)
	userService := services.NewUserService(db, log, repos.User, repos.UserToken, avatarService)
	notificationService := services.NewNotificationService(db, log, repos.User, repos.Notification, rt)

	categoryService := services.NewCategoryService(db, log, repos.Category, repos.Course)
	courseService := services.NewCourseService(db, log, repos.Course, repos.Category, repos.Module, repos.Lesson, clients.Bucket)

	progress := services.NewProgressTracker(log, repos.Enrollment, repos.Lesson, notificationService, rt)
	lessonService := services.NewLessonService(
		db, log,
		repos.Course,
		repos.Module,
		repos.Lesson,
		repos.LessonResource,
		repos.Question,
		repos.Attempt,
		progress,
	)
	moduleService := services.NewModuleService(db, log, repos.Course, repos.Module, repos.Lesson, lessonService, progress)
	questionService := services.NewQuestionService(db, log, repos.Course, repos.Lesson, repos.Question, repos.Enrollment)
	attemptService := services.NewAttemptService(
		db, log,
		repos.Course,
		repos.Lesson,
		repos.LessonResource,
		repos.Question,
		repos.Attempt,
		progress,
	)
	enrollmentService := services.NewEnrollmentService(db, log, repos.Course, repos.Enrollment, progress, notificationService)

	walletService := services.NewWalletService(db, log, repos.User, repos.Transaction, rt)
	orderService := services.NewOrderService(
		db, log,
		repos.User,
		repos.Course,
		repos.Order,
		repos.Transaction,
		repos.Enrollment,
		notificationService,
		rt,
	)

	classroomService := services.NewClassroomService(
		db, log,
		repos.User,
		repos.Course,
		repos.Classroom,
		repos.ClassroomMember,
		repos.ClassroomMaterial,
		clients.Bucket,
		notificationService,
		rt,
	)
	messageService := services.NewMessageService(db, log, classroomService, repos.ClassroomMember, repos.Message, rt)

	return Services{
		Avatar:       avatarService,
		Auth:         authService,
		User:         userService,
		Category:     categoryService,
		Course:       courseService,
		Module:       moduleService,
		Lesson:       lessonService,
		Question:     questionService,
		Progress:     progress,
		Enrollment:   enrollmentService,
		Attempt:      attemptService,
		Wallet:       walletService,
		Order:        orderService,
		Classroom:    classroomService,
		Message:      messageService,
		Notification: notificationService,
		Realtime:     rt,
	}, nil
}
