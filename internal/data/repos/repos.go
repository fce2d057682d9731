package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos/auth"
	"github.com/yungbote/coursehub-backend/internal/data/repos/classroom"
	"github.com/yungbote/coursehub-backend/internal/data/repos/commerce"
	"github.com/yungbote/coursehub-backend/internal/data/repos/learning"
	"github.com/yungbote/coursehub-backend/internal/data/repos/notification"
	"github.com/yungbote/coursehub-backend/internal/data/repos/user"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserListFilter = user.UserListFilter
type UserTokenRepo = auth.UserTokenRepo

type CategoryRepo = learning.CategoryRepo
type CourseRepo = learning.CourseRepo
type CourseListFilter = learning.CourseListFilter
type ModuleRepo = learning.ModuleRepo
type LessonRepo = learning.LessonRepo
type LessonResourceRepo = learning.LessonResourceRepo
type QuestionRepo = learning.QuestionRepo
type AttemptRepo = learning.AttemptRepo
type AttemptResult = learning.AttemptResult
type EnrollmentRepo = learning.EnrollmentRepo

type OrderRepo = commerce.OrderRepo
type OrderListFilter = commerce.OrderListFilter
type TransactionRepo = commerce.TransactionRepo
type TransactionListFilter = commerce.TransactionListFilter

type ClassroomRepo = classroom.ClassroomRepo
type ClassroomMemberRepo = classroom.MemberRepo
type ClassroomMaterialRepo = classroom.MaterialRepo
type MessageRepo = classroom.MessageRepo

type NotificationRepo = notification.NotificationRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return learning.NewCategoryRepo(db, baseLog)
}
func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, baseLog)
}
func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return learning.NewModuleRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, baseLog)
}
func NewLessonResourceRepo(db *gorm.DB, baseLog *logger.Logger) LessonResourceRepo {
	return learning.NewLessonResourceRepo(db, baseLog)
}
func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return learning.NewQuestionRepo(db, baseLog)
}
func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	return learning.NewAttemptRepo(db, baseLog)
}
func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, baseLog)
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return commerce.NewOrderRepo(db, baseLog)
}
func NewTransactionRepo(db *gorm.DB, baseLog *logger.Logger) TransactionRepo {
	return commerce.NewTransactionRepo(db, baseLog)
}

func NewClassroomRepo(db *gorm.DB, baseLog *logger.Logger) ClassroomRepo {
	return classroom.NewClassroomRepo(db, baseLog)
}
func NewClassroomMemberRepo(db *gorm.DB, baseLog *logger.Logger) ClassroomMemberRepo {
	return classroom.NewMemberRepo(db, baseLog)
}
func NewClassroomMaterialRepo(db *gorm.DB, baseLog *logger.Logger) ClassroomMaterialRepo {
	return classroom.NewMaterialRepo(db, baseLog)
}
func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return classroom.NewMessageRepo(db, baseLog)
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return notification.NewNotificationRepo(db, baseLog)
}
