package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo

	Category       repos.CategoryRepo
	Course         repos.CourseRepo
	Module         repos.ModuleRepo
	Lesson         repos.LessonRepo
	LessonResource repos.LessonResourceRepo
	Question       repos.QuestionRepo
	Attempt        repos.AttemptRepo
	Enrollment     repos.EnrollmentRepo

	Order       repos.OrderRepo
	Transaction repos.TransactionRepo

	Classroom         repos.ClassroomRepo
	ClassroomMember   repos.ClassroomMemberRepo
	ClassroomMaterial repos.ClassroomMaterialRepo
	Message           repos.MessageRepo

	Notification repos.NotificationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      repos.NewUserRepo(db, log),
		UserToken: repos.NewUserTokenRepo(db, log),

		Category:       repos.NewCategoryRepo(db, log),
		Course:         repos.NewCourseRepo(db, log),
		Module:         repos.NewModuleRepo(db, log),
		Lesson:         repos.NewLessonRepo(db, log),
		LessonResource: repos.NewLessonResourceRepo(db, log),
		Question:       repos.NewQuestionRepo(db, log),
		Attempt:        repos.NewAttemptRepo(db, log),
		Enrollment:     repos.NewEnrollmentRepo(db, log),

		Order:       repos.NewOrderRepo(db, log),
		Transaction: repos.NewTransactionRepo(db, log),

		Classroom:         repos.NewClassroomRepo(db, log),
		ClassroomMember:   repos.NewClassroomMemberRepo(db, log),
		ClassroomMaterial: repos.NewClassroomMaterialRepo(db, log),
		Message:           repos.NewMessageRepo(db, log),

		Notification: repos.NewNotificationRepo(db, log),
	}
}
