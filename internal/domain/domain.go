package domain

import (
	"github.com/yungbote/coursehub-backend/internal/domain/auth"
	"github.com/yungbote/coursehub-backend/internal/domain/classroom"
	"github.com/yungbote/coursehub-backend/internal/domain/commerce"
	"github.com/yungbote/coursehub-backend/internal/domain/learning"
	"github.com/yungbote/coursehub-backend/internal/domain/notification"
	"github.com/yungbote/coursehub-backend/internal/domain/user"
)

const (
	RoleStudent    = user.RoleStudent
	RoleInstructor = user.RoleInstructor
	RoleAdmin      = user.RoleAdmin

	CourseStatusDraft     = learning.CourseStatusDraft
	CourseStatusPublished = learning.CourseStatusPublished

	LevelBeginner     = learning.LevelBeginner
	LevelIntermediate = learning.LevelIntermediate
	LevelAdvanced     = learning.LevelAdvanced

	LessonTypeVideo  = learning.LessonTypeVideo
	LessonTypeTheory = learning.LessonTypeTheory
	LessonTypeQuiz   = learning.LessonTypeQuiz

	QuestionTypeSingleChoice   = learning.QuestionTypeSingleChoice
	QuestionTypeMultipleChoice = learning.QuestionTypeMultipleChoice
	QuestionTypeFillIn         = learning.QuestionTypeFillIn

	AttemptStatusInProgress = learning.AttemptStatusInProgress
	AttemptStatusSubmitted  = learning.AttemptStatusSubmitted

	OrderStatusPending   = commerce.OrderStatusPending
	OrderStatusCompleted = commerce.OrderStatusCompleted
	OrderStatusCancelled = commerce.OrderStatusCancelled
	OrderStatusRefunded  = commerce.OrderStatusRefunded

	TransactionTypeDeposit  = commerce.TransactionTypeDeposit
	TransactionTypeWithdraw = commerce.TransactionTypeWithdraw
	TransactionTypePurchase = commerce.TransactionTypePurchase
	TransactionTypeRefund   = commerce.TransactionTypeRefund

	TransactionStatusCompleted = commerce.TransactionStatusCompleted

	MemberRoleStudent   = classroom.MemberRoleStudent
	MemberRoleAssistant = classroom.MemberRoleAssistant
	MemberRoleAdmin     = classroom.MemberRoleAdmin

	NotificationTypeSystem     = notification.TypeSystem
	NotificationTypeOrder      = notification.TypeOrder
	NotificationTypeEnrollment = notification.TypeEnrollment
	NotificationTypeCourse     = notification.TypeCourse
	NotificationTypeClassroom  = notification.TypeClassroom
)

var (
	IsValidRole             = user.IsValidRole
	IsValidLevel            = learning.IsValidLevel
	IsValidMemberRole       = classroom.IsValidMemberRole
	IsValidNotificationType = notification.IsValidType
	IsValidTransactionType  = commerce.IsValidTransactionType
)

type User = user.User
type UserToken = auth.UserToken

type Category = learning.Category
type Course = learning.Course
type Module = learning.Module
type LessonType = learning.LessonType
type Lesson = learning.Lesson
type Video = learning.Video
type Theory = learning.Theory
type Quiz = learning.Quiz
type LessonResource = learning.LessonResource
type QuestionType = learning.QuestionType
type Question = learning.Question
type ChoiceOption = learning.ChoiceOption
type SingleChoice = learning.SingleChoice
type MultipleChoice = learning.MultipleChoice
type FillIn = learning.FillIn
type QuestionResource = learning.QuestionResource
type Attempt = learning.Attempt
type AttemptAnswer = learning.AttemptAnswer
type Enrollment = learning.Enrollment

type Order = commerce.Order
type OrderItem = commerce.OrderItem
type Transaction = commerce.Transaction

type Classroom = classroom.Classroom
type ClassroomMember = classroom.Member
type ClassroomMaterial = classroom.Material
type Message = classroom.Message

type Notification = notification.Notification

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&UserToken{},
		&Category{},
		&Course{},
		&Module{},
		&Video{},
		&Theory{},
		&Quiz{},
		&Lesson{},
		&SingleChoice{},
		&MultipleChoice{},
		&FillIn{},
		&Question{},
		&Attempt{},
		&Enrollment{},
		&Order{},
		&Transaction{},
		&Classroom{},
		&ClassroomMember{},
		&ClassroomMaterial{},
		&Message{},
		&Notification{},
	}
}
