package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/coursehub-backend/internal/domain"
)

func PtrUUID(id uuid.UUID) *uuid.UUID { return &id }

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email, role string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:            uuid.New(),
		Email:         email,
		Password:      "pw",
		Name:          "Test User",
		Role:          role,
		WalletBalance: decimal.Zero,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SetBalance(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, balance decimal.Decimal) {
	tb.Helper()
	if err := tx.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("wallet_balance", balance).Error; err != nil {
		tb.Fatalf("set balance: %v", err)
	}
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Category {
	tb.Helper()
	c := &types.Category{ID: uuid.New(), Name: name, Slug: name}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

// SeedCourse creates a published course. A nil sale leaves only the list price.
func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, instructorID uuid.UUID, price string, sale *string) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:           uuid.New(),
		InstructorID: instructorID,
		Title:        "course " + uuid.NewString()[:8],
		Price:        decimal.RequireFromString(price),
		Level:        "beginner",
		Status:       types.CourseStatusPublished,
	}
	if sale != nil {
		c.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString(*sale))
	}
	now := time.Now().UTC()
	c.PublishedAt = &now
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, position int) *types.Module {
	tb.Helper()
	m := &types.Module{ID: uuid.New(), CourseID: courseID, Title: "module", Position: position}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedTheoryLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, mod *types.Module, position int) *types.Lesson {
	tb.Helper()
	th := &types.Theory{ID: uuid.New(), Content: "content"}
	if err := tx.WithContext(ctx).Create(th).Error; err != nil {
		tb.Fatalf("seed theory: %v", err)
	}
	l := &types.Lesson{
		ID:         uuid.New(),
		ModuleID:   mod.ID,
		CourseID:   mod.CourseID,
		Title:      "theory",
		Type:       types.LessonTypeTheory,
		ResourceID: th.ID,
		Position:   position,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed theory lesson: %v", err)
	}
	return l
}

func SeedQuizLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, mod *types.Module, position int, passScore float64) (*types.Lesson, *types.Quiz) {
	tb.Helper()
	qz := &types.Quiz{ID: uuid.New(), Title: "quiz", PassScore: passScore, TimeLimitMinutes: 10}
	if err := tx.WithContext(ctx).Create(qz).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	l := &types.Lesson{
		ID:         uuid.New(),
		ModuleID:   mod.ID,
		CourseID:   mod.CourseID,
		Title:      "quiz",
		Type:       types.LessonTypeQuiz,
		ResourceID: qz.ID,
		Position:   position,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed quiz lesson: %v", err)
	}
	return l, qz
}

// SeedSingleChoice adds a two-option question whose correct option id is "a".
func SeedSingleChoice(tb testing.TB, ctx context.Context, tx *gorm.DB, quizID uuid.UUID, position int) *types.Question {
	tb.Helper()
	sc := &types.SingleChoice{
		ID: uuid.New(),
		Options: datatypes.JSONSlice[types.ChoiceOption]{
			{ID: "a", Text: "A", IsCorrect: true},
			{ID: "b", Text: "B"},
		},
	}
	if err := tx.WithContext(ctx).Create(sc).Error; err != nil {
		tb.Fatalf("seed single choice: %v", err)
	}
	q := &types.Question{
		ID:         uuid.New(),
		QuizID:     quizID,
		Type:       types.QuestionTypeSingleChoice,
		ResourceID: sc.ID,
		Content:    "pick a",
		Position:   position,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

func SeedFillIn(tb testing.TB, ctx context.Context, tx *gorm.DB, quizID uuid.UUID, position int, caseSensitive bool, answers ...string) *types.Question {
	tb.Helper()
	fi := &types.FillIn{ID: uuid.New(), Answers: answers, CaseSensitive: caseSensitive}
	if err := tx.WithContext(ctx).Create(fi).Error; err != nil {
		tb.Fatalf("seed fill in: %v", err)
	}
	q := &types.Question{
		ID:         uuid.New(),
		QuizID:     quizID,
		Type:       types.QuestionTypeFillIn,
		ResourceID: fi.ID,
		Content:    "fill",
		Position:   position,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{ID: uuid.New(), UserID: userID, CourseID: courseID}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

// SeedClassroom creates a classroom with owner as its only admin.
func SeedClassroom(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) *types.Classroom {
	tb.Helper()
	c := &types.Classroom{
		ID:       uuid.New(),
		Name:     "class",
		OwnerID:  ownerID,
		JoinCode: strings.ToUpper(uuid.NewString()[:8]),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed classroom: %v", err)
	}
	SeedMember(tb, ctx, tx, c.ID, ownerID, types.MemberRoleAdmin)
	return c
}

func SeedMember(tb testing.TB, ctx context.Context, tx *gorm.DB, classroomID, userID uuid.UUID, role string) *types.ClassroomMember {
	tb.Helper()
	m := &types.ClassroomMember{ID: uuid.New(), ClassroomID: classroomID, UserID: userID, Role: role}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed member: %v", err)
	}
	return m
}
