package services

import (
	"net/http"
	"testing"

	"github.com/yungbote/coursehub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
)

func TestQuestionValidationAndRedaction(t *testing.T) {
	h := newHarness(t)
	instructor := h.user("teach@example.com", types.RoleInstructor)
	student := h.user("learn@example.com", types.RoleStudent)
	course := testutil.SeedCourse(t, h.ctx, h.db, instructor.ID, "0", nil)
	mod := testutil.SeedModule(t, h.ctx, h.db, course.ID, 0)
	theory := testutil.SeedTheoryLesson(t, h.ctx, h.db, mod, 0)
	quiz, _ := testutil.SeedQuizLesson(t, h.ctx, h.db, mod, 1, 50)
	testutil.SeedEnrollment(t, h.ctx, h.db, student.ID, course.ID)

	svc := NewQuestionService(h.db, h.log, h.courses, h.lessons, h.questions, h.enrollments)
	ctx := h.as(instructor)

	twoCorrect := QuestionInput{
		Type:    types.QuestionTypeSingleChoice,
		Content: strPtr("2+2?"),
		SingleChoice: &ChoiceInput{Options: []types.ChoiceOption{
			{ID: "a", Text: "4", IsCorrect: true},
			{ID: "b", Text: "four", IsCorrect: true},
		}},
	}
	_, err := svc.Create(ctx, quiz.ID, twoCorrect)
	wantStatus(t, err, http.StatusBadRequest)

	valid := twoCorrect
	valid.SingleChoice = &ChoiceInput{Options: []types.ChoiceOption{
		{ID: "a", Text: "4", IsCorrect: true},
		{ID: "b", Text: "5"},
	}}
	_, err = svc.Create(ctx, theory.ID, valid)
	wantCode(t, err, "not_a_quiz")

	_, err = svc.Create(h.as(student), quiz.ID, valid)
	wantStatus(t, err, http.StatusForbidden)

	q, err := svc.Create(ctx, quiz.ID, valid)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if q.Points != 1 || q.Position != 0 {
		t.Fatalf("defaults: points=%d position=%d", q.Points, q.Position)
	}

	_, err = svc.Create(ctx, quiz.ID, QuestionInput{
		Type:    types.QuestionTypeFillIn,
		Content: strPtr("Capital of France"),
		FillIn:  &FillInInput{Answers: []string{"  "}},
	})
	wantStatus(t, err, http.StatusBadRequest)

	asStudent, err := svc.ListByLesson(dbctx.Context{Ctx: h.as(student)}, quiz.ID)
	if err != nil || len(asStudent) != 1 {
		t.Fatalf("ListByLesson student: n=%d err=%v", len(asStudent), err)
	}
	for _, o := range asStudent[0].Resource.SingleChoice.Options {
		if o.IsCorrect {
			t.Fatalf("student sees correct option %q", o.ID)
		}
	}
	asOwner, err := svc.ListByLesson(dbctx.Context{Ctx: ctx}, quiz.ID)
	if err != nil || !asOwner[0].Resource.SingleChoice.Options[0].IsCorrect {
		t.Fatalf("owner should see the answer key: err=%v", err)
	}

	changed, err := svc.Update(ctx, q.ID, QuestionInput{
		Type:   types.QuestionTypeFillIn,
		FillIn: &FillInInput{Answers: []string{"4", "four"}},
	})
	if err != nil {
		t.Fatalf("Update type: %v", err)
	}
	if changed.Type != types.QuestionTypeFillIn || changed.Resource.FillIn == nil {
		t.Fatalf("updated question: type=%s", changed.Type)
	}
	if err := svc.Delete(ctx, q.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
