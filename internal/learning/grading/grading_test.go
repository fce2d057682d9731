package grading

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/coursehub-backend/internal/domain"
)

func single(correct string, ids ...string) *types.QuestionResource {
	opts := make([]types.ChoiceOption, 0, len(ids))
	for _, id := range ids {
		opts = append(opts, types.ChoiceOption{ID: id, Text: "opt " + id, IsCorrect: id == correct})
	}
	return &types.QuestionResource{Type: types.QuestionTypeSingleChoice, SingleChoice: &types.SingleChoice{Options: opts}}
}

func multiple(correct map[string]bool, ids ...string) *types.QuestionResource {
	opts := make([]types.ChoiceOption, 0, len(ids))
	for _, id := range ids {
		opts = append(opts, types.ChoiceOption{ID: id, Text: "opt " + id, IsCorrect: correct[id]})
	}
	return &types.QuestionResource{Type: types.QuestionTypeMultipleChoice, MultipleChoice: &types.MultipleChoice{Options: opts}}
}

func fillIn(caseSensitive bool, answers ...string) *types.QuestionResource {
	return &types.QuestionResource{Type: types.QuestionTypeFillIn, FillIn: &types.FillIn{Answers: answers, CaseSensitive: caseSensitive}}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		res  *types.QuestionResource
		want error
	}{
		{"single ok", single("a", "a", "b"), nil},
		{"single one option", single("a", "a"), ErrTooFewOptions},
		{"single no correct", single("z", "a", "b"), ErrSingleCorrect},
		{"single two correct", multipleAsSingle(), ErrSingleCorrect},
		{"multiple ok", multiple(map[string]bool{"a": true, "c": true}, "a", "b", "c"), nil},
		{"multiple none correct", multiple(nil, "a", "b"), ErrMultipleCorrect},
		{"duplicate option id", single("a", "a", "a"), ErrDuplicateOptionID},
		{"fill-in ok", fillIn(false, " ", "Paris"), nil},
		{"fill-in blank", fillIn(false, " ", ""), ErrEmptyFillIn},
		{"fill-in nil", &types.QuestionResource{Type: types.QuestionTypeFillIn}, ErrMissingResource},
		{"nil", nil, ErrMissingResource},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.res)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate: want=%v got=%v", tc.want, err)
			}
		})
	}
}

func multipleAsSingle() *types.QuestionResource {
	return &types.QuestionResource{
		Type: types.QuestionTypeSingleChoice,
		SingleChoice: &types.SingleChoice{Options: []types.ChoiceOption{
			{ID: "a", Text: "A", IsCorrect: true},
			{ID: "b", Text: "B", IsCorrect: true},
		}},
	}
}

func TestIsCorrect(t *testing.T) {
	tests := []struct {
		name    string
		res     *types.QuestionResource
		ans     types.AttemptAnswer
		want    bool
		wantErr error
	}{
		{"single match", single("a", "a", "b"), types.AttemptAnswer{SelectedOptionIDs: []string{"a"}}, true, nil},
		{"single wrong", single("a", "a", "b"), types.AttemptAnswer{SelectedOptionIDs: []string{"b"}}, false, nil},
		{"single two picks", single("a", "a", "b"), types.AttemptAnswer{SelectedOptionIDs: []string{"a", "b"}}, false, nil},
		{"single none", single("a", "a", "b"), types.AttemptAnswer{}, false, nil},
		{"multiple exact set", multiple(map[string]bool{"a": true, "c": true}, "a", "b", "c"), types.AttemptAnswer{SelectedOptionIDs: []string{"c", "a"}}, true, nil},
		{"multiple subset", multiple(map[string]bool{"a": true, "c": true}, "a", "b", "c"), types.AttemptAnswer{SelectedOptionIDs: []string{"a"}}, false, nil},
		{"multiple superset", multiple(map[string]bool{"a": true, "c": true}, "a", "b", "c"), types.AttemptAnswer{SelectedOptionIDs: []string{"a", "b", "c"}}, false, nil},
		{"multiple duplicate", multiple(map[string]bool{"a": true}, "a", "b"), types.AttemptAnswer{SelectedOptionIDs: []string{"a", "a"}}, false, ErrDuplicateOption},
		{"fill-in case-insensitive", fillIn(false, "Paris"), types.AttemptAnswer{Text: "  pARIS "}, true, nil},
		{"fill-in case-sensitive mismatch", fillIn(true, "Paris"), types.AttemptAnswer{Text: "paris"}, false, nil},
		{"fill-in case-sensitive match", fillIn(true, "Paris"), types.AttemptAnswer{Text: "Paris"}, true, nil},
		{"fill-in any accepted", fillIn(false, "colour", "color"), types.AttemptAnswer{Text: "Color"}, true, nil},
		{"fill-in blank", fillIn(false, "x"), types.AttemptAnswer{Text: "   "}, false, nil},
		{"missing key", nil, types.AttemptAnswer{}, false, ErrMissingResource},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := IsCorrect(tc.res, tc.ans)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err: want=%v got=%v", tc.wantErr, err)
			}
			if got != tc.want {
				t.Fatalf("correct: want=%v got=%v", tc.want, got)
			}
		})
	}
}

func TestScoreAndPassed(t *testing.T) {
	tests := []struct {
		k, n      int
		pass      float64
		wantScore float64
		wantPass  bool
	}{
		{0, 0, 50, 0, false},
		{1, 2, 50, 50, true},
		{1, 4, 50, 25, false},
		{3, 4, 75, 75, true},
		{4, 4, 100, 100, true},
		{0, 3, 0, 0, true},
	}
	for _, tc := range tests {
		s := Score(tc.k, tc.n)
		if s != tc.wantScore {
			t.Fatalf("Score(%d,%d): want=%v got=%v", tc.k, tc.n, tc.wantScore, s)
		}
		if p := Passed(s, tc.pass); p != tc.wantPass {
			t.Fatalf("Passed(%v,%v): want=%v got=%v", s, tc.pass, tc.wantPass, p)
		}
	}
}

func TestGradeCountsUnansweredAsWrong(t *testing.T) {
	q1 := &types.Question{ID: uuid.New(), Type: types.QuestionTypeSingleChoice, Resource: single("a", "a", "b")}
	q2 := &types.Question{ID: uuid.New(), Type: types.QuestionTypeFillIn, Resource: fillIn(false, "Go")}
	q3 := &types.Question{ID: uuid.New(), Type: types.QuestionTypeSingleChoice, Resource: single("a", "a", "b")}
	q4 := &types.Question{ID: uuid.New(), Type: types.QuestionTypeSingleChoice, Resource: single("a", "a", "b")}

	res, err := Grade([]*types.Question{q1, q2, q3, q4}, []types.AttemptAnswer{
		{QuestionID: q1.ID, SelectedOptionIDs: []string{"a"}},
		{QuestionID: q2.ID, Text: "go"},
		{QuestionID: q3.ID, SelectedOptionIDs: []string{"b"}},
	}, 50)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if res.Total != 4 || res.Correct != 2 {
		t.Fatalf("counts: want 2/4 got %d/%d", res.Correct, res.Total)
	}
	if res.Score != 50 || !res.IsPassed {
		t.Fatalf("score=%v passed=%v", res.Score, res.IsPassed)
	}
	if len(res.Answers) != 3 || !res.Answers[0].IsCorrect || !res.Answers[1].IsCorrect || res.Answers[2].IsCorrect {
		t.Fatalf("answers: %+v", res.Answers)
	}
}

func TestGradeRejectsBadAnswers(t *testing.T) {
	q := &types.Question{ID: uuid.New(), Resource: single("a", "a", "b")}
	if _, err := Grade([]*types.Question{q}, []types.AttemptAnswer{{QuestionID: uuid.New()}}, 50); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("want ErrUnknownQuestion got %v", err)
	}
	dup := []types.AttemptAnswer{{QuestionID: q.ID}, {QuestionID: q.ID}}
	if _, err := Grade([]*types.Question{q}, dup, 50); !errors.Is(err, ErrDuplicateAnswer) {
		t.Fatalf("want ErrDuplicateAnswer got %v", err)
	}
}
