// Package grading checks quiz answer keys at write time and scores submitted answers.
package grading

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/coursehub-backend/internal/domain"
)

var (
	ErrMissingResource   = errors.New("question has no answer key")
	ErrDuplicateOption   = errors.New("selected options contain duplicates")
	ErrDuplicateAnswer   = errors.New("question answered more than once")
	ErrUnknownQuestion   = errors.New("answer references a question outside this quiz")
	ErrTooFewOptions     = errors.New("at least two options are required")
	ErrSingleCorrect     = errors.New("single choice questions need exactly one correct option")
	ErrMultipleCorrect   = errors.New("multiple choice questions need at least one correct option")
	ErrEmptyFillIn       = errors.New("fill-in questions need at least one accepted answer")
	ErrBlankOption       = errors.New("options need a non-empty id and text")
	ErrDuplicateOptionID = errors.New("option ids must be unique")
)

// Validate checks an answer key before it is stored.
func Validate(res *types.QuestionResource) error {
	if res == nil {
		return ErrMissingResource
	}
	switch res.Type {
	case types.QuestionTypeSingleChoice:
		if res.SingleChoice == nil {
			return ErrMissingResource
		}
		n, err := checkOptions(res.SingleChoice.Options)
		if err != nil {
			return err
		}
		if n != 1 {
			return ErrSingleCorrect
		}
	case types.QuestionTypeMultipleChoice:
		if res.MultipleChoice == nil {
			return ErrMissingResource
		}
		n, err := checkOptions(res.MultipleChoice.Options)
		if err != nil {
			return err
		}
		if n < 1 {
			return ErrMultipleCorrect
		}
	case types.QuestionTypeFillIn:
		if res.FillIn == nil {
			return ErrMissingResource
		}
		for _, a := range res.FillIn.Answers {
			if strings.TrimSpace(a) != "" {
				return nil
			}
		}
		return ErrEmptyFillIn
	default:
		return fmt.Errorf("unknown question type %q", res.Type)
	}
	return nil
}

// checkOptions returns the number of correct options.
func checkOptions(opts []types.ChoiceOption) (int, error) {
	if len(opts) < 2 {
		return 0, ErrTooFewOptions
	}
	seen := make(map[string]struct{}, len(opts))
	correct := 0
	for _, o := range opts {
		id := strings.TrimSpace(o.ID)
		if id == "" || strings.TrimSpace(o.Text) == "" {
			return 0, ErrBlankOption
		}
		if _, dup := seen[id]; dup {
			return 0, ErrDuplicateOptionID
		}
		seen[id] = struct{}{}
		if o.IsCorrect {
			correct++
		}
	}
	return correct, nil
}

// IsCorrect evaluates one answer against a question's key.
func IsCorrect(res *types.QuestionResource, ans types.AttemptAnswer) (bool, error) {
	if res == nil {
		return false, ErrMissingResource
	}
	switch res.Type {
	case types.QuestionTypeSingleChoice:
		if res.SingleChoice == nil {
			return false, ErrMissingResource
		}
		if len(ans.SelectedOptionIDs) != 1 {
			return false, nil
		}
		for _, o := range res.SingleChoice.Options {
			if o.IsCorrect {
				return o.ID == strings.TrimSpace(ans.SelectedOptionIDs[0]), nil
			}
		}
		return false, nil
	case types.QuestionTypeMultipleChoice:
		if res.MultipleChoice == nil {
			return false, ErrMissingResource
		}
		selected := make(map[string]struct{}, len(ans.SelectedOptionIDs))
		for _, id := range ans.SelectedOptionIDs {
			id = strings.TrimSpace(id)
			if _, dup := selected[id]; dup {
				return false, ErrDuplicateOption
			}
			selected[id] = struct{}{}
		}
		want := 0
		for _, o := range res.MultipleChoice.Options {
			if !o.IsCorrect {
				continue
			}
			want++
			if _, ok := selected[o.ID]; !ok {
				return false, nil
			}
		}
		return want == len(selected), nil
	case types.QuestionTypeFillIn:
		if res.FillIn == nil {
			return false, ErrMissingResource
		}
		got := strings.TrimSpace(ans.Text)
		if got == "" {
			return false, nil
		}
		for _, accepted := range res.FillIn.Answers {
			accepted = strings.TrimSpace(accepted)
			if accepted == "" {
				continue
			}
			if res.FillIn.CaseSensitive {
				if got == accepted {
					return true, nil
				}
			} else if strings.EqualFold(got, accepted) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unknown question type %q", res.Type)
	}
}

// Score is the percentage of correct answers; an empty quiz scores 0.
func Score(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(correct) / float64(total)
}

func Passed(score, passScore float64) bool { return score >= passScore }

type Result struct {
	Answers  []types.AttemptAnswer
	Correct  int
	Total    int
	Score    float64
	IsPassed bool
}

// Grade scores answers against every question of a quiz. Unanswered questions count as wrong.
// Questions must have their Resource loaded.
func Grade(questions []*types.Question, answers []types.AttemptAnswer, passScore float64) (*Result, error) {
	byID := make(map[uuid.UUID]*types.Question, len(questions))
	for _, q := range questions {
		if q != nil {
			byID[q.ID] = q
		}
	}
	given := make(map[uuid.UUID]types.AttemptAnswer, len(answers))
	for _, a := range answers {
		if _, ok := byID[a.QuestionID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, a.QuestionID)
		}
		if _, dup := given[a.QuestionID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAnswer, a.QuestionID)
		}
		given[a.QuestionID] = a
	}

	out := &Result{Total: len(byID), Answers: make([]types.AttemptAnswer, 0, len(given))}
	for _, q := range questions {
		if q == nil {
			continue
		}
		a, ok := given[q.ID]
		if !ok {
			continue
		}
		correct, err := IsCorrect(q.Resource, a)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		a.IsCorrect = correct
		if correct {
			out.Correct++
		}
		out.Answers = append(out.Answers, a)
	}
	out.Score = Score(out.Correct, out.Total)
	out.IsPassed = Passed(out.Score, passScore)
	return out, nil
}
