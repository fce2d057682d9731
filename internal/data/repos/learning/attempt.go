package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

// AttemptResult is what submission writes onto the attempt.
type AttemptResult struct {
	SubmittedAt time.Time
	Score       float64
	IsPassed    bool
	Correct     int
	Total       int
	Answers     []types.AttemptAnswer
}

type AttemptRepo interface {
	Create(dbc dbctx.Context, attempts []*types.Attempt) ([]*types.Attempt, error)
	GetByIDs(dbc dbctx.Context, attemptIDs []uuid.UUID) ([]*types.Attempt, error)
	GetByID(dbc dbctx.Context, attemptID uuid.UUID) (*types.Attempt, error)
	GetOpen(dbc dbctx.Context, userID, lessonID uuid.UUID) (*types.Attempt, error)
	ListByUserAndLesson(dbc dbctx.Context, userID, lessonID uuid.UUID) ([]*types.Attempt, error)
	Submit(dbc dbctx.Context, attemptID uuid.UUID, result AttemptResult) (bool, error)
	FullDeleteByLessonIDs(dbc dbctx.Context, lessonIDs []uuid.UUID) error
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	repoLog := baseLog.With("repo", "AttemptRepo")
	return &attemptRepo{db: db, log: repoLog}
}

func (r *attemptRepo) Create(dbc dbctx.Context, attempts []*types.Attempt) ([]*types.Attempt, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(attempts) == 0 {
		return []*types.Attempt{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepo) GetByIDs(dbc dbctx.Context, attemptIDs []uuid.UUID) ([]*types.Attempt, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.Attempt
	if len(attemptIDs) == 0 {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", attemptIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *attemptRepo) GetByID(dbc dbctx.Context, attemptID uuid.UUID) (*types.Attempt, error) {
	if attemptID == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{attemptID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *attemptRepo) GetOpen(dbc dbctx.Context, userID, lessonID uuid.UUID) (*types.Attempt, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.Attempt
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND lesson_id = ? AND submitted_at IS NULL", userID, lessonID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *attemptRepo) ListByUserAndLesson(dbc dbctx.Context, userID, lessonID uuid.UUID) ([]*types.Attempt, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.Attempt
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Order("started_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Submit records the result only while the attempt is still open. It returns false when
// another submission got there first.
func (r *attemptRepo) Submit(dbc dbctx.Context, attemptID uuid.UUID, result AttemptResult) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	answers := datatypes.JSONSlice[types.AttemptAnswer](result.Answers)
	if answers == nil {
		answers = datatypes.JSONSlice[types.AttemptAnswer]{}
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Attempt{}).
		Where("id = ? AND submitted_at IS NULL", attemptID).
		Updates(map[string]interface{}{
			"submitted_at":  result.SubmittedAt,
			"score":         result.Score,
			"is_passed":     result.IsPassed,
			"correct_count": result.Correct,
			"total_count":   result.Total,
			"answers":       answers,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *attemptRepo) FullDeleteByLessonIDs(dbc dbctx.Context, lessonIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(lessonIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("lesson_id IN ?", lessonIDs).
		Delete(&types.Attempt{}).Error
}
