package learning

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

type QuestionRepo interface {
	Create(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error)
	GetByIDs(dbc dbctx.Context, questionIDs []uuid.UUID) ([]*types.Question, error)
	GetByID(dbc dbctx.Context, questionID uuid.UUID) (*types.Question, error)
	GetByQuizIDs(dbc dbctx.Context, quizIDs []uuid.UUID) ([]*types.Question, error)
	CountByQuizID(dbc dbctx.Context, quizID uuid.UUID) (int64, error)
	NextPosition(dbc dbctx.Context, quizID uuid.UUID) (int, error)
	UpdateFields(dbc dbctx.Context, questionID uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(dbc dbctx.Context, questionIDs []uuid.UUID) error

	CreateResource(dbc dbctx.Context, res *types.QuestionResource) error
	GetResources(dbc dbctx.Context, questions []*types.Question) error
	ReplaceResource(dbc dbctx.Context, q *types.Question, res *types.QuestionResource) error
	FullDeleteResources(dbc dbctx.Context, questions []*types.Question) error
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	repoLog := baseLog.With("repo", "QuestionRepo")
	return &questionRepo{db: db, log: repoLog}
}

func (r *questionRepo) Create(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(questions) == 0 {
		return []*types.Question{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) GetByIDs(dbc dbctx.Context, questionIDs []uuid.UUID) ([]*types.Question, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.Question
	if len(questionIDs) == 0 {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", questionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) GetByID(dbc dbctx.Context, questionID uuid.UUID) (*types.Question, error) {
	if questionID == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{questionID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *questionRepo) GetByQuizIDs(dbc dbctx.Context, quizIDs []uuid.UUID) ([]*types.Question, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.Question
	if len(quizIDs) == 0 {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("quiz_id IN ?", quizIDs).
		Order("position ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) CountByQuizID(dbc dbctx.Context, quizID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.Question{}).
		Where("quiz_id = ?", quizID).
		Count(&n).Error
	return n, err
}

func (r *questionRepo) NextPosition(dbc dbctx.Context, quizID uuid.UUID) (int, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var maxPos int
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Question{}).
		Where("quiz_id = ?", quizID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&maxPos).Error; err != nil {
		return 0, err
	}
	return maxPos + 1, nil
}

func (r *questionRepo) UpdateFields(dbc dbctx.Context, questionID uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if questionID == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Question{}).
		Where("id = ?", questionID).
		Updates(updates).Error
}

func (r *questionRepo) FullDeleteByIDs(dbc dbctx.Context, questionIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(questionIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("id IN ?", questionIDs).
		Delete(&types.Question{}).Error
}

func (r *questionRepo) CreateResource(dbc dbctx.Context, res *types.QuestionResource) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if res == nil {
		return fmt.Errorf("nil question resource")
	}
	db := t.WithContext(dbc.Ctx)
	switch {
	case res.Type == types.QuestionTypeSingleChoice && res.SingleChoice != nil:
		return db.Create(res.SingleChoice).Error
	case res.Type == types.QuestionTypeMultipleChoice && res.MultipleChoice != nil:
		return db.Create(res.MultipleChoice).Error
	case res.Type == types.QuestionTypeFillIn && res.FillIn != nil:
		return db.Create(res.FillIn).Error
	default:
		return fmt.Errorf("question resource missing %s payload", res.Type)
	}
}

// GetResources resolves Resource on every question, grouping lookups by type.
func (r *questionRepo) GetResources(dbc dbctx.Context, questions []*types.Question) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(questions) == 0 {
		return nil
	}
	db := t.WithContext(dbc.Ctx)

	idsByType := map[types.QuestionType][]uuid.UUID{}
	for _, q := range questions {
		idsByType[q.Type] = append(idsByType[q.Type], q.ResourceID)
	}

	singles := map[uuid.UUID]*types.SingleChoice{}
	if ids := idsByType[types.QuestionTypeSingleChoice]; len(ids) > 0 {
		var rows []*types.SingleChoice
		if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			singles[row.ID] = row
		}
	}
	multiples := map[uuid.UUID]*types.MultipleChoice{}
	if ids := idsByType[types.QuestionTypeMultipleChoice]; len(ids) > 0 {
		var rows []*types.MultipleChoice
		if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			multiples[row.ID] = row
		}
	}
	fillIns := map[uuid.UUID]*types.FillIn{}
	if ids := idsByType[types.QuestionTypeFillIn]; len(ids) > 0 {
		var rows []*types.FillIn
		if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			fillIns[row.ID] = row
		}
	}

	for _, q := range questions {
		res := &types.QuestionResource{Type: q.Type}
		switch q.Type {
		case types.QuestionTypeSingleChoice:
			res.SingleChoice = singles[q.ResourceID]
		case types.QuestionTypeMultipleChoice:
			res.MultipleChoice = multiples[q.ResourceID]
		case types.QuestionTypeFillIn:
			res.FillIn = fillIns[q.ResourceID]
		}
		if res.ID() == uuid.Nil {
			r.log.Warn("question resource missing", "question_id", q.ID, "type", q.Type, "resource_id", q.ResourceID)
			continue
		}
		q.Resource = res
	}
	return nil
}

// ReplaceResource swaps the question's resource row, which may change its type.
func (r *questionRepo) ReplaceResource(dbc dbctx.Context, q *types.Question, res *types.QuestionResource) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	inner := dbctx.Context{Ctx: dbc.Ctx, Tx: t}
	if err := r.FullDeleteResources(inner, []*types.Question{q}); err != nil {
		return err
	}
	if err := r.CreateResource(inner, res); err != nil {
		return err
	}
	if err := r.UpdateFields(inner, q.ID, map[string]interface{}{
		"type":        res.Type,
		"resource_id": res.ID(),
	}); err != nil {
		return err
	}
	q.Type = res.Type
	q.ResourceID = res.ID()
	q.Resource = res
	return nil
}

func (r *questionRepo) FullDeleteResources(dbc dbctx.Context, questions []*types.Question) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	db := t.WithContext(dbc.Ctx)
	idsByType := map[types.QuestionType][]uuid.UUID{}
	for _, q := range questions {
		idsByType[q.Type] = append(idsByType[q.Type], q.ResourceID)
	}
	if ids := idsByType[types.QuestionTypeSingleChoice]; len(ids) > 0 {
		if err := db.Where("id IN ?", ids).Delete(&types.SingleChoice{}).Error; err != nil {
			return err
		}
	}
	if ids := idsByType[types.QuestionTypeMultipleChoice]; len(ids) > 0 {
		if err := db.Where("id IN ?", ids).Delete(&types.MultipleChoice{}).Error; err != nil {
			return err
		}
	}
	if ids := idsByType[types.QuestionTypeFillIn]; len(ids) > 0 {
		if err := db.Where("id IN ?", ids).Delete(&types.FillIn{}).Error; err != nil {
			return err
		}
	}
	return nil
}
