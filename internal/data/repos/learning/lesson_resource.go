package learning

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

// LessonResourceRepo stores the video, theory and quiz rows a lesson points at.
type LessonResourceRepo interface {
	Create(dbc dbctx.Context, res *types.LessonResource) error
	Get(dbc dbctx.Context, typ types.LessonType, id uuid.UUID) (*types.LessonResource, error)
	GetQuizzesByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Quiz, error)
	UpdateFields(dbc dbctx.Context, typ types.LessonType, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(dbc dbctx.Context, typ types.LessonType, ids []uuid.UUID) error
}

type lessonResourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonResourceRepo(db *gorm.DB, baseLog *logger.Logger) LessonResourceRepo {
	repoLog := baseLog.With("repo", "LessonResourceRepo")
	return &lessonResourceRepo{db: db, log: repoLog}
}

func lessonResourceModel(typ types.LessonType) (interface{}, error) {
	switch typ {
	case types.LessonTypeVideo:
		return &types.Video{}, nil
	case types.LessonTypeTheory:
		return &types.Theory{}, nil
	case types.LessonTypeQuiz:
		return &types.Quiz{}, nil
	default:
		return nil, fmt.Errorf("unknown lesson type %q", typ)
	}
}

func (r *lessonResourceRepo) Create(dbc dbctx.Context, res *types.LessonResource) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if res == nil || isNilResource(res) {
		return fmt.Errorf("lesson resource missing payload")
	}
	var row interface{}
	switch res.Type {
	case types.LessonTypeVideo:
		row = res.Video
	case types.LessonTypeTheory:
		row = res.Theory
	case types.LessonTypeQuiz:
		row = res.Quiz
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func isNilResource(res *types.LessonResource) bool {
	switch res.Type {
	case types.LessonTypeVideo:
		return res.Video == nil
	case types.LessonTypeTheory:
		return res.Theory == nil
	case types.LessonTypeQuiz:
		return res.Quiz == nil
	}
	return true
}

func (r *lessonResourceRepo) Get(dbc dbctx.Context, typ types.LessonType, id uuid.UUID) (*types.LessonResource, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	out := &types.LessonResource{Type: typ}
	var dest interface{}
	switch typ {
	case types.LessonTypeVideo:
		out.Video = &types.Video{}
		dest = out.Video
	case types.LessonTypeTheory:
		out.Theory = &types.Theory{}
		dest = out.Theory
	case types.LessonTypeQuiz:
		out.Quiz = &types.Quiz{}
		dest = out.Quiz
	default:
		return nil, fmt.Errorf("unknown lesson type %q", typ)
	}
	res := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(dest)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return out, nil
}

func (r *lessonResourceRepo) GetQuizzesByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Quiz, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Quiz
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonResourceRepo) UpdateFields(dbc dbctx.Context, typ types.LessonType, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	model, err := lessonResourceModel(typ)
	if err != nil {
		return err
	}
	return t.WithContext(dbc.Ctx).Model(model).Where("id = ?", id).Updates(updates).Error
}

func (r *lessonResourceRepo) FullDeleteByIDs(dbc dbctx.Context, typ types.LessonType, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	model, err := lessonResourceModel(typ)
	if err != nil {
		return err
	}
	return t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(model).Error
}
