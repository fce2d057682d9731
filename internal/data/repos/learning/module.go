package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

type ModuleRepo interface {
	Create(dbc dbctx.Context, modules []*types.Module) ([]*types.Module, error)
	GetByIDs(dbc dbctx.Context, moduleIDs []uuid.UUID) ([]*types.Module, error)
	GetByID(dbc dbctx.Context, moduleID uuid.UUID) (*types.Module, error)
	GetByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Module, error)
	NextPosition(dbc dbctx.Context, courseID uuid.UUID) (int, error)
	UpdateFields(dbc dbctx.Context, moduleID uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(dbc dbctx.Context, moduleIDs []uuid.UUID) error
	FullDeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error
}

type moduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	repoLog := baseLog.With("repo", "ModuleRepo")
	return &moduleRepo{db: db, log: repoLog}
}

func (r *moduleRepo) Create(dbc dbctx.Context, modules []*types.Module) ([]*types.Module, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(modules) == 0 {
		return []*types.Module{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *moduleRepo) GetByIDs(dbc dbctx.Context, moduleIDs []uuid.UUID) ([]*types.Module, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.Module
	if len(moduleIDs) == 0 {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", moduleIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *moduleRepo) GetByID(dbc dbctx.Context, moduleID uuid.UUID) (*types.Module, error) {
	if moduleID == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{moduleID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *moduleRepo) GetByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Module, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.Module
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("course_id IN ?", courseIDs).
		Order("course_id ASC, position ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// NextPosition is one past the highest position used in the course.
func (r *moduleRepo) NextPosition(dbc dbctx.Context, courseID uuid.UUID) (int, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var maxPos int
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Module{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&maxPos).Error; err != nil {
		return 0, err
	}
	return maxPos + 1, nil
}

func (r *moduleRepo) UpdateFields(dbc dbctx.Context, moduleID uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if moduleID == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Module{}).
		Where("id = ?", moduleID).
		Updates(updates).Error
}

func (r *moduleRepo) FullDeleteByIDs(dbc dbctx.Context, moduleIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(moduleIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("id IN ?", moduleIDs).
		Delete(&types.Module{}).Error
}

func (r *moduleRepo) FullDeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(courseIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("course_id IN ?", courseIDs).
		Delete(&types.Module{}).Error
}
