package classroom

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

type ClassroomRepo interface {
	Create(dbc dbctx.Context, rows []*types.Classroom) ([]*types.Classroom, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Classroom, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Classroom, error)
	GetByJoinCode(dbc dbctx.Context, code string) (*types.Classroom, error)
	ListByMember(dbc dbctx.Context, userID uuid.UUID, q pagination.Query) (pagination.Page[*types.Classroom], error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type classroomRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClassroomRepo(db *gorm.DB, baseLog *logger.Logger) ClassroomRepo {
	repoLog := baseLog.With("repo", "ClassroomRepo")
	return &classroomRepo{db: db, log: repoLog}
}

func (r *classroomRepo) Create(dbc dbctx.Context, rows []*types.Classroom) ([]*types.Classroom, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Classroom{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *classroomRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Classroom, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Classroom
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *classroomRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Classroom, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *classroomRepo) GetByJoinCode(dbc dbctx.Context, code string) (*types.Classroom, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if code == "" {
		return nil, nil
	}
	var out []*types.Classroom
	if err := t.WithContext(dbc.Ctx).Where("join_code = ?", code).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *classroomRepo) ListByMember(dbc dbctx.Context, userID uuid.UUID, q pagination.Query) (pagination.Page[*types.Classroom], error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	base := t.WithContext(dbc.Ctx).
		Model(&types.Classroom{}).
		Where("id IN (?)", t.Model(&types.ClassroomMember{}).Select("classroom_id").Where("user_id = ?", userID))
	return pagination.Find[*types.Classroom](base, q, "created_at DESC")
}

func (r *classroomRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Model(&types.Classroom{}).Where("id = ?", id).Updates(updates).Error
}

func (r *classroomRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.Classroom{}).Error
}
