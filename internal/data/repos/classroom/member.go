package classroom

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

type MemberRepo interface {
	Create(dbc dbctx.Context, rows []*types.ClassroomMember) ([]*types.ClassroomMember, error)
	Get(dbc dbctx.Context, classroomID, userID uuid.UUID) (*types.ClassroomMember, error)
	GetByClassroomIDs(dbc dbctx.Context, classroomIDs []uuid.UUID) ([]*types.ClassroomMember, error)
	CountByRole(dbc dbctx.Context, classroomID uuid.UUID, role string) (int64, error)
	// LockByRole selects the members holding role FOR UPDATE, in user_id order, so concurrent
	// role changes in one classroom serialize on the same rows.
	LockByRole(dbc dbctx.Context, classroomID uuid.UUID, role string) ([]*types.ClassroomMember, error)
	UpdateRole(dbc dbctx.Context, classroomID, userID uuid.UUID, role string) error
	Delete(dbc dbctx.Context, classroomID, userID uuid.UUID) error
	FullDeleteByClassroomIDs(dbc dbctx.Context, classroomIDs []uuid.UUID) error
}

type memberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemberRepo(db *gorm.DB, baseLog *logger.Logger) MemberRepo {
	repoLog := baseLog.With("repo", "ClassroomMemberRepo")
	return &memberRepo{db: db, log: repoLog}
}

func (r *memberRepo) Create(dbc dbctx.Context, rows []*types.ClassroomMember) ([]*types.ClassroomMember, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.ClassroomMember{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *memberRepo) Get(dbc dbctx.Context, classroomID, userID uuid.UUID) (*types.ClassroomMember, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.ClassroomMember
	if err := t.WithContext(dbc.Ctx).
		Where("classroom_id = ? AND user_id = ?", classroomID, userID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *memberRepo) GetByClassroomIDs(dbc dbctx.Context, classroomIDs []uuid.UUID) ([]*types.ClassroomMember, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.ClassroomMember
	if len(classroomIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("classroom_id IN ?", classroomIDs).
		Order("joined_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memberRepo) CountByRole(dbc dbctx.Context, classroomID uuid.UUID, role string) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.ClassroomMember{}).
		Where("classroom_id = ? AND role = ?", classroomID, role).
		Count(&n).Error
	return n, err
}

func (r *memberRepo) LockByRole(dbc dbctx.Context, classroomID uuid.UUID, role string) ([]*types.ClassroomMember, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.ClassroomMember
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("classroom_id = ? AND role = ?", classroomID, role).
		Order("user_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memberRepo) UpdateRole(dbc dbctx.Context, classroomID, userID uuid.UUID, role string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.ClassroomMember{}).
		Where("classroom_id = ? AND user_id = ?", classroomID, userID).
		Update("role", role).Error
}

func (r *memberRepo) Delete(dbc dbctx.Context, classroomID, userID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Where("classroom_id = ? AND user_id = ?", classroomID, userID).
		Delete(&types.ClassroomMember{}).Error
}

func (r *memberRepo) FullDeleteByClassroomIDs(dbc dbctx.Context, classroomIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(classroomIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("classroom_id IN ?", classroomIDs).
		Delete(&types.ClassroomMember{}).Error
}
