package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

type EnrollmentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Enrollment) ([]*types.Enrollment, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Enrollment, error)
	GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error)
	GetByUserAndCourses(dbc dbctx.Context, userID uuid.UUID, courseIDs []uuid.UUID) ([]*types.Enrollment, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, q pagination.Query) (pagination.Page[*types.Enrollment], error)
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID, q pagination.Query) (pagination.Page[*types.Enrollment], error)
	ListAfter(dbc dbctx.Context, after uuid.UUID, limit int) ([]*types.Enrollment, error)
	GetByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Enrollment, error)
	UpdateProgress(dbc dbctx.Context, id uuid.UUID, completed []uuid.UUID, percent float64, completedAt *time.Time) error
	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	FullDeleteByOrderID(dbc dbctx.Context, orderID uuid.UUID) (int64, error)
	FullDeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	repoLog := baseLog.With("repo", "EnrollmentRepo")
	return &enrollmentRepo{db: db, log: repoLog}
}

func (r *enrollmentRepo) Create(dbc dbctx.Context, rows []*types.Enrollment) ([]*types.Enrollment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Enrollment{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *enrollmentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Enrollment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Enrollment
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	rows, err := r.GetByUserAndCourses(dbc, userID, []uuid.UUID{courseID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *enrollmentRepo) GetByUserAndCourses(dbc dbctx.Context, userID uuid.UUID, courseIDs []uuid.UUID) ([]*types.Enrollment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Enrollment
	if userID == uuid.Nil || len(courseIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND course_id IN ?", userID, courseIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, q pagination.Query) (pagination.Page[*types.Enrollment], error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	base := t.WithContext(dbc.Ctx).Model(&types.Enrollment{}).Where("user_id = ?", userID)
	return pagination.Find[*types.Enrollment](base, q, "enrolled_at DESC")
}

func (r *enrollmentRepo) ListByCourse(dbc dbctx.Context, courseID uuid.UUID, q pagination.Query) (pagination.Page[*types.Enrollment], error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	base := t.WithContext(dbc.Ctx).Model(&types.Enrollment{}).Where("course_id = ?", courseID)
	return pagination.Find[*types.Enrollment](base, q, "enrolled_at DESC")
}

// ListAfter pages through all enrollments in id order, for batch jobs.
func (r *enrollmentRepo) ListAfter(dbc dbctx.Context, after uuid.UUID, limit int) ([]*types.Enrollment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 200
	}
	q := t.WithContext(dbc.Ctx).Model(&types.Enrollment{}).Order("id ASC").Limit(limit)
	if after != uuid.Nil {
		q = q.Where("id > ?", after)
	}
	var out []*types.Enrollment
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) GetByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Enrollment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Enrollment
	if courseID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("course_id = ?", courseID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) UpdateProgress(dbc dbctx.Context, id uuid.UUID, completed []uuid.UUID, percent float64, completedAt *time.Time) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	lessons := datatypes.JSONSlice[uuid.UUID](completed)
	if lessons == nil {
		lessons = datatypes.JSONSlice[uuid.UUID]{}
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Enrollment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"completed_lessons": lessons,
			"progress_percent":  percent,
			"completed_at":      completedAt,
		}).Error
}

func (r *enrollmentRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.Enrollment{}).Error
}

func (r *enrollmentRepo) FullDeleteByOrderID(dbc dbctx.Context, orderID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).Where("order_id = ?", orderID).Delete(&types.Enrollment{})
	return res.RowsAffected, res.Error
}

func (r *enrollmentRepo) FullDeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(courseIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("course_id IN ?", courseIDs).Delete(&types.Enrollment{}).Error
}
