package learning

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

type CourseListFilter struct {
	CategoryID   *uuid.UUID
	InstructorID *uuid.UUID
	Level        string
	Search       string
	// Statuses limits the result; empty means any status.
	Statuses []string
}

type CourseRepo interface {
	Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error)
	GetByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Course, error)
	GetByID(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error)
	GetByInstructorIDs(dbc dbctx.Context, instructorIDs []uuid.UUID) ([]*types.Course, error)
	CountByCategoryID(dbc dbctx.Context, categoryID uuid.UUID) (int64, error)
	List(dbc dbctx.Context, filter CourseListFilter, q pagination.Query) (pagination.Page[*types.Course], error)
	UpdateFields(dbc dbctx.Context, courseID uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error
	FullDeleteByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{db: db, log: repoLog}
}

func (r *courseRepo) Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(courses) == 0 {
		return []*types.Course{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) GetByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Course, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.Course
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", courseIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) GetByID(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error) {
	if courseID == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{courseID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *courseRepo) GetByInstructorIDs(dbc dbctx.Context, instructorIDs []uuid.UUID) ([]*types.Course, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var results []*types.Course
	if len(instructorIDs) == 0 {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("instructor_id IN ?", instructorIDs).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) CountByCategoryID(dbc dbctx.Context, categoryID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.Course{}).
		Where("category_id = ?", categoryID).
		Count(&n).Error
	return n, err
}

var courseSortColumns = map[string]string{
	"title":        "title",
	"price":        "price",
	"created_at":   "created_at",
	"published_at": "published_at",
}

func (r *courseRepo) List(dbc dbctx.Context, filter CourseListFilter, q pagination.Query) (pagination.Page[*types.Course], error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	base := t.WithContext(dbc.Ctx).Model(&types.Course{})
	if len(filter.Statuses) > 0 {
		base = base.Where("status IN ?", filter.Statuses)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.InstructorID != nil {
		base = base.Where("instructor_id = ?", *filter.InstructorID)
	}
	if filter.Level != "" {
		base = base.Where("level = ?", filter.Level)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		base = base.Where("lower(title) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	return pagination.Find[*types.Course](base, q, q.OrderClause(courseSortColumns, "created_at DESC"))
}

func (r *courseRepo) UpdateFields(dbc dbctx.Context, courseID uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if courseID == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Course{}).
		Where("id = ?", courseID).
		Updates(updates).Error
}

func (r *courseRepo) SoftDeleteByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(courseIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("id IN ?", courseIDs).
		Delete(&types.Course{}).Error
}

func (r *courseRepo) FullDeleteByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(courseIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Unscoped().
		Where("id IN ?", courseIDs).
		Delete(&types.Course{}).Error
}
