package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/gcp"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

type CourseInput struct {
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	CategoryID     *uuid.UUID       `json:"category_id"`
	ClearCategory  bool             `json:"clear_category"`
	Price          *decimal.Decimal `json:"price"`
	SalePrice      *decimal.Decimal `json:"sale_price"`
	ClearSalePrice bool             `json:"clear_sale_price"`
	Level          *string          `json:"level"`
}

type CourseService interface {
	Create(ctx context.Context, in CourseInput) (*types.Course, error)
	// Get returns the course with its modules and lessons; lesson resources are not loaded.
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	List(dbc dbctx.Context, filter repos.CourseListFilter, q pagination.Query) (pagination.Page[*types.Course], error)
	Update(ctx context.Context, id uuid.UUID, in CourseInput) (*types.Course, error)
	Publish(ctx context.Context, id uuid.UUID) (*types.Course, error)
	UploadThumbnail(ctx context.Context, id uuid.UUID, filename string, file io.Reader) (*types.Course, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type courseService struct {
	db            *gorm.DB
	log           *logger.Logger
	courseRepo    repos.CourseRepo
	categoryRepo  repos.CategoryRepo
	moduleRepo    repos.ModuleRepo
	lessonRepo    repos.LessonRepo
	bucketService gcp.BucketService
}

func NewCourseService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	categoryRepo repos.CategoryRepo,
	moduleRepo repos.ModuleRepo,
	lessonRepo repos.LessonRepo,
	bucketService gcp.BucketService,
) CourseService {
	return &courseService{
		db:            db,
		log:           log.With("service", "CourseService"),
		courseRepo:    courseRepo,
		categoryRepo:  categoryRepo,
		moduleRepo:    moduleRepo,
		lessonRepo:    lessonRepo,
		bucketService: bucketService,
	}
}

func canManageCourse(rd *ctxutil.RequestData, c *types.Course) bool {
	return rd != nil && c != nil && (rd.IsAdmin() || c.InstructorID == rd.UserID)
}

// canViewCourse hides drafts from everyone but their owner and admins.
func canViewCourse(rd *ctxutil.RequestData, c *types.Course) bool {
	return c != nil && (c.IsPublished() || canManageCourse(rd, c))
}

// loadManagedCourse loads a course the caller may edit.
func loadManagedCourse(dbc dbctx.Context, courseRepo repos.CourseRepo, id uuid.UUID) (*types.Course, *ctxutil.RequestData, error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return nil, nil, err
	}
	c, err := courseRepo.GetByID(dbc, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load course: %w", err)
	}
	if c == nil {
		return nil, nil, apierr.NotFound("course not found")
	}
	if !canManageCourse(rd, c) {
		return nil, nil, apierr.Forbidden("only the course instructor or an admin can change this course")
	}
	return c, rd, nil
}

func (cs *courseService) applyInput(dbc dbctx.Context, c *types.Course, in CourseInput, updates map[string]interface{}) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return apierr.BadRequest("invalid_course", "title is required")
		}
		c.Title = title
		updates["title"] = title
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
		updates["description"] = c.Description
	}
	if in.ClearCategory {
		c.CategoryID = nil
		updates["category_id"] = nil
	} else if in.CategoryID != nil {
		cat, err := cs.categoryRepo.GetByID(dbc, *in.CategoryID)
		if err != nil {
			return fmt.Errorf("load category: %w", err)
		}
		if cat == nil {
			return apierr.BadRequest("invalid_category", "category does not exist")
		}
		id := cat.ID
		c.CategoryID = &id
		updates["category_id"] = id
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return apierr.BadRequest("invalid_price", "price must not be negative")
		}
		c.Price = in.Price.Round(2)
		updates["price"] = c.Price
	}
	if in.ClearSalePrice {
		c.SalePrice = decimal.NullDecimal{}
		updates["sale_price"] = nil
	} else if in.SalePrice != nil {
		if in.SalePrice.IsNegative() {
			return apierr.BadRequest("invalid_price", "sale price must not be negative")
		}
		c.SalePrice = decimal.NewNullDecimal(in.SalePrice.Round(2))
		updates["sale_price"] = c.SalePrice.Decimal
	}
	if c.SalePrice.Valid && c.SalePrice.Decimal.GreaterThan(c.Price) {
		return apierr.BadRequest("invalid_price", "sale price must not exceed price")
	}
	if in.Level != nil {
		level := strings.ToLower(strings.TrimSpace(*in.Level))
		if !types.IsValidLevel(level) {
			return apierr.BadRequest("invalid_level", "level must be beginner, intermediate or advanced")
		}
		c.Level = level
		updates["level"] = level
	}
	return nil
}

func (cs *courseService) Create(ctx context.Context, in CourseInput) (*types.Course, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if rd.Role != types.RoleInstructor && !rd.IsAdmin() {
		return nil, apierr.Forbidden("only instructors can create courses")
	}
	if in.Title == nil {
		return nil, apierr.BadRequest("invalid_course", "title is required")
	}
	course := &types.Course{InstructorID: rd.UserID, Level: types.LevelBeginner, Status: types.CourseStatusDraft}
	err = withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		if err := cs.applyInput(inner, course, in, map[string]interface{}{}); err != nil {
			return err
		}
		if _, err := cs.courseRepo.Create(inner, []*types.Course{course}); err != nil {
			return fmt.Errorf("create course: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.log.Info("Course created", "course_id", course.ID, "user_id", rd.UserID)
	return course, nil
}

func (cs *courseService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	c, err := cs.courseRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if !canViewCourse(rd, c) {
		return nil, apierr.NotFound("course not found")
	}

	var (
		modules []*types.Module
		lessons []*types.Lesson
	)
	g, gctx := errgroup.WithContext(ctxOrBackground(dbc.Ctx))
	inner := dbctx.Context{Ctx: gctx, Tx: dbc.Tx}
	if dbc.Tx != nil {
		// a transaction is a single connection; load sequentially
		g.SetLimit(1)
	}
	g.Go(func() error {
		var err error
		modules, err = cs.moduleRepo.GetByCourseIDs(inner, []uuid.UUID{id})
		return err
	})
	g.Go(func() error {
		var err error
		lessons, err = cs.lessonRepo.GetByCourseIDs(inner, []uuid.UUID{id})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load course outline: %w", err)
	}
	c.Modules = assembleOutline(modules, lessons)
	return c, nil
}

// assembleOutline attaches lessons to their modules, keeping repository order.
func assembleOutline(modules []*types.Module, lessons []*types.Lesson) []*types.Module {
	byModule := make(map[uuid.UUID]*types.Module, len(modules))
	for _, m := range modules {
		m.Lessons = []*types.Lesson{}
		byModule[m.ID] = m
	}
	for _, l := range lessons {
		if m, ok := byModule[l.ModuleID]; ok {
			m.Lessons = append(m.Lessons, l)
		}
	}
	if modules == nil {
		modules = []*types.Module{}
	}
	return modules
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func (cs *courseService) List(dbc dbctx.Context, filter repos.CourseListFilter, q pagination.Query) (pagination.Page[*types.Course], error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if filter.Level != "" && !types.IsValidLevel(filter.Level) {
		return pagination.Page[*types.Course]{}, apierr.BadRequest("invalid_level", "unknown level")
	}
	switch {
	case rd.IsAdmin():
	case rd != nil && filter.InstructorID != nil && *filter.InstructorID == rd.UserID:
		// instructors see their own drafts
	default:
		filter.Statuses = []string{types.CourseStatusPublished}
	}
	return cs.courseRepo.List(dbc, filter, q)
}

func (cs *courseService) Update(ctx context.Context, id uuid.UUID, in CourseInput) (*types.Course, error) {
	var out *types.Course
	err := withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		c, _, err := loadManagedCourse(inner, cs.courseRepo, id)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if err := cs.applyInput(inner, c, in, updates); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := cs.courseRepo.UpdateFields(inner, id, updates); err != nil {
				return fmt.Errorf("update course: %w", err)
			}
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (cs *courseService) Publish(ctx context.Context, id uuid.UUID) (*types.Course, error) {
	var out *types.Course
	err := withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		c, _, err := loadManagedCourse(inner, cs.courseRepo, id)
		if err != nil {
			return err
		}
		if c.IsPublished() {
			out = c
			return nil
		}
		lessonIDs, err := cs.lessonRepo.GetIDsByCourseID(inner, id)
		if err != nil {
			return fmt.Errorf("count lessons: %w", err)
		}
		if len(lessonIDs) == 0 {
			return apierr.BadRequest("course_empty", "a course needs at least one lesson before publishing")
		}
		now := time.Now().UTC()
		if err := cs.courseRepo.UpdateFields(inner, id, map[string]interface{}{
			"status":       types.CourseStatusPublished,
			"published_at": now,
		}); err != nil {
			return fmt.Errorf("publish course: %w", err)
		}
		c.Status = types.CourseStatusPublished
		c.PublishedAt = &now
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.log.Info("Course published", "course_id", id)
	return out, nil
}

func (cs *courseService) UploadThumbnail(ctx context.Context, id uuid.UUID, filename string, file io.Reader) (*types.Course, error) {
	if cs.bucketService == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "storage_unavailable", fmt.Errorf("object storage is not configured"))
	}
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
	default:
		return nil, apierr.BadRequest("invalid_file", "thumbnail must be an image")
	}
	dbc := dbctx.Context{Ctx: ctx}
	c, _, err := loadManagedCourse(dbc, cs.courseRepo, id)
	if err != nil {
		return nil, err
	}
	oldKey := c.ThumbnailKey
	key := fmt.Sprintf("course/%s/%d%s", c.ID, time.Now().UnixNano(), ext)
	if err := cs.bucketService.UploadFile(dbc, gcp.BucketCategoryThumbnail, key, file); err != nil {
		return nil, fmt.Errorf("upload thumbnail: %w", err)
	}
	c.ThumbnailKey = key
	c.ThumbnailURL = cs.bucketService.GetPublicURL(gcp.BucketCategoryThumbnail, key)
	if err := cs.courseRepo.UpdateFields(dbc, id, map[string]interface{}{
		"thumbnail_key": c.ThumbnailKey,
		"thumbnail_url": c.ThumbnailURL,
	}); err != nil {
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}
	if oldKey != "" && oldKey != key {
		if err := cs.bucketService.DeleteFile(dbc, gcp.BucketCategoryThumbnail, oldKey); err != nil {
			cs.log.Warn("failed to delete old thumbnail (ignored)", "oldKey", oldKey, "error", err)
		}
	}
	return c, nil
}

func (cs *courseService) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		if _, _, err := loadManagedCourse(inner, cs.courseRepo, id); err != nil {
			return err
		}
		return cs.courseRepo.SoftDeleteByIDs(inner, []uuid.UUID{id})
	})
}
