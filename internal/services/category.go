package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

type CategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type CategoryService interface {
	Create(ctx context.Context, in CategoryInput) (*types.Category, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Category, error)
	List(dbc dbctx.Context, search string, q pagination.Query) (pagination.Page[*types.Category], error)
	Update(ctx context.Context, id uuid.UUID, in CategoryInput) (*types.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	db           *gorm.DB
	log          *logger.Logger
	categoryRepo repos.CategoryRepo
	courseRepo   repos.CourseRepo
}

func NewCategoryService(db *gorm.DB, log *logger.Logger, categoryRepo repos.CategoryRepo, courseRepo repos.CourseRepo) CategoryService {
	return &categoryService{
		db:           db,
		log:          log.With("service", "CategoryService"),
		categoryRepo: categoryRepo,
		courseRepo:   courseRepo,
	}
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (cs *categoryService) Create(ctx context.Context, in CategoryInput) (*types.Category, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apierr.BadRequest("invalid_category", "name is required")
	}
	name := strings.TrimSpace(*in.Name)
	slug := Slugify(name)
	if slug == "" {
		return nil, apierr.BadRequest("invalid_category", "name must contain letters or digits")
	}
	row := &types.Category{Name: name, Slug: slug}
	if in.Description != nil {
		row.Description = strings.TrimSpace(*in.Description)
	}
	err := withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		existing, err := cs.categoryRepo.GetByName(inner, name)
		if err != nil {
			return fmt.Errorf("check name: %w", err)
		}
		if existing != nil {
			return apierr.BadRequest("category_exists", "category name already taken")
		}
		if _, err := cs.categoryRepo.Create(inner, []*types.Category{row}); err != nil {
			if isUniqueViolation(err) {
				return apierr.BadRequest("category_exists", "category name already taken")
			}
			return fmt.Errorf("create category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (cs *categoryService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Category, error) {
	c, err := cs.categoryRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	if c == nil {
		return nil, apierr.NotFound("category not found")
	}
	return c, nil
}

func (cs *categoryService) List(dbc dbctx.Context, search string, q pagination.Query) (pagination.Page[*types.Category], error) {
	return cs.categoryRepo.List(dbc, strings.TrimSpace(search), q)
}

func (cs *categoryService) Update(ctx context.Context, id uuid.UUID, in CategoryInput) (*types.Category, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var out *types.Category
	err := withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		c, err := cs.categoryRepo.GetByID(inner, id)
		if err != nil {
			return fmt.Errorf("load category: %w", err)
		}
		if c == nil {
			return apierr.NotFound("category not found")
		}
		updates := map[string]interface{}{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" || Slugify(name) == "" {
				return apierr.BadRequest("invalid_category", "name is required")
			}
			if !strings.EqualFold(name, c.Name) {
				existing, err := cs.categoryRepo.GetByName(inner, name)
				if err != nil {
					return fmt.Errorf("check name: %w", err)
				}
				if existing != nil && existing.ID != c.ID {
					return apierr.BadRequest("category_exists", "category name already taken")
				}
			}
			c.Name, c.Slug = name, Slugify(name)
			updates["name"], updates["slug"] = c.Name, c.Slug
		}
		if in.Description != nil {
			c.Description = strings.TrimSpace(*in.Description)
			updates["description"] = c.Description
		}
		if len(updates) > 0 {
			if err := cs.categoryRepo.UpdateFields(inner, id, updates); err != nil {
				if isUniqueViolation(err) {
					return apierr.BadRequest("category_exists", "category name already taken")
				}
				return fmt.Errorf("update category: %w", err)
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

func (cs *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	return withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		c, err := cs.categoryRepo.GetByID(inner, id)
		if err != nil {
			return fmt.Errorf("load category: %w", err)
		}
		if c == nil {
			return apierr.NotFound("category not found")
		}
		n, err := cs.courseRepo.CountByCategoryID(inner, id)
		if err != nil {
			return fmt.Errorf("count courses: %w", err)
		}
		if n > 0 {
			return apierr.BadRequest("category_in_use", "category still has courses")
		}
		return cs.categoryRepo.FullDeleteByIDs(inner, []uuid.UUID{id})
	})
}
