package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

type ModuleInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
}

type ModuleService interface {
	Create(ctx context.Context, courseID uuid.UUID, in ModuleInput) (*types.Module, error)
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Module, error)
	Update(ctx context.Context, id uuid.UUID, in ModuleInput) (*types.Module, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type moduleService struct {
	db            *gorm.DB
	log           *logger.Logger
	courseRepo    repos.CourseRepo
	moduleRepo    repos.ModuleRepo
	lessonRepo    repos.LessonRepo
	lessonService LessonService
	progress      *ProgressTracker
}

func NewModuleService(db *gorm.DB, log *logger.Logger, courseRepo repos.CourseRepo, moduleRepo repos.ModuleRepo, lessonRepo repos.LessonRepo, lessonService LessonService, progress *ProgressTracker) ModuleService {
	return &moduleService{
		db:            db,
		log:           log.With("service", "ModuleService"),
		courseRepo:    courseRepo,
		moduleRepo:    moduleRepo,
		lessonRepo:    lessonRepo,
		lessonService: lessonService,
		progress:      progress,
	}
}

func (ms *moduleService) Create(ctx context.Context, courseID uuid.UUID, in ModuleInput) (*types.Module, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, apierr.BadRequest("invalid_module", "title is required")
	}
	if in.Position != nil && *in.Position < 0 {
		return nil, apierr.BadRequest("invalid_module", "position must not be negative")
	}
	row := &types.Module{CourseID: courseID, Title: strings.TrimSpace(*in.Title)}
	if in.Description != nil {
		row.Description = strings.TrimSpace(*in.Description)
	}
	err := withTx(ms.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		if _, _, err := loadManagedCourse(inner, ms.courseRepo, courseID); err != nil {
			return err
		}
		if in.Position != nil {
			row.Position = *in.Position
		} else {
			next, err := ms.moduleRepo.NextPosition(inner, courseID)
			if err != nil {
				return fmt.Errorf("next position: %w", err)
			}
			row.Position = next
		}
		if _, err := ms.moduleRepo.Create(inner, []*types.Module{row}); err != nil {
			return fmt.Errorf("create module: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (ms *moduleService) ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Module, error) {
	c, err := ms.courseRepo.GetByID(dbc, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if !canViewCourse(ctxutil.GetRequestData(dbc.Ctx), c) {
		return nil, apierr.NotFound("course not found")
	}
	modules, err := ms.moduleRepo.GetByCourseIDs(dbc, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	lessons, err := ms.lessonRepo.GetByCourseIDs(dbc, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}
	return assembleOutline(modules, lessons), nil
}

// loadManagedModule loads a module whose course the caller may edit.
func loadManagedModule(dbc dbctx.Context, moduleRepo repos.ModuleRepo, courseRepo repos.CourseRepo, id uuid.UUID) (*types.Module, *types.Course, error) {
	m, err := moduleRepo.GetByID(dbc, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load module: %w", err)
	}
	if m == nil {
		return nil, nil, apierr.NotFound("module not found")
	}
	c, _, err := loadManagedCourse(dbc, courseRepo, m.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return m, c, nil
}

func (ms *moduleService) Update(ctx context.Context, id uuid.UUID, in ModuleInput) (*types.Module, error) {
	var out *types.Module
	err := withTx(ms.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		m, _, err := loadManagedModule(inner, ms.moduleRepo, ms.courseRepo, id)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return apierr.BadRequest("invalid_module", "title is required")
			}
			m.Title = title
			updates["title"] = title
		}
		if in.Description != nil {
			m.Description = strings.TrimSpace(*in.Description)
			updates["description"] = m.Description
		}
		if in.Position != nil {
			if *in.Position < 0 {
				return apierr.BadRequest("invalid_module", "position must not be negative")
			}
			m.Position = *in.Position
			updates["position"] = m.Position
		}
		if err := ms.moduleRepo.UpdateFields(inner, id, updates); err != nil {
			return fmt.Errorf("update module: %w", err)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the module together with its lessons and their resources.
func (ms *moduleService) Delete(ctx context.Context, id uuid.UUID) error {
	var (
		course  *types.Course
		changes []ProgressChange
	)
	err := withTx(ms.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		_, c, err := loadManagedModule(inner, ms.moduleRepo, ms.courseRepo, id)
		if err != nil {
			return err
		}
		course = c
		lessons, err := ms.lessonRepo.GetByModuleIDs(inner, []uuid.UUID{id})
		if err != nil {
			return fmt.Errorf("load lessons: %w", err)
		}
		for _, l := range lessons {
			if err := ms.lessonService.DeleteLessonTree(inner, l); err != nil {
				return err
			}
		}
		if err := ms.moduleRepo.FullDeleteByIDs(inner, []uuid.UUID{id}); err != nil {
			return err
		}
		changes, err = ms.progress.RecomputeCourse(inner, c.ID)
		return err
	})
	if err != nil {
		return err
	}
	ms.progress.AfterCourseChange(ctx, changes, course)
	return nil
}
