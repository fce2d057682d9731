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
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

type UserService interface {
	GetMe(dbc dbctx.Context) (*types.User, error)
	UpdateMe(ctx context.Context, name string) (*types.User, error)
	Get(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	List(dbc dbctx.Context, filter repos.UserListFilter, q pagination.Query) (pagination.Page[*types.User], error)
	UpdateRole(ctx context.Context, userID uuid.UUID, role string) (*types.User, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	avatarService AvatarService
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, userTokenRepo repos.UserTokenRepo, avatarService AvatarService) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		avatarService: avatarService,
	}
}

func (us *userService) GetMe(dbc dbctx.Context) (*types.User, error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.userRepo.GetByID(dbc, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user not found")
	}
	return u, nil
}

func (us *userService) UpdateMe(ctx context.Context, name string) (*types.User, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.BadRequest("invalid_name", "name is required")
	}
	var out *types.User
	err = withTx(us.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		u, err := us.userRepo.GetByID(inner, rd.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if u == nil {
			return apierr.NotFound("user not found")
		}
		if err := us.userRepo.UpdateName(inner, u.ID, name); err != nil {
			return fmt.Errorf("update name: %w", err)
		}
		u.Name = name
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	// initials changed, so the generated avatar is refreshed
	if err := us.avatarService.CreateAndUploadUserAvatar(ctx, out); err != nil {
		us.log.Warn("Failed to refresh avatar", "error", err)
	} else if out.AvatarBucketKey != "" {
		if err := us.userRepo.UpdateAvatarFields(dbctx.Context{Ctx: ctx}, out.ID, out.AvatarBucketKey, out.AvatarURL); err != nil {
			us.log.Warn("Failed to store avatar fields", "error", err)
		}
	}
	return out, nil
}

func (us *userService) Get(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	if _, err := requireAdmin(dbc.Ctx); err != nil {
		return nil, err
	}
	u, err := us.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user not found")
	}
	return u, nil
}

func (us *userService) List(dbc dbctx.Context, filter repos.UserListFilter, q pagination.Query) (pagination.Page[*types.User], error) {
	if _, err := requireAdmin(dbc.Ctx); err != nil {
		return pagination.Page[*types.User]{}, err
	}
	if filter.Role != "" && !types.IsValidRole(filter.Role) {
		return pagination.Page[*types.User]{}, apierr.BadRequest("invalid_role", "unknown role")
	}
	return us.userRepo.List(dbc, filter, q)
}

func (us *userService) UpdateRole(ctx context.Context, userID uuid.UUID, role string) (*types.User, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !types.IsValidRole(role) {
		return nil, apierr.BadRequest("invalid_role", "unknown role")
	}
	var out *types.User
	err := withTx(us.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		u, err := us.userRepo.GetByID(inner, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if u == nil {
			return apierr.NotFound("user not found")
		}
		if err := us.userRepo.UpdateRole(inner, userID, role); err != nil {
			return fmt.Errorf("update role: %w", err)
		}
		u.Role = role
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	us.log.Info("User role changed", "user_id", userID, "role", role)
	return out, nil
}

func (us *userService) Delete(ctx context.Context, userID uuid.UUID) error {
	rd, err := requestUser(ctx)
	if err != nil {
		return err
	}
	if !rd.IsAdmin() {
		return apierr.Forbidden("forbidden")
	}
	if rd.UserID == userID {
		return apierr.BadRequest("invalid_user", "admins cannot delete themselves")
	}
	return withTx(us.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		u, err := us.userRepo.GetByID(inner, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if u == nil {
			return apierr.NotFound("user not found")
		}
		if err := us.userTokenRepo.FullDeleteByUserIDs(inner, []uuid.UUID{userID}); err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		return us.userRepo.SoftDeleteByIDs(inner, []uuid.UUID{userID})
	})
}
