package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type JWTClaims struct {
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*types.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*types.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	avatarService AvatarService
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	avatarService AvatarService,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		avatarService: avatarService,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return apierr.BadRequest("invalid_password", "password must be at least 8 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return apierr.BadRequest("invalid_password", "password must contain at least one letter and one number")
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apierr.BadRequest("invalid_email", "invalid email address")
	}
	return nil
}

func (as *authService) Register(ctx context.Context, name, email, password string) (*types.User, *TokenPair, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, nil, apierr.BadRequest("invalid_name", "name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{ID: uuid.New(), Name: name, Email: email, Password: string(hashed), Role: types.RoleStudent}
	if err := as.avatarService.CreateAndUploadUserAvatar(ctx, user); err != nil {
		// registration never fails on avatar storage
		as.log.Warn("Failed to create user avatar", "error", err)
	}

	var pair *TokenPair
	err = withTx(as.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		exists, err := as.userRepo.EmailExists(inner, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apierr.BadRequest("email_taken", "email already taken")
		}
		if _, err := as.userRepo.Create(inner, []*types.User{user}); err != nil {
			if isUniqueViolation(err) {
				return apierr.BadRequest("email_taken", "email already taken")
			}
			return fmt.Errorf("create user: %w", err)
		}
		p, err := as.issueSession(inner, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	as.log.Info("User registered", "user_id", user.ID)
	return user, pair, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, nil, apierr.Unauthorized("incorrect email or password")
	}
	var (
		user *types.User
		pair *TokenPair
	)
	err := withTx(as.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		u, err := as.userRepo.GetByEmail(inner, email)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if u == nil || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
			return apierr.Unauthorized("incorrect email or password")
		}
		if _, err := as.userTokenRepo.FullDeleteExpired(inner, time.Now()); err != nil {
			as.log.Warn("Failed to prune expired sessions", "error", err)
		}
		p, err := as.issueSession(inner, u)
		if err != nil {
			return err
		}
		user, pair = u, p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.Unauthorized("refresh token required")
	}
	var pair *TokenPair
	err := withTx(as.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		found, err := as.userTokenRepo.GetByRefreshTokens(inner, []string{refreshToken})
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if len(found) == 0 || found[0] == nil {
			return apierr.Unauthorized("invalid refresh token")
		}
		existing := found[0]
		if err := as.userTokenRepo.FullDeleteByIDs(inner, []uuid.UUID{existing.ID}); err != nil {
			return fmt.Errorf("delete old session: %w", err)
		}
		if existing.ExpiresAt.Before(time.Now()) {
			return errRefreshExpired
		}
		user, err := as.userRepo.GetByID(inner, existing.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if user == nil {
			return apierr.Unauthorized("user no longer exists")
		}
		p, err := as.issueSession(inner, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if errors.Is(err, errRefreshExpired) {
		// the expired row is still removed
		if _, derr := as.userTokenRepo.FullDeleteExpired(dbctx.Context{Ctx: ctx}, time.Now()); derr != nil {
			as.log.Warn("Failed to prune expired sessions", "error", derr)
		}
		return nil, apierr.Unauthorized("refresh token expired")
	}
	if err != nil {
		return nil, err
	}
	return pair, nil
}

var errRefreshExpired = errors.New("refresh token expired")

func (as *authService) Logout(ctx context.Context) error {
	rd, err := requestUser(ctx)
	if err != nil {
		return err
	}
	if rd.SessionID == uuid.Nil {
		return apierr.Unauthorized("no active session")
	}
	return as.userTokenRepo.FullDeleteByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{rd.SessionID})
}

// issueSession stores a new session row and returns its token pair.
func (as *authService) issueSession(dbc dbctx.Context, user *types.User) (*TokenPair, error) {
	now := time.Now()
	sessionID := uuid.New()
	access, err := as.generateAccessToken(user, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	row := &types.UserToken{
		ID:           sessionID,
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: uuid.New().String(),
		ExpiresAt:    now.Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     row.RefreshToken,
		AccessExpiresAt:  now.Add(as.accessTTL),
		RefreshExpiresAt: row.ExpiresAt,
	}, nil
}

func (as *authService) generateAccessToken(user *types.User, sessionID uuid.UUID, now time.Time) (string, error) {
	claims := JWTClaims{
		Role:      user.Role,
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken verifies the access token and its session and attaches the caller to ctx.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthorized("please authenticate")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, apierr.Unauthorized("invalid or expired token")
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.Unauthorized("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid token subject")
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid token session")
	}

	session, err := as.userTokenRepo.GetByID(dbctx.Context{Ctx: ctx}, sessionID)
	if err != nil {
		as.log.Warn("Error fetching session", "error", err)
		return ctx, fmt.Errorf("load session: %w", err)
	}
	if session == nil || session.UserID != userID {
		return ctx, apierr.Unauthorized("session has ended")
	}
	// role is read fresh so demotions apply before the token expires
	user, err := as.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return ctx, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return ctx, apierr.Unauthorized("user no longer exists")
	}

	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        user.Role,
		SessionID:   sessionID,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
