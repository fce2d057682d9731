package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
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

const (
	joinCodeLength   = 8
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeAttempts = 5
	maxMaterialBytes = 50 << 20
)

func newJoinCode() (string, error) {
	var sb strings.Builder
	size := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := 0; i < joinCodeLength; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		sb.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

type ClassroomInput struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	CourseID    *uuid.UUID `json:"course_id"`
}

type MaterialLinkInput struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type MaterialUpload struct {
	Title       string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ClassroomService interface {
	Create(ctx context.Context, in ClassroomInput) (*types.Classroom, error)
	ListMine(dbc dbctx.Context, q pagination.Query) (pagination.Page[*types.Classroom], error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Classroom, error)
	Update(ctx context.Context, id uuid.UUID, in ClassroomInput) (*types.Classroom, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// CheckMember returns nil when the caller may read the classroom.
	CheckMember(dbc dbctx.Context, id uuid.UUID) error

	Join(ctx context.Context, code string) (*types.ClassroomMember, error)
	AddMember(ctx context.Context, classroomID, userID uuid.UUID, role string) (*types.ClassroomMember, error)
	UpdateMemberRole(ctx context.Context, classroomID, userID uuid.UUID, role string) (*types.ClassroomMember, error)
	// RemoveMember is open to classroom admins, and to any member removing themselves.
	RemoveMember(ctx context.Context, classroomID, userID uuid.UUID) error

	AddMaterialLink(ctx context.Context, classroomID uuid.UUID, in MaterialLinkInput) (*types.ClassroomMaterial, error)
	UploadMaterial(ctx context.Context, classroomID uuid.UUID, up MaterialUpload) (*types.ClassroomMaterial, error)
	ListMaterials(dbc dbctx.Context, classroomID uuid.UUID) ([]*types.ClassroomMaterial, error)
	DeleteMaterial(ctx context.Context, classroomID, materialID uuid.UUID) error
}

type classroomService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	courseRepo    repos.CourseRepo
	classroomRepo repos.ClassroomRepo
	memberRepo    repos.ClassroomMemberRepo
	materialRepo  repos.ClassroomMaterialRepo
	bucketService gcp.BucketService
	notifications NotificationService
	realtime      RealtimeNotifier
}

func NewClassroomService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	courseRepo repos.CourseRepo,
	classroomRepo repos.ClassroomRepo,
	memberRepo repos.ClassroomMemberRepo,
	materialRepo repos.ClassroomMaterialRepo,
	bucketService gcp.BucketService,
	notifications NotificationService,
	rt RealtimeNotifier,
) ClassroomService {
	return &classroomService{
		db:            db,
		log:           log.With("service", "ClassroomService"),
		userRepo:      userRepo,
		courseRepo:    courseRepo,
		classroomRepo: classroomRepo,
		memberRepo:    memberRepo,
		materialRepo:  materialRepo,
		bucketService: bucketService,
		notifications: notifications,
		realtime:      rt,
	}
}

// membership loads the classroom and the caller's member row. Site admins act as classroom
// admins without a row.
func (cs *classroomService) membership(dbc dbctx.Context, rd *ctxutil.RequestData, id uuid.UUID) (*types.Classroom, *types.ClassroomMember, error) {
	c, err := cs.classroomRepo.GetByID(dbc, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load classroom: %w", err)
	}
	if c == nil {
		return nil, nil, apierr.NotFound("classroom not found")
	}
	m, err := cs.memberRepo.Get(dbc, id, rd.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("load membership: %w", err)
	}
	if m == nil && rd.IsAdmin() {
		m = &types.ClassroomMember{ClassroomID: id, UserID: rd.UserID, Role: types.MemberRoleAdmin}
	}
	if m == nil {
		return nil, nil, apierr.NotFound("classroom not found")
	}
	return c, m, nil
}

func (cs *classroomService) managed(dbc dbctx.Context, rd *ctxutil.RequestData, id uuid.UUID) (*types.Classroom, *types.ClassroomMember, error) {
	c, m, err := cs.membership(dbc, rd, id)
	if err != nil {
		return nil, nil, err
	}
	if !m.CanManage() {
		return nil, nil, apierr.Forbidden("only classroom admins can do this")
	}
	return c, m, nil
}

func (cs *classroomService) validCourse(dbc dbctx.Context, id *uuid.UUID) error {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	c, err := cs.courseRepo.GetByID(dbc, *id)
	if err != nil {
		return fmt.Errorf("load course: %w", err)
	}
	if c == nil {
		return apierr.BadRequest("invalid_course", "course not found")
	}
	return nil
}

func (cs *classroomService) Create(ctx context.Context, in ClassroomInput) (*types.Classroom, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	name := ""
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if name == "" {
		return nil, apierr.BadRequest("invalid_classroom", "name is required")
	}
	var out *types.Classroom
	for attempt := 1; ; attempt++ {
		code, err := newJoinCode()
		if err != nil {
			return nil, fmt.Errorf("generate join code: %w", err)
		}
		err = withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
			if err := cs.validCourse(inner, in.CourseID); err != nil {
				return err
			}
			c := &types.Classroom{Name: name, OwnerID: rd.UserID, JoinCode: code, CourseID: in.CourseID}
			if in.Description != nil {
				c.Description = strings.TrimSpace(*in.Description)
			}
			if _, err := cs.classroomRepo.Create(inner, []*types.Classroom{c}); err != nil {
				return fmt.Errorf("create classroom: %w", err)
			}
			owner := &types.ClassroomMember{ClassroomID: c.ID, UserID: rd.UserID, Role: types.MemberRoleAdmin}
			if _, err := cs.memberRepo.Create(inner, []*types.ClassroomMember{owner}); err != nil {
				return fmt.Errorf("create owner membership: %w", err)
			}
			c.Members = []*types.ClassroomMember{owner}
			out = c
			return nil
		})
		if err == nil {
			return out, nil
		}
		if !isUniqueViolation(err) || attempt >= joinCodeAttempts {
			return nil, err
		}
		cs.log.Debug("Join code collision, retrying", "attempt", attempt)
	}
}

func (cs *classroomService) ListMine(dbc dbctx.Context, q pagination.Query) (pagination.Page[*types.Classroom], error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return pagination.Page[*types.Classroom]{}, err
	}
	page, err := cs.classroomRepo.ListByMember(dbc, rd.UserID, q)
	if err != nil {
		return page, err
	}
	ids := make([]uuid.UUID, 0, len(page.Results))
	for _, c := range page.Results {
		ids = append(ids, c.ID)
	}
	members, err := cs.memberRepo.GetByClassroomIDs(dbc, ids)
	if err != nil {
		return page, fmt.Errorf("load memberships: %w", err)
	}
	canSeeCode := map[uuid.UUID]bool{}
	for _, m := range members {
		if m.UserID == rd.UserID && m.CanPostMaterial() {
			canSeeCode[m.ClassroomID] = true
		}
	}
	for _, c := range page.Results {
		if !canSeeCode[c.ID] {
			c.JoinCode = ""
		}
	}
	return page, nil
}

func (cs *classroomService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Classroom, error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	c, m, err := cs.membership(dbc, rd, id)
	if err != nil {
		return nil, err
	}
	members, err := cs.memberRepo.GetByClassroomIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	c.Members = members
	if !m.CanPostMaterial() {
		c.JoinCode = ""
	}
	return c, nil
}

func (cs *classroomService) CheckMember(dbc dbctx.Context, id uuid.UUID) error {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return err
	}
	_, _, err = cs.membership(dbc, rd, id)
	return err
}

func (cs *classroomService) Update(ctx context.Context, id uuid.UUID, in ClassroomInput) (*types.Classroom, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.Classroom
	err = withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		c, _, err := cs.managed(inner, rd, id)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apierr.BadRequest("invalid_classroom", "name is required")
			}
			c.Name = name
			updates["name"] = name
		}
		if in.Description != nil {
			c.Description = strings.TrimSpace(*in.Description)
			updates["description"] = c.Description
		}
		if in.CourseID != nil {
			if err := cs.validCourse(inner, in.CourseID); err != nil {
				return err
			}
			if *in.CourseID == uuid.Nil {
				c.CourseID = nil
			} else {
				c.CourseID = in.CourseID
			}
			updates["course_id"] = c.CourseID
		}
		if len(updates) > 0 {
			if err := cs.classroomRepo.UpdateFields(inner, id, updates); err != nil {
				return fmt.Errorf("update classroom: %w", err)
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

func (cs *classroomService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, err := requestUser(ctx)
	if err != nil {
		return err
	}
	return withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		if _, _, err := cs.managed(inner, rd, id); err != nil {
			return err
		}
		return cs.classroomRepo.SoftDeleteByIDs(inner, []uuid.UUID{id})
	})
}

func (cs *classroomService) addMember(ctx context.Context, c *types.Classroom, m *types.ClassroomMember, title string) {
	cs.realtime.MemberJoined(m)
	if _, err := cs.notifications.Notify(ctx, []uuid.UUID{m.UserID}, NotificationDraft{
		Type:    types.NotificationTypeClassroom,
		Title:   title,
		Message: fmt.Sprintf("You are now a member of %q.", c.Name),
		Link:    "/classrooms/" + c.ID.String(),
	}); err != nil {
		cs.log.Warn("Failed to send classroom notification", "error", err)
	}
}

func (cs *classroomService) Join(ctx context.Context, code string) (*types.ClassroomMember, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apierr.BadRequest("invalid_code", "code is required")
	}
	var (
		out       *types.ClassroomMember
		classroom *types.Classroom
	)
	err = withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		c, err := cs.classroomRepo.GetByJoinCode(inner, code)
		if err != nil {
			return fmt.Errorf("load classroom: %w", err)
		}
		if c == nil {
			return apierr.NotFound("no classroom with this code")
		}
		existing, err := cs.memberRepo.Get(inner, c.ID, rd.UserID)
		if err != nil {
			return fmt.Errorf("load membership: %w", err)
		}
		if existing != nil {
			return apierr.BadRequest("already_member", "already a member of this classroom")
		}
		m := &types.ClassroomMember{ClassroomID: c.ID, UserID: rd.UserID, Role: types.MemberRoleStudent}
		if _, err := cs.memberRepo.Create(inner, []*types.ClassroomMember{m}); err != nil {
			if isUniqueViolation(err) {
				return apierr.BadRequest("already_member", "already a member of this classroom")
			}
			return fmt.Errorf("create membership: %w", err)
		}
		out, classroom = m, c
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.addMember(ctx, classroom, out, "Joined classroom")
	return out, nil
}

func (cs *classroomService) AddMember(ctx context.Context, classroomID, userID uuid.UUID, role string) (*types.ClassroomMember, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = types.MemberRoleStudent
	}
	if !types.IsValidMemberRole(role) {
		return nil, apierr.BadRequest("invalid_role", "role must be student, assistant or admin")
	}
	var (
		out       *types.ClassroomMember
		classroom *types.Classroom
	)
	err = withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		c, _, err := cs.managed(inner, rd, classroomID)
		if err != nil {
			return err
		}
		u, err := cs.userRepo.GetByID(inner, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if u == nil {
			return apierr.NotFound("user not found")
		}
		existing, err := cs.memberRepo.Get(inner, classroomID, userID)
		if err != nil {
			return fmt.Errorf("load membership: %w", err)
		}
		if existing != nil {
			return apierr.BadRequest("already_member", "user is already a member")
		}
		m := &types.ClassroomMember{ClassroomID: classroomID, UserID: userID, Role: role}
		if _, err := cs.memberRepo.Create(inner, []*types.ClassroomMember{m}); err != nil {
			return fmt.Errorf("create membership: %w", err)
		}
		out, classroom = m, c
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.addMember(ctx, classroom, out, "Added to classroom")
	return out, nil
}

// ensureAnotherAdmin rejects changes that would leave the classroom without an admin.
// The admin rows stay locked until the caller's transaction ends.
func (cs *classroomService) ensureAnotherAdmin(dbc dbctx.Context, target *types.ClassroomMember) error {
	if target.Role != types.MemberRoleAdmin {
		return nil
	}
	admins, err := cs.memberRepo.LockByRole(dbc, target.ClassroomID, types.MemberRoleAdmin)
	if err != nil {
		return fmt.Errorf("lock admins: %w", err)
	}
	stillAdmin := false
	for _, a := range admins {
		if a.UserID == target.UserID {
			stillAdmin = true
		}
	}
	if !stillAdmin {
		return apierr.Conflict("member_changed", "membership changed, reload and retry")
	}
	if len(admins) <= 1 {
		return apierr.BadRequest("last_admin", "a classroom must keep at least one admin")
	}
	return nil
}

func (cs *classroomService) UpdateMemberRole(ctx context.Context, classroomID, userID uuid.UUID, role string) (*types.ClassroomMember, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if !types.IsValidMemberRole(role) {
		return nil, apierr.BadRequest("invalid_role", "role must be student, assistant or admin")
	}
	var out *types.ClassroomMember
	err = withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		if _, _, err := cs.managed(inner, rd, classroomID); err != nil {
			return err
		}
		target, err := cs.memberRepo.Get(inner, classroomID, userID)
		if err != nil {
			return fmt.Errorf("load membership: %w", err)
		}
		if target == nil {
			return apierr.NotFound("member not found")
		}
		if target.Role == role {
			out = target
			return nil
		}
		if err := cs.ensureAnotherAdmin(inner, target); err != nil {
			return err
		}
		if err := cs.memberRepo.UpdateRole(inner, classroomID, userID, role); err != nil {
			return fmt.Errorf("update role: %w", err)
		}
		target.Role = role
		out = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (cs *classroomService) RemoveMember(ctx context.Context, classroomID, userID uuid.UUID) error {
	rd, err := requestUser(ctx)
	if err != nil {
		return err
	}
	err = withTx(cs.db, dbctx.Context{Ctx: ctx}, func(inner dbctx.Context) error {
		if userID == rd.UserID {
			if _, _, err := cs.membership(inner, rd, classroomID); err != nil {
				return err
			}
		} else if _, _, err := cs.managed(inner, rd, classroomID); err != nil {
			return err
		}
		target, err := cs.memberRepo.Get(inner, classroomID, userID)
		if err != nil {
			return fmt.Errorf("load membership: %w", err)
		}
		if target == nil {
			return apierr.NotFound("member not found")
		}
		if err := cs.ensureAnotherAdmin(inner, target); err != nil {
			return err
		}
		return cs.memberRepo.Delete(inner, classroomID, userID)
	})
	if err != nil {
		return err
	}
	cs.realtime.MemberRemoved(classroomID, userID)
	return nil
}

func (cs *classroomService) canPost(dbc dbctx.Context, rd *ctxutil.RequestData, classroomID uuid.UUID) error {
	_, m, err := cs.membership(dbc, rd, classroomID)
	if err != nil {
		return err
	}
	if !m.CanPostMaterial() {
		return apierr.Forbidden("only classroom admins and assistants can post materials")
	}
	return nil
}

func (cs *classroomService) createMaterial(ctx context.Context, m *types.ClassroomMaterial) (*types.ClassroomMaterial, error) {
	if _, err := cs.materialRepo.Create(dbctx.Context{Ctx: ctx}, []*types.ClassroomMaterial{m}); err != nil {
		return nil, fmt.Errorf("create material: %w", err)
	}
	cs.realtime.MaterialAdded(m)
	return m, nil
}

func (cs *classroomService) AddMaterialLink(ctx context.Context, classroomID uuid.UUID, in MaterialLinkInput) (*types.ClassroomMaterial, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apierr.BadRequest("invalid_material", "title is required")
	}
	if !validHTTPURL(strings.TrimSpace(in.URL)) {
		return nil, apierr.BadRequest("invalid_material", "url must be an absolute http(s) URL")
	}
	if err := cs.canPost(dbctx.Context{Ctx: ctx}, rd, classroomID); err != nil {
		return nil, err
	}
	return cs.createMaterial(ctx, &types.ClassroomMaterial{
		ClassroomID: classroomID,
		UploadedBy:  rd.UserID,
		Title:       title,
		URL:         strings.TrimSpace(in.URL),
	})
}

func (cs *classroomService) UploadMaterial(ctx context.Context, classroomID uuid.UUID, up MaterialUpload) (*types.ClassroomMaterial, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if cs.bucketService == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "storage_unavailable", fmt.Errorf("object storage is not configured"))
	}
	if up.Size > maxMaterialBytes {
		return nil, apierr.BadRequest("file_too_large", fmt.Sprintf("materials are limited to %d MB", maxMaterialBytes>>20))
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := cs.canPost(dbc, rd, classroomID); err != nil {
		return nil, err
	}
	name := path.Base(strings.TrimSpace(up.Filename))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	title := strings.TrimSpace(up.Title)
	if title == "" {
		title = name
	}
	contentType := up.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(name))
	}
	key := fmt.Sprintf("classroom/%s/%d_%s", classroomID, time.Now().UnixNano(), name)
	if err := cs.bucketService.UploadFile(dbc, gcp.BucketCategoryMaterial, key, up.Body); err != nil {
		return nil, fmt.Errorf("upload material: %w", err)
	}
	m, err := cs.createMaterial(ctx, &types.ClassroomMaterial{
		ClassroomID: classroomID,
		UploadedBy:  rd.UserID,
		Title:       title,
		URL:         cs.bucketService.GetPublicURL(gcp.BucketCategoryMaterial, key),
		StorageKey:  key,
		MimeType:    contentType,
		SizeBytes:   up.Size,
	})
	if err != nil {
		if delErr := cs.bucketService.DeleteFile(dbc, gcp.BucketCategoryMaterial, key); delErr != nil {
			cs.log.Warn("Failed to remove orphaned material", "key", key, "error", delErr)
		}
		return nil, err
	}
	return m, nil
}

func (cs *classroomService) ListMaterials(dbc dbctx.Context, classroomID uuid.UUID) ([]*types.ClassroomMaterial, error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return nil, err
	}
	if _, _, err := cs.membership(dbc, rd, classroomID); err != nil {
		return nil, err
	}
	return cs.materialRepo.GetByClassroomIDs(dbc, []uuid.UUID{classroomID})
}

func (cs *classroomService) DeleteMaterial(ctx context.Context, classroomID, materialID uuid.UUID) error {
	rd, err := requestUser(ctx)
	if err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	_, member, err := cs.membership(dbc, rd, classroomID)
	if err != nil {
		return err
	}
	m, err := cs.materialRepo.GetByID(dbc, materialID)
	if err != nil {
		return fmt.Errorf("load material: %w", err)
	}
	if m == nil || m.ClassroomID != classroomID {
		return apierr.NotFound("material not found")
	}
	if !member.CanManage() && !(member.CanPostMaterial() && m.UploadedBy == rd.UserID) {
		return apierr.Forbidden("only classroom admins or the uploader can delete this material")
	}
	if err := cs.materialRepo.FullDeleteByIDs(dbc, []uuid.UUID{m.ID}); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if m.StorageKey != "" && cs.bucketService != nil {
		if err := cs.bucketService.DeleteFile(dbc, gcp.BucketCategoryMaterial, m.StorageKey); err != nil {
			cs.log.Warn("Failed to delete material object (ignored)", "key", m.StorageKey, "error", err)
		}
	}
	return nil
}
