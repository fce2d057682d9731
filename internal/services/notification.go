package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

type NotificationDraft struct {
	Type    string
	Title   string
	Message string
	Link    string
}

type NotificationService interface {
	// Notify stores one notification per user and pushes each to its owner.
	Notify(ctx context.Context, userIDs []uuid.UUID, draft NotificationDraft) ([]*types.Notification, error)
	// Send is the admin entry point; a nil userID addresses every user.
	Send(ctx context.Context, userID *uuid.UUID, draft NotificationDraft) (int, error)
	List(dbc dbctx.Context, unreadOnly bool, q pagination.Query) (pagination.Page[*types.Notification], error)
	UnreadCount(dbc dbctx.Context) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*types.Notification, error)
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type notificationService struct {
	db               *gorm.DB
	log              *logger.Logger
	userRepo         repos.UserRepo
	notificationRepo repos.NotificationRepo
	realtime         RealtimeNotifier
}

func NewNotificationService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, notificationRepo repos.NotificationRepo, rt RealtimeNotifier) NotificationService {
	return &notificationService{
		db:               db,
		log:              log.With("service", "NotificationService"),
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		realtime:         rt,
	}
}

func (ns *notificationService) Notify(ctx context.Context, userIDs []uuid.UUID, draft NotificationDraft) ([]*types.Notification, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return nil, apierr.BadRequest("invalid_notification", "title is required")
	}
	if draft.Type == "" {
		draft.Type = types.NotificationTypeSystem
	}
	if !types.IsValidNotificationType(draft.Type) {
		return nil, apierr.BadRequest("invalid_notification", "unknown notification type")
	}
	rows := make([]*types.Notification, 0, len(userIDs))
	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, uid := range userIDs {
		if uid == uuid.Nil {
			continue
		}
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		rows = append(rows, &types.Notification{
			UserID:  uid,
			Type:    draft.Type,
			Title:   draft.Title,
			Message: strings.TrimSpace(draft.Message),
			Link:    strings.TrimSpace(draft.Link),
		})
	}
	if len(rows) == 0 {
		return rows, nil
	}
	created, err := ns.notificationRepo.Create(dbctx.Context{Ctx: ctx}, rows)
	if err != nil {
		return nil, fmt.Errorf("create notifications: %w", err)
	}
	for _, n := range created {
		ns.realtime.NotificationCreated(n.UserID, n)
	}
	return created, nil
}

func (ns *notificationService) Send(ctx context.Context, userID *uuid.UUID, draft NotificationDraft) (int, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return 0, err
	}
	if !rd.IsAdmin() {
		return 0, apierr.Forbidden("forbidden")
	}
	var targets []uuid.UUID
	if userID != nil {
		u, err := ns.userRepo.GetByID(dbctx.Context{Ctx: ctx}, *userID)
		if err != nil {
			return 0, fmt.Errorf("load user: %w", err)
		}
		if u == nil {
			return 0, apierr.NotFound("user not found")
		}
		targets = []uuid.UUID{u.ID}
	} else {
		targets, err = ns.userRepo.ListIDs(dbctx.Context{Ctx: ctx})
		if err != nil {
			return 0, fmt.Errorf("list users: %w", err)
		}
	}
	created, err := ns.Notify(ctx, targets, draft)
	if err != nil {
		return 0, err
	}
	ns.log.Info("Notification sent", "recipients", len(created), "type", draft.Type)
	return len(created), nil
}

func (ns *notificationService) List(dbc dbctx.Context, unreadOnly bool, q pagination.Query) (pagination.Page[*types.Notification], error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return pagination.Page[*types.Notification]{}, err
	}
	return ns.notificationRepo.ListByUser(dbc, rd.UserID, unreadOnly, q)
}

func (ns *notificationService) UnreadCount(dbc dbctx.Context) (int64, error) {
	rd, err := requestUser(dbc.Ctx)
	if err != nil {
		return 0, err
	}
	return ns.notificationRepo.CountUnread(dbc, rd.UserID)
}

func (ns *notificationService) owned(dbc dbctx.Context, userID, id uuid.UUID) (*types.Notification, error) {
	n, err := ns.notificationRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load notification: %w", err)
	}
	if n == nil || n.UserID != userID {
		return nil, apierr.NotFound("notification not found")
	}
	return n, nil
}

func (ns *notificationService) MarkRead(ctx context.Context, id uuid.UUID) (*types.Notification, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	n, err := ns.owned(dbc, rd.UserID, id)
	if err != nil {
		return nil, err
	}
	if !n.IsRead {
		now := time.Now().UTC()
		if _, err := ns.notificationRepo.MarkRead(dbc, rd.UserID, []uuid.UUID{id}, now); err != nil {
			return nil, fmt.Errorf("mark read: %w", err)
		}
		n.IsRead = true
		n.ReadAt = &now
		ns.realtime.NotificationsRead(rd.UserID, []uuid.UUID{id}, false)
	}
	return n, nil
}

func (ns *notificationService) MarkAllRead(ctx context.Context) (int64, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return 0, err
	}
	n, err := ns.notificationRepo.MarkAllRead(dbctx.Context{Ctx: ctx}, rd.UserID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	if n > 0 {
		ns.realtime.NotificationsRead(rd.UserID, nil, true)
	}
	return n, nil
}

func (ns *notificationService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, err := requestUser(ctx)
	if err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := ns.owned(dbc, rd.UserID, id); err != nil {
		return err
	}
	return ns.notificationRepo.FullDeleteByIDs(dbc, []uuid.UUID{id})
}
