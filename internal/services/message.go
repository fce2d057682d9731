package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

const (
	maxMessageRunes     = 4000
	defaultMessageLimit = 50
	maxMessageLimit     = 100
)

type MessageService interface {
	Post(ctx context.Context, classroomID uuid.UUID, content string) (*types.Message, error)
	// List pages backwards from before (newest first); a zero before starts at the latest message.
	List(dbc dbctx.Context, classroomID uuid.UUID, before time.Time, limit int) ([]*types.Message, error)
	// Delete is open to the sender and classroom admins.
	Delete(ctx context.Context, id uuid.UUID) error
}

type messageService struct {
	db          *gorm.DB
	log         *logger.Logger
	classrooms  ClassroomService
	memberRepo  repos.ClassroomMemberRepo
	messageRepo repos.MessageRepo
	realtime    RealtimeNotifier
}

func NewMessageService(db *gorm.DB, log *logger.Logger, classrooms ClassroomService, memberRepo repos.ClassroomMemberRepo, messageRepo repos.MessageRepo, rt RealtimeNotifier) MessageService {
	return &messageService{
		db:          db,
		log:         log.With("service", "MessageService"),
		classrooms:  classrooms,
		memberRepo:  memberRepo,
		messageRepo: messageRepo,
		realtime:    rt,
	}
}

func (ms *messageService) Post(ctx context.Context, classroomID uuid.UUID, content string) (*types.Message, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apierr.BadRequest("invalid_message", "content is required")
	}
	if utf8.RuneCountInString(content) > maxMessageRunes {
		return nil, apierr.BadRequest("invalid_message", fmt.Sprintf("messages are limited to %d characters", maxMessageRunes))
	}
	dbc := dbctx.Context{Ctx: ctx}
	if err := ms.classrooms.CheckMember(dbc, classroomID); err != nil {
		return nil, err
	}
	msg := &types.Message{ClassroomID: classroomID, SenderID: rd.UserID, Content: content}
	if _, err := ms.messageRepo.Create(dbc, []*types.Message{msg}); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	ms.realtime.MessageCreated(msg)
	return msg, nil
}

func (ms *messageService) List(dbc dbctx.Context, classroomID uuid.UUID, before time.Time, limit int) ([]*types.Message, error) {
	if err := ms.classrooms.CheckMember(dbc, classroomID); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultMessageLimit
	case limit > maxMessageLimit:
		limit = maxMessageLimit
	}
	return ms.messageRepo.ListBefore(dbc, classroomID, before, limit)
}

func (ms *messageService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, err := requestUser(ctx)
	if err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	msg, err := ms.messageRepo.GetByID(dbc, id)
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}
	if msg == nil {
		return apierr.NotFound("message not found")
	}
	if msg.SenderID != rd.UserID && !rd.IsAdmin() {
		m, err := ms.memberRepo.Get(dbc, msg.ClassroomID, rd.UserID)
		if err != nil {
			return fmt.Errorf("load membership: %w", err)
		}
		if m == nil {
			return apierr.NotFound("message not found")
		}
		if !m.CanManage() {
			return apierr.Forbidden("only the sender or a classroom admin can delete this message")
		}
	}
	if err := ms.messageRepo.FullDeleteByIDs(dbc, []uuid.UUID{msg.ID}); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	ms.realtime.MessageDeleted(msg.ClassroomID, msg.ID)
	return nil
}
