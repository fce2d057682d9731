package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	"github.com/yungbote/coursehub-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingNotifier) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *recordingNotifier) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == name {
			n++
		}
	}
	return n
}

func (r *recordingNotifier) NotificationCreated(uuid.UUID, *types.Notification) {
	r.record("notification_created")
}
func (r *recordingNotifier) NotificationsRead(uuid.UUID, []uuid.UUID, bool) {
	r.record("notifications_read")
}
func (r *recordingNotifier) MessageCreated(*types.Message)            { r.record("message_created") }
func (r *recordingNotifier) MessageDeleted(uuid.UUID, uuid.UUID)      { r.record("message_deleted") }
func (r *recordingNotifier) MemberJoined(*types.ClassroomMember)      { r.record("member_joined") }
func (r *recordingNotifier) MemberRemoved(uuid.UUID, uuid.UUID)       { r.record("member_removed") }
func (r *recordingNotifier) MaterialAdded(*types.ClassroomMaterial)   { r.record("material_added") }
func (r *recordingNotifier) WalletUpdated(uuid.UUID, decimal.Decimal) { r.record("wallet_updated") }
func (r *recordingNotifier) EnrollmentProgress(*types.Enrollment)     { r.record("enrollment_progress") }

// harness wires the real repos over a fresh SQLite database. Fixtures are written straight
// to db so services can open their own transactions on the single connection.
type harness struct {
	t   *testing.T
	db  *gorm.DB
	ctx context.Context
	log *logger.Logger
	rt  *recordingNotifier

	users         repos.UserRepo
	courses       repos.CourseRepo
	modules       repos.ModuleRepo
	lessons       repos.LessonRepo
	resources     repos.LessonResourceRepo
	questions     repos.QuestionRepo
	attempts      repos.AttemptRepo
	enrollments   repos.EnrollmentRepo
	orders        repos.OrderRepo
	transactions  repos.TransactionRepo
	classrooms    repos.ClassroomRepo
	members       repos.ClassroomMemberRepo
	materials     repos.ClassroomMaterialRepo
	messages      repos.MessageRepo
	notifications NotificationService
	progress      *ProgressTracker
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{
		t:            t,
		db:           db,
		ctx:          context.Background(),
		log:          log,
		rt:           &recordingNotifier{},
		users:        repos.NewUserRepo(db, log),
		courses:      repos.NewCourseRepo(db, log),
		modules:      repos.NewModuleRepo(db, log),
		lessons:      repos.NewLessonRepo(db, log),
		resources:    repos.NewLessonResourceRepo(db, log),
		questions:    repos.NewQuestionRepo(db, log),
		attempts:     repos.NewAttemptRepo(db, log),
		enrollments:  repos.NewEnrollmentRepo(db, log),
		orders:       repos.NewOrderRepo(db, log),
		transactions: repos.NewTransactionRepo(db, log),
		classrooms:   repos.NewClassroomRepo(db, log),
		members:      repos.NewClassroomMemberRepo(db, log),
		materials:    repos.NewClassroomMaterialRepo(db, log),
		messages:     repos.NewMessageRepo(db, log),
	}
	h.notifications = NewNotificationService(db, log, h.users, repos.NewNotificationRepo(db, log), h.rt)
	h.progress = NewProgressTracker(log, h.enrollments, h.lessons, h.notifications, h.rt)
	return h
}

func (h *harness) as(u *types.User) context.Context {
	return ctxutil.WithRequestData(h.ctx, &ctxutil.RequestData{UserID: u.ID, Role: u.Role})
}

func (h *harness) user(email, role string) *types.User {
	return testutil.SeedUser(h.t, h.ctx, h.db, email, role)
}

func (h *harness) attemptService() AttemptService {
	return NewAttemptService(h.db, h.log, h.courses, h.lessons, h.resources, h.questions, h.attempts, h.progress)
}

func (h *harness) orderService() OrderService {
	return NewOrderService(h.db, h.log, h.users, h.courses, h.orders, h.transactions, h.enrollments, h.notifications, h.rt)
}

func (h *harness) walletService() WalletService {
	return NewWalletService(h.db, h.log, h.users, h.transactions, h.rt)
}

func (h *harness) enrollmentService() EnrollmentService {
	return NewEnrollmentService(h.db, h.log, h.courses, h.enrollments, h.progress, h.notifications)
}

func (h *harness) categoryService() CategoryService {
	return NewCategoryService(h.db, h.log, repos.NewCategoryRepo(h.db, h.log), h.courses)
}

func (h *harness) courseService() CourseService {
	return NewCourseService(h.db, h.log, h.courses, repos.NewCategoryRepo(h.db, h.log), h.modules, h.lessons, nil)
}

func (h *harness) lessonService() LessonService {
	return NewLessonService(h.db, h.log, h.courses, h.modules, h.lessons, h.resources, h.questions, h.attempts, h.progress)
}

func (h *harness) moduleService() ModuleService {
	return NewModuleService(h.db, h.log, h.courses, h.modules, h.lessons, h.lessonService(), h.progress)
}

func (h *harness) enrollment(userID, courseID uuid.UUID) *types.Enrollment {
	h.t.Helper()
	e, err := h.enrollments.GetByUserAndCourse(dbctx.Context{Ctx: h.ctx}, userID, courseID)
	if err != nil || e == nil {
		h.t.Fatalf("load enrollment: err=%v", err)
	}
	return e
}

func (h *harness) classroomService() ClassroomService {
	return NewClassroomService(h.db, h.log, h.users, h.courses, h.classrooms, h.members, h.materials, nil, h.notifications, h.rt)
}

func (h *harness) balance(id uuid.UUID) decimal.Decimal {
	h.t.Helper()
	u, err := h.users.GetByID(dbctx.Context{Ctx: h.ctx}, id)
	if err != nil || u == nil {
		h.t.Fatalf("load user %s: err=%v", id, err)
	}
	return u.WalletBalance
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("want error with status %d, got nil", status)
	}
	if got := apierr.StatusOf(err); got != status {
		t.Fatalf("status: want=%d got=%d (err=%v)", status, got, err)
	}
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("want *apierr.Error with code %q, got %T: %v", code, err, err)
	}
	if ae.Code != code {
		t.Fatalf("code: want=%q got=%q", code, ae.Code)
	}
}
