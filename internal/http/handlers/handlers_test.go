package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/realtime"
	"github.com/yungbote/coursehub-backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser attaches request data the way the auth middleware would.
func asUser(rd *ctxutil.RequestData) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body
}

type stubWallet struct {
	services.WalletService
	deposited decimal.Decimal
	balance   decimal.Decimal
}

func (s *stubWallet) Deposit(_ context.Context, amount decimal.Decimal) (*types.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apierr.BadRequest("invalid_amount", "amount must be greater than 0")
	}
	s.deposited = amount
	s.balance = s.balance.Add(amount)
	return &types.Transaction{ID: uuid.New(), Type: types.TransactionTypeDeposit, Amount: amount, BalanceAfter: s.balance}, nil
}

func TestWalletDeposit(t *testing.T) {
	wallet := &stubWallet{balance: decimal.NewFromInt(10)}
	r := gin.New()
	r.POST("/v1/wallet/deposit", NewWalletHandler(wallet).Deposit)

	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantReason string
	}{
		{name: "ok", body: `{"amount": 25.5}`, wantStatus: http.StatusCreated},
		{name: "string amount", body: `{"amount": "4.50"}`, wantStatus: http.StatusCreated},
		{name: "zero", body: `{"amount": 0}`, wantStatus: http.StatusBadRequest, wantReason: "invalid_amount"},
		{name: "malformed", body: `{"amount": }`, wantStatus: http.StatusBadRequest, wantReason: "invalid_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/v1/wallet/deposit", tc.body)
			if w.Code != tc.wantStatus {
				t.Fatalf("status: want=%d got=%d body=%s", tc.wantStatus, w.Code, w.Body.String())
			}
			if tc.wantReason != "" {
				if got := decodeError(t, w).Reason; got != tc.wantReason {
					t.Fatalf("reason: want=%q got=%q", tc.wantReason, got)
				}
			}
		})
	}

	var out struct {
		Balance decimal.Decimal `json:"balance"`
	}
	w := doJSON(r, http.MethodPost, "/v1/wallet/deposit", `{"amount": 1}`)
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Balance.Equal(wallet.balance) {
		t.Fatalf("balance: want=%s got=%s", wallet.balance, out.Balance)
	}
}

type stubOrders struct {
	services.OrderService
	paid []uuid.UUID
	err  error
}

func (s *stubOrders) Pay(_ context.Context, id uuid.UUID) (*types.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.paid = append(s.paid, id)
	return &types.Order{ID: id, Status: types.OrderStatusCompleted}, nil
}

func TestOrderPay(t *testing.T) {
	orderID := uuid.New()

	t.Run("invalid id", func(t *testing.T) {
		r := gin.New()
		r.POST("/v1/orders/:id/pay", NewOrderHandler(&stubOrders{}).Pay)
		w := doJSON(r, http.MethodPost, "/v1/orders/not-a-uuid/pay", "")
		if w.Code != http.StatusBadRequest || decodeError(t, w).Reason != "invalid_id" {
			t.Fatalf("want 400 invalid_id, got %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("paid", func(t *testing.T) {
		orders := &stubOrders{}
		r := gin.New()
		r.POST("/v1/orders/:id/pay", NewOrderHandler(orders).Pay)
		w := doJSON(r, http.MethodPost, "/v1/orders/"+orderID.String()+"/pay", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status: got %d %s", w.Code, w.Body.String())
		}
		if len(orders.paid) != 1 || orders.paid[0] != orderID {
			t.Fatalf("paid: got %v", orders.paid)
		}
	})

	t.Run("insufficient funds", func(t *testing.T) {
		orders := &stubOrders{err: apierr.BadRequest("insufficient_funds", "insufficient balance")}
		r := gin.New()
		r.POST("/v1/orders/:id/pay", NewOrderHandler(orders).Pay)
		w := doJSON(r, http.MethodPost, "/v1/orders/"+orderID.String()+"/pay", "")
		body := decodeError(t, w)
		if w.Code != http.StatusBadRequest || body.Code != http.StatusBadRequest || body.Reason != "insufficient_funds" {
			t.Fatalf("got %d %+v", w.Code, body)
		}
		if body.Message != "insufficient balance" {
			t.Fatalf("message: got %q", body.Message)
		}
	})
}

type stubClassrooms struct {
	members map[uuid.UUID]bool
	checked []uuid.UUID
}

func (s *stubClassrooms) CheckMember(_ dbctx.Context, id uuid.UUID) error {
	s.checked = append(s.checked, id)
	if !s.members[id] {
		return apierr.Forbidden("not a member of this classroom")
	}
	return nil
}

func TestRealtimeSubscribe(t *testing.T) {
	hub := realtime.NewSSEHub(logger.Nop())
	userID := uuid.New()
	memberRoom := uuid.New()
	otherRoom := uuid.New()
	classrooms := &stubClassrooms{members: map[uuid.UUID]bool{memberRoom: true}}
	h := NewRealtimeHandler(logger.Nop(), hub, classrooms)

	client := hub.NewSSEClient(userID)
	defer hub.CloseClient(client)
	strangerClient := hub.NewSSEClient(uuid.New())
	defer hub.CloseClient(strangerClient)

	r := gin.New()
	r.Use(asUser(&ctxutil.RequestData{UserID: userID, Role: types.RoleStudent}))
	r.POST("/v1/realtime/subscribe", h.Subscribe)
	r.POST("/v1/realtime/unsubscribe", h.Unsubscribe)

	body := func(clientID uuid.UUID, channel string) string {
		return `{"client_id":"` + clientID.String() + `","channel":"` + channel + `"}`
	}

	cases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "member classroom", body: body(client.ID, realtime.ClassroomChannel(memberRoom)), wantStatus: http.StatusOK},
		{name: "foreign classroom", body: body(client.ID, realtime.ClassroomChannel(otherRoom)), wantStatus: http.StatusForbidden},
		{name: "own user channel", body: body(client.ID, realtime.UserChannel(userID)), wantStatus: http.StatusOK},
		{name: "other user channel", body: body(client.ID, realtime.UserChannel(uuid.New())), wantStatus: http.StatusForbidden},
		{name: "someone else's stream", body: body(strangerClient.ID, realtime.ClassroomChannel(memberRoom)), wantStatus: http.StatusConflict},
		{name: "unknown stream", body: body(uuid.New(), realtime.ClassroomChannel(memberRoom)), wantStatus: http.StatusConflict},
		{name: "missing channel", body: body(client.ID, " "), wantStatus: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/v1/realtime/subscribe", tc.body)
			if w.Code != tc.wantStatus {
				t.Fatalf("status: want=%d got=%d body=%s", tc.wantStatus, w.Code, w.Body.String())
			}
		})
	}

	if n := hub.SubscriberCount(realtime.ClassroomChannel(memberRoom)); n != 1 {
		t.Fatalf("subscribers after subscribe: want=1 got=%d", n)
	}
	if n := hub.SubscriberCount(realtime.ClassroomChannel(otherRoom)); n != 0 {
		t.Fatalf("foreign classroom should have no subscribers, got %d", n)
	}

	w := doJSON(r, http.MethodPost, "/v1/realtime/unsubscribe", body(client.ID, realtime.ClassroomChannel(memberRoom)))
	if w.Code != http.StatusOK {
		t.Fatalf("unsubscribe: got %d %s", w.Code, w.Body.String())
	}
	if n := hub.SubscriberCount(realtime.ClassroomChannel(memberRoom)); n != 0 {
		t.Fatalf("subscribers after unsubscribe: want=0 got=%d", n)
	}
}

func TestRealtimeRequiresUser(t *testing.T) {
	h := NewRealtimeHandler(logger.Nop(), realtime.NewSSEHub(logger.Nop()), &stubClassrooms{})
	r := gin.New()
	r.GET("/v1/realtime/stream", h.Stream)
	w := doJSON(r, http.MethodGet, "/v1/realtime/stream", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=401 got=%d", w.Code)
	}
}

func TestTimeQuery(t *testing.T) {
	cases := []struct {
		query  string
		wantOK bool
		zero   bool
	}{
		{query: "", wantOK: true, zero: true},
		{query: "?before=2026-01-02T03:04:05.123Z", wantOK: true},
		{query: "?before=yesterday", wantOK: false},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/x"+tc.query, nil)
		got, ok := timeQuery(c, "before")
		if ok != tc.wantOK {
			t.Fatalf("%q: ok want=%v got=%v", tc.query, tc.wantOK, ok)
		}
		if ok && got.IsZero() != tc.zero {
			t.Fatalf("%q: zero want=%v got=%v", tc.query, tc.zero, got)
		}
		if !ok && w.Code != http.StatusBadRequest {
			t.Fatalf("%q: status want=400 got=%d", tc.query, w.Code)
		}
	}
}
