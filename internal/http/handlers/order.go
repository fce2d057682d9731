package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/services"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// POST /v1/orders
// body: { "course_ids": [...] }
func (oh *OrderHandler) Create(c *gin.Context) {
	var req struct {
		CourseIDs []uuid.UUID `json:"course_ids"`
	}
	if !bindJSON(c, &req) {
		return
	}
	o, err := oh.orderService.Create(c.Request.Context(), req.CourseIDs)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"order": o})
}

// POST /v1/orders/:id/pay
func (oh *OrderHandler) Pay(c *gin.Context) {
	oh.transition(c, oh.orderService.Pay)
}

// POST /v1/orders/:id/cancel
func (oh *OrderHandler) Cancel(c *gin.Context) {
	oh.transition(c, oh.orderService.Cancel)
}

// POST /v1/orders/:id/refund
func (oh *OrderHandler) Refund(c *gin.Context) {
	oh.transition(c, oh.orderService.Refund)
}

func (oh *OrderHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*types.Order, error)) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	o, err := fn(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}

// GET /v1/orders/:id
func (oh *OrderHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	o, err := oh.orderService.Get(reqCtx(c), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}

// GET /v1/orders/me?status=
func (oh *OrderHandler) ListMine(c *gin.Context) {
	page, err := oh.orderService.ListMine(reqCtx(c), c.Query("status"), pageQuery(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /v1/orders?status=&user_id=
func (oh *OrderHandler) List(c *gin.Context) {
	userID, ok := uuidQuery(c, "user_id")
	if !ok {
		return
	}
	filter := repos.OrderListFilter{UserID: userID, Status: c.Query("status")}
	page, err := oh.orderService.List(reqCtx(c), filter, pageQuery(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, page)
}
