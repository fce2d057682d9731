package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/services"
)

type WalletHandler struct {
	walletService services.WalletService
}

func NewWalletHandler(walletService services.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// GET /v1/wallet
func (wh *WalletHandler) Balance(c *gin.Context) {
	balance, err := wh.walletService.Balance(reqCtx(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"balance": balance})
}

// POST /v1/wallet/deposit
func (wh *WalletHandler) Deposit(c *gin.Context) {
	var req amountRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := wh.walletService.Deposit(c.Request.Context(), req.Amount)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"transaction": tx, "balance": tx.BalanceAfter})
}

// POST /v1/wallet/withdraw
func (wh *WalletHandler) Withdraw(c *gin.Context) {
	var req amountRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := wh.walletService.Withdraw(c.Request.Context(), req.Amount)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"transaction": tx, "balance": tx.BalanceAfter})
}

// GET /v1/wallet/transactions?type=
func (wh *WalletHandler) ListMine(c *gin.Context) {
	page, err := wh.walletService.ListMine(reqCtx(c), c.Query("type"), pageQuery(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /v1/transactions?type=&user_id=
func (wh *WalletHandler) List(c *gin.Context) {
	userID, ok := uuidQuery(c, "user_id")
	if !ok {
		return
	}
	filter := repos.TransactionListFilter{UserID: userID, Type: c.Query("type")}
	page, err := wh.walletService.List(reqCtx(c), filter, pageQuery(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, page)
}
