package handler

import (
	"auction-escrow-service/internal/adapter/http/dto"
	"auction-escrow-service/internal/core/ports"
	"auction-escrow-service/pkg/apperror"
	"auction-escrow-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// LedgerHandler handles ledger funding and balance endpoints.
type LedgerHandler struct {
	ledgerSvc ports.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// Topup handles POST /api/v1/ledger/topup.
func (h *LedgerHandler) Topup(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	balance, err := h.ledgerSvc.Topup(c.Request.Context(), caller, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.TopupResponse{Balance: balance})
}

// Balance handles GET /api/v1/ledger/balance.
func (h *LedgerHandler) Balance(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	balance, err := h.ledgerSvc.Balance(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.BalanceResponse{Balance: balance})
}
