package handler

import (
	"time"

	"auction-escrow-service/internal/adapter/http/dto"
	"auction-escrow-service/internal/adapter/http/middleware"
	"auction-escrow-service/internal/core/ports"
	"auction-escrow-service/pkg/apperror"
	"auction-escrow-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuctionHandler handles auction lifecycle endpoints.
type AuctionHandler struct {
	auctionSvc ports.AuctionService
}

// NewAuctionHandler creates a new AuctionHandler.
func NewAuctionHandler(auctionSvc ports.AuctionService) *AuctionHandler {
	return &AuctionHandler{auctionSvc: auctionSvc}
}

// callerID extracts the authenticated account from the request context.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	return id, true
}

// auctionID parses the :id path parameter.
func auctionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid auction id"))
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /api/v1/auctions.
func (h *AuctionHandler) Create(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	var req dto.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	status, err := h.auctionSvc.CreateAuction(c.Request.Context(), ports.CreateAuctionRequest{
		Seller:           caller,
		ItemDescriptor:   req.ItemDescriptor,
		StartingPrice:    req.StartingPrice,
		MinPctIncrement:  req.MinPctIncrement,
		StartTime:        req.StartAt,
		DurationSeconds:  req.DurationSeconds,
		AllowListEnabled: req.AllowListEnabled,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toAuctionResponse(status))
}

// Get handles GET /api/v1/auctions/:id.
func (h *AuctionHandler) Get(c *gin.Context) {
	id, ok := auctionID(c)
	if !ok {
		return
	}

	status, err := h.auctionSvc.GetAuction(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toAuctionResponse(status))
}

// List handles GET /api/v1/auctions.
func (h *AuctionHandler) List(c *gin.Context) {
	statuses, err := h.auctionSvc.ListAuctions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.AuctionResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, toAuctionResponse(s))
	}
	response.OK(c, out)
}

// PlaceBid handles POST /api/v1/auctions/:id/bids.
// The payout address passes through untouched.
func (h *AuctionHandler) PlaceBid(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := auctionID(c)
	if !ok {
		return
	}

	var req dto.BidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	status, err := h.auctionSvc.PlaceBid(c.Request.Context(), ports.PlaceBidRequest{
		AuctionID:     id,
		Bidder:        caller,
		Amount:        req.Amount,
		PayoutAddress: req.PayoutAddress,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toAuctionResponse(status))
}

// SellerWithdraw handles POST /api/v1/auctions/:id/withdraw.
func (h *AuctionHandler) SellerWithdraw(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := auctionID(c)
	if !ok {
		return
	}

	amount, err := h.auctionSvc.SellerWithdraw(c.Request.Context(), id, caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.WithdrawResponse{Amount: amount})
}

// LoserWithdraw handles POST /api/v1/auctions/:id/refund.
func (h *AuctionHandler) LoserWithdraw(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := auctionID(c)
	if !ok {
		return
	}

	amount, err := h.auctionSvc.LoserWithdraw(c.Request.Context(), id, caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.WithdrawResponse{Amount: amount})
}

// UpdateAllowList handles PUT /api/v1/auctions/:id/allowlist.
func (h *AuctionHandler) UpdateAllowList(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := auctionID(c)
	if !ok {
		return
	}

	var req dto.AllowListUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	add, err := parseUUIDs(req.Add)
	if err != nil {
		response.Error(c, apperror.Validation("invalid account id in add list"))
		return
	}
	remove, err := parseUUIDs(req.Remove)
	if err != nil {
		response.Error(c, apperror.Validation("invalid account id in remove list"))
		return
	}

	if err := h.auctionSvc.UpdateAllowList(c.Request.Context(), id, caller, add, remove); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"updated": true})
}

func parseUUIDs(in []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(in))
	for _, s := range in {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func toAuctionResponse(s *ports.AuctionStatus) dto.AuctionResponse {
	resp := dto.AuctionResponse{
		ID:                 s.ID.String(),
		Seller:             s.Seller.String(),
		ItemDescriptor:     s.ItemDescriptor,
		StartingPrice:      s.StartingPrice,
		MinPctIncrement:    s.MinPctIncrement,
		StartAt:            s.StartAt.UTC().Format(time.RFC3339),
		ExpiresAt:          s.ExpiresAt.UTC().Format(time.RFC3339),
		State:              string(s.State),
		MinimumBid:         s.MinimumBid,
		RemainingSeconds:   s.RemainingSeconds,
		HighestAmount:      s.HighestAmount,
		SellerHasWithdrawn: s.SellerHasWithdrawn,
		AllowListEnabled:   s.AllowListEnabled,
	}
	if s.HighestBidder != nil {
		hb := s.HighestBidder.String()
		resp.HighestBidder = &hb
	}
	return resp
}
