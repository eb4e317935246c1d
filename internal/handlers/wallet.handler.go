package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/internal/services"
	xhttp "github.com/shamcart/grocer-gateway/pkg/http"
)

type WalletService interface {
	Summary(ctx context.Context, userID int64) (*services.WalletSummary, error)
	RequestTopUp(ctx context.Context, req model.TopUpCreateRequest) (*model.WalletTopUp, error)
	ListTopUps(ctx context.Context, status *model.TopUpStatus, userID *int64, limit, offset int) ([]*model.WalletTopUp, int64, error)
	ReviewTopUp(ctx context.Context, req model.TopUpReviewRequest) (*model.WalletTopUp, error)
}

type WalletHandler struct {
	svc WalletService
}

func RegisterWalletRoutes(e *router.Group, h *WalletHandler) {
	e.GET("/wallet", h.GetWallet)
	e.POST("/wallet/topups", h.RequestTopUp)
	e.GET("/wallet/topups", h.ListTopUps)
	e.PUT("/wallet/topups/{id}", h.ReviewTopUp)
}

func NewWalletHandler(walletService WalletService) *WalletHandler {
	return &WalletHandler{
		svc: walletService,
	}
}

type topUpRequest struct {
	Amount int64  `json:"amount"`
	Method string `json:"method"`
}

type topUpReviewRequest struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note"`
}

type topUpListResponse struct {
	Items []*model.WalletTopUp `json:"items"`
	Total int64                `json:"total"`
}

func (h *WalletHandler) GetWallet(ctx *xhttp.RequestCtx) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	summary, err := h.svc.Summary(ctx, p.UserID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, summary)
}

func (h *WalletHandler) RequestTopUp(ctx *xhttp.RequestCtx) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	var req topUpRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	topUp, err := h.svc.RequestTopUp(ctx, model.TopUpCreateRequest{
		UserID: p.UserID,
		Amount: req.Amount,
		Method: model.TopUpMethod(req.Method),
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, topUp)
}

// ListTopUps shows staff any user's requests; customers only see their own.
func (h *WalletHandler) ListTopUps(ctx *xhttp.RequestCtx) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	var status *model.TopUpStatus
	if v := query(ctx, "status"); v != "" {
		s := model.TopUpStatus(v)
		status = &s
	}

	userID := &p.UserID
	if p.Role.IsStaff() {
		userID = nil
		if v := query(ctx, "user_id"); v != "" {
			if id, e := strconv.ParseInt(v, 10, 64); e == nil {
				userID = &id
			}
		}
	}

	limit, offset := 0, 0
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			offset = n
		}
	}

	items, total, err := h.svc.ListTopUps(ctx, status, userID, limit, offset)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, topUpListResponse{Items: items, Total: total})
}

func (h *WalletHandler) ReviewTopUp(ctx *xhttp.RequestCtx) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	if !p.Role.IsStaff() {
		writeError(ctx, 403, "top-up review is restricted to staff")
		return
	}

	raw, _ := ctx.UserValue("id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(ctx, 400, "invalid top-up id in path")
		return
	}

	var req topUpReviewRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	topUp, err := h.svc.ReviewTopUp(ctx, model.TopUpReviewRequest{
		ID:        id,
		Status:    model.TopUpStatus(req.Status),
		AdminNote: req.AdminNote,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, topUp)
}
