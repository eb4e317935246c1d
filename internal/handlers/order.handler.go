package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/shamcart/grocer-gateway/internal/model"
	"github.com/shamcart/grocer-gateway/internal/repository"
	"github.com/shamcart/grocer-gateway/internal/services"
	xhttp "github.com/shamcart/grocer-gateway/pkg/http"
)

type OrderService interface {
	Checkout(ctx context.Context, req model.CheckoutRequest) (*model.Order, error)
	Get(ctx context.Context, principal model.Principal, id int64) (*model.Order, error)
	List(ctx context.Context, principal model.Principal, f model.OrderFilter) ([]*model.Order, int64, error)
	UpdateStatus(ctx context.Context, principal model.Principal, req model.StatusUpdateRequest) (*model.Order, error)
	UpdateDriverLocation(ctx context.Context, principal model.Principal, ping model.DriverPing) error
}

type OrderHandler struct {
	svc OrderService
}

func RegisterOrderRoutes(e *router.Group, h *OrderHandler) {
	e.POST("/orders", h.Checkout)
	e.GET("/orders", h.ListOrders)
	e.GET("/orders/{id}", h.GetOrder)
	e.PUT("/orders/{id}/status", h.UpdateStatus)
	e.PUT("/orders/{id}/driver-status", h.UpdateDriverStatus)
	e.PUT("/orders/{id}/driver-location", h.UpdateDriverLocation)
}

func NewOrderHandler(orderService OrderService) *OrderHandler {
	return &OrderHandler{
		svc: orderService,
	}
}

type checkoutRequest struct {
	Items         []model.CheckoutItem `json:"items"`
	PaymentMethod string               `json:"payment_method"`
	CouponCodes   []string             `json:"coupon_codes"`
	UseReward     bool                 `json:"use_reward"`
	Address       string               `json:"address"`
	Lat           float64              `json:"lat"`
	Lng           float64              `json:"lng"`
}

type statusUpdateRequest struct {
	Status        string  `json:"status"`
	PaymentStatus *string `json:"payment_status,omitempty"`
}

type driverLocationRequest struct {
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type orderListResponse struct {
	Items []*model.Order `json:"items"`
	Total int64          `json:"total"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *OrderHandler) Checkout(ctx *xhttp.RequestCtx) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	order, err := h.svc.Checkout(ctx, model.CheckoutRequest{
		UserID:        p.UserID,
		BranchID:      p.BranchID,
		Items:         req.Items,
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
		CouponCodes:   req.CouponCodes,
		UseReward:     req.UseReward,
		Address:       req.Address,
		Lat:           req.Lat,
		Lng:           req.Lng,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, order)
}

func (h *OrderHandler) ListOrders(ctx *xhttp.RequestCtx) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	var f model.OrderFilter
	if v := query(ctx, "user_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.UserID = &id
		}
	}
	if v := query(ctx, "branch_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.BranchID = &id
		}
	}
	if v := query(ctx, "driver_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.DriverID = &id
		}
	}
	if v := query(ctx, "status"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] != "" {
				f.Statuses = append(f.Statuses, model.OrderStatus(parts[i]))
			}
		}
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, p, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, orderListResponse{Items: items, Total: total})
}

func (h *OrderHandler) GetOrder(ctx *xhttp.RequestCtx) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}

	order, err := h.svc.Get(ctx, p, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, order)
}

func (h *OrderHandler) UpdateStatus(ctx *xhttp.RequestCtx) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}

	var req statusUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	update := model.StatusUpdateRequest{
		OrderID: id,
		Status:  model.OrderStatus(req.Status),
	}
	if req.PaymentStatus != nil {
		ps := model.PaymentStatus(*req.PaymentStatus)
		update.PaymentStatus = &ps
	}

	order, err := h.svc.UpdateStatus(ctx, p, update)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, order)
}

// UpdateDriverStatus is the driver-facing status route; the payment axis is
// staff-only so the body carries only the status.
func (h *OrderHandler) UpdateDriverStatus(ctx *xhttp.RequestCtx) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	if p.Role != model.RoleDriver {
		writeError(ctx, 403, "route is restricted to drivers")
		return
	}

	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}

	var req statusUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	order, err := h.svc.UpdateStatus(ctx, p, model.StatusUpdateRequest{
		OrderID: id,
		Status:  model.OrderStatus(req.Status),
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, order)
}

// UpdateDriverLocation always acks with 200 on a stale ping; the service
// swallows the conflict so retried pings stay idempotent for the driver app.
func (h *OrderHandler) UpdateDriverLocation(ctx *xhttp.RequestCtx) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}

	var req driverLocationRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	ping := model.DriverPing{
		OrderID: id,
		Lat:     req.Lat,
		Lng:     req.Lng,
	}
	if req.Timestamp != nil {
		ping.Timestamp = *req.Timestamp
	}

	if err := h.svc.UpdateDriverLocation(ctx, p, ping); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "ok"})
}

/* --------------------------------- Helpers ----------------------------------- */

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto the HTTP taxonomy.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	if ce, ok := model.AsCouponError(err); ok {
		writeJSON(ctx, 422, map[string]string{
			"error":  ce.Error(),
			"code":   ce.Code,
			"reason": string(ce.Reason),
		})
		return
	}

	switch {
	case model.IsValidation(err):
		writeError(ctx, 400, err.Error())
	case errors.Is(err, model.ErrInsufficientFunds), errors.Is(err, model.ErrInsufficientPoints):
		writeError(ctx, 402, err.Error())
	case errors.Is(err, model.ErrForbidden):
		writeError(ctx, 403, err.Error())
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrSettingsNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrCouponNotFound),
		errors.Is(err, repository.ErrTopUpNotFound):
		writeError(ctx, 404, err.Error())
	case errors.Is(err, model.ErrInvalidTransition), errors.Is(err, services.ErrTopUpAlreadyReviewed):
		writeError(ctx, 409, err.Error())
	default:
		writeError(ctx, 500, "internal error")
	}
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func pathID(ctx *xhttp.RequestCtx) (int64, error) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id in path")
	}
	return id, nil
}
