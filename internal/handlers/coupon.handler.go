package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/shamcart/grocer-gateway/internal/model"
	xhttp "github.com/shamcart/grocer-gateway/pkg/http"
)

type CouponService interface {
	Create(ctx context.Context, c *model.Coupon) (*model.Coupon, error)
	Update(ctx context.Context, c *model.Coupon) (*model.Coupon, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*model.Coupon, error)
	List(ctx context.Context, f model.CouponFilter) ([]*model.Coupon, int64, error)
}

// CouponHandler exposes the admin CRUD surface; validation and redemption
// happen inside checkout, not here.
type CouponHandler struct {
	svc CouponService
}

func RegisterCouponRoutes(e *router.Group, h *CouponHandler) {
	e.GET("/coupons", h.ListCoupons)
	e.GET("/coupons/{id}", h.GetCoupon)
	e.POST("/coupons", h.CreateCoupon)
	e.PUT("/coupons/{id}", h.UpdateCoupon)
	e.DELETE("/coupons/{id}", h.DeleteCoupon)
}

func NewCouponHandler(couponService CouponService) *CouponHandler {
	return &CouponHandler{
		svc: couponService,
	}
}

type couponListResponse struct {
	Items []*model.Coupon `json:"items"`
	Total int64           `json:"total"`
}

func (h *CouponHandler) ListCoupons(ctx *xhttp.RequestCtx) {
	if !requireStaff(ctx) {
		return
	}

	var f model.CouponFilter
	if v := query(ctx, "active"); v != "" {
		if b, e := strconv.ParseBool(v); e == nil {
			f.Active = &b
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

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, couponListResponse{Items: items, Total: total})
}

func (h *CouponHandler) GetCoupon(ctx *xhttp.RequestCtx) {
	if !requireStaff(ctx) {
		return
	}

	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}

	coupon, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, coupon)
}

func (h *CouponHandler) CreateCoupon(ctx *xhttp.RequestCtx) {
	if !requireStaff(ctx) {
		return
	}

	var coupon model.Coupon
	if err := readJSON(ctx, &coupon); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	created, err := h.svc.Create(ctx, &coupon)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, created)
}

func (h *CouponHandler) UpdateCoupon(ctx *xhttp.RequestCtx) {
	if !requireStaff(ctx) {
		return
	}

	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}

	var coupon model.Coupon
	if err := readJSON(ctx, &coupon); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	coupon.ID = id

	updated, err := h.svc.Update(ctx, &coupon)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, updated)
}

func (h *CouponHandler) DeleteCoupon(ctx *xhttp.RequestCtx) {
	if !requireStaff(ctx) {
		return
	}

	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "deleted"})
}

func requireStaff(ctx *xhttp.RequestCtx) bool {
	p, ok := principal(ctx)
	if !ok {
		return false
	}
	if !p.Role.IsStaff() {
		writeError(ctx, 403, "route is restricted to staff")
		return false
	}
	return true
}
