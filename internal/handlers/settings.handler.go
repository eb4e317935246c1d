package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/shamcart/grocer-gateway/internal/model"
	xhttp "github.com/shamcart/grocer-gateway/pkg/http"
)

type SettingsService interface {
	Get(ctx context.Context, branchID int64) (*model.Settings, error)
	Save(ctx context.Context, settings *model.Settings) (*model.Settings, error)
}

type SettingsHandler struct {
	svc SettingsService
}

func RegisterSettingsRoutes(e *router.Group, h *SettingsHandler) {
	e.GET("/settings", h.GetSettings)
	e.PUT("/settings", h.SaveSettings)
}

func NewSettingsHandler(settingsService SettingsService) *SettingsHandler {
	return &SettingsHandler{
		svc: settingsService,
	}
}

func (h *SettingsHandler) GetSettings(ctx *xhttp.RequestCtx) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	branchID := p.BranchID
	if v := query(ctx, "branch_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			branchID = id
		}
	}

	settings, err := h.svc.Get(ctx, branchID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, settings)
}

func (h *SettingsHandler) SaveSettings(ctx *xhttp.RequestCtx) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	if !p.Role.IsStaff() {
		writeError(ctx, 403, "settings are writable by staff only")
		return
	}

	var settings model.Settings
	if err := readJSON(ctx, &settings); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	if settings.BranchID == 0 {
		settings.BranchID = p.BranchID
	}

	saved, err := h.svc.Save(ctx, &settings)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, saved)
}
