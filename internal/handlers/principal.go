package handlers

import (
	"strconv"

	"github.com/shamcart/grocer-gateway/internal/model"
	xhttp "github.com/shamcart/grocer-gateway/pkg/http"
)

const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
	headerBranchID = "X-Branch-Id"
)

// principal reads the authenticated caller that the auth layer in front of
// this service stamps on the request. A missing or malformed identity is
// rejected here; the response is already written when ok is false.
func principal(ctx *xhttp.RequestCtx) (model.Principal, bool) {
	rawID := string(ctx.Request.Header.Peek(headerUserID))
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || userID <= 0 {
		writeError(ctx, 401, "missing or invalid "+headerUserID+" header")
		return model.Principal{}, false
	}

	role := model.Role(string(ctx.Request.Header.Peek(headerUserRole)))
	switch role {
	case model.RoleCustomer, model.RoleStaff, model.RoleManager, model.RoleDriver, model.RoleAdmin:
	default:
		writeError(ctx, 401, "missing or invalid "+headerUserRole+" header")
		return model.Principal{}, false
	}

	var branchID int64
	if raw := string(ctx.Request.Header.Peek(headerBranchID)); raw != "" {
		branchID, _ = strconv.ParseInt(raw, 10, 64)
	}

	return model.Principal{
		UserID:   userID,
		Role:     role,
		BranchID: branchID,
	}, true
}
