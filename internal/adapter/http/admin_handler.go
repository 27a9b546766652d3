package http

import (
	"net/http"

	"rentadvance-backend/internal/adapter/middleware"
	advanceuc "rentadvance-backend/internal/usecase/advance"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AdminHandler serves the admin review queue. Routes sit behind RequireRole.
type AdminHandler struct {
	responder
	uc *advanceuc.Usecase
}

func NewAdminHandler(uc *advanceuc.Usecase, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{responder: responder{log: log}, uc: uc}
}

func adminFrom(c echo.Context) (advanceuc.AdminIdentity, bool) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return advanceuc.AdminIdentity{}, false
	}
	return advanceuc.AdminIdentity{AdminID: claims.UserID, Email: claims.Email}, true
}

type adminListReq struct {
	Limit int `query:"limit" validate:"gte=0,lte=500"`
}

func (h *AdminHandler) ListRequests(c echo.Context) error {
	var req adminListReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	groups, err := h.uc.GetAdminAdvanceRequests(c.Request().Context(), req.Limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"groups": groups, "count": len(groups)})
}

type approveReq struct {
	AdvanceID string `param:"advance_id" json:"-" validate:"required,hex32"`
	Notes     string `json:"notes"                validate:"max=2000"`
}

// Approve disburses the whole group of the advance at its final terms.
func (h *AdminHandler) Approve(c echo.Context) error {
	admin, ok := adminFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "admin identity required"})
	}
	var req approveReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx := c.Request().Context()
	advanceID, err := h.uc.AdminApproveAdvance(ctx, admin, req.AdvanceID, req.Notes)
	if err != nil {
		return h.fail(c, err)
	}
	return h.respondWithAdvance(c, advanceID)
}

type rejectReq struct {
	AdvanceID string `param:"advance_id" json:"-" validate:"required,hex32"`
	Reason    string `json:"reason"               validate:"required,max=2000"`
}

// Reject denies the whole group of the advance.
func (h *AdminHandler) Reject(c echo.Context) error {
	admin, ok := adminFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "admin identity required"})
	}
	var req rejectReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	advanceID, err := h.uc.AdminRejectAdvance(c.Request().Context(), admin, req.AdvanceID, req.Reason)
	if err != nil {
		return h.fail(c, err)
	}
	return h.respondWithAdvance(c, advanceID)
}

type utilizationReq struct {
	AdvanceID     string          `param:"advance_id" json:"-" validate:"required,hex32"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount"       validate:"dpos,dec2"`
}

func (h *AdminHandler) Utilization(c echo.Context) error {
	var req utilizationReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	advanceID, err := h.uc.UpdateAdvanceUtilization(c.Request().Context(), req.AdvanceID, req.MonthlyAmount)
	if err != nil {
		return h.fail(c, err)
	}
	return h.respondWithAdvance(c, advanceID)
}

// Expire runs the expiry sweep on demand.
func (h *AdminHandler) Expire(c echo.Context) error {
	n, err := h.uc.ExpireOverdue(c.Request().Context())
	if err != nil {
		h.log.Warn().Err(err).Int("expired", n).Msg("manual expiry sweep incomplete")
		if n == 0 {
			return h.fail(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"expired": n, "error": "some groups could not be expired"})
	}
	return c.JSON(http.StatusOK, map[string]any{"expired": n})
}

func (h *AdminHandler) respondWithAdvance(c echo.Context, advanceID string) error {
	dto, err := h.uc.GetAdvance(c.Request().Context(), advanceID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
