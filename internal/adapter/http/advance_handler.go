package http

import (
	"net/http"

	domain "rentadvance-backend/internal/domain/advance"
	advanceuc "rentadvance-backend/internal/usecase/advance"
	suggestionuc "rentadvance-backend/internal/usecase/suggestion"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AdvanceHandler serves the property manager and owner routes.
type AdvanceHandler struct {
	responder
	uc          *advanceuc.Usecase
	suggestions *suggestionuc.Usecase
	defaultRate decimal.Decimal
}

func NewAdvanceHandler(uc *advanceuc.Usecase, suggestions *suggestionuc.Usecase, defaultRate decimal.Decimal, log zerolog.Logger) *AdvanceHandler {
	return &AdvanceHandler{responder: responder{log: log}, uc: uc, suggestions: suggestions, defaultRate: defaultRate}
}

type propertyReq struct {
	PropertyID  string          `json:"property_id"  validate:"required,max=64"`
	Amount      decimal.Decimal `json:"amount"       validate:"dec2"`
	TermMonths  int             `json:"term_months"`
	MonthlyRent decimal.Decimal `json:"monthly_rent" validate:"dec2"`
}

type createRequestReq struct {
	PropertyManagerID string           `json:"property_manager_id" validate:"required,hex32"`
	OwnerID           string           `json:"owner_id"            validate:"omitempty,hex32"`
	CommissionRate    *decimal.Decimal `json:"commission_rate"     validate:"omitempty,dnonneg"`
	SuggestionID      string           `json:"suggestion_id"       validate:"omitempty,hex32"`
	Properties        []propertyReq    `json:"properties"          validate:"required_without=SuggestionID,max=100,dive"`
}

// CreateAdvanceRequest offers a group of advances to one owner, either from
// explicit properties or from a stored suggestion.
func (h *AdvanceHandler) CreateAdvanceRequest(c echo.Context) error {
	var req createRequestReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx := c.Request().Context()

	ownerID := req.OwnerID
	var props []advanceuc.PropertyRequest
	if req.SuggestionID != "" {
		if h.suggestions == nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "suggestions are not enabled"})
		}
		applied, s, err := h.suggestions.Apply(ctx, req.SuggestionID, req.PropertyManagerID)
		if err != nil {
			return h.fail(c, err)
		}
		props = applied
		if ownerID == "" {
			ownerID = s.OwnerID
		}
	} else {
		props = make([]advanceuc.PropertyRequest, 0, len(req.Properties))
		for _, p := range req.Properties {
			props = append(props, advanceuc.PropertyRequest(p))
		}
	}

	rate := h.defaultRate
	if req.CommissionRate != nil {
		rate = *req.CommissionRate
	}
	res, err := h.uc.CreateAdvanceRequest(ctx, advanceuc.CreateRequestInput{
		PropertyManagerID: req.PropertyManagerID,
		OwnerID:           ownerID,
		CommissionRate:    rate,
		Properties:        props,
	})
	if err != nil {
		return h.fail(c, err)
	}
	if len(res.AdvanceIDs) == 0 {
		return c.JSON(http.StatusUnprocessableEntity, res)
	}
	return c.JSON(http.StatusCreated, res)
}

type bulkItemReq struct {
	PropertyID     string           `json:"property_id"     validate:"required,max=64"`
	OwnerID        string           `json:"owner_id"        validate:"required,hex32"`
	Amount         decimal.Decimal  `json:"amount"          validate:"dec2"`
	TermMonths     int              `json:"term_months"`
	MonthlyRent    decimal.Decimal  `json:"monthly_rent"    validate:"dec2"`
	CommissionRate *decimal.Decimal `json:"commission_rate" validate:"omitempty,dnonneg"`
}

type bulkReq struct {
	PropertyManagerID string        `json:"property_manager_id" validate:"required,hex32"`
	Advances          []bulkItemReq `json:"advances"            validate:"required,max=500,dive"`
}

// CreateBulkAdvances drafts one advance per item; conflicts are reported
// per item and never undo the rest.
func (h *AdvanceHandler) CreateBulkAdvances(c echo.Context) error {
	var req bulkReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := advanceuc.BulkInput{PropertyManagerID: req.PropertyManagerID, Advances: make([]advanceuc.BulkAdvanceInput, 0, len(req.Advances))}
	for _, a := range req.Advances {
		in.Advances = append(in.Advances, advanceuc.BulkAdvanceInput(a))
	}
	res, err := h.uc.CreateBulkAdvances(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	if !res.Success {
		return c.JSON(http.StatusUnprocessableEntity, res)
	}
	return c.JSON(http.StatusCreated, res)
}

type advanceIDReq struct {
	AdvanceID string `param:"advance_id" validate:"required,hex32"`
}

func (h *AdvanceHandler) SendAdvance(c echo.Context) error {
	var req advanceIDReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.uc.SendAdvance(c.Request().Context(), req.AdvanceID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AdvanceHandler) GetAdvance(c echo.Context) error {
	var req advanceIDReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.GetAdvance(c.Request().Context(), req.AdvanceID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type pmAdvancesReq struct {
	PropertyManagerID string `param:"pm_id"           validate:"required,hex32"`
	IncludeRepaid     bool   `query:"include_repaid"`
}

func (h *AdvanceHandler) ListByPropertyManager(c echo.Context) error {
	var req pmAdvancesReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	list, err := h.uc.GetAdvancesByPropertyManager(c.Request().Context(), req.PropertyManagerID, req.IncludeRepaid)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"advances": list, "count": len(list)})
}

type propertyIDReq struct {
	PropertyID string `param:"property_id" validate:"required,max=64"`
}

func (h *AdvanceHandler) PropertyHistory(c echo.Context) error {
	var req propertyIDReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	hist, err := h.uc.GetPropertyAdvanceHistory(c.Request().Context(), req.PropertyID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, hist)
}

type tokenReq struct {
	Token string `param:"token" validate:"required,token64"`
}

func (h *AdvanceHandler) GetByToken(c echo.Context) error {
	var req tokenReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	view, err := h.uc.GetAdvanceRequestByToken(c.Request().Context(), req.Token)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

type respondReq struct {
	Token             string           `param:"token" json:"-"        validate:"required,token64"`
	ResponseType      string           `json:"response_type"         validate:"required,oneof=accept counter decline"`
	CounterAmount     *decimal.Decimal `json:"counter_amount"        validate:"omitempty,dec2"`
	CounterTermMonths *int             `json:"counter_term_months"`
	DeclineReason     string           `json:"decline_reason"        validate:"max=2000"`
}

// Respond applies the owner's decision to the whole group behind the token.
func (h *AdvanceHandler) Respond(c echo.Context) error {
	var req respondReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.uc.RespondToAdvanceRequest(c.Request().Context(), advanceuc.RespondInput{
		Token:             req.Token,
		ResponseType:      domain.ResponseType(req.ResponseType),
		CounterAmount:     req.CounterAmount,
		CounterTermMonths: req.CounterTermMonths,
		DeclineReason:     req.DeclineReason,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type verificationReq struct {
	Token                  string `param:"token" json:"-"          validate:"required,token64"`
	IdentityVerificationID string `json:"identity_verification_id" validate:"max=128"`
	DocumentSignatureID    string `json:"document_signature_id"    validate:"max=128"`
}

func (h *AdvanceHandler) RecordVerification(c echo.Context) error {
	var req verificationReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.uc.RecordOwnerVerification(c.Request().Context(), req.Token, advanceuc.VerificationInput{
		IdentityVerificationID: req.IdentityVerificationID,
		DocumentSignatureID:    req.DocumentSignatureID,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
