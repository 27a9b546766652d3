package http

import (
	"net/http"
	"time"

	"rentadvance-backend/internal/domain/selection"
	suggestionuc "rentadvance-backend/internal/usecase/suggestion"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type SuggestionHandler struct {
	responder
	uc *suggestionuc.Usecase
}

func NewSuggestionHandler(uc *suggestionuc.Usecase, log zerolog.Logger) *SuggestionHandler {
	return &SuggestionHandler{responder: responder{log: log}, uc: uc}
}

type candidateReq struct {
	PropertyID      string          `json:"property_id"      validate:"required,max=64"`
	MonthlyRent     decimal.Decimal `json:"monthly_rent"     validate:"dnonneg,dec2"`
	MonthsRemaining int             `json:"months_remaining" validate:"gte=0"`
	LeaseEndDate    *time.Time      `json:"lease_end_date"`
}

type suggestReq struct {
	PropertyManagerID string          `json:"property_manager_id" validate:"required,hex32"`
	OwnerID           string          `json:"owner_id"            validate:"omitempty,hex32"`
	TargetAmount      decimal.Decimal `json:"target_amount"       validate:"dpos,dec2"`
	MinMonths         int             `json:"min_months"          validate:"omitempty,gte=2,lte=11"`
	Properties        []candidateReq  `json:"properties"          validate:"required,min=1,max=200,dive"`
}

// Suggest runs the optimizer and stores the outcome for a later apply.
func (h *SuggestionHandler) Suggest(c echo.Context) error {
	var req suggestReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := suggestionuc.SuggestInput{
		PropertyManagerID: req.PropertyManagerID,
		OwnerID:           req.OwnerID,
		TargetAmount:      req.TargetAmount,
		MinMonths:         req.MinMonths,
		Properties:        make([]suggestionuc.PropertyInput, 0, len(req.Properties)),
	}
	for _, p := range req.Properties {
		in.Properties = append(in.Properties, suggestionuc.PropertyInput(p))
	}
	s, err := h.uc.Suggest(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

type suggestionIDReq struct {
	SuggestionID      string `param:"suggestion_id"        validate:"required,hex32"`
	PropertyManagerID string `query:"property_manager_id"  validate:"required,hex32"`
}

func (h *SuggestionHandler) Get(c echo.Context) error {
	var req suggestionIDReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	s, err := h.uc.Load(c.Request().Context(), req.SuggestionID)
	if err != nil {
		return h.fail(c, err)
	}
	if s.PropertyManagerID != req.PropertyManagerID {
		return h.fail(c, selection.ErrSuggestionOwner)
	}
	return c.JSON(http.StatusOK, s)
}
