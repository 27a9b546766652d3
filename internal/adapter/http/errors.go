package http

import (
	"errors"
	"net/http"

	domain "rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/selection"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// statusOf maps domain errors to HTTP codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, selection.ErrSuggestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrVerificationRequired), errors.Is(err, selection.ErrSuggestionOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyProcessed),
		errors.Is(err, domain.ErrInvalidStateForApproval),
		errors.Is(err, domain.ErrInvalidStateForRejection),
		errors.Is(err, domain.ErrNotActive),
		errors.Is(err, domain.ErrNotSendable),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type responder struct{ log zerolog.Logger }

// fail renders err; internal failures are logged and never leak their message.
func (r responder) fail(c echo.Context, err error) error {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		r.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}

	resp := ErrorResponse{Error: err.Error()}
	var ise *domain.InvalidStateError
	if errors.As(err, &ise) {
		resp.Error = ise.Err.Error()
		resp.Details = []FieldError{
			{Field: "advance_id", Message: ise.AdvanceID},
			{Field: "status", Message: string(ise.Status)},
		}
		if ise.ResponseType != nil {
			resp.Details = append(resp.Details, FieldError{Field: "owner_response_type", Message: string(*ise.ResponseType)})
		}
	}
	return c.JSON(code, resp)
}

// bindAndValidate reports false once it has written the 400/422 response.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
