package http

import (
	"errors"
	"fmt"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	domain "rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/selection"

	"github.com/rs/zerolog"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, stdhttp.StatusNotFound},
		{selection.ErrSuggestionNotFound, stdhttp.StatusNotFound},
		{domain.ErrExpired, stdhttp.StatusGone},
		{domain.ErrVerificationRequired, stdhttp.StatusForbidden},
		{selection.ErrSuggestionOwner, stdhttp.StatusForbidden},
		{domain.ErrAlreadyProcessed, stdhttp.StatusConflict},
		{fmt.Errorf("%w: prop-1", domain.ErrConflict), stdhttp.StatusConflict},
		{domain.ErrNotActive, stdhttp.StatusConflict},
		{domain.ErrNotSendable, stdhttp.StatusConflict},
		{&domain.InvalidStateError{Err: domain.ErrInvalidStateForApproval}, stdhttp.StatusConflict},
		{fmt.Errorf("%w: bad", domain.ErrInvalidInput), stdhttp.StatusBadRequest},
		{errors.New("db down"), stdhttp.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFail_HidesInternalErrors(t *testing.T) {
	e := newEchoWithValidator()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(stdhttp.MethodGet, "/", nil), rec)

	if err := (responder{log: zerolog.Nop()}).fail(c, errors.New("dial tcp 10.0.0.5:3306: refused")); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if rec.Code != stdhttp.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if er := decode[ErrorResponse](t, rec); er.Error != "internal error" {
		t.Fatalf("leaked: %q", er.Error)
	}
}
