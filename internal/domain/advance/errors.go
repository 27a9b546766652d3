package advance

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                 = errors.New("advance not found")
	ErrAlreadyProcessed         = errors.New("advance request already processed")
	ErrExpired                  = errors.New("advance request has expired")
	ErrInvalidStateForApproval  = errors.New("advance not in a state that can be approved")
	ErrInvalidStateForRejection = errors.New("advance not in a state that can be rejected")
	ErrNotActive                = errors.New("advance is not active")
	ErrNotSendable              = errors.New("advance is not awaiting send")
	ErrVerificationRequired     = errors.New("owner identity and document verification required")
	ErrInvalidInput             = errors.New("invalid input")
	ErrConflict                 = errors.New("property already has an active advance")
	ErrInvalidTransition        = errors.New("invalid status transition")
)

// InvalidStateError carries the diagnostics of a refused admin action.
type InvalidStateError struct {
	Err          error
	AdvanceID    string
	Status       Status
	ResponseType *ResponseType
}

func (e *InvalidStateError) Error() string {
	resp := "none"
	if e.ResponseType != nil {
		resp = string(*e.ResponseType)
	}
	return fmt.Sprintf("%s: advance %s has status %q (owner response: %s)", e.Err, e.AdvanceID, e.Status, resp)
}

func (e *InvalidStateError) Unwrap() error { return e.Err }
