package advance

var transitions = map[Status][]Status{
	StatusRequested: {StatusPending, StatusDenied},
	StatusPending:   {StatusApproved, StatusCountered, StatusOwnerDeclined, StatusExpired, StatusDenied},
	StatusApproved:  {StatusDisbursed, StatusDenied},
	StatusCountered: {StatusDisbursed, StatusDenied},
	StatusDisbursed: {StatusRepaid},
}

// CanTransition reports whether from → to is an edge of the lifecycle.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(s Status) bool {
	switch s {
	case StatusRepaid, StatusDenied, StatusOwnerDeclined, StatusExpired:
		return true
	}
	return false
}

// Transition moves a to the target status or fails with ErrInvalidTransition.
func (a *Advance) Transition(to Status) error {
	if !CanTransition(a.Status, to) {
		return &InvalidStateError{Err: ErrInvalidTransition, AdvanceID: a.AdvanceID, Status: a.Status, ResponseType: a.OwnerResponseType}
	}
	a.Status = to
	return nil
}
