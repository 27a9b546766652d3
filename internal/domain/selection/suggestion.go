package selection

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSuggestionNotFound = errors.New("suggestion not found or expired")
	ErrSuggestionOwner    = errors.New("suggestion belongs to another property manager")
)

// Suggestion is an optimizer run frozen at the moment it was shown, so that
// applying it commits to exactly what the user saw.
type Suggestion struct {
	SuggestionID      string      `json:"suggestion_id"`
	PropertyManagerID string      `json:"property_manager_id"`
	OwnerID           string      `json:"owner_id"`
	Options           Options     `json:"options"`
	Candidates        []Candidate `json:"candidates"`
	Result            Result      `json:"result"`
	CreatedAt         time.Time   `json:"created_at"`
	ExpiresAt         time.Time   `json:"expires_at"`
}

type SuggestionStore interface {
	Save(ctx context.Context, s *Suggestion, ttl time.Duration) error
	Get(ctx context.Context, suggestionID string) (*Suggestion, error)
}
