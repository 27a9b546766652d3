// Package suggestion runs the property selection optimizer once and keeps
// the result so a later "apply" commits to exactly what was shown.
package suggestion

import (
	"context"
	"fmt"
	"time"

	domain "rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/selection"
	advanceuc "rentadvance-backend/internal/usecase/advance"
	"rentadvance-backend/pkg/id"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const DefaultTTL = 24 * time.Hour

type PropertyInput struct {
	PropertyID  string
	MonthlyRent decimal.Decimal
	// MonthsRemaining is used as-is unless LeaseEndDate is set.
	MonthsRemaining int
	LeaseEndDate    *time.Time
}

type SuggestInput struct {
	PropertyManagerID string
	OwnerID           string
	TargetAmount      decimal.Decimal
	MinMonths         int
	Properties        []PropertyInput
}

type Usecase struct {
	store selection.SuggestionStore
	ttl   time.Duration
	log   zerolog.Logger
	now   func() time.Time
}

func NewUsecase(store selection.SuggestionStore, ttl time.Duration, log zerolog.Logger) *Usecase {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Usecase{store: store, ttl: ttl, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Suggest optimizes the selection and stores it under a fresh id.
func (u *Usecase) Suggest(ctx context.Context, in SuggestInput) (*selection.Suggestion, error) {
	if in.PropertyManagerID == "" {
		return nil, fmt.Errorf("%w: property manager is required", domain.ErrInvalidInput)
	}
	now := u.now()
	candidates := make([]selection.Candidate, 0, len(in.Properties))
	for _, p := range in.Properties {
		if p.LeaseEndDate != nil {
			candidates = append(candidates, selection.CandidateFromLease(p.PropertyID, p.MonthlyRent, *p.LeaseEndDate, now))
			continue
		}
		candidates = append(candidates, selection.Candidate{
			PropertyID:      p.PropertyID,
			MonthlyRent:     p.MonthlyRent,
			MonthsRemaining: p.MonthsRemaining,
		})
	}

	opts := selection.Options{MinMonths: in.MinMonths}
	s := &selection.Suggestion{
		SuggestionID:      id.NewID32(),
		PropertyManagerID: in.PropertyManagerID,
		OwnerID:           in.OwnerID,
		Options:           opts,
		Candidates:        candidates,
		Result:            selection.Optimize(candidates, in.TargetAmount, opts),
		CreatedAt:         now,
		ExpiresAt:         now.Add(u.ttl),
	}
	if err := u.store.Save(ctx, s, u.ttl); err != nil {
		return nil, err
	}

	u.log.Debug().
		Str("suggestion_id", s.SuggestionID).
		Str("property_manager_id", in.PropertyManagerID).
		Int("candidates", len(candidates)).
		Int("selected", len(s.Result.SelectedPropertyIDs)).
		Str("total_amount", s.Result.TotalAmount.StringFixed(2)).
		Msg("selection suggested")
	return s, nil
}

// Load returns a stored suggestion verbatim; it never re-runs the optimizer.
func (u *Usecase) Load(ctx context.Context, suggestionID string) (*selection.Suggestion, error) {
	return u.store.Get(ctx, suggestionID)
}

// Apply loads the suggestion on behalf of pmID and turns its selection into
// advance request lines.
func (u *Usecase) Apply(ctx context.Context, suggestionID, pmID string) ([]advanceuc.PropertyRequest, *selection.Suggestion, error) {
	s, err := u.store.Get(ctx, suggestionID)
	if err != nil {
		return nil, nil, err
	}
	if s.PropertyManagerID != pmID {
		return nil, nil, selection.ErrSuggestionOwner
	}
	return ToRequestProperties(s), s, nil
}

// ToRequestProperties maps each selected property to an advance line at the
// stored term and amount, in the stored selection order.
func ToRequestProperties(s *selection.Suggestion) []advanceuc.PropertyRequest {
	rent := make(map[string]decimal.Decimal, len(s.Candidates))
	for _, c := range s.Candidates {
		if _, ok := rent[c.PropertyID]; !ok {
			rent[c.PropertyID] = c.MonthlyRent
		}
	}
	out := make([]advanceuc.PropertyRequest, 0, len(s.Result.SelectedPropertyIDs))
	for _, pid := range s.Result.SelectedPropertyIDs {
		out = append(out, advanceuc.PropertyRequest{
			PropertyID:  pid,
			Amount:      s.Result.PropertyAmounts[pid],
			TermMonths:  s.Result.PropertyTermMonths[pid],
			MonthlyRent: rent[pid],
		})
	}
	return out
}
