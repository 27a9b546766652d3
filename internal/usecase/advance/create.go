package advance

import (
	"context"
	"errors"
	"fmt"

	domain "rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/notification"
	"rentadvance-backend/internal/domain/selection"
	"rentadvance-backend/internal/domain/uow"
	"rentadvance-backend/pkg/id"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

func validRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThan(one)
}

func validateTerms(amount decimal.Decimal, termMonths int, rent decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return fmt.Errorf("%w: amount must be greater than 0", domain.ErrInvalidInput)
	case termMonths < 1 || termMonths > selection.MaxTermMonths:
		return fmt.Errorf("%w: term_months must be between 1 and %d", domain.ErrInvalidInput, selection.MaxTermMonths)
	case rent.IsNegative():
		return fmt.Errorf("%w: monthly_rent must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// checkActive returns ErrConflict when the property already carries an
// active advance, or the lookup error when the store fails.
func checkActive(ctx context.Context, repo domain.Repository, propertyID string) error {
	existing, err := repo.GetActiveByPropertyID(ctx, propertyID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s (%s)", domain.ErrConflict, existing.AdvanceID, existing.Status)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

// CreateAdvanceRequest offers one advance per property to a single owner.
// Every row shares a group id and an owner token and is created pending in
// one transaction; invalid or conflicting properties are reported per item.
// A property that already has an active advance is rejected by checkActive,
// or by the unique active-property index when two requests race.
func (u *Usecase) CreateAdvanceRequest(ctx context.Context, in CreateRequestInput) (*RequestResult, error) {
	if u.uow == nil {
		return nil, domain.ErrInvalidTransition
	}
	if in.PropertyManagerID == "" || in.OwnerID == "" || len(in.Properties) == 0 {
		return nil, fmt.Errorf("%w: property manager, owner and at least one property are required", domain.ErrInvalidInput)
	}
	if !validRate(in.CommissionRate) {
		return nil, fmt.Errorf("%w: commission_rate must be in [0, 1)", domain.ErrInvalidInput)
	}

	now := u.now()
	groupID := id.NewGroupID()
	token := id.NewToken()
	expiresAt := now.Add(domain.ResponseWindow)

	var batch BatchResult[PropertyRequest, *domain.Advance]
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		batch = BatchResult[PropertyRequest, *domain.Advance]{}
		seen := make(map[string]bool, len(in.Properties))
		for _, p := range in.Properties {
			if p.PropertyID == "" {
				batch.Fail(p, fmt.Errorf("%w: property_id is required", domain.ErrInvalidInput))
				continue
			}
			if err := validateTerms(p.Amount, p.TermMonths, p.MonthlyRent); err != nil {
				batch.Fail(p, err)
				continue
			}
			if seen[p.PropertyID] {
				batch.Fail(p, fmt.Errorf("%w: property listed twice", domain.ErrConflict))
				continue
			}
			seen[p.PropertyID] = true
			if err := checkActive(ctx, r.Advances, p.PropertyID); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					batch.Fail(p, err)
					continue
				}
				return err
			}

			gid := groupID
			amount := p.Amount.Round(2)
			a := &domain.Advance{
				AdvanceID:         id.NewID32(),
				GroupID:           &gid,
				Token:             token,
				PropertyID:        p.PropertyID,
				OwnerID:           in.OwnerID,
				PropertyManagerID: in.PropertyManagerID,
				Status:            domain.StatusPending,
				Amount:            amount,
				RequestedAmount:   amount,
				TermMonths:        p.TermMonths,
				MonthlyRentAmount: p.MonthlyRent.Round(2),
				CommissionRate:    in.CommissionRate,
				CommissionAmount:  domain.Commission(amount, in.CommissionRate),
				RemainingBalance:  amount,
				RequestedAt:       now,
				SentAt:            timePtr(now),
				ExpiresAt:         expiresAt,
			}
			// the unique active-property index catches a concurrent request
			// that passed checkActive at the same time
			if err := r.Advances.Create(ctx, a); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					batch.Fail(p, err)
					continue
				}
				return err
			}
			batch.Ok(a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &RequestResult{
		AdvanceIDs: advanceIDs(batch.Succeeded),
		Errors:     itemErrors(batch.Failed, func(p PropertyRequest) string { return p.PropertyID }),
	}
	if len(batch.Succeeded) == 0 {
		return res, nil
	}
	res.GroupID, res.Token, res.ExpiresAt = groupID, token, expiresAt

	u.log.Info().
		Str("group_id", groupID).
		Str("property_manager_id", in.PropertyManagerID).
		Str("owner_id", in.OwnerID).
		Int("created", len(batch.Succeeded)).
		Int("failed", len(batch.Failed)).
		Msg("advance request created")

	u.dispatch(ctx, u.requestedEvent(batch.Succeeded, token))
	return res, nil
}

func (u *Usecase) requestedEvent(group []*domain.Advance, token string) notification.Event {
	amount, commission := totals(group)
	first := group[0]
	return notification.Event{
		Type:              notification.TypeRequested,
		GroupKey:          first.GroupKey(),
		AdvanceIDs:        advanceIDs(group),
		PropertyManagerID: first.PropertyManagerID,
		OwnerID:           first.OwnerID,
		Recipients:        []notification.Recipient{{Role: notification.RoleOwner, ID: first.OwnerID}},
		TotalAmount:       amount,
		TotalCommission:   commission,
		ResponseURL:       u.responseURL(token),
		OccurredAt:        u.now(),
	}
}

// CreateBulkAdvances drafts standalone advances (status requested, one token
// each) for a property manager. Per-item problems are reported, never raised;
// only a store failure aborts the call.
func (u *Usecase) CreateBulkAdvances(ctx context.Context, in BulkInput) (*BulkResult, error) {
	if u.uow == nil {
		return nil, domain.ErrInvalidTransition
	}
	if in.PropertyManagerID == "" {
		return nil, fmt.Errorf("%w: property manager is required", domain.ErrInvalidInput)
	}

	now := u.now()
	var batch BatchResult[BulkAdvanceInput, AdvanceDTO]
	seen := make(map[string]bool, len(in.Advances))

	for _, item := range in.Advances {
		if item.PropertyID == "" || item.OwnerID == "" {
			batch.Fail(item, fmt.Errorf("%w: property_id and owner_id are required", domain.ErrInvalidInput))
			continue
		}
		if err := validateTerms(item.Amount, item.TermMonths, item.MonthlyRent); err != nil {
			batch.Fail(item, err)
			continue
		}
		rate := u.cfg.DefaultCommissionRate
		if item.CommissionRate != nil {
			rate = *item.CommissionRate
		}
		if !validRate(rate) {
			batch.Fail(item, fmt.Errorf("%w: commission_rate must be in [0, 1)", domain.ErrInvalidInput))
			continue
		}
		if seen[item.PropertyID] {
			batch.Fail(item, fmt.Errorf("%w: property listed twice", domain.ErrConflict))
			continue
		}
		seen[item.PropertyID] = true

		amount := item.Amount.Round(2)
		a := &domain.Advance{
			AdvanceID:         id.NewID32(),
			Token:             id.NewToken(),
			PropertyID:        item.PropertyID,
			OwnerID:           item.OwnerID,
			PropertyManagerID: in.PropertyManagerID,
			Status:            domain.StatusRequested,
			Amount:            amount,
			RequestedAmount:   amount,
			TermMonths:        item.TermMonths,
			MonthlyRentAmount: item.MonthlyRent.Round(2),
			CommissionRate:    rate,
			CommissionAmount:  domain.Commission(amount, rate),
			RemainingBalance:  amount,
			RequestedAt:       now,
			ExpiresAt:         now.Add(domain.ResponseWindow),
		}

		// One tx per item so the conflict check and insert are atomic
		// without one row's failure undoing the others.
		err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
			if err := checkActive(ctx, r.Advances, item.PropertyID); err != nil {
				return err
			}
			return r.Advances.Create(ctx, a)
		})
		switch {
		case err == nil:
			batch.Ok(toDTO(a))
		case errors.Is(err, domain.ErrConflict):
			batch.Fail(item, err)
		default:
			return nil, err
		}
	}

	u.log.Info().
		Str("property_manager_id", in.PropertyManagerID).
		Int("requested", len(in.Advances)).
		Int("created", len(batch.Succeeded)).
		Msg("bulk advances created")

	created := batch.Succeeded
	if created == nil {
		created = []AdvanceDTO{}
	}
	return &BulkResult{
		Success:         len(batch.Succeeded) > 0,
		CreatedCount:    len(batch.Succeeded),
		CreatedAdvances: created,
		Errors:          itemErrors(batch.Failed, func(b BulkAdvanceInput) string { return b.PropertyID }),
		TotalRequested:  len(in.Advances),
		Batch:           batch,
	}, nil
}

// SendAdvance releases a drafted advance (and any drafted group members) to
// the owner: requested → pending, with a fresh response window.
func (u *Usecase) SendAdvance(ctx context.Context, advanceID string) (*SendResult, error) {
	if u.uow == nil {
		return nil, domain.ErrInvalidTransition
	}
	now := u.now()
	var sent []*domain.Advance
	err := u.uow.WithinGroupTx(ctx, advanceID, func(r uow.Repos, group []*domain.Advance) error {
		sent = nil
		if group[0].Status != domain.StatusRequested {
			return fmt.Errorf("%w: advance %s is %s", domain.ErrNotSendable, group[0].AdvanceID, group[0].Status)
		}
		for _, a := range group {
			if a.Status != domain.StatusRequested {
				continue
			}
			if err := a.Transition(domain.StatusPending); err != nil {
				return err
			}
			a.SentAt = timePtr(now)
			a.ExpiresAt = now.Add(domain.ResponseWindow)
			sent = append(sent, a)
		}
		return r.Advances.SaveAll(ctx, sent)
	})
	if err != nil {
		return nil, err
	}

	u.dispatch(ctx, u.requestedEvent(sent, sent[0].Token))
	return &SendResult{AdvanceIDs: advanceIDs(sent), SentAt: now, ExpiresAt: now.Add(domain.ResponseWindow)}, nil
}
