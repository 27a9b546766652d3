package advance

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/notification"
	"rentadvance-backend/internal/domain/review"
	"rentadvance-backend/internal/domain/uow"
	"rentadvance-backend/pkg/id"

	"github.com/shopspring/decimal"
)

func requireAdmin(admin AdminIdentity) error {
	if admin.AdminID == "" {
		return fmt.Errorf("%w: admin identity is required", domain.ErrInvalidInput)
	}
	return nil
}

func invalidState(err error, a *domain.Advance) error {
	return &domain.InvalidStateError{Err: err, AdvanceID: a.AdvanceID, Status: a.Status, ResponseType: a.OwnerResponseType}
}

// AdminApproveAdvance disburses the whole group of the referenced advance.
// Each member binds to its own final terms: countered members take their
// counter values, accepted members keep their offer.
func (u *Usecase) AdminApproveAdvance(ctx context.Context, admin AdminIdentity, advanceID, notes string) (string, error) {
	if u.uow == nil {
		return "", domain.ErrInvalidTransition
	}
	if err := requireAdmin(admin); err != nil {
		return "", err
	}

	now := u.now()
	var (
		group      []*domain.Advance
		total      decimal.Decimal
		commission decimal.Decimal
	)
	err := u.uow.WithinGroupTx(ctx, advanceID, func(r uow.Repos, g []*domain.Advance) error {
		for _, a := range g {
			if a.Status != domain.StatusApproved && a.Status != domain.StatusCountered {
				return invalidState(domain.ErrInvalidStateForApproval, a)
			}
		}

		total = decimal.Zero
		for _, a := range g {
			amount, term := a.FinalTerms()
			if err := a.Transition(domain.StatusDisbursed); err != nil {
				return err
			}
			a.Amount = amount
			a.TermMonths = term
			a.CommissionAmount = domain.Commission(amount, a.CommissionRate)
			a.RemainingBalance = amount
			a.MonthsUtilized = 0
			a.DisbursedAt = timePtr(now)
			a.StartDate = timePtr(now)
			a.EndDate = timePtr(now.Add(time.Duration(term) * domain.MonthLength))
			a.AdminReviewedBy = admin.AdminID
			a.AdminReviewedAt = timePtr(now)
			a.AdminApprovalNotes = notes
			total = total.Add(amount)
		}
		// Group commission is computed off the group total for the notice only.
		commission = domain.Commission(total, g[0].CommissionRate)

		if err := r.Advances.SaveAll(ctx, g); err != nil {
			return err
		}
		if err := r.Reviews.Create(ctx, &review.AdminReview{
			ReviewID:        id.NewID32(),
			GroupKey:        g[0].GroupKey(),
			AdvanceID:       g[0].AdvanceID,
			AdminID:         admin.AdminID,
			Decision:        review.DecisionApproved,
			Notes:           notes,
			MemberCount:     len(g),
			TotalAmount:     total,
			TotalCommission: commission,
			ReviewedAt:      now,
		}); err != nil {
			return err
		}
		group = g
		return nil
	})
	if err != nil {
		return "", err
	}

	first := group[0]
	u.log.Info().
		Str("advance_id", advanceID).
		Str("group_key", first.GroupKey()).
		Str("admin_id", admin.AdminID).
		Str("total_amount", total.StringFixed(2)).
		Msg("advance group disbursed")

	u.dispatch(ctx, notification.Event{
		Type:              notification.TypeDisbursed,
		GroupKey:          first.GroupKey(),
		AdvanceIDs:        advanceIDs(group),
		PropertyManagerID: first.PropertyManagerID,
		OwnerID:           first.OwnerID,
		Recipients: []notification.Recipient{
			{Role: notification.RoleOwner, ID: first.OwnerID},
			{Role: notification.RolePropertyManager, ID: first.PropertyManagerID},
		},
		TotalAmount:     total,
		TotalCommission: commission,
		PortalURL:       u.portalURL(first.GroupKey()),
		OccurredAt:      now,
	})
	return advanceID, nil
}

// AdminRejectAdvance denies the whole group from any point before
// disbursement. An overdue pending group expires instead.
func (u *Usecase) AdminRejectAdvance(ctx context.Context, admin AdminIdentity, advanceID, reason string) (string, error) {
	if u.uow == nil {
		return "", domain.ErrInvalidTransition
	}
	if err := requireAdmin(admin); err != nil {
		return "", err
	}
	if reason == "" {
		return "", fmt.Errorf("%w: reason is required", domain.ErrInvalidInput)
	}

	now := u.now()
	var (
		group   []*domain.Advance
		expired bool
	)
	err := u.uow.WithinGroupTx(ctx, advanceID, func(r uow.Repos, g []*domain.Advance) error {
		for _, a := range g {
			if a.Status == domain.StatusDisbursed || domain.IsTerminal(a.Status) {
				return invalidState(domain.ErrInvalidStateForRejection, a)
			}
		}
		var err error
		if expired, err = expireIfOverdue(ctx, r, g, now); err != nil || expired {
			return err
		}

		for _, a := range g {
			if err := a.Transition(domain.StatusDenied); err != nil {
				return err
			}
			a.RejectionReason = reason
			a.AdminReviewedBy = admin.AdminID
			a.AdminReviewedAt = timePtr(now)
		}
		if err := r.Advances.SaveAll(ctx, g); err != nil {
			return err
		}
		amount, commission := totals(g)
		if err := r.Reviews.Create(ctx, &review.AdminReview{
			ReviewID:        id.NewID32(),
			GroupKey:        g[0].GroupKey(),
			AdvanceID:       g[0].AdvanceID,
			AdminID:         admin.AdminID,
			Decision:        review.DecisionDenied,
			Notes:           reason,
			MemberCount:     len(g),
			TotalAmount:     amount,
			TotalCommission: commission,
			ReviewedAt:      now,
		}); err != nil {
			return err
		}
		group = g
		return nil
	})
	if err != nil {
		return "", err
	}
	if expired {
		return "", domain.ErrExpired
	}

	first := group[0]
	amount, commission := totals(group)
	u.log.Info().
		Str("advance_id", advanceID).
		Str("group_key", first.GroupKey()).
		Str("admin_id", admin.AdminID).
		Msg("advance group denied")

	u.dispatch(ctx, notification.Event{
		Type:              notification.TypeDenied,
		GroupKey:          first.GroupKey(),
		AdvanceIDs:        advanceIDs(group),
		PropertyManagerID: first.PropertyManagerID,
		OwnerID:           first.OwnerID,
		Recipients: []notification.Recipient{
			{Role: notification.RoleOwner, ID: first.OwnerID},
			{Role: notification.RolePropertyManager, ID: first.PropertyManagerID},
		},
		TotalAmount:     amount,
		TotalCommission: commission,
		PortalURL:       u.portalURL(first.GroupKey()),
		Reason:          reason,
		OccurredAt:      now,
	})
	return advanceID, nil
}

// UpdateAdvanceUtilization consumes one rent period against a disbursed
// advance. The balance never goes below zero; the advance is repaid once
// the term is used up or nothing is left.
func (u *Usecase) UpdateAdvanceUtilization(ctx context.Context, advanceID string, monthlyAmount decimal.Decimal) (string, error) {
	if u.uow == nil {
		return "", domain.ErrInvalidTransition
	}
	if !monthlyAmount.IsPositive() {
		return "", fmt.Errorf("%w: monthly_amount must be greater than 0", domain.ErrInvalidInput)
	}

	now := u.now()
	var repaid bool
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Advances.GetByAdvanceIDForUpdate(ctx, advanceID)
		if err != nil {
			return err
		}
		if a.Status != domain.StatusDisbursed {
			return fmt.Errorf("%w: advance %s is %s", domain.ErrNotActive, a.AdvanceID, a.Status)
		}

		a.MonthsUtilized++
		balance := a.RemainingBalance.Sub(monthlyAmount.Round(2))
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		a.RemainingBalance = balance
		repaid = a.MonthsUtilized >= a.TermMonths || !balance.IsPositive()
		if repaid {
			if err := a.Transition(domain.StatusRepaid); err != nil {
				return err
			}
			a.CompletedAt = timePtr(now)
		}
		return r.Advances.Save(ctx, a)
	})
	if err != nil {
		return "", err
	}
	if repaid {
		u.log.Info().Str("advance_id", advanceID).Msg("advance repaid")
	}
	return advanceID, nil
}

// ExpireOverdue eagerly expires every pending group past its deadline and
// returns how many advances changed. A group that fails is skipped and its
// error joined into the result.
func (u *Usecase) ExpireOverdue(ctx context.Context) (int, error) {
	if u.uow == nil {
		return 0, domain.ErrInvalidTransition
	}
	now := u.now()
	tokens, err := u.advances.ListOverdueTokens(ctx, now)
	if err != nil {
		return 0, err
	}

	count := 0
	var errs []error
	for _, token := range tokens {
		n, err := u.expireToken(ctx, token, now)
		if err != nil {
			u.log.Warn().Err(err).Str("token_prefix", tokenPrefix(token)).Msg("expiry sweep: group skipped")
			errs = append(errs, err)
			continue
		}
		count += n
	}
	if count > 0 {
		u.log.Info().Int("expired", count).Int("groups", len(tokens)).Msg("expiry sweep finished")
	}
	return count, errors.Join(errs...)
}

func (u *Usecase) expireToken(ctx context.Context, token string, now time.Time) (int, error) {
	n := 0
	err := u.uow.WithinTokenTx(ctx, token, func(r uow.Repos, group []*domain.Advance) error {
		n = 0
		pending := 0
		for _, a := range group {
			if a.Status == domain.StatusPending {
				pending++
			}
		}
		expired, err := expireIfOverdue(ctx, r, group, now)
		if expired {
			n = pending
		}
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	return n, err
}
