package advance

import (
	"context"
	"fmt"

	domain "rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/notification"
	"rentadvance-backend/internal/domain/selection"
	"rentadvance-backend/internal/domain/uow"

	"github.com/shopspring/decimal"
)

func validateRespond(in RespondInput) error {
	if in.Token == "" || !in.ResponseType.Valid() {
		return fmt.Errorf("%w: token and a response_type of accept, counter or decline are required", domain.ErrInvalidInput)
	}
	if in.ResponseType != domain.ResponseCounter {
		return nil
	}
	if in.CounterAmount == nil && in.CounterTermMonths == nil {
		return fmt.Errorf("%w: a counter needs counter_amount or counter_term_months", domain.ErrInvalidInput)
	}
	if in.CounterAmount != nil && !in.CounterAmount.IsPositive() {
		return fmt.Errorf("%w: counter_amount must be greater than 0", domain.ErrInvalidInput)
	}
	if in.CounterTermMonths != nil && (*in.CounterTermMonths < 1 || *in.CounterTermMonths > selection.MaxTermMonths) {
		return fmt.Errorf("%w: counter_term_months must be between 1 and %d", domain.ErrInvalidInput, selection.MaxTermMonths)
	}
	return nil
}

// splitProportional divides total across weights in proportion, in cents.
// The last share absorbs rounding so the shares always sum to total.
// Zero total weight falls back to an even split.
func splitProportional(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	total = total.Round(2)
	n := len(weights)
	out := make([]decimal.Decimal, n)
	if n == 0 {
		return out
	}
	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		var share decimal.Decimal
		if sum.IsPositive() {
			share = total.Mul(weights[i]).Div(sum).Round(2)
		} else {
			share = total.Div(decimal.NewFromInt(int64(n))).Round(2)
		}
		out[i] = share
		allocated = allocated.Add(share)
	}
	out[n-1] = total.Sub(allocated)
	return out
}

var minShare = decimal.New(1, -2)

// checkShares rejects a counter that leaves any member with less than a cent.
func checkShares(shares []decimal.Decimal) error {
	for _, s := range shares {
		if s.LessThan(minShare) {
			return fmt.Errorf("%w: counter_amount is too small to give every property at least 0.01", domain.ErrInvalidInput)
		}
	}
	return nil
}

func verified(group []*domain.Advance) bool {
	for _, a := range group {
		if !a.IdentityVerified || !a.DocumentSigned {
			return false
		}
	}
	return true
}

// pendingGroup checks the owner-facing preconditions shared by every write
// through a token: the group must still be awaiting the owner.
func pendingGroup(group []*domain.Advance) error {
	for _, a := range group {
		if a.Status != domain.StatusPending {
			return fmt.Errorf("%w: advance %s is %s", domain.ErrAlreadyProcessed, a.AdvanceID, a.Status)
		}
	}
	return nil
}

// RespondToAdvanceRequest applies the owner's decision to every advance
// sharing the token. An overdue group is expired (and that is committed)
// before any response is considered.
func (u *Usecase) RespondToAdvanceRequest(ctx context.Context, in RespondInput) (*RespondResult, error) {
	if u.uow == nil {
		return nil, domain.ErrInvalidTransition
	}
	if err := validateRespond(in); err != nil {
		return nil, err
	}

	now := u.now()
	var (
		res     *RespondResult
		expired bool
		updated []*domain.Advance
	)
	err := u.uow.WithinTokenTx(ctx, in.Token, func(r uow.Repos, group []*domain.Advance) error {
		res, updated = nil, nil
		if err := pendingGroup(group); err != nil {
			return err
		}
		var err error
		if expired, err = expireIfOverdue(ctx, r, group, now); err != nil || expired {
			return err
		}
		if in.ResponseType != domain.ResponseDecline && u.cfg.RequireOwnerVerification && !verified(group) {
			return domain.ErrVerificationRequired
		}

		var shares []decimal.Decimal
		if in.ResponseType == domain.ResponseCounter && in.CounterAmount != nil {
			weights := make([]decimal.Decimal, len(group))
			for i, a := range group {
				weights[i] = a.Amount
			}
			shares = splitProportional(*in.CounterAmount, weights)
			if err := checkShares(shares); err != nil {
				return err
			}
		}

		resp := in.ResponseType
		for i, a := range group {
			a.OwnerResponseType = &resp
			a.OwnerRespondedAt = timePtr(now)
			switch resp {
			case domain.ResponseAccept:
				if err := a.Transition(domain.StatusApproved); err != nil {
					return err
				}
				a.ApprovedAt = timePtr(now)
			case domain.ResponseCounter:
				if err := a.Transition(domain.StatusCountered); err != nil {
					return err
				}
				amount := a.Amount
				if shares != nil {
					amount = shares[i]
				}
				term := a.TermMonths
				if in.CounterTermMonths != nil {
					term = *in.CounterTermMonths
				}
				a.CounterAmount = &amount
				a.CounterTermMonths = &term
			case domain.ResponseDecline:
				if err := a.Transition(domain.StatusOwnerDeclined); err != nil {
					return err
				}
				a.DeclineReason = in.DeclineReason
			}
		}
		if err := r.Advances.SaveAll(ctx, group); err != nil {
			return err
		}
		updated = group
		res = &RespondResult{
			UpdatedCount: len(group),
			AdvanceIDs:   advanceIDs(group),
			GroupID:      groupIDOf(group),
			Status:       group[0].Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		u.log.Info().Str("token_prefix", tokenPrefix(in.Token)).Msg("owner responded after deadline; group expired")
		return nil, domain.ErrExpired
	}

	first := updated[0]
	amount, commission := totals(updated)
	if first.Status == domain.StatusCountered {
		amount = decimal.Zero
		for _, a := range updated {
			final, _ := a.FinalTerms()
			amount = amount.Add(final)
		}
		commission = domain.Commission(amount, first.CommissionRate)
	}

	u.log.Info().
		Str("group_key", first.GroupKey()).
		Str("response_type", string(in.ResponseType)).
		Int("updated", len(updated)).
		Msg("owner responded to advance request")

	u.dispatch(ctx, notification.Event{
		Type:              notification.TypeOwnerResponded,
		GroupKey:          first.GroupKey(),
		AdvanceIDs:        res.AdvanceIDs,
		PropertyManagerID: first.PropertyManagerID,
		OwnerID:           first.OwnerID,
		Recipients: []notification.Recipient{
			{Role: notification.RolePropertyManager, ID: first.PropertyManagerID},
			{Role: notification.RoleAdmin},
		},
		ResponseType:    string(in.ResponseType),
		TotalAmount:     amount,
		TotalCommission: commission,
		PortalURL:       u.portalURL(first.GroupKey()),
		Reason:          in.DeclineReason,
		OccurredAt:      now,
	})
	return res, nil
}

// tokenPrefix shortens a token for log lines; the full token is a credential.
func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}

// RecordOwnerVerification stamps the identity and document checks completed
// by the owner on every member of the pending group.
func (u *Usecase) RecordOwnerVerification(ctx context.Context, token string, in VerificationInput) (*VerificationResult, error) {
	if u.uow == nil {
		return nil, domain.ErrInvalidTransition
	}
	if token == "" || (in.IdentityVerificationID == "" && in.DocumentSignatureID == "") {
		return nil, fmt.Errorf("%w: identity_verification_id or document_signature_id is required", domain.ErrInvalidInput)
	}

	now := u.now()
	var (
		res     *VerificationResult
		expired bool
	)
	err := u.uow.WithinTokenTx(ctx, token, func(r uow.Repos, group []*domain.Advance) error {
		if err := pendingGroup(group); err != nil {
			return err
		}
		var err error
		if expired, err = expireIfOverdue(ctx, r, group, now); err != nil || expired {
			return err
		}
		for _, a := range group {
			if in.IdentityVerificationID != "" {
				a.IdentityVerified = true
				a.IdentityVerificationID = in.IdentityVerificationID
			}
			if in.DocumentSignatureID != "" {
				a.DocumentSigned = true
				a.DocumentSignatureID = in.DocumentSignatureID
			}
		}
		if err := r.Advances.SaveAll(ctx, group); err != nil {
			return err
		}
		res = &VerificationResult{
			UpdatedCount:     len(group),
			IdentityVerified: group[0].IdentityVerified,
			DocumentSigned:   group[0].DocumentSigned,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, domain.ErrExpired
	}
	return res, nil
}
