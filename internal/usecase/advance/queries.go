package advance

import (
	"context"
	"sort"
	"time"

	domain "rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/uow"

	"github.com/shopspring/decimal"
)

const (
	DefaultAdminLimit = 50
	MaxAdminLimit     = 500
)

var hundred = decimal.NewFromInt(100)

// settleExpired expires the groups of any overdue rows before they are shown.
// rows are updated in place.
func (u *Usecase) settleExpired(ctx context.Context, rows []*domain.Advance) error {
	now := u.now()
	done := map[string]bool{}
	for _, a := range rows {
		if !a.IsOverdue(now) || done[a.Token] {
			continue
		}
		done[a.Token] = true
		if _, err := u.expireToken(ctx, a.Token, now); err != nil {
			return err
		}
	}
	for _, a := range rows {
		if a.Status == domain.StatusPending && done[a.Token] {
			a.Status = domain.StatusExpired
		}
	}
	return nil
}

// GetAdvanceRequestByToken is the owner's view of an offer.
func (u *Usecase) GetAdvanceRequestByToken(ctx context.Context, token string) (*TokenView, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	rows, err := u.advances.ListByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	if u.uow != nil {
		if err := u.settleExpired(ctx, rows); err != nil {
			return nil, err
		}
	}

	first := rows[0]
	amount, commission := totals(rows)
	return &TokenView{
		GroupID:           groupIDOf(rows),
		Status:            first.Status,
		Expired:           first.Status == domain.StatusExpired,
		ExpiresAt:         first.ExpiresAt,
		PropertyManagerID: first.PropertyManagerID,
		OwnerID:           first.OwnerID,
		TotalAmount:       amount,
		TotalCommission:   commission,
		Advances:          toDTOs(rows),
	}, nil
}

// approvalTime orders active advances; rows that skipped owner approval
// fall back to disbursement, then request time.
func approvalTime(a *domain.Advance) time.Time {
	switch {
	case a.ApprovedAt != nil:
		return *a.ApprovedAt
	case a.DisbursedAt != nil:
		return *a.DisbursedAt
	}
	return a.RequestedAt
}

// GetPropertyAdvanceHistory buckets every advance on a property and projects
// utilization of the most recent disbursed one from its persisted balance.
func (u *Usecase) GetPropertyAdvanceHistory(ctx context.Context, propertyID string) (*PropertyHistory, error) {
	rows, err := u.advances.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if u.uow != nil {
		if err := u.settleExpired(ctx, rows); err != nil {
			return nil, err
		}
	}

	var active, pending, historical []*domain.Advance
	for _, a := range rows {
		switch a.Status {
		case domain.StatusApproved, domain.StatusDisbursed:
			active = append(active, a)
		case domain.StatusRequested, domain.StatusPending, domain.StatusCountered:
			pending = append(pending, a)
		default:
			historical = append(historical, a)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return approvalTime(active[i]).After(approvalTime(active[j]))
	})

	h := &PropertyHistory{
		PropertyID: propertyID,
		Active:     toDTOs(active),
		Pending:    toDTOs(pending),
		Historical: toDTOs(historical),
	}
	for _, a := range active {
		if a.Status == domain.StatusDisbursed {
			h.CurrentUtilization = utilizationOf(a)
			break
		}
	}
	return h, nil
}

// utilizationOf derives the consumed amount from the persisted balance, so
// the two can never disagree.
func utilizationOf(a *domain.Advance) *Utilization {
	percent := decimal.Zero
	if a.TermMonths > 0 {
		percent = decimal.NewFromInt(int64(a.MonthsUtilized)).
			Div(decimal.NewFromInt(int64(a.TermMonths))).
			Mul(hundred).
			Round(2)
	}
	return &Utilization{
		AdvanceID:        a.AdvanceID,
		MonthsUtilized:   a.MonthsUtilized,
		TermMonths:       a.TermMonths,
		PercentUtilized:  percent,
		AmountUtilized:   a.Amount.Sub(a.RemainingBalance),
		RemainingBalance: a.RemainingBalance,
	}
}

func priorityOf(group []*domain.Advance) Priority {
	p := PriorityLow
	for _, a := range group {
		switch a.Status {
		case domain.StatusApproved, domain.StatusCountered:
			return PriorityHigh
		case domain.StatusPending:
			p = PriorityNormal
		}
	}
	return p
}

func latestActivity(group []*domain.Advance) time.Time {
	var latest time.Time
	for _, a := range group {
		t := a.RequestedAt
		if a.OwnerRespondedAt != nil {
			t = *a.OwnerRespondedAt
		}
		if t.After(latest) {
			latest = t
		}
	}
	return latest
}

// GetAdminAdvanceRequests is the admin review queue: open groups, those
// waiting on an admin first, newest activity first within a priority.
func (u *Usecase) GetAdminAdvanceRequests(ctx context.Context, limit int) ([]AdminGroup, error) {
	if limit <= 0 {
		limit = DefaultAdminLimit
	}
	if limit > MaxAdminLimit {
		limit = MaxAdminLimit
	}

	open := []domain.Status{domain.StatusPending, domain.StatusApproved, domain.StatusCountered}
	rows, err := u.advances.ListByStatuses(ctx, open)
	if err != nil {
		return nil, err
	}
	if u.uow != nil {
		if err := u.settleExpired(ctx, rows); err != nil {
			return nil, err
		}
	}

	var order []string
	groups := map[string][]*domain.Advance{}
	for _, a := range rows {
		if a.Status == domain.StatusExpired {
			continue
		}
		k := a.GroupKey()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], a)
	}

	out := make([]AdminGroup, 0, len(order))
	for _, k := range order {
		g := groups[k]
		amount, _ := totals(g)
		out = append(out, AdminGroup{
			GroupKey:          k,
			GroupID:           g[0].GroupID,
			Priority:          priorityOf(g),
			PropertyManagerID: g[0].PropertyManagerID,
			OwnerID:           g[0].OwnerID,
			TotalAmount:       amount,
			LatestActivity:    latestActivity(g),
			Advances:          toDTOs(g),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := out[i].Priority.rank(), out[j].Priority.rank(); ri != rj {
			return ri < rj
		}
		if !out[i].LatestActivity.Equal(out[j].LatestActivity) {
			return out[i].LatestActivity.After(out[j].LatestActivity)
		}
		return out[i].GroupKey < out[j].GroupKey
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (u *Usecase) GetAdvancesByPropertyManager(ctx context.Context, pmID string, includeRepaid bool) ([]AdvanceDTO, error) {
	rows, err := u.advances.ListByPropertyManager(ctx, pmID, includeRepaid)
	if err != nil {
		return nil, err
	}
	if u.uow != nil {
		if err := u.settleExpired(ctx, rows); err != nil {
			return nil, err
		}
	}
	return toDTOs(rows), nil
}

// GetAdvance returns one advance by its public id, with the admin decisions
// recorded on its group.
func (u *Usecase) GetAdvance(ctx context.Context, advanceID string) (*AdvanceDTO, error) {
	a, err := u.advances.GetByAdvanceID(ctx, advanceID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(a)
	if u.uow == nil {
		return &dto, nil
	}
	if err := u.settleExpired(ctx, []*domain.Advance{a}); err != nil {
		return nil, err
	}
	dto = toDTO(a)
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		reviews, err := r.Reviews.ListByGroupKey(ctx, a.GroupKey())
		if err != nil {
			return err
		}
		if len(reviews) > 0 {
			dto.Reviews = toReviewDTOs(reviews)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}
