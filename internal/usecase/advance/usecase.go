// Package advance implements the rent-advance lifecycle: offers to owners,
// owner responses, admin review, disbursement and utilization.
package advance

import (
	"context"
	"strings"
	"time"

	domain "rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/notification"
	"rentadvance-backend/internal/domain/uow"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Config struct {
	// PortalBaseURL prefixes owner response links and portal deep-links.
	PortalBaseURL string
	// DefaultCommissionRate applies to bulk rows that carry no rate of their own.
	DefaultCommissionRate decimal.Decimal
	// RequireOwnerVerification gates accept and counter on identity + document checks.
	RequireOwnerVerification bool
}

type Usecase struct {
	advances domain.Repository
	uow      uow.UnitOfWork
	notifier notification.Notifier
	log      zerolog.Logger
	cfg      Config
	now      func() time.Time
}

// NewUsecase: advances serves lock-free reads, tx every mutation. A nil
// notifier disables dispatch.
func NewUsecase(advances domain.Repository, tx uow.UnitOfWork, n notification.Notifier, log zerolog.Logger, cfg Config) *Usecase {
	return &Usecase{
		advances: advances,
		uow:      tx,
		notifier: n,
		log:      log,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source, for tests.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = func() time.Time { return now().UTC() }
	return u
}

func (u *Usecase) responseURL(token string) string {
	return strings.TrimRight(u.cfg.PortalBaseURL, "/") + "/owner/advance-requests/" + token
}

func (u *Usecase) portalURL(groupKey string) string {
	return strings.TrimRight(u.cfg.PortalBaseURL, "/") + "/advances/" + groupKey
}

// dispatch is fire-and-forget: failures are logged and never reach the caller.
func (u *Usecase) dispatch(ctx context.Context, ev notification.Event) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.Notify(ctx, ev); err != nil {
		u.log.Warn().Err(err).
			Str("event_type", string(ev.Type)).
			Str("group_key", ev.GroupKey).
			Msg("advance: notification dispatch failed (non-fatal)")
	}
}

// expireIfOverdue forces every pending member of an overdue group to expired
// and persists it. It reports whether the group expired.
func expireIfOverdue(ctx context.Context, r uow.Repos, group []*domain.Advance, now time.Time) (bool, error) {
	overdue := false
	for _, a := range group {
		if a.IsOverdue(now) {
			overdue = true
			break
		}
	}
	if !overdue {
		return false, nil
	}
	changed := make([]*domain.Advance, 0, len(group))
	for _, a := range group {
		if a.Status != domain.StatusPending {
			continue
		}
		if err := a.Transition(domain.StatusExpired); err != nil {
			return false, err
		}
		changed = append(changed, a)
	}
	if err := r.Advances.SaveAll(ctx, changed); err != nil {
		return false, err
	}
	return true, nil
}

func advanceIDs(group []*domain.Advance) []string {
	out := make([]string, 0, len(group))
	for _, a := range group {
		out = append(out, a.AdvanceID)
	}
	return out
}

func groupIDOf(group []*domain.Advance) string {
	if len(group) == 0 || group[0].GroupID == nil {
		return ""
	}
	return *group[0].GroupID
}

func totals(group []*domain.Advance) (amount, commission decimal.Decimal) {
	for _, a := range group {
		amount = amount.Add(a.Amount)
		commission = commission.Add(a.CommissionAmount)
	}
	return amount, commission
}

func timePtr(t time.Time) *time.Time { return &t }
