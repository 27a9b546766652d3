package advance

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, a *Advance) error
	Save(ctx context.Context, a *Advance) error
	SaveAll(ctx context.Context, rows []*Advance) error

	GetByAdvanceID(ctx context.Context, advanceID string) (*Advance, error)
	// Row-locking lookups, used inside a unit of work.
	GetByAdvanceIDForUpdate(ctx context.Context, advanceID string) (*Advance, error)
	ListByTokenForUpdate(ctx context.Context, token string) ([]*Advance, error)
	ListByGroupForUpdate(ctx context.Context, groupKey string) ([]*Advance, error)

	ListByToken(ctx context.Context, token string) ([]*Advance, error)
	ListByProperty(ctx context.Context, propertyID string) ([]*Advance, error)
	ListByPropertyManager(ctx context.Context, pmID string, includeRepaid bool) ([]*Advance, error)
	ListByStatuses(ctx context.Context, statuses []Status) ([]*Advance, error)
	ListOverdueTokens(ctx context.Context, now time.Time) ([]string, error)
	GetActiveByPropertyID(ctx context.Context, propertyID string) (*Advance, error)
}
