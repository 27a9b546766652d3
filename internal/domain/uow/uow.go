package uow

import (
	"context"

	"rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/review"
)

type Repos struct {
	Advances advance.Repository
	Reviews  review.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock every member of the advance's group first, then pass them in
	WithinGroupTx(ctx context.Context, advanceID string, fn func(r Repos, group []*advance.Advance) error) error
	// same as WithinGroupTx, keyed by the shared owner token
	WithinTokenTx(ctx context.Context, token string, fn func(r Repos, group []*advance.Advance) error) error
}
