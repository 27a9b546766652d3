package uowmock

import (
	"context"
	"errors"

	"rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn      func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinGroupTxFn func(ctx context.Context, advanceID string, fn func(r uow.Repos, group []*advance.Advance) error) error
	WithinTokenTxFn func(ctx context.Context, token string, fn func(r uow.Repos, group []*advance.Advance) error) error
}

// Passthrough returns a UoW that runs every callback directly against r,
// resolving groups through r.Advances.
func Passthrough(r uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(ctx context.Context, fn func(uow.Repos) error) error { return fn(r) },
		WithinGroupTxFn: func(ctx context.Context, advanceID string, fn func(uow.Repos, []*advance.Advance) error) error {
			target, err := r.Advances.GetByAdvanceIDForUpdate(ctx, advanceID)
			if err != nil {
				return err
			}
			return fn(r, []*advance.Advance{target})
		},
		WithinTokenTxFn: func(ctx context.Context, token string, fn func(uow.Repos, []*advance.Advance) error) error {
			group, err := r.Advances.ListByTokenForUpdate(ctx, token)
			if err != nil {
				return err
			}
			if len(group) == 0 {
				return advance.ErrNotFound
			}
			return fn(r, group)
		},
	}
}

func (m *UoW) Reset() { *m = UoW{} }

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinGroupTx(ctx context.Context, advanceID string, fn func(r uow.Repos, group []*advance.Advance) error) error {
	if m.WithinGroupTxFn != nil {
		return m.WithinGroupTxFn(ctx, advanceID, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinTokenTx(ctx context.Context, token string, fn func(r uow.Repos, group []*advance.Advance) error) error {
	if m.WithinTokenTxFn != nil {
		return m.WithinTokenTxFn(ctx, token, fn)
	}
	return errUnimplemented
}
