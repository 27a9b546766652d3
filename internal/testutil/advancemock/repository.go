package advancemock

import (
	"context"
	"time"

	domain "rentadvance-backend/internal/domain/advance"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to no-op success; reads default to context.Canceled.
type Repo struct {
	CreateFn                  func(ctx context.Context, a *domain.Advance) error
	SaveFn                    func(ctx context.Context, a *domain.Advance) error
	SaveAllFn                 func(ctx context.Context, rows []*domain.Advance) error
	GetByAdvanceIDFn          func(ctx context.Context, advanceID string) (*domain.Advance, error)
	GetByAdvanceIDForUpdateFn func(ctx context.Context, advanceID string) (*domain.Advance, error)
	ListByTokenForUpdateFn    func(ctx context.Context, token string) ([]*domain.Advance, error)
	ListByGroupForUpdateFn    func(ctx context.Context, groupKey string) ([]*domain.Advance, error)
	ListByTokenFn             func(ctx context.Context, token string) ([]*domain.Advance, error)
	ListByPropertyFn          func(ctx context.Context, propertyID string) ([]*domain.Advance, error)
	ListByPropertyManagerFn   func(ctx context.Context, pmID string, includeRepaid bool) ([]*domain.Advance, error)
	ListByStatusesFn          func(ctx context.Context, statuses []domain.Status) ([]*domain.Advance, error)
	ListOverdueTokensFn       func(ctx context.Context, now time.Time) ([]string, error)
	GetActiveByPropertyIDFn   func(ctx context.Context, propertyID string) (*domain.Advance, error)
}

func (m *Repo) Create(ctx context.Context, a *domain.Advance) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, a *domain.Advance) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return nil
}

func (m *Repo) SaveAll(ctx context.Context, rows []*domain.Advance) error {
	if m.SaveAllFn != nil {
		return m.SaveAllFn(ctx, rows)
	}
	return nil
}

func (m *Repo) GetByAdvanceID(ctx context.Context, advanceID string) (*domain.Advance, error) {
	if m.GetByAdvanceIDFn != nil {
		return m.GetByAdvanceIDFn(ctx, advanceID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByAdvanceIDForUpdate(ctx context.Context, advanceID string) (*domain.Advance, error) {
	if m.GetByAdvanceIDForUpdateFn != nil {
		return m.GetByAdvanceIDForUpdateFn(ctx, advanceID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByTokenForUpdate(ctx context.Context, token string) ([]*domain.Advance, error) {
	if m.ListByTokenForUpdateFn != nil {
		return m.ListByTokenForUpdateFn(ctx, token)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByGroupForUpdate(ctx context.Context, groupKey string) ([]*domain.Advance, error) {
	if m.ListByGroupForUpdateFn != nil {
		return m.ListByGroupForUpdateFn(ctx, groupKey)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByToken(ctx context.Context, token string) ([]*domain.Advance, error) {
	if m.ListByTokenFn != nil {
		return m.ListByTokenFn(ctx, token)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByProperty(ctx context.Context, propertyID string) ([]*domain.Advance, error) {
	if m.ListByPropertyFn != nil {
		return m.ListByPropertyFn(ctx, propertyID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByPropertyManager(ctx context.Context, pmID string, includeRepaid bool) ([]*domain.Advance, error) {
	if m.ListByPropertyManagerFn != nil {
		return m.ListByPropertyManagerFn(ctx, pmID, includeRepaid)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByStatuses(ctx context.Context, statuses []domain.Status) ([]*domain.Advance, error) {
	if m.ListByStatusesFn != nil {
		return m.ListByStatusesFn(ctx, statuses)
	}
	return nil, context.Canceled
}

func (m *Repo) ListOverdueTokens(ctx context.Context, now time.Time) ([]string, error) {
	if m.ListOverdueTokensFn != nil {
		return m.ListOverdueTokensFn(ctx, now)
	}
	return nil, context.Canceled
}

func (m *Repo) GetActiveByPropertyID(ctx context.Context, propertyID string) (*domain.Advance, error) {
	if m.GetActiveByPropertyIDFn != nil {
		return m.GetActiveByPropertyIDFn(ctx, propertyID)
	}
	return nil, context.Canceled
}
