package reviewmock

import (
	"context"

	domain "rentadvance-backend/internal/domain/review"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn         func(ctx context.Context, r *domain.AdminReview) error
	ListByGroupKeyFn func(ctx context.Context, groupKey string) ([]*domain.AdminReview, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.AdminReview) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) ListByGroupKey(ctx context.Context, groupKey string) ([]*domain.AdminReview, error) {
	if m.ListByGroupKeyFn != nil {
		return m.ListByGroupKeyFn(ctx, groupKey)
	}
	return nil, context.Canceled
}
