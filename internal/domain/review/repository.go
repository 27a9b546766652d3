package review

import "context"

type Repository interface {
	Create(ctx context.Context, r *AdminReview) error

	// Reviews for a group, newest first
	ListByGroupKey(ctx context.Context, groupKey string) ([]*AdminReview, error)
}
