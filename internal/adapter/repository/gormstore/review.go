package gormstore

import (
	"context"

	"rentadvance-backend/internal/domain/review"

	"gorm.io/gorm"
)

type ReviewRepository struct{ db *gorm.DB }

func NewReviewRepository(db *gorm.DB) *ReviewRepository { return &ReviewRepository{db: db} }

func (r *ReviewRepository) Create(ctx context.Context, rv *review.AdminReview) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *ReviewRepository) ListByGroupKey(ctx context.Context, groupKey string) ([]*review.AdminReview, error) {
	var out []*review.AdminReview
	res := r.db.WithContext(ctx).
		Where("group_key = ?", groupKey).
		Order("reviewed_at DESC, id DESC").
		Find(&out)
	return out, res.Error
}
