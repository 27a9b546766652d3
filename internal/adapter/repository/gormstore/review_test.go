package gormstore

import (
	"context"
	"testing"
	"time"

	"rentadvance-backend/internal/domain/review"

	"github.com/shopspring/decimal"
)

func makeReview(reviewID, groupKey string, decision review.Decision, at time.Time) *review.AdminReview {
	return &review.AdminReview{
		ReviewID:        reviewID,
		GroupKey:        groupKey,
		AdvanceID:       "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		AdminID:         "dddddddddddddddddddddddddddddddd",
		Decision:        decision,
		MemberCount:     2,
		TotalAmount:     decimal.NewFromInt(20000),
		TotalCommission: decimal.NewFromInt(400),
		ReviewedAt:      at.UTC(),
	}
}

func TestReview_CreateAndListByGroupKey(t *testing.T) {
	repo := NewReviewRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, makeReview("REV-OLD", "G-1", review.DecisionDenied, now.Add(-time.Hour))); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, makeReview("REV-NEW", "G-1", review.DecisionApproved, now)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, makeReview("REV-OTHER", "G-2", review.DecisionApproved, now)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := repo.ListByGroupKey(ctx, "G-1")
	if err != nil {
		t.Fatalf("ListByGroupKey: %v", err)
	}
	if len(list) != 2 || list[0].ReviewID != "REV-NEW" {
		t.Fatalf("unexpected order/size: %+v", list)
	}

	if list[0].Decision != review.DecisionApproved || !list[0].TotalAmount.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("unexpected review: %+v", list[0])
	}

	other, err := repo.ListByGroupKey(ctx, "G-2")
	if err != nil || len(other) != 1 || other[0].ReviewID != "REV-OTHER" {
		t.Fatalf("G-2 reviews = %+v, %v", other, err)
	}
}

func TestReview_ListByGroupKey_Empty(t *testing.T) {
	repo := NewReviewRepository(openTestDB(t))
	list, err := repo.ListByGroupKey(context.Background(), "NOPE")
	if err != nil || len(list) != 0 {
		t.Fatalf("want no reviews, got %+v, %v", list, err)
	}
}
