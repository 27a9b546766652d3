package review

import (
	"time"

	"github.com/shopspring/decimal"
)

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionDenied   Decision = "denied"
)

// Table: admin_reviews. One audit row per admin decision on a group.
type AdminReview struct {
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Public identifier (32-char lowercase hex)
	ReviewID string `gorm:"column:review_id;size:32;not null;uniqueIndex:ux_admin_reviews_review_id"`
	// Group key of the reviewed advances (group_id, or advance_id when ungrouped)
	GroupKey        string          `gorm:"column:group_key;size:36;not null;index:idx_admin_reviews_group"`
	AdvanceID       string          `gorm:"column:advance_id;size:32;not null"`
	AdminID         string          `gorm:"column:admin_id;size:32;not null"`
	Decision        Decision        `gorm:"column:decision;size:16;not null"`
	Notes           string          `gorm:"column:notes;type:text"`
	MemberCount     int             `gorm:"column:member_count"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount;type:decimal(18,2)"`
	TotalCommission decimal.Decimal `gorm:"column:total_commission;type:decimal(18,2)"`
	ReviewedAt      time.Time       `gorm:"column:reviewed_at;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (AdminReview) TableName() string { return "admin_reviews" }
