package advance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusRequested     Status = "requested"
	StatusPending       Status = "pending"
	StatusApproved      Status = "approved"
	StatusCountered     Status = "countered"
	StatusOwnerDeclined Status = "owner_declined"
	StatusExpired       Status = "expired"
	StatusDisbursed     Status = "disbursed"
	StatusDenied        Status = "denied"
	StatusRepaid        Status = "repaid"
)

type ResponseType string

const (
	ResponseAccept  ResponseType = "accept"
	ResponseCounter ResponseType = "counter"
	ResponseDecline ResponseType = "decline"
)

func (r ResponseType) Valid() bool {
	switch r {
	case ResponseAccept, ResponseCounter, ResponseDecline:
		return true
	}
	return false
}

const (
	// ResponseWindow is the hard deadline for an owner to answer an offer.
	ResponseWindow = 7 * 24 * time.Hour
	// MonthLength is the fixed month used to project an advance end date.
	MonthLength = 30 * 24 * time.Hour
)

// ActiveStatuses block a new advance on the same property.
var ActiveStatuses = []Status{
	StatusRequested,
	StatusPending,
	StatusApproved,
	StatusCountered,
	StatusDisbursed,
}

func IsActive(s Status) bool {
	for _, a := range ActiveStatuses {
		if a == s {
			return true
		}
	}
	return false
}

// Table: advances. One funding line against one property.
type Advance struct {
	ID        uint64  `gorm:"primaryKey;column:id" json:"-"`
	AdvanceID string  `gorm:"column:advance_id;size:32;uniqueIndex:ux_advances_advance_id" json:"advance_id"`
	GroupID   *string `gorm:"column:group_id;size:36;index:idx_advances_group" json:"group_id,omitempty"`
	Token     string  `gorm:"column:token;size:64;index:idx_advances_token" json:"-"`

	PropertyID        string `gorm:"column:property_id;size:32;index:idx_advances_property" json:"property_id"`
	OwnerID           string `gorm:"column:owner_id;size:32;index:idx_advances_owner" json:"owner_id"`
	PropertyManagerID string `gorm:"column:property_manager_id;size:32;index:idx_advances_pm" json:"property_manager_id"`

	// ActivePropertyID mirrors PropertyID while the advance is active and is
	// NULL otherwise; its unique index allows one active advance per property.
	ActivePropertyID *string `gorm:"column:active_property_id;size:32;uniqueIndex:ux_advances_active_property" json:"-"`

	Status Status `gorm:"column:status;size:32;index:idx_advances_status;not null" json:"status"`

	Amount            decimal.Decimal `gorm:"column:amount;type:decimal(18,2)" json:"amount"`
	RequestedAmount   decimal.Decimal `gorm:"column:requested_amount;type:decimal(18,2)" json:"requested_amount"`
	TermMonths        int             `gorm:"column:term_months" json:"term_months"`
	MonthlyRentAmount decimal.Decimal `gorm:"column:monthly_rent_amount;type:decimal(18,2)" json:"monthly_rent_amount"`
	CommissionRate    decimal.Decimal `gorm:"column:commission_rate;type:decimal(6,4)" json:"commission_rate"`
	CommissionAmount  decimal.Decimal `gorm:"column:commission_amount;type:decimal(18,2)" json:"commission_amount"`

	OwnerResponseType *ResponseType    `gorm:"column:owner_response_type;size:16" json:"owner_response_type,omitempty"`
	CounterAmount     *decimal.Decimal `gorm:"column:counter_amount;type:decimal(18,2)" json:"counter_amount,omitempty"`
	CounterTermMonths *int             `gorm:"column:counter_term_months" json:"counter_term_months,omitempty"`
	DeclineReason     string           `gorm:"column:decline_reason;type:text" json:"decline_reason,omitempty"`
	OwnerRespondedAt  *time.Time       `gorm:"column:owner_responded_at" json:"owner_responded_at,omitempty"`

	RequestedAt time.Time  `gorm:"column:requested_at" json:"requested_at"`
	SentAt      *time.Time `gorm:"column:sent_at" json:"sent_at,omitempty"`
	ExpiresAt   time.Time  `gorm:"column:expires_at;index:idx_advances_expires" json:"expires_at"`
	ApprovedAt  *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
	DisbursedAt *time.Time `gorm:"column:disbursed_at" json:"disbursed_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	AdminReviewedBy    string     `gorm:"column:admin_reviewed_by;size:32" json:"admin_reviewed_by,omitempty"`
	AdminReviewedAt    *time.Time `gorm:"column:admin_reviewed_at" json:"admin_reviewed_at,omitempty"`
	AdminApprovalNotes string     `gorm:"column:admin_approval_notes;type:text" json:"admin_approval_notes,omitempty"`
	RejectionReason    string     `gorm:"column:rejection_reason;type:text" json:"rejection_reason,omitempty"`

	MonthsUtilized   int             `gorm:"column:months_utilized" json:"months_utilized"`
	RemainingBalance decimal.Decimal `gorm:"column:remaining_balance;type:decimal(18,2)" json:"remaining_balance"`
	StartDate        *time.Time      `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate          *time.Time      `gorm:"column:end_date" json:"end_date,omitempty"`

	IdentityVerified       bool   `gorm:"column:identity_verified" json:"identity_verified"`
	IdentityVerificationID string `gorm:"column:identity_verification_id;size:128" json:"identity_verification_id,omitempty"`
	DocumentSigned         bool   `gorm:"column:document_signed" json:"document_signed"`
	DocumentSignatureID    string `gorm:"column:document_signature_id;size:128" json:"document_signature_id,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Advance) TableName() string { return "advances" }

// GroupKey identifies the set of rows that must move together.
// Ungrouped (legacy single-property) advances are their own group.
func (a *Advance) GroupKey() string {
	if a.GroupID != nil && *a.GroupID != "" {
		return *a.GroupID
	}
	return a.AdvanceID
}

// ActiveClaim is the active_property_id value for the current status.
func (a *Advance) ActiveClaim() *string {
	if !IsActive(a.Status) {
		return nil
	}
	p := a.PropertyID
	return &p
}

// IsOverdue reports whether a pending offer has passed its response deadline.
func (a *Advance) IsOverdue(now time.Time) bool {
	return a.Status == StatusPending && now.After(a.ExpiresAt)
}

// FinalTerms resolves the binding amount and term at admin approval:
// a countered member uses its own counter values, anything else keeps its offer.
func (a *Advance) FinalTerms() (decimal.Decimal, int) {
	amount, term := a.Amount, a.TermMonths
	if a.Status == StatusCountered {
		if a.CounterAmount != nil {
			amount = *a.CounterAmount
		}
		if a.CounterTermMonths != nil {
			term = *a.CounterTermMonths
		}
	}
	return amount, term
}

// Commission returns amount × rate rounded to cents.
func Commission(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}
