package advance

import (
	"time"

	domain "rentadvance-backend/internal/domain/advance"
	"rentadvance-backend/internal/domain/review"

	"github.com/shopspring/decimal"
)

// AdminIdentity is the authenticated admin acting on a request.
type AdminIdentity struct {
	AdminID string
	Email   string
}

type PropertyRequest struct {
	PropertyID  string          `json:"property_id"`
	Amount      decimal.Decimal `json:"amount"`
	TermMonths  int             `json:"term_months"`
	MonthlyRent decimal.Decimal `json:"monthly_rent"`
}

type CreateRequestInput struct {
	PropertyManagerID string
	OwnerID           string
	CommissionRate    decimal.Decimal
	Properties        []PropertyRequest
}

type ItemError struct {
	PropertyID string `json:"property_id"`
	Error      string `json:"error"`
}

type RequestResult struct {
	GroupID    string      `json:"group_id"`
	Token      string      `json:"token"`
	AdvanceIDs []string    `json:"advance_ids"`
	ExpiresAt  time.Time   `json:"expires_at"`
	Errors     []ItemError `json:"errors"`
}

type RespondInput struct {
	Token             string
	ResponseType      domain.ResponseType
	CounterAmount     *decimal.Decimal
	CounterTermMonths *int
	DeclineReason     string
}

type RespondResult struct {
	UpdatedCount int           `json:"updated_count"`
	AdvanceIDs   []string      `json:"advance_ids"`
	GroupID      string        `json:"group_id"`
	Status       domain.Status `json:"status"`
}

type VerificationInput struct {
	IdentityVerificationID string
	DocumentSignatureID    string
}

type VerificationResult struct {
	UpdatedCount     int  `json:"updated_count"`
	IdentityVerified bool `json:"identity_verified"`
	DocumentSigned   bool `json:"document_signed"`
}

type BulkAdvanceInput struct {
	PropertyID     string           `json:"property_id"`
	OwnerID        string           `json:"owner_id"`
	Amount         decimal.Decimal  `json:"amount"`
	TermMonths     int              `json:"term_months"`
	MonthlyRent    decimal.Decimal  `json:"monthly_rent"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty"`
}

type BulkInput struct {
	PropertyManagerID string
	Advances          []BulkAdvanceInput
}

// BulkResult is the response shape of a bulk create; Batch keeps the typed
// per-item outcome for callers that need the original inputs.
type BulkResult struct {
	Success         bool         `json:"success"`
	CreatedCount    int          `json:"created_count"`
	CreatedAdvances []AdvanceDTO `json:"created_advances"`
	Errors          []ItemError  `json:"errors"`
	TotalRequested  int          `json:"total_requested"`

	Batch BatchResult[BulkAdvanceInput, AdvanceDTO] `json:"-"`
}

type SendResult struct {
	AdvanceIDs []string  `json:"advance_ids"`
	SentAt     time.Time `json:"sent_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type AdvanceDTO struct {
	AdvanceID         string               `json:"advance_id"`
	GroupID           *string              `json:"group_id,omitempty"`
	PropertyID        string               `json:"property_id"`
	OwnerID           string               `json:"owner_id"`
	PropertyManagerID string               `json:"property_manager_id"`
	Status            domain.Status        `json:"status"`
	Amount            decimal.Decimal      `json:"amount"`
	RequestedAmount   decimal.Decimal      `json:"requested_amount"`
	TermMonths        int                  `json:"term_months"`
	MonthlyRentAmount decimal.Decimal      `json:"monthly_rent_amount"`
	CommissionRate    decimal.Decimal      `json:"commission_rate"`
	CommissionAmount  decimal.Decimal      `json:"commission_amount"`
	OwnerResponseType *domain.ResponseType `json:"owner_response_type,omitempty"`
	CounterAmount     *decimal.Decimal     `json:"counter_amount,omitempty"`
	CounterTermMonths *int                 `json:"counter_term_months,omitempty"`
	DeclineReason     string               `json:"decline_reason,omitempty"`
	RejectionReason   string               `json:"rejection_reason,omitempty"`
	MonthsUtilized    int                  `json:"months_utilized"`
	RemainingBalance  decimal.Decimal      `json:"remaining_balance"`
	IdentityVerified  bool                 `json:"identity_verified"`
	DocumentSigned    bool                 `json:"document_signed"`
	RequestedAt       time.Time            `json:"requested_at"`
	SentAt            *time.Time           `json:"sent_at,omitempty"`
	ExpiresAt         time.Time            `json:"expires_at"`
	OwnerRespondedAt  *time.Time           `json:"owner_responded_at,omitempty"`
	ApprovedAt        *time.Time           `json:"approved_at,omitempty"`
	DisbursedAt       *time.Time           `json:"disbursed_at,omitempty"`
	CompletedAt       *time.Time           `json:"completed_at,omitempty"`
	StartDate         *time.Time           `json:"start_date,omitempty"`
	EndDate           *time.Time           `json:"end_date,omitempty"`
	// Reviews is filled by GetAdvance only, newest first.
	Reviews []ReviewDTO `json:"reviews,omitempty"`
}

// ReviewDTO is one admin decision on the advance's group.
type ReviewDTO struct {
	ReviewID        string          `json:"review_id"`
	AdminID         string          `json:"admin_id"`
	Decision        review.Decision `json:"decision"`
	Notes           string          `json:"notes,omitempty"`
	MemberCount     int             `json:"member_count"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	ReviewedAt      time.Time       `json:"reviewed_at"`
}

func toReviewDTOs(rows []*review.AdminReview) []ReviewDTO {
	out := make([]ReviewDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, ReviewDTO{
			ReviewID:        r.ReviewID,
			AdminID:         r.AdminID,
			Decision:        r.Decision,
			Notes:           r.Notes,
			MemberCount:     r.MemberCount,
			TotalAmount:     r.TotalAmount,
			TotalCommission: r.TotalCommission,
			ReviewedAt:      r.ReviewedAt,
		})
	}
	return out
}

func toDTO(a *domain.Advance) AdvanceDTO {
	return AdvanceDTO{
		AdvanceID:         a.AdvanceID,
		GroupID:           a.GroupID,
		PropertyID:        a.PropertyID,
		OwnerID:           a.OwnerID,
		PropertyManagerID: a.PropertyManagerID,
		Status:            a.Status,
		Amount:            a.Amount,
		RequestedAmount:   a.RequestedAmount,
		TermMonths:        a.TermMonths,
		MonthlyRentAmount: a.MonthlyRentAmount,
		CommissionRate:    a.CommissionRate,
		CommissionAmount:  a.CommissionAmount,
		OwnerResponseType: a.OwnerResponseType,
		CounterAmount:     a.CounterAmount,
		CounterTermMonths: a.CounterTermMonths,
		DeclineReason:     a.DeclineReason,
		RejectionReason:   a.RejectionReason,
		MonthsUtilized:    a.MonthsUtilized,
		RemainingBalance:  a.RemainingBalance,
		IdentityVerified:  a.IdentityVerified,
		DocumentSigned:    a.DocumentSigned,
		RequestedAt:       a.RequestedAt,
		SentAt:            a.SentAt,
		ExpiresAt:         a.ExpiresAt,
		OwnerRespondedAt:  a.OwnerRespondedAt,
		ApprovedAt:        a.ApprovedAt,
		DisbursedAt:       a.DisbursedAt,
		CompletedAt:       a.CompletedAt,
		StartDate:         a.StartDate,
		EndDate:           a.EndDate,
	}
}

func toDTOs(rows []*domain.Advance) []AdvanceDTO {
	out := make([]AdvanceDTO, 0, len(rows))
	for _, a := range rows {
		out = append(out, toDTO(a))
	}
	return out
}

// TokenView is what the owner sees when opening a response link.
type TokenView struct {
	GroupID           string          `json:"group_id"`
	Status            domain.Status   `json:"status"`
	Expired           bool            `json:"expired"`
	ExpiresAt         time.Time       `json:"expires_at"`
	PropertyManagerID string          `json:"property_manager_id"`
	OwnerID           string          `json:"owner_id"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TotalCommission   decimal.Decimal `json:"total_commission"`
	Advances          []AdvanceDTO    `json:"advances"`
}

type Utilization struct {
	AdvanceID        string          `json:"advance_id"`
	MonthsUtilized   int             `json:"months_utilized"`
	TermMonths       int             `json:"term_months"`
	PercentUtilized  decimal.Decimal `json:"percent_utilized"`
	AmountUtilized   decimal.Decimal `json:"amount_utilized"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

type PropertyHistory struct {
	PropertyID         string       `json:"property_id"`
	Active             []AdvanceDTO `json:"active"`
	Pending            []AdvanceDTO `json:"pending"`
	Historical         []AdvanceDTO `json:"historical"`
	CurrentUtilization *Utilization `json:"current_utilization"`
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityNormal:
		return 1
	}
	return 2
}

// AdminGroup is one row on the admin review queue.
type AdminGroup struct {
	GroupKey          string          `json:"group_key"`
	GroupID           *string         `json:"group_id,omitempty"`
	Priority          Priority        `json:"priority"`
	PropertyManagerID string          `json:"property_manager_id"`
	OwnerID           string          `json:"owner_id"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	LatestActivity    time.Time       `json:"latest_activity"`
	Advances          []AdvanceDTO    `json:"advances"`
}
