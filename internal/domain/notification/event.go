// Package notification describes the outbound events the advance lifecycle
// emits after a transaction commits. Delivery is best-effort.
package notification

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeRequested      Type = "advance.requested"
	TypeOwnerResponded Type = "advance.owner_responded"
	TypeDisbursed      Type = "advance.disbursed"
	TypeDenied         Type = "advance.denied"
)

type Role string

const (
	RoleOwner           Role = "owner"
	RolePropertyManager Role = "property_manager"
	// RoleAdmin with an empty ID addresses every admin.
	RoleAdmin Role = "admin"
)

type Recipient struct {
	Role Role   `json:"role"`
	ID   string `json:"id,omitempty"`
}

// Event is one decision or offer, addressed to one or more recipients.
// ResponseURL embeds the owner token and is only set for the owner.
type Event struct {
	Type              Type            `json:"type"`
	GroupKey          string          `json:"group_key"`
	AdvanceIDs        []string        `json:"advance_ids"`
	PropertyManagerID string          `json:"property_manager_id"`
	OwnerID           string          `json:"owner_id"`
	Recipients        []Recipient     `json:"recipients"`
	ResponseType      string          `json:"response_type,omitempty"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TotalCommission   decimal.Decimal `json:"total_commission"`
	ResponseURL       string          `json:"response_url,omitempty"`
	PortalURL         string          `json:"portal_url,omitempty"`
	Reason            string          `json:"reason,omitempty"`
	OccurredAt        time.Time       `json:"occurred_at"`
}

// Public strips the owner link so the event can be shown on shared dashboards.
func (e Event) Public() Event {
	e.ResponseURL = ""
	return e
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}
