package models

import (
	"time"

	"gorm.io/gorm"
)

type BudgetStatus string

const (
	BudgetPending     BudgetStatus = "PENDING"
	BudgetNegotiating BudgetStatus = "NEGOTIATING"
	BudgetAccepted    BudgetStatus = "ACCEPTED"
	BudgetRejected    BudgetStatus = "REJECTED"
	BudgetCancelled   BudgetStatus = "CANCELLED"
	BudgetExpired     BudgetStatus = "EXPIRED"
)

// Budget is a provider's priced proposal against a post.
// Only one budget per post may ever reach ACCEPTED; the contract table's
// unique post_id index is the authority for that invariant.
type Budget struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	PostID       uint         `json:"post_id" gorm:"index"`
	ProviderID   uint         `json:"provider_id" gorm:"index"`
	ClientID     uint         `json:"client_id" gorm:"index"`
	Value        float64      `json:"value"`
	TermDays     int          `json:"term_days"`
	PaymentTerms string       `json:"payment_terms"`
	Discount     float64      `json:"discount,omitempty"`
	Status       BudgetStatus `json:"status" gorm:"size:12;index;default:PENDING"`
	ExpiresAt    time.Time    `json:"expires_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	Negotiations []Negotiation `json:"negotiations,omitempty" gorm:"foreignKey:BudgetID"`
}

var budgetTransitions = map[BudgetStatus][]BudgetStatus{
	BudgetPending:     {BudgetNegotiating, BudgetAccepted, BudgetRejected, BudgetCancelled, BudgetExpired},
	BudgetNegotiating: {BudgetNegotiating, BudgetAccepted, BudgetRejected, BudgetCancelled, BudgetExpired},
}

// CanTransitionTo reports whether the budget status may move to target.
// ACCEPTED, REJECTED, CANCELLED and EXPIRED are terminal.
func (b *Budget) CanTransitionTo(target BudgetStatus) bool {
	for _, s := range budgetTransitions[b.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// IsLive reports whether the budget can still be negotiated or decided on.
func (b *Budget) IsLive() bool {
	return b.Status == BudgetPending || b.Status == BudgetNegotiating
}

// IsStale reports whether a live budget has outlived its expiry deadline.
func (b *Budget) IsStale(now time.Time) bool {
	return b.IsLive() && !b.ExpiresAt.IsZero() && now.After(b.ExpiresAt)
}

// CurrentTerms resolves the value and term in force: the last counter-offer
// when one exists, otherwise the original proposal.
func (b *Budget) CurrentTerms() (value float64, termDays int) {
	if n := len(b.Negotiations); n > 0 {
		last := b.Negotiations[n-1]
		return last.Value, last.TermDays
	}
	return b.Value, b.TermDays
}

// Negotiation is an append-only counter-offer against a budget. It never
// mutates the budget's own terms; acceptance reads the latest entry.
type Negotiation struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	BudgetID uint      `json:"budget_id" gorm:"index"`
	AuthorID uint      `json:"author_id"`
	Value    float64   `json:"value"`
	TermDays int       `json:"term_days"`
	Message  string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitBudgetRequest defines the request body for submitting a budget
type SubmitBudgetRequest struct {
	PostID       uint    `json:"post_id" validate:"required"`
	Value        float64 `json:"value" validate:"required,gt=0"`
	TermDays     int     `json:"term_days" validate:"required,gt=0"`
	PaymentTerms string  `json:"payment_terms" validate:"required,max=500"`
	Discount     float64 `json:"discount,omitempty" validate:"omitempty,gte=0"`
}

// CounterBudgetRequest defines the request body for a counter-offer
type CounterBudgetRequest struct {
	Value    float64 `json:"value" validate:"required,gt=0"`
	TermDays int     `json:"term_days" validate:"required,gt=0"`
	Message  string  `json:"message,omitempty" validate:"omitempty,max=1000"`
}
