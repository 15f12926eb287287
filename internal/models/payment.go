package models

import (
	"math"
	"time"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentReleased PaymentStatus = "RELEASED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Payment tracks the settlement of a contract's value. One row per contract,
// created together with it in the acceptance transaction.
type Payment struct {
	ID                uint          `json:"id" gorm:"primaryKey"`
	ContractID        uint          `json:"contract_id" gorm:"uniqueIndex"`
	Value             float64       `json:"value"`
	PlatformFee       float64       `json:"platform_fee"`
	Method            string        `json:"method,omitempty" gorm:"size:30"`
	Status            PaymentStatus `json:"status" gorm:"size:10;index;default:PENDING"`
	ProviderPaymentID string        `json:"provider_payment_id,omitempty"`
	ExternalReference string        `json:"external_reference" gorm:"index"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentRefunded},
	PaymentPaid:    {PaymentReleased, PaymentRefunded},
}

// CanTransitionTo reports whether the payment status may move to target.
// RELEASED and REFUNDED are terminal.
func (p *Payment) CanTransitionTo(target PaymentStatus) bool {
	for _, s := range paymentTransitions[p.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// PlatformFee computes the marketplace cut for a contract value, rounded to
// cents.
func PlatformFee(value, feeRate float64) float64 {
	return math.Round(value*feeRate*100) / 100
}

// CheckoutRequest carries the client's payment method choice. The raw gateway
// payload is forwarded as-is; the gateway validates it.
type CheckoutRequest struct {
	Method  string                 `json:"method" validate:"required,oneof=pix credit_card boleto"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}
