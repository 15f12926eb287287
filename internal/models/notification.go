package models

import "time"

// Notification types produced by lifecycle transitions
const (
	NotifBudgetReceived    = "budget_received"
	NotifBudgetCountered   = "budget_countered"
	NotifBudgetAccepted    = "budget_accepted"
	NotifBudgetRejected    = "budget_rejected"
	NotifBudgetCancelled   = "budget_cancelled"
	NotifContractCreated   = "contract_created"
	NotifContractFinalized = "contract_finalized"
	NotifContractCancelled = "contract_cancelled"
	NotifDisputeOpened     = "dispute_opened"
	NotifDisputeResolved   = "dispute_resolved"
	NotifPaymentPaid       = "payment_paid"
	NotifNewMessage        = "new_message"
	NotifAdmin             = "admin_notification"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:30;index"`
	ActorID     uint      `json:"actor_id" gorm:"index"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	TargetID    string    `json:"target_id"`                  // budget ID, contract ID, message ID, etc.
	TargetType  string    `json:"target_type" gorm:"size:20"` // post, budget, contract, message, dispute
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
