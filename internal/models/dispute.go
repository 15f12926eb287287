package models

import "time"

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "OPEN"
	DisputeResolved DisputeStatus = "RESOLVED"
)

// Dispute freezes a contract in DISPUTED until a moderator resolves it.
type Dispute struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	ContractID  uint          `json:"contract_id" gorm:"index"`
	InitiatorID uint          `json:"initiator_id"`
	Reason      string        `json:"reason"`
	Status      DisputeStatus `json:"status" gorm:"size:10;index;default:OPEN"`
	Resolution  string        `json:"resolution,omitempty"`
	ResolvedBy  uint          `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

const (
	DisputeOutcomeComplete = "complete"
	DisputeOutcomeCancel   = "cancel"
)

// ResolveDisputeRequest is the moderator's verdict
type ResolveDisputeRequest struct {
	Outcome    string `json:"outcome" validate:"required,oneof=complete cancel"`
	Resolution string `json:"resolution" validate:"required,max=2000"`
}
