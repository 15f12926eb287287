package models

import (
	"time"

	"gorm.io/gorm"
)

type ContractStatus string

const (
	ContractActive    ContractStatus = "ACTIVE"
	ContractCompleted ContractStatus = "COMPLETED"
	ContractCancelled ContractStatus = "CANCELLED"
	ContractDisputed  ContractStatus = "DISPUTED"
)

// Contract is the binding agreement created exactly once per accepted budget.
// The unique indexes on budget_id and post_id are what make "exactly once"
// hold under concurrent acceptance requests.
type Contract struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	BudgetID      uint           `json:"budget_id" gorm:"uniqueIndex"`
	PostID        uint           `json:"post_id" gorm:"uniqueIndex"`
	ClientID      uint           `json:"client_id" gorm:"index"`
	ProviderID    uint           `json:"provider_id" gorm:"index"`
	Value         float64        `json:"value"`
	Deadline      time.Time      `json:"deadline"`
	Status        ContractStatus `json:"status" gorm:"size:10;index;default:ACTIVE"`
	ClientDone    bool           `json:"client_done" gorm:"default:false"`
	ProviderDone  bool           `json:"provider_done" gorm:"default:false"`
	KeepPublished bool           `json:"keep_published" gorm:"default:false"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

var contractTransitions = map[ContractStatus][]ContractStatus{
	ContractActive:   {ContractCompleted, ContractCancelled, ContractDisputed},
	ContractDisputed: {ContractCompleted, ContractCancelled}, // admin resolution only
}

// CanTransitionTo reports whether the contract status may move to target.
// COMPLETED and CANCELLED are terminal.
func (c *Contract) CanTransitionTo(target ContractStatus) bool {
	for _, s := range contractTransitions[c.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// IsParticipant reports whether userID is a party to the contract.
func (c *Contract) IsParticipant(userID uint) bool {
	return userID == c.ClientID || userID == c.ProviderID
}

// Counterpart returns the other party of the contract.
func (c *Contract) Counterpart(userID uint) uint {
	if userID == c.ClientID {
		return c.ProviderID
	}
	return c.ClientID
}

// AllowsMessages reports whether chat may still happen on this contract.
func (c *Contract) AllowsMessages() bool {
	return c.Status == ContractActive || c.Status == ContractDisputed
}

// Review holds one party's rating of the other, recorded at finalization.
// The (contract_id, reviewer_id) pair is unique: finalize is idempotent-hostile
// by design, a second call from the same party is a conflict.
type Review struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ContractID uint      `json:"contract_id" gorm:"uniqueIndex:idx_reviews_contract_reviewer"`
	ReviewerID uint      `json:"reviewer_id" gorm:"uniqueIndex:idx_reviews_contract_reviewer"`
	RevieweeID uint      `json:"reviewee_id" gorm:"index"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// FinalizeContractRequest carries the finalizing party's review
type FinalizeContractRequest struct {
	Rating        int    `json:"rating" validate:"required,min=1,max=5"`
	Comment       string `json:"comment" validate:"required,max=1000"`
	KeepPublished bool   `json:"keep_published,omitempty"`
}

// OpenDisputeRequest carries the dispute reason
type OpenDisputeRequest struct {
	Reason string `json:"reason" validate:"required,min=10,max=2000"`
}
