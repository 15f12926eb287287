package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageType string

const (
	MessageText  MessageType = "TEXT"
	MessageImage MessageType = "IMAGE"
	MessageFile  MessageType = "FILE"
)

// Message is one chat entry in a contract thread, stored in MongoDB.
// Blocked messages stay persisted but are visible only to their sender and
// moderators; they are never pushed to the counterpart.
type Message struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ContractID  uint               `json:"contract_id" bson:"contract_id"`
	SenderID    uint               `json:"sender_id" bson:"sender_id"`
	Content     string             `json:"content" bson:"content"`
	Type        MessageType        `json:"type" bson:"type"`
	Blocked     bool               `json:"blocked" bson:"blocked"`
	BlockReason string             `json:"block_reason,omitempty" bson:"block_reason,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// SendMessageRequest defines the request body for sending a chat message
type SendMessageRequest struct {
	Content string      `json:"content" validate:"required,min=1,max=5000"`
	Type    MessageType `json:"type,omitempty" validate:"omitempty,oneof=TEXT IMAGE FILE"`
}
