package models

import (
	"time"

	"gorm.io/gorm"
)

type (
	PostType   string
	PostStatus string
)

const (
	PostTypeRequest          PostType = "REQUEST"
	PostTypeOffer            PostType = "OFFER"
	PostTypeShowcaseClient   PostType = "SHOWCASE_CLIENT"
	PostTypeShowcaseProvider PostType = "SHOWCASE_PROVIDER"

	PostActive    PostStatus = "ACTIVE"
	PostArchived  PostStatus = "ARCHIVED"
	PostCancelled PostStatus = "CANCELLED"
	PostFinished  PostStatus = "FINISHED"
	PostInactive  PostStatus = "INACTIVE"
)

// Post represents a service request or offer listing (PostgreSQL).
// Posts are never hard-deleted; their status moves along postTransitions.
type Post struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	AuthorID      uint       `json:"author_id" gorm:"index"`
	Type          PostType   `json:"type" gorm:"size:20;index"`
	Status        PostStatus `json:"status" gorm:"size:12;index;default:ACTIVE"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      string     `json:"category" gorm:"size:60;index"`
	City          string     `json:"city" gorm:"index"`
	State         string     `json:"state" gorm:"size:2"`
	PriceEstimate float64    `json:"price_estimate,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

var postTransitions = map[PostStatus][]PostStatus{
	PostActive:   {PostArchived, PostCancelled, PostInactive, PostFinished},
	PostInactive: {PostActive},
	PostArchived: {PostActive},
}

// CanTransitionTo reports whether the post status may move to target.
func (p *Post) CanTransitionTo(target PostStatus) bool {
	for _, s := range postTransitions[p.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Type          PostType `json:"type" validate:"required,oneof=REQUEST OFFER SHOWCASE_CLIENT SHOWCASE_PROVIDER"`
	Title         string   `json:"title" validate:"required,min=3,max=120"`
	Description   string   `json:"description" validate:"required,min=10,max=5000"`
	Category      string   `json:"category" validate:"required,max=60"`
	City          string   `json:"city" validate:"required,max=100"`
	State         string   `json:"state" validate:"required,len=2"`
	PriceEstimate float64  `json:"price_estimate,omitempty" validate:"omitempty,gt=0"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Title         string  `json:"title,omitempty" validate:"omitempty,min=3,max=120"`
	Description   string  `json:"description,omitempty" validate:"omitempty,min=10,max=5000"`
	Category      string  `json:"category,omitempty" validate:"omitempty,max=60"`
	PriceEstimate float64 `json:"price_estimate,omitempty" validate:"omitempty,gt=0"`
}

// UpdatePostStatusRequest moves a post along its status transitions
type UpdatePostStatusRequest struct {
	Status PostStatus `json:"status" validate:"required,oneof=ACTIVE ARCHIVED CANCELLED FINISHED INACTIVE"`
}

// PostFilter narrows post listings
type PostFilter struct {
	Type     PostType
	Status   PostStatus
	Category string
	City     string
	AuthorID uint
}
