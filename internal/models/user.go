package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model  `json:"-"`
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name"`
	Email       string `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Password    string `json:"-"`                        // Store hashed password, ignore for JSON serialization
	Role        string `json:"role" gorm:"size:10;default:user"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty" gorm:"size:2"`
	Bio         string `json:"bio,omitempty"`
	DeviceToken string `json:"-"` // FCM registration token for push delivery
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	City     string `json:"city,omitempty" validate:"omitempty,max=100"`
	State    string `json:"state,omitempty" validate:"omitempty,len=2"`
}

type UpdateUserRequest struct {
	Name  string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	City  string `json:"city,omitempty" validate:"omitempty,max=100"`
	State string `json:"state,omitempty" validate:"omitempty,len=2"`
	Bio   string `json:"bio,omitempty" validate:"omitempty,max=500"`
}

type RegisterDeviceRequest struct {
	DeviceToken string `json:"device_token" validate:"required"`
}

// UserCompact is the trimmed user shape embedded in other responses
type UserCompact struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Name: u.Name, City: u.City, State: u.State}
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
