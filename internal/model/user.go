package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthProvider defines how the user authenticates
type AuthProvider string

const (
	AuthProviderEmail  AuthProvider = "email"
	AuthProviderGoogle AuthProvider = "google"
)

// User represents a registered student with marketplace reputation
type User struct {
	ID              uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name            string       `json:"name" gorm:"size:100;not null"`
	Email           string       `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password        string       `json:"-" gorm:"size:255"` // NULL for Google OAuth users
	AvatarURL       string       `json:"avatar_url" gorm:"size:500;default:''"`
	Campus          string       `json:"campus" gorm:"size:150;index"`
	Bio             string       `json:"bio" gorm:"type:text"`
	Location        string       `json:"location" gorm:"size:150"`
	AuthProvider    AuthProvider `json:"auth_provider" gorm:"type:varchar(20);default:'email'"`
	GoogleID        *string      `json:"-" gorm:"uniqueIndex;size:255"`
	EmailVerifiedAt *time.Time   `json:"email_verified_at" gorm:"type:timestamptz"` // NULL = not verified

	// Gamification counters
	XP             int     `json:"xp" gorm:"default:0;index"`
	Coins          int     `json:"coins" gorm:"default:0"`
	TrustScore     int     `json:"trust_score" gorm:"default:0"`
	CompletedDeals int     `json:"completed_deals" gorm:"default:0"`
	ResponseRate   float64 `json:"response_rate" gorm:"default:0"` // percentage
	Reports        int     `json:"reports" gorm:"default:0"`

	IsNotificationEnabled bool `json:"is_notification_enabled" gorm:"default:true"`

	LastSeenAt *time.Time     `json:"last_seen_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsEmailVerified checks if the user's email has been verified
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// UserResponse is the safe version of User for API responses
type UserResponse struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	AvatarURL      string       `json:"avatar_url"`
	Campus         string       `json:"campus"`
	Bio            string       `json:"bio"`
	Location       string       `json:"location"`
	AuthProvider   AuthProvider `json:"auth_provider"`
	EmailVerified  bool         `json:"email_verified"`
	XP             int          `json:"xp"`
	Coins          int          `json:"coins"`
	TrustScore     int          `json:"trust_score"`
	CompletedDeals int          `json:"completed_deals"`
	LastSeenAt     *time.Time   `json:"last_seen_at"`
}

// ToResponse converts User to safe UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		AvatarURL:      u.AvatarURL,
		Campus:         u.Campus,
		Bio:            u.Bio,
		Location:       u.Location,
		AuthProvider:   u.AuthProvider,
		EmailVerified:  u.IsEmailVerified(),
		XP:             u.XP,
		Coins:          u.Coins,
		TrustScore:     u.TrustScore,
		CompletedDeals: u.CompletedDeals,
		LastSeenAt:     u.LastSeenAt,
	}
}

// UserDevice represents a user's device registered for push notifications
type UserDevice struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID `json:"user_id" gorm:"not null;uniqueIndex:idx_user_token"`
	FCMToken     string    `json:"fcm_token" gorm:"not null;uniqueIndex:idx_user_token"`
	DeviceType   string    `json:"device_type" gorm:"size:20;default:'unknown'"` // android, ios, web
	LastActiveAt time.Time `json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
}
