package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SkillSwap is an offer to trade one skill for another
type SkillSwap struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID      `json:"user_id" gorm:"type:uuid;index;not null"`
	Offering     string         `json:"offering" gorm:"size:200;not null"`
	Seeking      string         `json:"seeking" gorm:"size:200;not null"`
	Description  string         `json:"description" gorm:"type:text"`
	Availability string         `json:"availability" gorm:"size:200"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Owner User `json:"owner,omitempty" gorm:"foreignKey:UserID"`
}

// SwapRequestStatus is the lifecycle state of a proposal
type SwapRequestStatus string

const (
	SwapRequestPending  SwapRequestStatus = "pending"
	SwapRequestAccepted SwapRequestStatus = "accepted"
	SwapRequestDeclined SwapRequestStatus = "declined"
)

// SkillSwapRequest is a proposal from one user to the owner of a swap listing
type SkillSwapRequest struct {
	ID         uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SwapID     uuid.UUID         `json:"swap_id" gorm:"type:uuid;index;not null"`
	SenderID   uuid.UUID         `json:"sender_id" gorm:"type:uuid;index;not null"`
	ReceiverID uuid.UUID         `json:"receiver_id" gorm:"type:uuid;index;not null"`
	Status     SwapRequestStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`

	// Relations
	Swap     SkillSwap `json:"swap,omitempty" gorm:"foreignKey:SwapID"`
	Sender   User      `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	Receiver User      `json:"receiver,omitempty" gorm:"foreignKey:ReceiverID"`
}
