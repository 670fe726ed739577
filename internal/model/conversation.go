package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation represents a chat thread, either direct (1-1) or group.
// Direct conversations have no name; group conversations are provisioned by
// an owning feature (e.g. a study group) and carry a display name.
type Conversation struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string         `json:"name,omitempty" gorm:"size:150"` // empty for direct chats
	IsGroup   bool           `json:"is_group" gorm:"default:false"`
	CreatedBy *uuid.UUID     `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Members []ConversationMember `json:"conversation_members,omitempty" gorm:"foreignKey:ConversationID"`

	// Denormalized snapshot for list rendering, populated manually
	LastMessage *MessageSnapshot `json:"last_message,omitempty" gorm:"-"`
}

// ConversationMember pairs a user with a conversation and carries the
// per-member read cursor. Removing the row is "delete for me" of the whole
// conversation: the record itself survives for the remaining members.
type ConversationMember struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID uuid.UUID      `json:"conversation_id" gorm:"type:uuid;uniqueIndex:idx_conv_user;not null"`
	UserID         uuid.UUID      `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_conv_user;not null"`
	JoinedAt       time.Time      `json:"joined_at"`
	LastReadAt     *time.Time     `json:"last_read_at,omitempty"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User         User         `json:"user" gorm:"foreignKey:UserID"`
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID"`
}

// MessageSnapshot is the denormalized last-message view on a conversation list entry
type MessageSnapshot struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
