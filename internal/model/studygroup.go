package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudyGroup is a study session listing. Creating one provisions a group
// conversation; members of the group are members of that conversation.
// Deleting the group is the only operation that hard-deletes a conversation.
type StudyGroup struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID         uuid.UUID      `json:"user_id" gorm:"type:uuid;index;not null"` // host
	Subject        string         `json:"subject" gorm:"size:150;not null"`
	Topic          string         `json:"topic" gorm:"size:200"`
	Description    string         `json:"description" gorm:"type:text"`
	College        string         `json:"college" gorm:"size:150;index"`
	MaxMembers     int            `json:"max_members" gorm:"default:5"`
	Schedule       string         `json:"schedule" gorm:"size:200"`
	Location       string         `json:"location" gorm:"size:200"`
	Level          string         `json:"level" gorm:"size:50"`
	SessionTime    *time.Time     `json:"session_time,omitempty"` // NULL = recurring, no expiry
	ConversationID *uuid.UUID     `json:"conversation_id,omitempty" gorm:"type:uuid"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Host    User               `json:"host,omitempty" gorm:"foreignKey:UserID"`
	Members []StudyGroupMember `json:"group_members,omitempty" gorm:"foreignKey:GroupID"`
}

// StudyGroupMember pairs a user with a study group
type StudyGroupMember struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	GroupID  uuid.UUID `json:"group_id" gorm:"type:uuid;uniqueIndex:idx_group_user;not null"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_group_user;not null"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification is an in-app notification row
type Notification struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;index;not null"`
	Title     string     `json:"title" gorm:"size:200;not null"`
	Content   string     `json:"content" gorm:"type:text"`
	Link      string     `json:"link,omitempty" gorm:"size:300"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
