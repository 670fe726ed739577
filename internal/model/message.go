package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// FileKind classifies an optional message attachment
type FileKind string

const (
	FileKindText  FileKind = "text"
	FileKindImage FileKind = "image"
	FileKindFile  FileKind = "file"
)

// Message is a chat message. Rows are never mutated after creation except to
// append to DeletedBy: a per-user soft-delete set in the WhatsApp "delete for
// me" style. A message stays visible to every member whose id is absent from
// the set and is never physically purged from the table.
type Message struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID uuid.UUID      `json:"conversation_id" gorm:"type:uuid;index;not null"`
	SenderID       uuid.UUID      `json:"sender_id" gorm:"type:uuid;index;not null"`
	Content        string         `json:"content" gorm:"type:text"`
	FileURL        string         `json:"file_url,omitempty" gorm:"size:500"`
	FileType       FileKind       `json:"file_type,omitempty" gorm:"type:varchar(20);default:'text'"`
	DeletedBy      pq.StringArray `json:"deleted_by,omitempty" gorm:"type:uuid[]"`
	CreatedAt      time.Time      `json:"created_at"`

	// Relations
	Sender       User         `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID"`
}

// DeletedFor reports whether the given user has soft-deleted this message
func (m *Message) DeletedFor(userID uuid.UUID) bool {
	id := userID.String()
	for _, d := range m.DeletedBy {
		if d == id {
			return true
		}
	}
	return false
}
