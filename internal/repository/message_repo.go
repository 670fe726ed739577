package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
	"gorm.io/gorm"
)

// notDeletedFor filters out rows the given viewer has soft-deleted
const notDeletedFor = "(deleted_by IS NULL OR NOT (deleted_by @> ARRAY[?]::uuid[]))"

// MessageRepository handles database operations for Message
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message
func (r *MessageRepository) Create(msg *model.Message) error {
	return r.db.Create(msg).Error
}

// FindByID finds a message by ID
func (r *MessageRepository) FindByID(id uuid.UUID) (*model.Message, error) {
	var msg model.Message
	err := r.db.
		Preload("Sender").
		Where("id = ?", id).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetConversationMessages returns the conversation history in creation order,
// excluding messages the viewer has soft-deleted.
func (r *MessageRepository) GetConversationMessages(conversationID, viewerID uuid.UUID) ([]model.Message, error) {
	messages := []model.Message{}
	err := r.db.
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Where(notDeletedFor, viewerID.String()).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// GetLastVisibleMessage returns the most recent message in a conversation
// still visible to the viewer, or nil when every message is deleted for them.
func (r *MessageRepository) GetLastVisibleMessage(conversationID, viewerID uuid.UUID) (*model.Message, error) {
	var msg model.Message
	err := r.db.
		Where("conversation_id = ?", conversationID).
		Where(notDeletedFor, viewerID.String()).
		Order("created_at DESC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// CountUnread counts messages authored by someone else, created after the
// viewer's read cursor and not soft-deleted by the viewer.
func (r *MessageRepository) CountUnread(conversationID, viewerID uuid.UUID) (int64, error) {
	var count int64

	cursor := r.db.Table("conversation_members").
		Select("COALESCE(last_read_at, '0001-01-01')").
		Where("conversation_id = ? AND user_id = ?", conversationID, viewerID)

	err := r.db.Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id != ?", conversationID, viewerID).
		Where("created_at > (?)", cursor).
		Where(notDeletedFor, viewerID.String()).
		Count(&count).Error
	return count, err
}

// MarkDeletedFor appends the user's id to the message's deleted_by set.
// Appending twice or deleting a message that no longer exists is a no-op:
// the record itself is never mutated otherwise and never hard-deleted here.
func (r *MessageRepository) MarkDeletedFor(messageID, userID uuid.UUID) error {
	var msg model.Message
	err := r.db.Select("id", "deleted_by").Where("id = ?", messageID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil // already gone
	}
	if err != nil {
		return err
	}

	if msg.DeletedFor(userID) {
		return nil
	}

	return r.db.Model(&model.Message{}).
		Where("id = ?", messageID).
		Update("deleted_by", gorm.Expr("array_append(COALESCE(deleted_by, '{}'), ?::uuid)", userID.String())).Error
}
