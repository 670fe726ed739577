package repository

import (
	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConversationRepository handles database operations for Conversation
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create creates a new conversation with members
func (r *ConversationRepository) Create(conv *model.Conversation) error {
	return r.db.Create(conv).Error
}

// FindByID finds a conversation by ID with members
func (r *ConversationRepository) FindByID(id uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.
		Preload("Members.User").
		Where("id = ?", id).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindDirectConversation finds an existing non-group conversation shared by
// two users. When several exist it returns the most recently created one,
// which keeps find-or-create idempotent for the pair.
func (r *ConversationRepository) FindDirectConversation(userID1, userID2 uuid.UUID) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.
		Table("conversations").
		Joins("JOIN conversation_members cm1 ON cm1.conversation_id = conversations.id AND cm1.deleted_at IS NULL").
		Joins("JOIN conversation_members cm2 ON cm2.conversation_id = conversations.id AND cm2.deleted_at IS NULL").
		Where("conversations.is_group = ?", false).
		Where("cm1.user_id = ?", userID1).
		Where("cm2.user_id = ?", userID2).
		Order("conversations.created_at DESC").
		Preload("Members.User").
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetUserConversations returns all conversations for a user, ordered by latest activity
func (r *ConversationRepository) GetUserConversations(userID uuid.UUID) ([]model.Conversation, error) {
	var conversations []model.Conversation
	err := r.db.
		Joins("JOIN conversation_members ON conversation_members.conversation_id = conversations.id").
		Where("conversation_members.user_id = ? AND conversation_members.deleted_at IS NULL", userID).
		Preload("Members.User").
		Order("conversations.updated_at DESC").
		Find(&conversations).Error
	return conversations, err
}

// AddMember adds a user to a conversation. Rejoining restores a previously
// soft-deleted membership instead of violating the unique index.
func (r *ConversationRepository) AddMember(conversationID, userID uuid.UUID) error {
	member := &model.ConversationMember{
		ConversationID: conversationID,
		UserID:         userID,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"deleted_at": nil}),
	}).Create(member).Error
}

// RemoveMember soft-deletes a member row. This is "delete the conversation for
// me": the conversation record stays intact for the remaining members.
func (r *ConversationRepository) RemoveMember(conversationID, userID uuid.UUID) error {
	return r.db.
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Delete(&model.ConversationMember{}).Error
}

// IsMember checks if a user is a member of a conversation
func (r *ConversationRepository) IsMember(conversationID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

// GetMemberIDs returns all member user IDs for a conversation
func (r *ConversationRepository) GetMemberIDs(conversationID uuid.UUID) ([]uuid.UUID, error) {
	var memberIDs []uuid.UUID
	err := r.db.Model(&model.ConversationMember{}).
		Where("conversation_id = ?", conversationID).
		Pluck("user_id", &memberIDs).Error
	return memberIDs, err
}

// TouchUpdatedAt bumps the updated_at timestamp (to sort by latest activity)
func (r *ConversationRepository) TouchUpdatedAt(conversationID uuid.UUID) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", gorm.Expr("NOW()")).Error
}

// UpdateLastRead advances the member's read cursor to now
func (r *ConversationRepository) UpdateLastRead(conversationID, userID uuid.UUID) error {
	return r.db.Model(&model.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("last_read_at", gorm.Expr("NOW()")).Error
}

// Delete hard-deletes a conversation together with its member rows and
// messages. Only used when a study group owning the conversation is deleted.
func (r *ConversationRepository) Delete(conversationID uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("conversation_id = ?", conversationID).
			Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().
			Where("conversation_id = ?", conversationID).
			Delete(&model.ConversationMember{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().
			Where("id = ?", conversationID).
			Delete(&model.Conversation{}).Error
	})
}
