package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
	"gorm.io/gorm"
)

// StudyGroupRepository handles database operations for study groups
type StudyGroupRepository struct {
	db *gorm.DB
}

func NewStudyGroupRepository(db *gorm.DB) *StudyGroupRepository {
	return &StudyGroupRepository{db: db}
}

func (r *StudyGroupRepository) Create(group *model.StudyGroup) error {
	return r.db.Create(group).Error
}

func (r *StudyGroupRepository) FindByID(id uuid.UUID) (*model.StudyGroup, error) {
	var group model.StudyGroup
	err := r.db.Preload("Host").Where("id = ?", id).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// List returns study groups newest first, hiding ones whose scheduled session
// has already passed (session_time NULL means recurring, never expires).
func (r *StudyGroupRepository) List() ([]model.StudyGroup, error) {
	var groups []model.StudyGroup
	err := r.db.Preload("Host").
		Where("session_time IS NULL OR session_time > ?", time.Now()).
		Order("created_at DESC").
		Find(&groups).Error
	return groups, err
}

func (r *StudyGroupRepository) Update(id uuid.UUID, updates map[string]interface{}) (*model.StudyGroup, error) {
	if err := r.db.Model(&model.StudyGroup{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.FindByID(id)
}

func (r *StudyGroupRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("group_id = ?", id).
			Delete(&model.StudyGroupMember{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.StudyGroup{}).Error
	})
}

// ========== Membership ==========

func (r *StudyGroupRepository) AddMember(member *model.StudyGroupMember) error {
	return r.db.Create(member).Error
}

func (r *StudyGroupRepository) RemoveMember(groupID, userID uuid.UUID) error {
	return r.db.Unscoped().
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.StudyGroupMember{}).Error
}

func (r *StudyGroupRepository) FindMembership(groupID, userID uuid.UUID) (*model.StudyGroupMember, error) {
	var member model.StudyGroupMember
	err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *StudyGroupRepository) ListMembers(groupID uuid.UUID) ([]model.StudyGroupMember, error) {
	var members []model.StudyGroupMember
	err := r.db.Preload("User").Where("group_id = ?", groupID).Find(&members).Error
	return members, err
}

func (r *StudyGroupRepository) CountMembers(groupID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.StudyGroupMember{}).
		Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}
