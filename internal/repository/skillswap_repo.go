package repository

import (
	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
	"gorm.io/gorm"
)

// SkillSwapRepository handles database operations for skill swaps and proposals
type SkillSwapRepository struct {
	db *gorm.DB
}

func NewSkillSwapRepository(db *gorm.DB) *SkillSwapRepository {
	return &SkillSwapRepository{db: db}
}

func (r *SkillSwapRepository) Create(swap *model.SkillSwap) error {
	return r.db.Create(swap).Error
}

func (r *SkillSwapRepository) FindByID(id uuid.UUID) (*model.SkillSwap, error) {
	var swap model.SkillSwap
	err := r.db.Preload("Owner").Where("id = ?", id).First(&swap).Error
	if err != nil {
		return nil, err
	}
	return &swap, nil
}

func (r *SkillSwapRepository) List() ([]model.SkillSwap, error) {
	var swaps []model.SkillSwap
	err := r.db.Preload("Owner").Order("created_at DESC").Find(&swaps).Error
	return swaps, err
}

func (r *SkillSwapRepository) Update(id uuid.UUID, updates map[string]interface{}) (*model.SkillSwap, error) {
	if err := r.db.Model(&model.SkillSwap{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.FindByID(id)
}

func (r *SkillSwapRepository) Delete(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&model.SkillSwap{}).Error
}

// ========== Proposals ==========

func (r *SkillSwapRepository) CreateRequest(req *model.SkillSwapRequest) error {
	return r.db.Create(req).Error
}

func (r *SkillSwapRepository) FindRequestByID(id uuid.UUID) (*model.SkillSwapRequest, error) {
	var req model.SkillSwapRequest
	err := r.db.Preload("Sender").Preload("Receiver").Preload("Swap").
		Where("id = ?", id).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListRequestsForReceiver returns incoming proposals with sender and swap preloaded
func (r *SkillSwapRepository) ListRequestsForReceiver(receiverID uuid.UUID) ([]model.SkillSwapRequest, error) {
	var reqs []model.SkillSwapRequest
	err := r.db.Preload("Sender").Preload("Swap").
		Where("receiver_id = ?", receiverID).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *SkillSwapRepository) UpdateRequestStatus(id uuid.UUID, status model.SwapRequestStatus) error {
	return r.db.Model(&model.SkillSwapRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *SkillSwapRepository) DeleteRequest(id uuid.UUID) error {
	return r.db.Unscoped().Where("id = ?", id).Delete(&model.SkillSwapRequest{}).Error
}
