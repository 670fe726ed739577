package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
	"gorm.io/gorm"
)

// NotificationRepository handles database operations for in-app notifications
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *model.Notification) error {
	return r.db.Create(n).Error
}

// ListForUser returns a user's notifications, newest first
func (r *NotificationRepository) ListForUser(userID uuid.UUID, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// MarkRead stamps a notification as read; reading twice keeps the first stamp
func (r *NotificationRepository) MarkRead(id, userID uuid.UUID) error {
	return r.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", time.Now()).Error
}
