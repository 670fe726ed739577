package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles database operations for User
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by UUID
func (r *UserRepository) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByGoogleID finds a user by Google OAuth ID
func (r *UserRepository) FindByGoogleID(googleID string) (*model.User, error) {
	var user model.User
	err := r.db.Where("google_id = ?", googleID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreateGoogleUser resolves a Google login to a user row. An existing
// email account gets the Google id linked; a brand new identity becomes a
// verified account with no password.
func (r *UserRepository) GetOrCreateGoogleUser(info model.GoogleUserInfo) (*model.User, error) {
	user, err := r.FindByGoogleID(info.GoogleID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err = r.FindByEmail(info.Email)
	if err == nil {
		err = r.db.Model(user).Updates(map[string]interface{}{
			"google_id":     info.GoogleID,
			"auth_provider": model.AuthProviderGoogle,
		}).Error
		return user, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	user = &model.User{
		Name:            info.Name,
		Email:           info.Email,
		AvatarURL:       info.Picture,
		AuthProvider:    model.AuthProviderGoogle,
		GoogleID:        &info.GoogleID,
		EmailVerifiedAt: &now,
	}
	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// SearchByName searches users by partial name match
func (r *UserRepository) SearchByName(query string, excludeUserID uuid.UUID, limit int) ([]model.User, error) {
	var users []model.User
	err := r.db.
		Where("name ILIKE ? AND id != ?", "%"+query+"%", excludeUserID).
		Limit(limit).
		Find(&users).Error
	return users, err
}

// Leaderboard returns the top users by XP
func (r *UserRepository) Leaderboard(limit int) ([]model.User, error) {
	var users []model.User
	err := r.db.Order("xp DESC").Limit(limit).Find(&users).Error
	return users, err
}

// UpdateProfile applies a partial profile update
func (r *UserRepository) UpdateProfile(id uuid.UUID, updates map[string]interface{}) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(updates).Error
}

// TouchLastSeen records presence heartbeat
func (r *UserRepository) TouchLastSeen(id uuid.UUID) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).
		Update("last_seen_at", gorm.Expr("NOW()")).Error
}

// VerifyEmail marks user's email as verified
func (r *UserRepository) VerifyEmail(userID uuid.UUID) error {
	now := time.Now()
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		Update("email_verified_at", now).Error
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(userID uuid.UUID, hashed string) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		Update("password", hashed).Error
}

// AddXP atomically increments a user's XP and coin balance
func (r *UserRepository) AddXP(userID uuid.UUID, xp, coins int) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"xp":    gorm.Expr("xp + ?", xp),
			"coins": gorm.Expr("coins + ?", coins),
		}).Error
}

// UpdateTrustScore stores a recomputed trust score
func (r *UserRepository) UpdateTrustScore(userID uuid.UUID, score int) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		Update("trust_score", score).Error
}

// IncrementCompletedDeals bumps the completed-deal counter
func (r *UserRepository) IncrementCompletedDeals(userID uuid.UUID) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).
		Update("completed_deals", gorm.Expr("completed_deals + 1")).Error
}

// RegisterDevice upserts an FCM device token for a user
func (r *UserRepository) RegisterDevice(device *model.UserDevice) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "fcm_token"}},
		DoUpdates: clause.AssignmentColumns([]string{"device_type", "last_active_at"}),
	}).Create(device).Error
}

// GetUserDevices returns all registered devices for a user
func (r *UserRepository) GetUserDevices(userID uuid.UUID) ([]model.UserDevice, error) {
	var devices []model.UserDevice
	err := r.db.Where("user_id = ?", userID).Find(&devices).Error
	return devices, err
}
