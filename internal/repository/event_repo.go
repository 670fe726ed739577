package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
	"gorm.io/gorm"
)

// ErrEventFull is returned when registration would exceed max_participants
var ErrEventFull = errors.New("event is full")

// EventRepository handles database operations for campus events
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(e *model.Event) error {
	return r.db.Create(e).Error
}

func (r *EventRepository) FindByID(id uuid.UUID) (*model.Event, error) {
	var e model.Event
	err := r.db.Preload("Organizer").Where("id = ?", id).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns events soonest first
func (r *EventRepository) List() ([]model.Event, error) {
	var events []model.Event
	err := r.db.Preload("Organizer").Order("date ASC").Find(&events).Error
	return events, err
}

func (r *EventRepository) ListByUser(userID uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := r.db.Where("user_id = ?", userID).Order("date ASC").Find(&events).Error
	return events, err
}

func (r *EventRepository) Update(id uuid.UUID, updates map[string]interface{}) (*model.Event, error) {
	if err := r.db.Model(&model.Event{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.FindByID(id)
}

func (r *EventRepository) Delete(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&model.Event{}).Error
}

// IncrementParticipants registers one attendee, refusing when the event is full
func (r *EventRepository) IncrementParticipants(id uuid.UUID) error {
	res := r.db.Model(&model.Event{}).
		Where("id = ?", id).
		Where("max_participants = 0 OR participants < max_participants").
		Update("participants", gorm.Expr("participants + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEventFull
	}
	return nil
}
