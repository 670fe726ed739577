package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/events"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/nextbenchapp/nextbench/internal/repository"
	"gorm.io/gorm"
)

// EventService handles campus event listings and registrations
type EventService struct {
	eventRepo *repository.EventRepository
	bus       *events.Bus
}

func NewEventService(eventRepo *repository.EventRepository, bus *events.Bus) *EventService {
	return &EventService{eventRepo: eventRepo, bus: bus}
}

// Create lists a new campus event
func (s *EventService) Create(organizerID uuid.UUID, req model.CreateEventRequest) (*model.Event, error) {
	event := &model.Event{
		UserID:          organizerID,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Type:            req.Type,
		Date:            req.Date,
		Time:            req.Time,
		Location:        req.Location,
		College:         req.College,
		MaxParticipants: req.MaxParticipants,
		Fee:             req.Fee,
		ImageURL:        req.ImageURL,
		OfficialLink:    req.OfficialLink,
	}
	if err := s.eventRepo.Create(event); err != nil {
		return nil, err
	}

	s.bus.Publish(events.TopicListingCreated, events.ListingCreated{
		OwnerID: organizerID,
		Kind:    "event",
		ItemID:  event.ID,
	})
	return s.eventRepo.FindByID(event.ID)
}

func (s *EventService) List() ([]model.Event, error) {
	return s.eventRepo.List()
}

func (s *EventService) Get(id uuid.UUID) (*model.Event, error) {
	return s.eventRepo.FindByID(id)
}

func (s *EventService) ListMine(organizerID uuid.UUID) ([]model.Event, error) {
	return s.eventRepo.ListByUser(organizerID)
}

// Update applies a partial update, organizers only
func (s *EventService) Update(organizerID, eventID uuid.UUID, req model.UpdateEventRequest) (*model.Event, error) {
	event, err := s.eventRepo.FindByID(eventID)
	if err != nil {
		return nil, err
	}
	if event.UserID != organizerID {
		return nil, ErrNotOwner
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Type != "" {
		updates["type"] = req.Type
	}
	if req.Date != nil {
		updates["date"] = *req.Date
	}
	if req.Time != "" {
		updates["time"] = req.Time
	}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if req.MaxParticipants != nil {
		updates["max_participants"] = *req.MaxParticipants
	}
	if req.Fee != nil {
		updates["fee"] = *req.Fee
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}
	if req.OfficialLink != "" {
		updates["official_link"] = req.OfficialLink
	}
	if len(updates) == 0 {
		return event, nil
	}
	return s.eventRepo.Update(eventID, updates)
}

// Register joins the caller to an event. A capped event that is already full
// returns repository.ErrEventFull.
func (s *EventService) Register(eventID uuid.UUID) (*model.Event, error) {
	// Look the event up first so a missing id is not reported as full
	if _, err := s.eventRepo.FindByID(eventID); err != nil {
		return nil, err
	}
	if err := s.eventRepo.IncrementParticipants(eventID); err != nil {
		return nil, err
	}
	return s.eventRepo.FindByID(eventID)
}

// Delete removes an event listing, organizers only
func (s *EventService) Delete(organizerID, eventID uuid.UUID) error {
	event, err := s.eventRepo.FindByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if event.UserID != organizerID {
		return ErrNotOwner
	}
	return s.eventRepo.Delete(eventID)
}
