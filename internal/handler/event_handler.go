package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/nextbenchapp/nextbench/internal/repository"
	"github.com/nextbenchapp/nextbench/internal/service"
	"gorm.io/gorm"
)

// EventHandler handles campus event endpoints
type EventHandler struct {
	eventService *service.EventService
}

func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// Create godoc
// @Summary Publish a campus event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateEventRequest true "Event"
// @Success 201 {object} model.Event
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req model.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	event, err := h.eventService.Create(userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to create event"})
		return
	}
	c.JSON(http.StatusCreated, event)
}

// List returns upcoming events, soonest first
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.eventService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to list events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

// Get returns one event
func (h *EventHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid event ID"})
		return
	}

	event, err := h.eventService.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to get event"})
		return
	}
	c.JSON(http.StatusOK, event)
}

// ListMine returns the caller's own events
func (h *EventHandler) ListMine(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	events, err := h.eventService.ListMine(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to list events"})
		return
	}
	c.JSON(http.StatusOK, events)
}

// Update godoc
// @Summary Update an event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param body body model.UpdateEventRequest true "Fields to update"
// @Success 200 {object} model.Event
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid event ID"})
		return
	}

	var req model.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	event, err := h.eventService.Update(userID, id, req)
	if err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to update event"})
		return
	}
	c.JSON(http.StatusOK, event)
}

// Register godoc
// @Summary Register for an event
// @Description Fails with 409 when the event has reached its participant cap.
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} model.Event
// @Failure 409 {object} model.ErrorResponse
// @Router /events/{id}/register [post]
func (h *EventHandler) Register(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid event ID"})
		return
	}

	event, err := h.eventService.Register(id)
	if err != nil {
		if errors.Is(err, repository.ErrEventFull) {
			c.JSON(http.StatusConflict, model.ErrorResponse{Error: err.Error()})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to register"})
		return
	}
	c.JSON(http.StatusOK, event)
}

// Delete removes an event, organizers only
func (h *EventHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid event ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.eventService.Delete(userID, id); err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to delete event"})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Event deleted"})
}
