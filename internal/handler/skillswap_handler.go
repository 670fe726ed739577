package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/nextbenchapp/nextbench/internal/service"
	"gorm.io/gorm"
)

// SkillSwapHandler handles skill swap listings and proposals
type SkillSwapHandler struct {
	swapService *service.SkillSwapService
}

func NewSkillSwapHandler(swapService *service.SkillSwapService) *SkillSwapHandler {
	return &SkillSwapHandler{swapService: swapService}
}

// Create posts a new swap listing
func (h *SkillSwapHandler) Create(c *gin.Context) {
	var req model.CreateSkillSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	swap, err := h.swapService.Create(userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to create skill swap"})
		return
	}
	c.JSON(http.StatusCreated, swap)
}

// List returns all swap listings, newest first
func (h *SkillSwapHandler) List(c *gin.Context) {
	swaps, err := h.swapService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to list skill swaps"})
		return
	}
	c.JSON(http.StatusOK, swaps)
}

// Get returns one swap listing
func (h *SkillSwapHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid swap ID"})
		return
	}

	swap, err := h.swapService.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Skill swap not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to get skill swap"})
		return
	}
	c.JSON(http.StatusOK, swap)
}

// Update applies a partial update to a swap listing, owners only
func (h *SkillSwapHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid swap ID"})
		return
	}

	var req model.UpdateSkillSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	swap, err := h.swapService.Update(userID, id, req)
	if err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Skill swap not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to update skill swap"})
		return
	}
	c.JSON(http.StatusOK, swap)
}

// Delete removes a swap listing, owners only
func (h *SkillSwapHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid swap ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.swapService.Delete(userID, id); err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to delete skill swap"})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Skill swap deleted"})
}

// Propose godoc
// @Summary Propose a swap to a listing owner
// @Tags SkillSwaps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.ProposeSwapRequest true "Proposal"
// @Success 201 {object} model.SkillSwapRequest
// @Router /skill-swaps/requests [post]
func (h *SkillSwapHandler) Propose(c *gin.Context) {
	var req model.ProposeSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	request, err := h.swapService.Propose(userID, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Swap listing not found"})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, request)
}

// ListIncoming returns pending and settled proposals addressed to the caller
func (h *SkillSwapHandler) ListIncoming(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	requests, err := h.swapService.ListIncomingRequests(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to list requests"})
		return
	}
	c.JSON(http.StatusOK, requests)
}

// CancelRequest withdraws a pending proposal, senders only
func (h *SkillSwapHandler) CancelRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.swapService.CancelRequest(userID, id); err != nil {
		if errors.Is(err, service.ErrRequestSettled) {
			c.JSON(http.StatusConflict, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Request cancelled"})
}

// Respond godoc
// @Summary Accept or decline a swap proposal
// @Tags SkillSwaps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param body body model.UpdateSwapStatusRequest true "accepted or declined"
// @Success 200 {object} model.SkillSwapRequest
// @Failure 403 {object} model.ErrorResponse
// @Router /skill-swaps/requests/{id} [patch]
func (h *SkillSwapHandler) Respond(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request ID"})
		return
	}

	var req model.UpdateSwapStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	request, err := h.swapService.Respond(userID, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotRequestReceiver):
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrRequestSettled):
			c.JSON(http.StatusConflict, model.ErrorResponse{Error: err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Request not found"})
		default:
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to respond to request"})
		}
		return
	}
	c.JSON(http.StatusOK, request)
}
