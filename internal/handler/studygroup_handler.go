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

// StudyGroupHandler handles study group endpoints
type StudyGroupHandler struct {
	groupService *service.StudyGroupService
}

func NewStudyGroupHandler(groupService *service.StudyGroupService) *StudyGroupHandler {
	return &StudyGroupHandler{groupService: groupService}
}

// Create godoc
// @Summary Create a study group
// @Description Also provisions the group's chat conversation with the host as first member.
// @Tags StudyGroups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateStudyGroupRequest true "Study group"
// @Success 201 {object} model.StudyGroup
// @Router /study-groups [post]
func (h *StudyGroupHandler) Create(c *gin.Context) {
	var req model.CreateStudyGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	group, err := h.groupService.Create(userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to create study group"})
		return
	}
	c.JSON(http.StatusCreated, group)
}

// List returns active groups with member counts. One-off groups whose session
// time has passed are excluded; recurring groups never expire.
func (h *StudyGroupHandler) List(c *gin.Context) {
	groups, err := h.groupService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to list study groups"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// Get returns one study group with host and members
func (h *StudyGroupHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid group ID"})
		return
	}

	group, err := h.groupService.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Study group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to get study group"})
		return
	}
	c.JSON(http.StatusOK, group)
}

// Members lists the group's members with their profiles
func (h *StudyGroupHandler) Members(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid group ID"})
		return
	}

	members, err := h.groupService.Members(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Study group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to list members"})
		return
	}
	c.JSON(http.StatusOK, members)
}

// Update applies a partial update, hosts only
func (h *StudyGroupHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid group ID"})
		return
	}

	var req model.UpdateStudyGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	group, err := h.groupService.Update(id, userID, req)
	if err != nil {
		if errors.Is(err, service.ErrNotGroupHost) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Study group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to update study group"})
		return
	}
	c.JSON(http.StatusOK, group)
}

// Join godoc
// @Summary Join a study group
// @Description Adds the caller to the group and its chat. Fails with 409 when the group is full.
// @Tags StudyGroups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /study-groups/{id}/join [post]
func (h *StudyGroupHandler) Join(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid group ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.groupService.Join(id, userID); err != nil {
		switch {
		case errors.Is(err, service.ErrGroupFull), errors.Is(err, service.ErrAlreadyJoined):
			c.JSON(http.StatusConflict, model.ErrorResponse{Error: err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Study group not found"})
		default:
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to join study group"})
		}
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Joined study group"})
}

// Leave removes the caller from the group and its chat
func (h *StudyGroupHandler) Leave(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid group ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.groupService.Leave(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Study group not found"})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Left study group"})
}

// Kick removes another member, hosts only
func (h *StudyGroupHandler) Kick(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid group ID"})
		return
	}
	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid member ID"})
		return
	}

	hostID := c.MustGet("user_id").(uuid.UUID)
	if err := h.groupService.Kick(groupID, hostID, memberID); err != nil {
		if errors.Is(err, service.ErrNotGroupHost) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Member removed"})
}

// Delete godoc
// @Summary Delete a study group
// @Description Hosts only. Also hard-deletes the group's conversation and its messages.
// @Tags StudyGroups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /study-groups/{id} [delete]
func (h *StudyGroupHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid group ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.groupService.Delete(id, userID); err != nil {
		if errors.Is(err, service.ErrNotGroupHost) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to delete study group"})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Study group deleted"})
}
