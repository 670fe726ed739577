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

// ChatHandler handles chat-related HTTP endpoints
type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// GetOrCreateDirect godoc
// @Summary Get or create direct conversation
// @Description Find the existing one-to-one chat with a user, or create it. Returns the conversation plus its messages.
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.DirectConversationRequest true "Partner ID"
// @Success 200 {object} model.DirectConversationResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /conversations/direct [post]
func (h *ChatHandler) GetOrCreateDirect(c *gin.Context) {
	var req model.DirectConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if req.ReceiverID == userID {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Cannot start a conversation with yourself"})
		return
	}

	resp, err := h.chatService.GetOrCreateDirect(userID, req.ReceiverID)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetConversations godoc
// @Summary List the current user's conversations
// @Description Most recently active first, with unread counts and last messages.
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.ConversationResponse
// @Router /conversations [get]
func (h *ChatHandler) GetConversations(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	conversations, err := h.chatService.ListConversations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to get conversations"})
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// GetMessages godoc
// @Summary Get conversation history
// @Description All messages the caller has not deleted for themselves, oldest first.
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {array} model.Message
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations/{id}/messages [get]
func (h *ChatHandler) GetMessages(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid conversation ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	messages, err := h.chatService.History(conversationID, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotMember) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to get messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// SendMessage godoc
// @Summary Send a message
// @Description Persists the message. Realtime delivery happens over the websocket room.
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param body body model.SendMessageRequest true "Message"
// @Success 201 {object} model.Message
// @Failure 403 {object} model.ErrorResponse
// @Router /conversations/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid conversation ID"})
		return
	}

	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	name := c.MustGet("name").(string)

	msg, err := h.chatService.Send(userID, name, conversationID, req)
	if err != nil {
		if errors.Is(err, service.ErrNotMember) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to send message"})
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkRead godoc
// @Summary Mark a conversation as read
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.SuccessResponse
// @Router /conversations/{id}/read [post]
func (h *ChatHandler) MarkRead(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid conversation ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.chatService.MarkRead(conversationID, userID); err != nil {
		if errors.Is(err, service.ErrNotMember) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to mark as read"})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Conversation marked as read"})
}

// DeleteMessage godoc
// @Summary Delete a message for the current user
// @Description Hides the message from the caller only; other members keep it. Deleting a message twice is a no-op.
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} model.SuccessResponse
// @Router /messages/{id} [delete]
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid message ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.chatService.DeleteMessageForUser(messageID, userID); err != nil {
		if errors.Is(err, service.ErrNotMember) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to delete message"})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Message deleted"})
}

// LeaveConversation godoc
// @Summary Delete a conversation for the current user
// @Description Removes the caller's membership. The conversation survives for the remaining members.
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} model.SuccessResponse
// @Router /conversations/{id} [delete]
func (h *ChatHandler) LeaveConversation(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid conversation ID"})
		return
	}

	userID := c.MustGet("user_id").(uuid.UUID)
	if err := h.chatService.LeaveConversation(conversationID, userID); err != nil {
		if errors.Is(err, service.ErrNotMember) {
			c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "Conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to delete conversation"})
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Conversation deleted"})
}
