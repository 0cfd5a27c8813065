package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/studyloop/chat_backend/services"
)

type MessageController struct {
	messages *services.MessageService
}

func NewMessageController(messages *services.MessageService) *MessageController {
	return &MessageController{messages: messages}
}

type CreateMessageInput struct {
	Content string `json:"content" binding:"required" example:"Hello, everyone!"`
	Type    string `json:"type" example:"text"`
}

type EditMessageInput struct {
	Content string `json:"content" binding:"required" example:"Hello (edited)"`
}

// GetMessages godoc
// @Summary Get a page of a room's messages
// @Description Returns messages in ascending order. Pass before=<message id> to page further back. Reading never resets the unread counter.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param before query int false "Message ID cursor"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{} "List of messages"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /api/rooms/{id}/messages [get]
func (mc *MessageController) GetMessages(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	before, _ := strconv.ParseUint(c.DefaultQuery("before", "0"), 10, 32)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := mc.messages.History(roomID, userID, uint(before), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// CreateMessage godoc
// @Summary Send a message to a room
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param message body CreateMessageInput true "Message Creation"
// @Success 201 {object} map[string]interface{} "Message sent successfully"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /api/rooms/{id}/messages [post]
func (mc *MessageController) CreateMessage(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input CreateMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := mc.messages.Send(roomID, userID, input.Content, input.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent successfully",
		"data":    message,
	})
}

// EditMessage godoc
// @Summary Edit a message
// @Description Only the original sender may edit. Sets the edited timestamp.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Param message body EditMessageInput true "New content"
// @Success 200 {object} map[string]interface{} "Message edited"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Message not found"
// @Router /api/messages/{id} [put]
func (mc *MessageController) EditMessage(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input EditMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := mc.messages.Edit(messageID, userID, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": message})
}

// DeleteMessage godoc
// @Summary Delete a message
// @Description Soft delete by the sender or the room creator; pagination cursors held by other clients stay valid.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} map[string]string "Message deleted"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Message not found"
// @Router /api/messages/{id} [delete]
func (mc *MessageController) DeleteMessage(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := mc.messages.Delete(messageID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

// PinMessage godoc
// @Summary Pin a message in a room
// @Description A room has at most one pinned message; pinning replaces the previous pin atomically.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param messageId path int true "Message ID"
// @Success 200 {object} map[string]string "Message pinned"
// @Failure 404 {object} map[string]string "Message not found"
// @Router /api/rooms/{id}/messages/{messageId}/pin [post]
func (mc *MessageController) PinMessage(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "messageId")
	if !ok {
		return
	}

	if err := mc.messages.Pin(messageID, roomID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message pinned"})
}
