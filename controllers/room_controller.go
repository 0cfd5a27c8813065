package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/studyloop/chat_backend/services"
)

type RoomController struct {
	rooms  *services.RoomService
	unread *services.UnreadService
}

func NewRoomController(rooms *services.RoomService, unread *services.UnreadService) *RoomController {
	return &RoomController{rooms: rooms, unread: unread}
}

type CreateRoomInput struct {
	Name    string `json:"name" binding:"required" example:"Study Group"`
	Private bool   `json:"private"`
	UserIDs []uint `json:"user_ids"`
}

type UpdateRoomInput struct {
	Name    *string `json:"name" example:"Renamed Group"`
	Private *bool   `json:"private"`
}

type AddParticipantInput struct {
	UserID uint `json:"user_id" binding:"required" example:"2"`
}

// GetRooms godoc
// @Summary Get all rooms for the authenticated user
// @Description Returns every room the user belongs to, with unread counters and last-message previews
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "List of rooms"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/rooms [get]
func (rc *RoomController) GetRooms(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	summaries, err := rc.rooms.ListForUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": summaries})
}

// CreateRoom godoc
// @Summary Create a new room
// @Description Creates a room with the authenticated user and the given participants as members, atomically
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param room body CreateRoomInput true "Room Creation"
// @Success 201 {object} map[string]interface{} "Room created successfully"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/rooms [post]
func (rc *RoomController) CreateRoom(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var input CreateRoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	create := rc.rooms.Create
	if input.Private {
		create = rc.rooms.CreatePrivate
	}
	room, err := create(input.Name, userID, input.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Room created successfully",
		"room":    room,
	})
}

// GetRoom godoc
// @Summary Get details of a specific room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} map[string]interface{} "Room details"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Room not found"
// @Router /api/rooms/{id} [get]
func (rc *RoomController) GetRoom(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	room, membership, err := rc.rooms.Get(roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room":        room,
		"lastReadAt":  membership.LastReadAt,
		"unreadCount": membership.UnreadCount,
	})
}

// UpdateRoom godoc
// @Summary Rename a room or change its visibility
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param room body UpdateRoomInput true "Room Update"
// @Success 200 {object} map[string]string "Room updated successfully"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /api/rooms/{id} [put]
func (rc *RoomController) UpdateRoom(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input UpdateRoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := rc.rooms.Update(roomID, userID, input.Name, input.Private); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room updated successfully"})
}

// DeleteRoom godoc
// @Summary Delete a room
// @Description Deletes a room with its memberships, messages and polls
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} map[string]string "Room deleted successfully"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Room not found"
// @Router /api/rooms/{id} [delete]
func (rc *RoomController) DeleteRoom(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := rc.rooms.Delete(roomID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Room deleted successfully"})
}

// GetParticipants godoc
// @Summary List a room's members ordered by join time
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param offset query int false "Page offset"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{} "Member page"
// @Router /api/rooms/{id}/participants [get]
func (rc *RoomController) GetParticipants(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if _, _, err := rc.rooms.Get(roomID, userID); err != nil {
		respondError(c, err)
		return
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	participants, err := rc.rooms.Participants(roomID, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

// AddParticipant godoc
// @Summary Add a member to a room
// @Description Idempotent: adding an existing member is a no-op success
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param participant body AddParticipantInput true "Participant"
// @Success 200 {object} map[string]string "Participant added"
// @Failure 404 {object} map[string]string "Room not found"
// @Router /api/rooms/{id}/participants [post]
func (rc *RoomController) AddParticipant(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input AddParticipantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Only existing members may invite others in.
	if _, _, err := rc.rooms.Get(roomID, userID); err != nil {
		respondError(c, err)
		return
	}

	if err := rc.rooms.AddParticipant(roomID, input.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Participant added"})
}

// RemoveParticipant godoc
// @Summary Remove a member from a room
// @Description Idempotent: removing a non-member is a no-op success. The member's unread state goes with the membership.
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param userId path int true "User ID"
// @Success 200 {object} map[string]string "Participant removed"
// @Router /api/rooms/{id}/participants/{userId} [delete]
func (rc *RoomController) RemoveParticipant(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	// Leaving yourself is always allowed; removing someone else
	// requires membership.
	if targetID != userID {
		if _, _, err := rc.rooms.Get(roomID, userID); err != nil {
			respondError(c, err)
			return
		}
	}

	if err := rc.rooms.RemoveParticipant(roomID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Participant removed"})
}

// JoinRoom godoc
// @Summary Join a room
// @Description Public rooms accept anyone; private rooms require a prior invitation (an existing membership)
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} map[string]string "Joined"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Room not found"
// @Router /api/rooms/{id}/join [post]
func (rc *RoomController) JoinRoom(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := rc.rooms.Join(roomID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Joined room"})
}

// MarkRead godoc
// @Summary Mark a room as read
// @Description Resets the caller's unread counter and advances the read cursor. Idempotent.
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} map[string]string "Marked read"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /api/rooms/{id}/read [post]
func (rc *RoomController) MarkRead(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := rc.unread.MarkRead(roomID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Marked read"})
}

// GetUnreadCount godoc
// @Summary Get unread message count for a room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} map[string]int64 "Unread message count"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /api/rooms/{id}/unread [get]
func (rc *RoomController) GetUnreadCount(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	membership, err := rc.rooms.Membership(roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if membership == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": membership.UnreadCount})
}
