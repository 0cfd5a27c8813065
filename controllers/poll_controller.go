package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyloop/chat_backend/services"
)

type PollController struct {
	polls *services.PollService
}

func NewPollController(polls *services.PollService) *PollController {
	return &PollController{polls: polls}
}

type CreatePollInput struct {
	Title   string   `json:"title" binding:"required" example:"Next topic?"`
	Options []string `json:"options" binding:"required" example:"Calculus,Physics"`
}

// CreatePoll godoc
// @Summary Create a poll in a room
// @Description Title must be unique among the room's open polls.
// @Tags polls
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param poll body CreatePollInput true "Poll Creation"
// @Success 201 {object} map[string]interface{} "Poll created"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Duplicate open title"
// @Router /api/rooms/{id}/polls [post]
func (pc *PollController) CreatePoll(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input CreatePollInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	poll, err := pc.polls.Create(roomID, userID, input.Title, input.Options)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"poll": poll})
}

// Vote godoc
// @Summary Vote for a poll option
// @Description One vote per member per poll; a second attempt is rejected with 409.
// @Tags polls
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll Option ID"
// @Success 200 {object} map[string]interface{} "Vote recorded"
// @Failure 404 {object} map[string]string "Option not found"
// @Failure 409 {object} map[string]string "Duplicate vote"
// @Router /api/polls/options/{id}/vote [post]
func (pc *PollController) Vote(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	optionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	vote, err := pc.polls.Vote(optionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vote": vote})
}

// GetResults godoc
// @Summary Get a poll's tally
// @Tags polls
// @Produce json
// @Security BearerAuth
// @Param id path int true "Poll ID"
// @Success 200 {object} map[string]interface{} "Option label to vote count"
// @Failure 404 {object} map[string]string "Poll not found"
// @Router /api/polls/{id}/results [get]
func (pc *PollController) GetResults(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	pollID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if _, err := pc.polls.Get(pollID, userID); err != nil {
		respondError(c, err)
		return
	}

	results, err := pc.polls.Results(pollID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ClosePoll godoc
// @Summary Close a poll
// @Description Creator only. Closing frees the title for a new open poll.
// @Tags polls
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param pollId path int true "Poll ID"
// @Success 200 {object} map[string]string "Poll closed"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /api/rooms/{id}/polls/{pollId}/close [post]
func (pc *PollController) ClosePoll(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	pollID, ok := pathID(c, "pollId")
	if !ok {
		return
	}

	if err := pc.polls.Close(pollID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Poll closed"})
}
