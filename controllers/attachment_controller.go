package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyloop/chat_backend/services"
)

const maxAttachmentSize = 10 << 20 // 10 MiB

type AttachmentController struct {
	blobs services.BlobStore
}

func NewAttachmentController(blobs services.BlobStore) *AttachmentController {
	return &AttachmentController{blobs: blobs}
}

// Upload godoc
// @Summary Upload an attachment
// @Description Stores the file and returns a reference URL to embed in a media message.
// @Tags attachments
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Attachment"
// @Success 201 {object} map[string]string "Reference URL"
// @Failure 400 {object} map[string]string "Invalid upload"
// @Router /api/attachments [post]
func (ac *AttachmentController) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > maxAttachmentSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize))
	if err != nil {
		respondError(c, err)
		return
	}

	url, err := ac.blobs.Put(header.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}
