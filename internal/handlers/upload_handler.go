package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sitebuilder-backend/internal/service"
	"sitebuilder-backend/pkg/logger"
)

type UploadHandler struct {
	uploadService service.UploadUseCase
}

func NewUploadHandler(uploadService service.UploadUseCase) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload stores an image for block data.
// POST /api/editor/uploads
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		file, err = c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
			return
		}
	}

	preferredName := strings.TrimSpace(c.PostForm("name"))

	upload, err := h.uploadService.UploadImage(file, preferredName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUploadTypeInvalid),
			errors.Is(err, service.ErrUploadTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error(err, "Failed to store upload", map[string]interface{}{"filename": file.Filename})
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"upload":   upload,
		"url":      upload.URL,
		"filename": upload.Filename,
	})
}

// List returns stored uploads, newest first, with the blocks using them.
// GET /api/editor/uploads
func (h *UploadHandler) List(c *gin.Context) {
	uploads, err := h.uploadService.ListImages(c.Request.Context())
	if err != nil {
		logger.Error(err, "Failed to list uploads", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list uploads"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": uploads})
}

// Delete removes an upload. Images used by saved blocks need ?force=true.
// DELETE /api/editor/uploads/:filename
func (h *UploadHandler) Delete(c *gin.Context) {
	force := c.Query("force") == "true"
	err := h.uploadService.DeleteImage(c.Request.Context(), c.Param("filename"), force)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, service.ErrUploadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
	case errors.Is(err, service.ErrUploadInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(err, "Failed to delete upload", map[string]interface{}{"filename": c.Param("filename")})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete upload"})
	}
}
