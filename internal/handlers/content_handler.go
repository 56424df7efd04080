package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitebuilder-backend/internal/content"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/pkg/logger"
)

// ContentHandler exposes the stored site document. It is the endpoint the
// HTTP content store talks to when the editor runs against a remote backend.
type ContentHandler struct {
	store content.Store
}

func NewContentHandler(store content.Store) *ContentHandler {
	return &ContentHandler{store: store}
}

// Get returns the full site document.
// GET /api/admin/content
func (h *ContentHandler) Get(c *gin.Context) {
	doc, err := h.store.Load(c.Request.Context())
	if err != nil {
		logger.Error(err, "Failed to load site content", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load site content"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Put replaces the full site document.
// PUT /api/admin/content
func (h *ContentHandler) Put(c *gin.Context) {
	var doc models.SiteDocument
	if !bindJSON(c, &doc) {
		return
	}

	if err := h.store.Save(c.Request.Context(), doc); err != nil {
		logger.Error(err, "Failed to save site content", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save site content"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Site content saved"})
}
