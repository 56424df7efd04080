package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sitebuilder-backend/internal/service"
	"sitebuilder-backend/pkg/logger"
)

// SiteHandler serves the published site.
type SiteHandler struct {
	siteService service.SiteUseCase
}

func NewSiteHandler(siteService service.SiteUseCase) *SiteHandler {
	return &SiteHandler{siteService: siteService}
}

// RenderIndex renders the first page.
// GET /
func (h *SiteHandler) RenderIndex(c *gin.Context) {
	h.render(c, "")
}

// RenderPage renders a page by slug.
// GET /:slug
func (h *SiteHandler) RenderPage(c *gin.Context) {
	h.render(c, c.Param("slug"))
}

func (h *SiteHandler) render(c *gin.Context, slug string) {
	if h == nil || h.siteService == nil {
		c.String(http.StatusServiceUnavailable, "site unavailable")
		return
	}

	output, err := h.siteService.RenderPage(c.Request.Context(), slug, c.Query("template"))
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			c.String(http.StatusNotFound, "page not found")
			return
		}
		logger.Error(err, "Failed to render page", map[string]interface{}{"slug": slug})
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", output)
}
