package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sitebuilder-backend/internal/service"
)

type TemplateHandler struct {
	templateService service.TemplateUseCase
}

func NewTemplateHandler(templateService service.TemplateUseCase) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templateService.List()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *TemplateHandler) Activate(c *gin.Context) {
	var req struct {
		Template string `json:"template" binding:"omitempty,slug"`
	}
	if !bindJSON(c, &req) {
		return
	}

	summary, err := h.templateService.Activate(req.Template)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": summary})
}

func (h *TemplateHandler) Reload(c *gin.Context) {
	if err := h.templateService.Reload(c.Param("slug")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TemplateHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTemplateManagerUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
