package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sitebuilder-backend/internal/blocks"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/internal/preview"
	"sitebuilder-backend/internal/service"
	"sitebuilder-backend/pkg/logger"
)

// EditorHandler exposes the page builder over HTTP. Every editing call
// targets a preview session; connected previews receive the result over
// their socket.
type EditorHandler struct {
	hub    *preview.Hub
	editor service.EditorUseCase
}

func NewEditorHandler(hub *preview.Hub, editor service.EditorUseCase) *EditorHandler {
	return &EditorHandler{hub: hub, editor: editor}
}

// GetConfig returns the block types, templates and animations of the builder.
// GET /api/editor/config
func (h *EditorHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"config": h.editor.GetPageBuilderConfig()})
}

// OpenSession creates or resumes an editing session.
// POST /api/editor/sessions
func (h *EditorHandler) OpenSession(c *gin.Context) {
	var req struct {
		Key  string `json:"key"`
		Slug string `json:"slug"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	key := strings.TrimSpace(req.Key)
	if key == "" {
		key = uuid.NewString()
	}

	session, err := h.hub.Open(c.Request.Context(), key, req.Slug)
	if err != nil {
		h.writeError(c, err, "Failed to open editing session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session.Snapshot()})
}

// GetSession returns the session snapshot.
// GET /api/editor/sessions/:key
func (h *EditorHandler) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session.Snapshot()})
}

// CloseSession discards a session and disconnects its previews.
// DELETE /api/editor/sessions/:key
func (h *EditorHandler) CloseSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if session.Dirty() && c.Query("discard") != "true" {
		c.JSON(http.StatusConflict, gin.H{"error": "session has unsaved changes"})
		return
	}
	h.hub.Close(session.Key())
	c.Status(http.StatusNoContent)
}

// ChangePage switches the page being edited.
// PUT /api/editor/sessions/:key/page
func (h *EditorHandler) ChangePage(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req struct {
		Slug string `json:"slug" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	result, err := session.ChangePage(req.Slug)
	if err != nil {
		h.writeError(c, err, "Failed to change page")
		return
	}
	h.respond(c, http.StatusOK, session, result)
}

// InsertBlock adds a block of a registered type.
// POST /api/editor/sessions/:key/blocks
func (h *EditorHandler) InsertBlock(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req models.InsertBlockRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := session.InsertBlock(preview.InsertRequest{
		Type:     req.Type,
		Location: blocks.Location{ParentID: req.ParentID, Column: req.Column},
		Index:    req.Index,
	})
	if err != nil {
		h.writeError(c, err, "Failed to insert block")
		return
	}
	h.respond(c, http.StatusCreated, session, result)
}

// UpdateBlock edits a block's data or theme.
// PATCH /api/editor/sessions/:key/blocks/:blockId
func (h *EditorHandler) UpdateBlock(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req models.UpdateBlockRequest
	if !bindJSON(c, &req) {
		return
	}

	update := preview.UpdateRequest{Data: req.Data, Replace: req.Replace}
	if req.Theme != nil {
		theme := models.ParseTheme(*req.Theme)
		update.Theme = &theme
	}

	result, err := session.UpdateBlock(c.Param("blockId"), update)
	if err != nil {
		h.writeError(c, err, "Failed to update block")
		return
	}
	h.respond(c, http.StatusOK, session, result)
}

// DeleteBlock removes a block and its children.
// DELETE /api/editor/sessions/:key/blocks/:blockId
func (h *EditorHandler) DeleteBlock(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	result, err := session.DeleteBlock(c.Param("blockId"))
	if err != nil {
		h.writeError(c, err, "Failed to delete block")
		return
	}
	h.respond(c, http.StatusOK, session, result)
}

// ReorderBlocks reorders the root list.
// PUT /api/editor/sessions/:key/order
func (h *EditorHandler) ReorderBlocks(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req models.ReorderBlocksRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := session.ReorderBlocks(req.BlockIDs)
	if err != nil {
		h.writeError(c, err, "Failed to reorder blocks")
		return
	}
	h.respond(c, http.StatusOK, session, result)
}

// MoveBlock moves a block into another list.
// POST /api/editor/sessions/:key/blocks/:blockId/move
func (h *EditorHandler) MoveBlock(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req models.MoveBlockRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := session.MoveBlock(c.Param("blockId"), blocks.Location{ParentID: req.ParentID, Column: req.Column}, req.Index)
	if err != nil {
		h.writeError(c, err, "Failed to move block")
		return
	}
	h.respond(c, http.StatusOK, session, result)
}

// DuplicateBlock copies a block right after itself.
// POST /api/editor/sessions/:key/blocks/:blockId/duplicate
func (h *EditorHandler) DuplicateBlock(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	result, err := session.DuplicateBlock(c.Param("blockId"))
	if err != nil {
		h.writeError(c, err, "Failed to duplicate block")
		return
	}

	status := http.StatusCreated
	if result.Block == nil {
		status = http.StatusOK
	}
	h.respond(c, status, session, result)
}

// ToggleVisibility hides or shows a block on the published site.
// POST /api/editor/sessions/:key/blocks/:blockId/visibility
func (h *EditorHandler) ToggleVisibility(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	hidden, result, err := session.ToggleVisibility(c.Param("blockId"))
	if err != nil {
		h.writeError(c, err, "Failed to toggle block visibility")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hidden":  hidden,
		"result":  result,
		"session": session.Snapshot(),
	})
}

// SelectBlock opens the inspector for a block.
// PUT /api/editor/sessions/:key/selection
func (h *EditorHandler) SelectBlock(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req models.SelectBlockRequest
	if !bindJSON(c, &req) {
		return
	}

	selection, err := session.Select(req.BlockID, req.Column)
	if err != nil {
		h.writeError(c, err, "Failed to select block")
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": selection, "key": selection.Key()})
}

// ClearSelection closes the inspector.
// DELETE /api/editor/sessions/:key/selection
func (h *EditorHandler) ClearSelection(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.ClearSelection()
	c.Status(http.StatusNoContent)
}

// ScrollToBlock scrolls the preview to a block.
// POST /api/editor/sessions/:key/scroll
func (h *EditorHandler) ScrollToBlock(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req models.ScrollToBlockRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := session.ScrollTo(req.BlockID, req.AlignToTop); err != nil {
		h.writeError(c, err, "Failed to scroll to block")
		return
	}
	c.Status(http.StatusAccepted)
}

// Save persists the whole document.
// POST /api/editor/sessions/:key/save
func (h *EditorHandler) Save(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if err := session.Save(c.Request.Context()); err != nil {
		logger.Error(err, "Failed to save site document", map[string]interface{}{"session": session.Key()})
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to save site content",
			"session": session.Snapshot(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session.Snapshot()})
}

func (h *EditorHandler) session(c *gin.Context) (*preview.Session, bool) {
	session, err := h.hub.Get(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "editing session not found"})
		return nil, false
	}
	return session, true
}

func (h *EditorHandler) respond(c *gin.Context, status int, session *preview.Session, result preview.Result) {
	c.JSON(status, gin.H{
		"result":  result,
		"session": session.Snapshot(),
	})
}

func (h *EditorHandler) writeError(c *gin.Context, err error, message string) {
	var unknownType *blocks.UnknownBlockTypeError

	switch {
	case errors.Is(err, preview.ErrSessionNotFound),
		errors.Is(err, preview.ErrPageNotFound),
		errors.Is(err, blocks.ErrBlockNotFound),
		errors.Is(err, blocks.ErrParentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &unknownType),
		errors.Is(err, blocks.ErrNotContainer),
		errors.Is(err, blocks.ErrInvalidColumn),
		errors.Is(err, blocks.ErrInvalidMove):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, preview.ErrNotLoaded),
		errors.Is(err, preview.ErrStaleLoad):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(err, message, map[string]interface{}{"path": c.FullPath()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
