package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/internal/preview"
	"sitebuilder-backend/internal/render"
	"sitebuilder-backend/internal/service"
	"sitebuilder-backend/pkg/logger"
)

//go:embed assets/*.js
var previewAssetsFS embed.FS

const previewScriptPath = "/preview/assets/preview.js"

// PreviewHandler serves the preview document shown in the editor's iframe
// and the socket that keeps it in sync with the editing session.
type PreviewHandler struct {
	hub      *preview.Hub
	layouts  service.LayoutSource
	upgrader websocket.Upgrader
}

func NewPreviewHandler(hub *preview.Hub, layouts service.LayoutSource, allowedOrigins []string) *PreviewHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			allowed[strings.ToLower(trimmed)] = struct{}{}
		}
	}

	return &PreviewHandler{
		hub:     hub,
		layouts: layouts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16384,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, ok := allowed["*"]; ok {
					return true
				}
				if _, ok := allowed[strings.ToLower(origin)]; ok {
					return true
				}
				return strings.EqualFold(strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://"), r.Host)
			},
		},
	}
}

// Page renders the preview shell. Its content arrives over the socket.
// GET /preview/:key
func (h *PreviewHandler) Page(c *gin.Context) {
	session, err := h.hub.Get(c.Param("key"))
	if err != nil {
		c.String(http.StatusNotFound, "editing session not found")
		return
	}

	snapshot := session.Snapshot()
	templateName := snapshot.Page.Template
	if templateName == "" {
		templateName = snapshot.Metadata.Template
	}

	page := render.NewPage(models.PageContent{
		Slug:     snapshot.Page.Slug,
		Title:    snapshot.Page.Title,
		Template: templateName,
	}, snapshot.Metadata, "")
	page.Preview = true
	page.Scripts = []string{previewScriptPath}
	page.Head = template.HTML(`<meta name="preview-socket" content="` +
		template.HTMLEscapeString("/api/editor/sessions/"+session.Key()+"/preview/ws") + `">`)

	var layout *template.Template
	if h.layouts != nil {
		layout = h.layouts.Layout(templateName)
	}

	var buf bytes.Buffer
	if err := render.Document(&buf, layout, page); err != nil {
		logger.Error(err, "Failed to render preview shell", map[string]interface{}{"session": session.Key()})
		c.String(http.StatusInternalServerError, "failed to render preview")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// Socket upgrades to a WebSocket and attaches it to the session.
// GET /api/editor/sessions/:key/preview/ws
func (h *PreviewHandler) Socket(c *gin.Context) {
	session, err := h.hub.Get(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "editing session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Preview socket upgrade failed", map[string]interface{}{"session": session.Key(), "error": err.Error()})
		return
	}

	transport := preview.NewWebSocketTransport(conn)
	session.Attach(transport)
	defer func() {
		session.Detach(transport)
		_ = transport.Close()
	}()

	err = transport.ReadLoop(c.Request.Context(), func(msg preview.Message) {
		if err := session.HandleMessage(msg); err != nil {
			logger.Warn("Rejected preview message", map[string]interface{}{
				"session": session.Key(),
				"type":    string(msg.Type),
				"error":   err.Error(),
			})
		}
	})
	if err != nil {
		logger.Debug("Preview socket closed", map[string]interface{}{"session": session.Key(), "error": err.Error()})
	}
}

// PreviewAssets serves the embedded preview script.
func PreviewAssets() http.FileSystem {
	sub, err := fs.Sub(previewAssetsFS, "assets")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
