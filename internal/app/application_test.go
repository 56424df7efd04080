package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"sitebuilder-backend/internal/config"
	"sitebuilder-backend/internal/constants"
	"sitebuilder-backend/internal/middleware"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/internal/seed"
)

const testSecret = "test-secret"

// contentAPI is a stand-in for a remote content backend.
type contentAPI struct {
	mu  sync.Mutex
	doc models.SiteDocument
	put int
}

func (api *contentAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.mu.Lock()
	defer api.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.doc)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		var doc models.SiteDocument
		if err := json.Unmarshal(body, &doc); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		api.doc = doc
		api.put++
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func templatesDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("failed to resolve test file")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "templates")
}

func newTestApplication(t *testing.T) (*Application, *contentAPI) {
	t.Helper()

	doc, err := seed.DefaultDocument()
	if err != nil {
		t.Fatalf("failed to load starter site: %v", err)
	}
	api := &contentAPI{doc: doc}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		JWTSecret:          testSecret,
		Port:               "0",
		Environment:        "test",
		LogLevel:           "error",
		CORSOrigins:        []string{"http://localhost:3000"},
		UploadDir:          t.TempDir(),
		MaxUploadSize:      1 << 20,
		RateLimitRequests:  1000,
		RateLimitWindow:    time.Minute,
		RateLimitBurst:     1000,
		TemplatesDir:       templatesDir(t),
		DefaultTemplate:    "default",
		ContentBackend:     config.ContentBackendHTTP,
		ContentAPIURL:      server.URL,
		ContentAPITimeout:  2 * time.Second,
		ContentAPIAttempts: 1,
		PreviewIdleTTL:     time.Minute,
		PreviewSweepPeriod: time.Minute,
		EnableMetrics:      true,
		EnableCache:        true,
	}

	application, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to build application: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = application.Shutdown(ctx)
	})
	return application, api
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := middleware.IssueToken(testSecret, "someone@example.com", role, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return "Bearer " + token
}

func serve(application *Application, method, path, auth, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	application.Router().ServeHTTP(w, req)
	return w
}

func TestApplicationRoutes(t *testing.T) {
	application, _ := newTestApplication(t)
	editor := bearer(t, constants.RoleEditor)
	admin := bearer(t, constants.RoleAdmin)

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		status int
		want   string
	}{
		{name: "health", method: http.MethodGet, path: "/health", status: http.StatusOK, want: "healthy"},
		{name: "health reports jobs", method: http.MethodGet, path: "/health", status: http.StatusOK, want: "preview-session-sweep"},
		{name: "home page", method: http.MethodGet, path: "/", status: http.StatusOK, want: "Build your site, block by block"},
		{name: "unknown page", method: http.MethodGet, path: "/missing", status: http.StatusNotFound},
		{name: "home page loads theme script", method: http.MethodGet, path: "/", status: http.StatusOK, want: "/assets/site-theme.js"},
		{name: "theme script", method: http.MethodGet, path: "/assets/site-theme.js", status: http.StatusOK, want: "data-block-theme"},
		{name: "template stylesheet", method: http.MethodGet, path: "/static/site.css", status: http.StatusOK, want: "--font-heading"},
		{name: "editor requires auth", method: http.MethodGet, path: "/api/editor/config", status: http.StatusUnauthorized},
		{name: "editor config", method: http.MethodGet, path: "/api/editor/config", auth: editor, status: http.StatusOK, want: "available_blocks"},
		{name: "admin requires admin role", method: http.MethodGet, path: "/api/admin/content", auth: editor, status: http.StatusForbidden},
		{name: "admin content", method: http.MethodGet, path: "/api/admin/content", auth: admin, status: http.StatusOK, want: "hero-home"},
		{name: "admin templates", method: http.MethodGet, path: "/api/admin/templates", auth: admin, status: http.StatusOK, want: "studio"},
		{name: "unknown api route", method: http.MethodGet, path: "/api/nothing", status: http.StatusNotFound, want: "Route not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(application, tt.method, tt.path, tt.auth, "")
			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.want != "" && !strings.Contains(w.Body.String(), tt.want) {
				t.Fatalf("expected body to contain %q, got %s", tt.want, w.Body.String())
			}
		})
	}

	metrics := serve(application, http.MethodGet, "/metrics", "", "")
	if !strings.Contains(metrics.Body.String(), "sitebuilder_http_requests_total") {
		t.Fatalf("expected request metrics to be exported")
	}
}

func TestApplicationEditSaveInvalidatesPublicPage(t *testing.T) {
	application, api := newTestApplication(t)
	editor := bearer(t, constants.RoleEditor)

	if w := serve(application, http.MethodGet, "/", "", ""); !strings.Contains(w.Body.String(), "Build your site, block by block") {
		t.Fatalf("expected hero on the cached home page, got %d", w.Code)
	}

	if w := serve(application, http.MethodPost, "/api/editor/sessions", editor, `{"key":"home","slug":"home"}`); w.Code != http.StatusOK {
		t.Fatalf("expected session to open, got %d: %s", w.Code, w.Body.String())
	}
	if w := serve(application, http.MethodDelete, "/api/editor/sessions/home/blocks/hero-home", editor, ""); w.Code != http.StatusOK {
		t.Fatalf("expected hero to be deleted, got %d: %s", w.Code, w.Body.String())
	}
	if w := serve(application, http.MethodPost, "/api/editor/sessions/home/save", editor, ""); w.Code != http.StatusOK {
		t.Fatalf("expected save to succeed, got %d: %s", w.Code, w.Body.String())
	}

	api.mu.Lock()
	puts := api.put
	api.mu.Unlock()
	if puts != 1 {
		t.Fatalf("expected one document write, got %d", puts)
	}

	page := serve(application, http.MethodGet, "/", "", "")
	if strings.Contains(page.Body.String(), "Build your site, block by block") {
		t.Fatalf("expected saved document to drop the hero")
	}

	closed := serve(application, http.MethodDelete, "/api/editor/sessions/home", editor, "")
	if closed.Code != http.StatusNoContent {
		t.Fatalf("expected saved session to close, got %d: %s", closed.Code, closed.Body.String())
	}
}

func TestApplicationTemplateSwitch(t *testing.T) {
	application, _ := newTestApplication(t)
	admin := bearer(t, constants.RoleAdmin)

	w := serve(application, http.MethodPut, "/api/admin/templates/active", admin, `{"template":"studio"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"active":true`) {
		t.Fatalf("expected studio to be activated, got %d: %s", w.Code, w.Body.String())
	}

	missing := serve(application, http.MethodPut, "/api/admin/templates/active", admin, `{"template":"nowhere"}`)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown template, got %d", missing.Code)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	cfg := &config.Config{ContentBackend: "ftp", PreviewSweepPeriod: time.Minute}
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
