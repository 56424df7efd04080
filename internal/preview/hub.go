package preview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"sitebuilder-backend/internal/blocks"
	"sitebuilder-backend/internal/render"
	"sitebuilder-backend/pkg/logger"
)

var ErrSessionNotFound = errors.New("preview session not found")

// Hub owns the open preview sessions, keyed by the editor's page key.
type Hub struct {
	store    Store
	registry *blocks.Registry
	renderer *render.Renderer
	idleTTL  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
	// saveMu serializes saves across sessions; each one merges onto the
	// document the previous one wrote.
	saveMu sync.Mutex
}

// NewHub creates a hub. Sessions idle for longer than idleTTL with no preview
// attached are evicted by Sweep; a non-positive idleTTL disables eviction.
func NewHub(store Store, registry *blocks.Registry, renderer *render.Renderer, idleTTL time.Duration) *Hub {
	initMetrics()
	return &Hub{
		store:    store,
		registry: registry,
		renderer: renderer,
		idleTTL:  idleTTL,
		sessions: make(map[string]*Session),
	}
}

// Open returns the session for key, creating and loading it on first use.
// A non-empty slug on an existing session switches its page.
func (h *Hub) Open(ctx context.Context, key, slug string) (*Session, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrSessionNotFound
	}

	h.mu.Lock()
	session, exists := h.sessions[key]
	if !exists {
		session = NewSession(key, h.store, h.registry, h.renderer)
		session.saveMu = &h.saveMu
		h.sessions[key] = session
		activeSessions.Inc()
	}
	h.mu.Unlock()

	if exists && session.Snapshot().State != StateLoading {
		slug = strings.TrimSpace(slug)
		if slug != "" && !strings.EqualFold(session.Snapshot().Page.Slug, slug) {
			if _, err := session.ChangePage(slug); err != nil {
				return nil, err
			}
		}
		return session, nil
	}

	if err := session.Load(ctx, slug); err != nil {
		if errors.Is(err, ErrStaleLoad) {
			return session, nil
		}
		if !exists {
			h.remove(key, session)
		}
		return nil, err
	}
	return session, nil
}

// Get returns an existing session.
func (h *Hub) Get(key string) (*Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	session, ok := h.sessions[strings.TrimSpace(key)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close evicts a session and closes its preview connections.
func (h *Hub) Close(key string) {
	h.mu.Lock()
	session, ok := h.sessions[key]
	if ok {
		delete(h.sessions, key)
		activeSessions.Dec()
	}
	h.mu.Unlock()

	if ok {
		session.Close()
	}
}

// CloseAll evicts every session, warning about unsaved edits. It returns the
// number of sessions that were dirty.
func (h *Hub) CloseAll() int {
	dirty := 0
	for _, session := range h.list() {
		if session.Dirty() {
			dirty++
			logger.Warn("Closing preview session with unsaved changes", map[string]interface{}{
				"session": session.Key(),
			})
		}
		h.remove(session.Key(), session)
		session.Close()
	}
	return dirty
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// RefreshAll re-pushes every session's preview.
func (h *Hub) RefreshAll() {
	for _, session := range h.list() {
		session.Refresh()
	}
}

// Sweep evicts idle sessions. It has the signature of a background job.
func (h *Hub) Sweep(ctx context.Context) error {
	if h.idleTTL <= 0 {
		return nil
	}
	now := time.Now()
	for _, session := range h.list() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if session.IdleFor(now) < h.idleTTL {
			continue
		}
		if session.Dirty() {
			logger.Warn("Evicting preview session with unsaved changes", map[string]interface{}{
				"session": session.Key(),
			})
		}
		h.remove(session.Key(), session)
		session.Close()
	}
	return nil
}

func (h *Hub) list() []*Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := make([]*Session, 0, len(h.sessions))
	for _, session := range h.sessions {
		list = append(list, session)
	}
	return list
}

func (h *Hub) remove(key string, session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.sessions[key]; ok && current == session {
		delete(h.sessions, key)
		activeSessions.Dec()
	}
}
