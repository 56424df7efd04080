package blocks

import (
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/google/uuid"

	"sitebuilder-backend/internal/models"
)

// RenderContext exposes the minimal capabilities required by block components.
type RenderContext interface {
	// SanitizeHTML should clean potentially unsafe markup before rendering.
	SanitizeHTML(input string) string
	// Markdown converts author supplied markdown into sanitised HTML.
	Markdown(source string) template.HTML
	// RenderChildren renders the child list of a container block.
	RenderChildren(children []models.Block) template.HTML
	// Palette returns the site palette of the page being rendered.
	Palette() models.Palette
}

// Component renders a single block into HTML.
type Component func(ctx RenderContext, block models.Block) template.HTML

// Registration bundles everything the system knows about a block type.
type Registration struct {
	Type        string
	Component   Component
	Editor      []models.EditorField
	DefaultData map[string]interface{}
	Label       string
	Icon        string
	Category    string
	Description string
}

// Metadata is the display information shown by the block insertion UI.
type Metadata struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	Icon        string `json:"icon,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// UnknownBlockTypeError is returned when an operation names a block type that was never registered.
type UnknownBlockTypeError struct {
	Type string
}

func (e *UnknownBlockTypeError) Error() string {
	return fmt.Sprintf("block type %q is not registered", e.Type)
}

// Registry stores block type registrations keyed by type.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Registration
	order   []string
}

// NewRegistry creates an empty block type registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Registration)}
}

// Register inserts or overwrites the entry keyed by entry.Type. Overwriting
// keeps the type's original position in ListMetadata.
func (r *Registry) Register(entry Registration) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}

	entry.Type = normaliseType(entry.Type)
	if entry.Type == "" {
		return fmt.Errorf("block type is empty")
	}
	if entry.Component == nil {
		return fmt.Errorf("component is nil for type %s", entry.Type)
	}
	if strings.TrimSpace(entry.Label) == "" {
		entry.Label = entry.Type
	}
	entry.DefaultData = models.CloneData(entry.DefaultData)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]Registration)
	}
	if _, exists := r.entries[entry.Type]; !exists {
		r.order = append(r.order, entry.Type)
	}
	r.entries[entry.Type] = entry
	return nil
}

// MustRegister registers the entry and panics if registration fails.
func (r *Registry) MustRegister(entry Registration) {
	if err := r.Register(entry); err != nil {
		panic(err)
	}
}

// Lookup retrieves the registration for a block type. The returned default
// data is a private copy.
func (r *Registry) Lookup(blockType string) (Registration, bool) {
	if r == nil {
		return Registration{}, false
	}

	blockType = normaliseType(blockType)
	if blockType == "" {
		return Registration{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[blockType]
	if !ok {
		return Registration{}, false
	}
	entry.DefaultData = models.CloneData(entry.DefaultData)
	return entry, true
}

// Component returns the renderer registered for a block type.
func (r *Registry) Component(blockType string) (Component, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[normaliseType(blockType)]
	if !ok {
		return nil, false
	}
	return entry.Component, true
}

// ListMetadata returns display metadata in registration order.
func (r *Registry) ListMetadata() []Metadata {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Metadata, 0, len(r.order))
	for _, blockType := range r.order {
		entry := r.entries[blockType]
		result = append(result, Metadata{
			Type:        entry.Type,
			Label:       entry.Label,
			Icon:        entry.Icon,
			Category:    entry.Category,
			Description: entry.Description,
		})
	}
	return result
}

// List returns all registrations in registration order.
func (r *Registry) List() []Registration {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Registration, 0, len(r.order))
	for _, blockType := range r.order {
		entry := r.entries[blockType]
		entry.DefaultData = models.CloneData(entry.DefaultData)
		result = append(result, entry)
	}
	return result
}

// CreateInstance seeds a new block of the given type from its default data.
// A fresh id is generated when id is empty.
func (r *Registry) CreateInstance(blockType, id string) (models.Block, error) {
	entry, ok := r.Lookup(blockType)
	if !ok {
		return models.Block{}, &UnknownBlockTypeError{Type: normaliseType(blockType)}
	}

	id = strings.TrimSpace(id)
	if id == "" {
		id = entry.Type + "-" + uuid.NewString()
	}

	return models.NewBlock(id, entry.Type, entry.DefaultData), nil
}

// Clone creates a copy of the registry with the same registrations.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return NewRegistry()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cloned := NewRegistry()
	for _, blockType := range r.order {
		cloned.entries[blockType] = r.entries[blockType]
		cloned.order = append(cloned.order, blockType)
	}
	return cloned
}

func normaliseType(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
