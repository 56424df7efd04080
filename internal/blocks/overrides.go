package blocks

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"sitebuilder-backend/internal/constants"
)

// TemplateRegistry resolves block components per site template. Every
// template is a partial override of the default template, which is itself a
// partial override of the block type registry.
type TemplateRegistry struct {
	mu        sync.RWMutex
	base      *Registry
	templates map[string]map[string]Component
}

// NewTemplateRegistry creates an override registry backed by base.
func NewTemplateRegistry(base *Registry) *TemplateRegistry {
	return &TemplateRegistry{
		base:      base,
		templates: make(map[string]map[string]Component),
	}
}

// Registry returns the block type registry used as the last fallback tier.
func (t *TemplateRegistry) Registry() *Registry {
	if t == nil {
		return nil
	}
	return t.base
}

// Override installs a single component override for a template.
func (t *TemplateRegistry) Override(templateName, blockType string, component Component) error {
	if t == nil {
		return fmt.Errorf("template registry is nil")
	}
	templateName = normaliseTemplate(templateName)
	blockType = normaliseType(blockType)
	if blockType == "" {
		return fmt.Errorf("block type is empty")
	}
	if component == nil {
		return fmt.Errorf("component is nil for %s/%s", templateName, blockType)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	overrides, ok := t.templates[templateName]
	if !ok {
		overrides = make(map[string]Component)
		t.templates[templateName] = overrides
	}
	overrides[blockType] = component
	return nil
}

// ReplaceTemplate swaps the complete override set of a template. An empty
// set removes the template.
func (t *TemplateRegistry) ReplaceTemplate(templateName string, overrides map[string]Component) {
	if t == nil {
		return
	}
	templateName = normaliseTemplate(templateName)

	next := make(map[string]Component, len(overrides))
	for blockType, component := range overrides {
		blockType = normaliseType(blockType)
		if blockType == "" || component == nil {
			continue
		}
		next[blockType] = component
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(next) == 0 {
		delete(t.templates, templateName)
		return
	}
	t.templates[templateName] = next
}

// ResolveComponent looks up the component for a block type, trying the named
// template, then the default template, then the block type registry.
func (t *TemplateRegistry) ResolveComponent(templateName, blockType string) (Component, bool) {
	if t == nil {
		return nil, false
	}
	templateName = normaliseTemplate(templateName)
	blockType = normaliseType(blockType)
	if blockType == "" {
		return nil, false
	}

	t.mu.RLock()
	if component, ok := t.templates[templateName][blockType]; ok {
		t.mu.RUnlock()
		return component, true
	}
	if component, ok := t.templates[constants.DefaultTemplateName][blockType]; ok {
		t.mu.RUnlock()
		return component, true
	}
	t.mu.RUnlock()

	return t.base.Component(blockType)
}

// Overrides lists the block types a template overrides, sorted.
func (t *TemplateRegistry) Overrides(templateName string) []string {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	overrides := t.templates[normaliseTemplate(templateName)]
	result := make([]string, 0, len(overrides))
	for blockType := range overrides {
		result = append(result, blockType)
	}
	sort.Strings(result)
	return result
}

// Templates lists the names of templates with at least one override, sorted.
func (t *TemplateRegistry) Templates() []string {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]string, 0, len(t.templates))
	for name := range t.templates {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

func normaliseTemplate(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return constants.DefaultTemplateName
	}
	return value
}
