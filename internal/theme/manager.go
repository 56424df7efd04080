package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"sitebuilder-backend/internal/blocks"
	"sitebuilder-backend/internal/constants"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/pkg/logger"
)

// Metadata describes a site template as declared in its manifest.
type Metadata struct {
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	Version      string `json:"version" yaml:"version"`
	Author       string `json:"author" yaml:"author"`
	PreviewImage string `json:"preview_image" yaml:"preview_image"`
}

// Template is a site template directory: optional block overrides, an
// optional page layout and static assets.
type Template struct {
	Slug      string
	Path      string
	BlocksDir string
	StaticDir string
	Metadata  Metadata
	Layout    *template.Template
	Overrides map[string]blocks.Component
	LoadedAt  time.Time
}

// Manager discovers site templates and installs their block overrides into
// the template override registry.
type Manager struct {
	baseDir   string
	overrides *blocks.TemplateRegistry

	mu        sync.RWMutex
	templates map[string]*Template
	active    *Template
}

// NewManager loads every template directory under baseDir.
func NewManager(baseDir string, overrides *blocks.TemplateRegistry) (*Manager, error) {
	cleaned := filepath.Clean(strings.TrimSpace(baseDir))
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("templates directory is required")
	}
	if overrides == nil {
		return nil, errors.New("template override registry is required")
	}

	info, err := os.Stat(cleaned)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("templates path must be a directory")
	}

	entries, err := os.ReadDir(cleaned)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		baseDir:   cleaned,
		overrides: overrides,
		templates: make(map[string]*Template),
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		tmpl, loadErr := m.loadTemplate(filepath.Join(cleaned, entry.Name()), entry.Name())
		if loadErr != nil {
			return nil, loadErr
		}
		m.templates[tmpl.Slug] = tmpl
		overrides.ReplaceTemplate(tmpl.Slug, tmpl.Overrides)
	}

	if len(m.templates) == 0 {
		return nil, errors.New("no templates found")
	}

	if def, ok := m.templates[constants.DefaultTemplateName]; ok {
		m.active = def
	}

	return m, nil
}

// BaseDir returns the directory templates are loaded from.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// List returns the loaded templates sorted by display name.
func (m *Manager) List() []*Template {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Template, 0, len(m.templates))
	for _, tmpl := range m.templates {
		list = append(list, tmpl)
	}

	sort.Slice(list, func(i, j int) bool {
		left := strings.ToLower(list[i].Metadata.Name)
		right := strings.ToLower(list[j].Metadata.Name)
		if left == right {
			return list[i].Slug < list[j].Slug
		}
		return left < right
	})

	return list
}

// Summaries describes the loaded templates for the builder UI.
func (m *Manager) Summaries() []models.TemplateSummary {
	list := m.List()
	active := m.Active()
	summaries := make([]models.TemplateSummary, 0, len(list))
	for _, tmpl := range list {
		summaries = append(summaries, models.TemplateSummary{
			Name:        tmpl.Slug,
			Label:       tmpl.Metadata.Name,
			Description: tmpl.Metadata.Description,
			Overrides:   m.overrides.Overrides(tmpl.Slug),
			Active:      active != nil && active.Slug == tmpl.Slug,
		})
	}
	return summaries
}

// Active returns the template used when a site does not choose one.
func (m *Manager) Active() *Template {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Activate makes slug the fallback template.
func (m *Manager) Activate(slug string) error {
	cleaned := strings.ToLower(strings.TrimSpace(slug))
	if cleaned == "" {
		return errors.New("template slug is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tmpl, ok := m.templates[cleaned]
	if !ok {
		return errors.New("template not found: " + cleaned)
	}

	m.active = tmpl
	return nil
}

// Resolve returns the template with slug.
func (m *Manager) Resolve(slug string) (*Template, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tmpl, ok := m.templates[strings.ToLower(strings.TrimSpace(slug))]
	return tmpl, ok
}

// Layout returns the page layout for slug, falling back to the active
// template's layout. Nil means the built-in layout should be used.
func (m *Manager) Layout(slug string) *template.Template {
	if m == nil {
		return nil
	}
	if tmpl, ok := m.Resolve(slug); ok && tmpl.Layout != nil {
		return tmpl.Layout
	}
	if active := m.Active(); active != nil {
		return active.Layout
	}
	return nil
}

// Reload re-reads one template from disk and swaps its overrides. A template
// whose directory disappeared is removed.
func (m *Manager) Reload(slug string) error {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return errors.New("template slug is required")
	}

	path := filepath.Join(m.baseDir, slug)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		m.mu.Lock()
		delete(m.templates, slug)
		if m.active != nil && m.active.Slug == slug {
			m.active = nil
		}
		m.mu.Unlock()
		m.overrides.ReplaceTemplate(slug, nil)
		logger.Info("Template removed", map[string]interface{}{"template": slug})
		return nil
	}

	tmpl, err := m.loadTemplate(path, slug)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.templates[slug] = tmpl
	if m.active == nil || m.active.Slug == slug {
		m.active = tmpl
	}
	m.mu.Unlock()
	m.overrides.ReplaceTemplate(slug, tmpl.Overrides)

	logger.Info("Template reloaded", map[string]interface{}{
		"template":  slug,
		"overrides": len(tmpl.Overrides),
	})
	return nil
}

func (m *Manager) loadTemplate(templatePath, slug string) (*Template, error) {
	info, err := os.Stat(templatePath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("invalid template directory: " + templatePath)
	}

	slugValue := strings.ToLower(strings.TrimSpace(slug))
	if slugValue == "" {
		slugValue = slug
	}

	metadata, err := readMetadata(templatePath)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", slugValue, err)
	}
	if metadata.Name == "" {
		metadata.Name = humanizeSlug(slugValue)
	}

	tmpl := &Template{
		Slug:      slugValue,
		Path:      templatePath,
		BlocksDir: filepath.Join(templatePath, "blocks"),
		StaticDir: filepath.Join(templatePath, "static"),
		Metadata:  metadata,
		LoadedAt:  time.Now(),
	}

	funcs := templateFuncs(tmpl)

	tmpl.Overrides, err = loadBlockOverrides(tmpl.BlocksDir, funcs)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", slugValue, err)
	}

	tmpl.Layout, err = loadLayout(templatePath, funcs)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", slugValue, err)
	}

	return tmpl, nil
}

// readMetadata reads template.yaml, template.yml or template.json, in that order.
func readMetadata(templatePath string) (Metadata, error) {
	candidates := []struct {
		name      string
		unmarshal func([]byte, interface{}) error
	}{
		{name: "template.yaml", unmarshal: yaml.Unmarshal},
		{name: "template.yml", unmarshal: yaml.Unmarshal},
		{name: "template.json", unmarshal: json.Unmarshal},
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(filepath.Join(templatePath, candidate.name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Metadata{}, err
		}

		var metadata Metadata
		if err := candidate.unmarshal(data, &metadata); err != nil {
			return Metadata{}, fmt.Errorf("parse %s: %w", candidate.name, err)
		}
		return metadata, nil
	}

	return Metadata{}, nil
}

// AssetModTime returns the modification time of a file under the template's
// static directory, addressed as "static/...".
func (t *Template) AssetModTime(path string) (time.Time, error) {
	cleaned := strings.TrimSpace(path)
	if cleaned == "" {
		return time.Time{}, errors.New("asset path is required")
	}

	trimmed := strings.TrimPrefix(cleaned, "./")
	trimmed = strings.TrimPrefix(trimmed, "/")

	if !strings.HasPrefix(trimmed, "static/") {
		return time.Time{}, os.ErrNotExist
	}

	relative := strings.TrimPrefix(trimmed, "static/")
	full := filepath.Join(t.StaticDir, filepath.FromSlash(relative))
	if !strings.HasPrefix(full, filepath.Clean(t.StaticDir)+string(os.PathSeparator)) {
		return time.Time{}, os.ErrNotExist
	}
	info, err := os.Stat(full)
	if err != nil {
		return time.Time{}, err
	}

	return info.ModTime(), nil
}

func humanizeSlug(value string) string {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return "Template"
	}

	parts := strings.FieldsFunc(cleaned, func(r rune) bool {
		switch r {
		case '-', '_', ' ':
			return true
		default:
			return false
		}
	})

	if len(parts) == 0 {
		parts = []string{cleaned}
	}

	for i, part := range parts {
		runes := []rune(strings.ToLower(part))
		if len(runes) == 0 {
			continue
		}
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}

	return strings.Join(parts, " ")
}
