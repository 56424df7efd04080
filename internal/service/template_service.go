package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/internal/theme"
	"sitebuilder-backend/pkg/logger"
)

var (
	ErrTemplateManagerUnavailable = errors.New("template manager is not configured")
	ErrTemplateNotFound           = errors.New("template not found")
)

// TemplateService switches and reloads site templates. onChange runs after
// every successful change so rendered output can be refreshed.
type TemplateService struct {
	mu sync.Mutex

	manager         *theme.Manager
	defaultTemplate string
	onChange        func()
}

func NewTemplateService(manager *theme.Manager, defaultTemplate string, onChange func()) *TemplateService {
	return &TemplateService{
		manager:         manager,
		defaultTemplate: strings.ToLower(strings.TrimSpace(defaultTemplate)),
		onChange:        onChange,
	}
}

func (s *TemplateService) List() ([]models.TemplateSummary, error) {
	if s.manager == nil {
		return nil, ErrTemplateManagerUnavailable
	}
	return s.manager.Summaries(), nil
}

// Activate makes slug the fallback template. An empty slug restores the
// configured default.
func (s *TemplateService) Activate(slug string) (models.TemplateSummary, error) {
	if s.manager == nil {
		return models.TemplateSummary{}, ErrTemplateManagerUnavailable
	}

	cleaned := strings.ToLower(strings.TrimSpace(slug))
	if cleaned == "" {
		cleaned = s.defaultTemplate
	}
	if cleaned == "" {
		return models.TemplateSummary{}, errors.New("no template specified")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.manager.Resolve(cleaned); !ok {
		return models.TemplateSummary{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, cleaned)
	}
	if err := s.manager.Activate(cleaned); err != nil {
		return models.TemplateSummary{}, err
	}

	logger.Info("Template activated", map[string]interface{}{"template": cleaned})
	s.changed()

	return s.summary(cleaned)
}

// Reload re-reads a template from disk.
func (s *TemplateService) Reload(slug string) error {
	if s.manager == nil {
		return ErrTemplateManagerUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.manager.Reload(slug); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *TemplateService) summary(slug string) (models.TemplateSummary, error) {
	for _, summary := range s.manager.Summaries() {
		if summary.Name == slug {
			return summary, nil
		}
	}
	return models.TemplateSummary{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, slug)
}

func (s *TemplateService) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
