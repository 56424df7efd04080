package service

import (
	"sitebuilder-backend/internal/blocks"
	"sitebuilder-backend/internal/constants"
	"sitebuilder-backend/internal/models"
)

// TemplateCatalog lists installed site templates.
type TemplateCatalog interface {
	Summaries() []models.TemplateSummary
}

type EditorService struct {
	registry  *blocks.Registry
	templates TemplateCatalog
}

func NewEditorService(registry *blocks.Registry, templates TemplateCatalog) *EditorService {
	return &EditorService{registry: registry, templates: templates}
}

// GetPageBuilderConfig returns configuration for the page builder UI.
func (s *EditorService) GetPageBuilderConfig() models.PageBuilderConfig {
	config := models.PageBuilderConfig{
		AvailableBlocks:  []models.BlockTypeConfig{},
		Templates:        []models.TemplateSummary{},
		AnimationOptions: constants.BlockAnimationOptions(),
	}

	for _, entry := range s.registry.List() {
		config.AvailableBlocks = append(config.AvailableBlocks, models.BlockTypeConfig{
			Type:        entry.Type,
			Label:       entry.Label,
			Icon:        entry.Icon,
			Category:    entry.Category,
			Description: entry.Description,
			Editor:      entry.Editor,
		})
	}

	if s.templates != nil {
		config.Templates = append(config.Templates, s.templates.Summaries()...)
	}

	return config
}

// BlockTypeExists reports whether blockType is registered. It backs the
// block_type validation tag.
func (s *EditorService) BlockTypeExists(blockType string) bool {
	_, ok := s.registry.Lookup(blockType)
	return ok
}
