package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"sitebuilder-backend/internal/content"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/pkg/logger"
)

//go:embed data/site.json
var defaultSite []byte

// DefaultDocument returns the starter site shipped with the binary.
func DefaultDocument() (models.SiteDocument, error) {
	var doc models.SiteDocument
	if err := json.Unmarshal(defaultSite, &doc); err != nil {
		return models.SiteDocument{}, fmt.Errorf("failed to parse embedded site: %w", err)
	}
	return doc, nil
}

// EnsureDefaultDocument stores the starter site when the store holds no pages.
// It reports whether the starter site was written.
func EnsureDefaultDocument(ctx context.Context, store content.Store) (bool, error) {
	current, err := store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load site content: %w", err)
	}
	if len(current.Pages) > 0 {
		return false, nil
	}

	doc, err := DefaultDocument()
	if err != nil {
		return false, err
	}

	if err := store.Save(ctx, doc); err != nil {
		return false, fmt.Errorf("failed to store starter site: %w", err)
	}

	logger.Info("Seeded starter site", map[string]interface{}{"pages": len(doc.Pages)})
	return true, nil
}
