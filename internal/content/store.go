package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/internal/repository"
)

// Store reads and writes the full site document. There is no partial
// update: Save always replaces the whole document.
type Store interface {
	Load(ctx context.Context) (models.SiteDocument, error)
	Save(ctx context.Context, doc models.SiteDocument) error
}

// SaveHook runs after a successful save.
type SaveHook func(ctx context.Context, doc models.SiteDocument)

// DatabaseStore keeps the document in Postgres, one row per site key.
type DatabaseStore struct {
	repo    repository.DocumentRepository
	siteKey string
}

func NewDatabaseStore(repo repository.DocumentRepository, siteKey string) *DatabaseStore {
	siteKey = strings.TrimSpace(siteKey)
	if siteKey == "" {
		siteKey = "default"
	}
	return &DatabaseStore{repo: repo, siteKey: siteKey}
}

// Load returns an empty document when nothing has been saved yet.
func (s *DatabaseStore) Load(ctx context.Context) (models.SiteDocument, error) {
	record, err := s.repo.Get(ctx, s.siteKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.SiteDocument{Pages: []models.PageContent{}}, nil
	}
	if err != nil {
		return models.SiteDocument{}, fmt.Errorf("load site document %s: %w", s.siteKey, err)
	}
	return record.Document, nil
}

func (s *DatabaseStore) Save(ctx context.Context, doc models.SiteDocument) error {
	if _, err := s.repo.Put(ctx, s.siteKey, doc); err != nil {
		return fmt.Errorf("save site document %s: %w", s.siteKey, err)
	}
	return nil
}

type hookedStore struct {
	Store
	hooks []SaveHook
}

// WithSaveHooks wraps store so hooks run after every successful save.
func WithSaveHooks(store Store, hooks ...SaveHook) Store {
	if len(hooks) == 0 {
		return store
	}
	return &hookedStore{Store: store, hooks: hooks}
}

func (s *hookedStore) Save(ctx context.Context, doc models.SiteDocument) error {
	if err := s.Store.Save(ctx, doc); err != nil {
		return err
	}
	for _, hook := range s.hooks {
		hook(ctx, doc)
	}
	return nil
}
