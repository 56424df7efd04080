package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sitebuilder-backend/internal/models"
)

type DocumentRepository interface {
	Get(ctx context.Context, siteKey string) (*models.SiteDocumentRecord, error)
	Put(ctx context.Context, siteKey string, doc models.SiteDocument) (*models.SiteDocumentRecord, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Get returns the stored document, or gorm.ErrRecordNotFound.
func (r *documentRepository) Get(ctx context.Context, siteKey string) (*models.SiteDocumentRecord, error) {
	var record models.SiteDocumentRecord
	err := r.db.WithContext(ctx).First(&record, "site_key = ?", siteKey).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Put replaces the whole document and bumps its revision.
func (r *documentRepository) Put(ctx context.Context, siteKey string, doc models.SiteDocument) (*models.SiteDocumentRecord, error) {
	var record models.SiteDocumentRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "site_key = ?", siteKey).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			record = models.SiteDocumentRecord{SiteKey: siteKey, Document: doc, Revision: 1}
			return tx.Create(&record).Error
		case err != nil:
			return err
		}

		record.Document = doc
		record.Revision++
		return tx.Model(&record).Select("document", "revision", "updated_at").Updates(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}
