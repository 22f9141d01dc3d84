package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pdfchat/internal/model"
)

// DocumentRepository is the upload ledger: one row per accepted upload,
// keyed by the namespace (document id) for delete.
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.UploadedDocument) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create uploaded document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) List() ([]model.UploadedDocument, error) {
	var list []model.UploadedDocument
	if err := r.db.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list uploaded documents failed: %w", err)
	}
	return list, nil
}

// GetByNamespace returns nil, nil when no row matches; callers treat that
// as the not-found sentinel rather than an error.
func (r *DocumentRepository) GetByNamespace(namespace string) (*model.UploadedDocument, error) {
	var doc model.UploadedDocument
	if err := r.db.Where("pinecone_namespace = ?", namespace).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get uploaded document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) DeleteByNamespace(namespace string) error {
	if err := r.db.Where("pinecone_namespace = ?", namespace).Delete(&model.UploadedDocument{}).Error; err != nil {
		return fmt.Errorf("delete uploaded document failed: %w", err)
	}
	return nil
}
