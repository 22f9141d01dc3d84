package app

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdfchat/internal/knowledge"
	"pdfchat/internal/model"
	"pdfchat/internal/repository"
)

var (
	ErrInvalidDocument = errors.New("invalid pdf document")
	ErrNotFound        = errors.New("file not found")
)

// Indexer is the external indexing capability the ingestor hands documents to.
type Indexer interface {
	Insert(ctx context.Context, input knowledge.InsertInput) error
	DeleteBySource(ctx context.Context, fileName string) bool
}

// IngestService validates uploads, stores the blob on disk, indexes it and
// records the ledger row. The three writes are not coupled by a transaction:
// an indexing failure after the disk write leaves the blob orphaned.
type IngestService struct {
	ledger    *repository.DocumentRepository
	indexer   Indexer
	uploadDir string
}

func NewIngestService(ledger *repository.DocumentRepository, indexer Indexer, uploadDir string) (*IngestService, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}
	return &IngestService{
		ledger:    ledger,
		indexer:   indexer,
		uploadDir: uploadDir,
	}, nil
}

// Ingest accepts one PDF upload. The minted document id doubles as the
// vector-store namespace and the ledger key; the stored blob is named
// {document_id}_{file_name} so concurrent uploads never collide.
func (s *IngestService) Ingest(ctx context.Context, fileName string, content []byte) (*model.UploadedDocument, error) {
	if !strings.HasSuffix(strings.ToLower(fileName), ".pdf") || len(content) == 0 {
		return nil, ErrInvalidDocument
	}

	documentID := newDocumentID()
	filePath := filepath.Join(s.uploadDir, documentID+"_"+fileName)

	if err := os.WriteFile(filePath, content, 0o644); err != nil {
		return nil, fmt.Errorf("write upload to disk failed: %w", err)
	}

	if err := s.indexer.Insert(ctx, knowledge.InsertInput{
		Name: documentID,
		Path: filePath,
		Metadata: map[string]string{
			"document_id": documentID,
			"source":      fileName,
		},
		SkipIfExists: true,
	}); err != nil {
		return nil, fmt.Errorf("index document failed: %w", err)
	}

	doc := &model.UploadedDocument{
		FileName:  fileName,
		FilePath:  filePath,
		Namespace: documentID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ledger.Create(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns the ledger, newest upload first.
func (s *IngestService) List(ctx context.Context) ([]model.UploadedDocument, error) {
	return s.ledger.List()
}

// Delete removes the ledger row, the disk blob and the indexed vectors.
// Best effort, in that order; an absent ledger row or a failed vector
// delete both surface as ErrNotFound.
func (s *IngestService) Delete(ctx context.Context, documentID, fileName string) error {
	doc, err := s.ledger.GetByNamespace(documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}

	if err := s.ledger.DeleteByNamespace(documentID); err != nil {
		return err
	}
	if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stored file failed: %w", err)
	}

	if !s.indexer.DeleteBySource(ctx, fileName) {
		return ErrNotFound
	}
	return nil
}

// newDocumentID mints "doc_" + 32 hex chars from a random 128-bit uuid.
func newDocumentID() string {
	id := uuid.New()
	return "doc_" + hex.EncodeToString(id[:])
}
