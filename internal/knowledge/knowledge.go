package knowledge

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"pdfchat/internal/pkg/pdfextract"
	"pdfchat/internal/vectorstore"
)

const (
	defaultTopK        = 5
	embeddingBatchSize = 10 // most embedding APIs cap array input size
)

// Embedder produces embedding vectors for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the slice of the vector store the knowledge base needs.
type VectorIndex interface {
	Upsert(ctx context.Context, points []vectorstore.Point) error
	Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.Hit, error)
	CountByField(ctx context.Context, field, value string) (uint64, error)
	DeleteByField(ctx context.Context, field, value string) error
}

// Knowledge is the indexed document collection: it turns PDFs into embedded
// chunks on insert and answers similarity queries at chat time.
type Knowledge struct {
	embedder Embedder
	index    VectorIndex
}

func New(embedder Embedder, index VectorIndex) *Knowledge {
	return &Knowledge{embedder: embedder, index: index}
}

// InsertInput describes one document to index. Name is the document id;
// Metadata travels with every chunk as point payload.
type InsertInput struct {
	Name         string
	Path         string
	Metadata     map[string]string
	SkipIfExists bool
}

// Insert extracts the PDF text, chunks it, embeds each chunk and upserts
// the vectors. With SkipIfExists set, a document id that already has points
// in the index is left untouched.
func (k *Knowledge) Insert(ctx context.Context, input InsertInput) error {
	if input.SkipIfExists {
		count, err := k.index.CountByField(ctx, "document_id", input.Name)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
	}

	f, err := os.Open(input.Path)
	if err != nil {
		return fmt.Errorf("open document failed: %w", err)
	}
	defer f.Close()

	text, err := pdfextract.ExtractText(f)
	if err != nil {
		return fmt.Errorf("extract pdf text failed: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("document %s has no extractable text", input.Name)
	}

	chunks := chunkText(text, defaultChunkSize, defaultChunkOverlap)

	var points []vectorstore.Point
	for i := 0; i < len(chunks); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]
		embeddings, err := k.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("embed chunks failed: %w", err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(embeddings), len(batch))
		}
		for j := range batch {
			payload := map[string]string{"text": batch[j]}
			for mk, mv := range input.Metadata {
				payload[mk] = mv
			}
			points = append(points, vectorstore.Point{
				ID:      uuid.NewString(),
				Vector:  embeddings[j],
				Payload: payload,
			})
		}
	}

	return k.index.Upsert(ctx, points)
}

// Search embeds the query and returns the top matching chunks.
func (k *Knowledge) Search(ctx context.Context, query string, topK int) ([]vectorstore.Hit, error) {
	if topK <= 0 {
		topK = defaultTopK
	}
	vector, err := k.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}
	return k.index.Search(ctx, vector, topK)
}

// DeleteBySource removes every vector indexed from the named upload.
// Failures are logged, never propagated; the caller only sees false.
func (k *Knowledge) DeleteBySource(ctx context.Context, fileName string) bool {
	if err := k.index.DeleteByField(ctx, "source", fileName); err != nil {
		log.Printf("delete vectors for %s failed: %v", fileName, err)
		return false
	}
	return true
}
