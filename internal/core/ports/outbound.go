package ports

import (
	"context"

	"github.com/akryukov/doc-vectorizer/internal/core/domain"
)

// ContentReader reads the raw text of a source file.
type ContentReader interface {
	ReadText(ctx context.Context, path string) (string, error)
}

// Chunker splits raw text into overlapping chunks.
type Chunker interface {
	Split(text string) []string
}

// Embedder converts a batch of texts into vectors, same length and order as
// the input. Batch size is decided by the caller.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// FileStore persists and reads durable file state.
type FileStore interface {
	EnsureFileRecord(ctx context.Context, file domain.TaskFile) error
	GetFileByID(ctx context.Context, fileID string) (*domain.FileRecord, error)
	UpdateVectorizeStatus(ctx context.Context, fileID string, status domain.VectorizeStatus) error
	ListUnvectorized(ctx context.Context) ([]domain.FileRecord, error)
}

// DocumentStore persists documents and their chunk/embedding rows.
type DocumentStore interface {
	InsertDocument(ctx context.Context, doc *domain.Document) (int64, error)
	InsertChunk(ctx context.Context, chunk *domain.DocumentChunk) (int64, error)
	DeleteDocument(ctx context.Context, documentID int64) error
}
