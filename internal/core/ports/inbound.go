package ports

import (
	"context"

	"github.com/akryukov/doc-vectorizer/internal/core/domain"
)

// VectorizeService is the inbound contract between the HTTP layer and the
// task queue core.
type VectorizeService interface {
	AddTask(file domain.TaskFile) string
	TaskStatus(taskID string) (domain.TaskSnapshot, bool)
	AllTasks() map[string]domain.TaskSnapshot
	FileByID(ctx context.Context, fileID string) (*domain.FileRecord, error)
	UnvectorizedFiles(ctx context.Context) ([]domain.FileRecord, error)
	EnqueueUnvectorized(ctx context.Context) ([]string, error)
	DeleteDocument(ctx context.Context, documentID int64) error
}
