package vectorize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akryukov/doc-vectorizer/internal/core/domain"
	"github.com/akryukov/doc-vectorizer/internal/core/ports"
)

// Service is the seam between the HTTP layer and the task queue. One
// instance is constructed at startup and injected into every handler that
// needs it; it owns the queue lifecycle and the logging progress observer.
type Service struct {
	queue *Queue
	files ports.FileStore
	docs  ports.DocumentStore
	log   *slog.Logger
}

func NewService(queue *Queue, files ports.FileStore, docs ports.DocumentStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		queue: queue,
		files: files,
		docs:  docs,
		log:   log,
	}
	queue.AddProgressCallback(s.logProgress)
	return s
}

func (s *Service) Start() {
	s.queue.Start()
	s.log.Info("vectorize service started")
}

func (s *Service) Stop() {
	s.queue.Stop()
	s.log.Info("vectorize service stopped")
}

func (s *Service) AddTask(file domain.TaskFile) string {
	return s.queue.AddTask(file)
}

func (s *Service) TaskStatus(taskID string) (domain.TaskSnapshot, bool) {
	return s.queue.TaskStatus(taskID)
}

func (s *Service) AllTasks() map[string]domain.TaskSnapshot {
	return s.queue.AllTasks()
}

func (s *Service) FileByID(ctx context.Context, fileID string) (*domain.FileRecord, error) {
	return s.files.GetFileByID(ctx, fileID)
}

func (s *Service) UnvectorizedFiles(ctx context.Context) ([]domain.FileRecord, error) {
	return s.files.ListUnvectorized(ctx)
}

// EnqueueUnvectorized submits one task per file whose durable status is
// absent, pending or failed, and returns the generated task ids.
func (s *Service) EnqueueUnvectorized(ctx context.Context) ([]string, error) {
	records, err := s.files.ListUnvectorized(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unvectorized files: %w", err)
	}

	taskIDs := make([]string, 0, len(records))
	for i := range records {
		taskID := s.queue.AddTask(domain.TaskFileFromRecord(&records[i]))
		taskIDs = append(taskIDs, taskID)
	}
	return taskIDs, nil
}

// DeleteDocument removes a persisted document; its chunk rows cascade away
// with it. In-memory task records for the file are left untouched.
func (s *Service) DeleteDocument(ctx context.Context, documentID int64) error {
	if err := s.docs.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	s.log.Info("document deleted", "document_id", documentID)
	return nil
}

func (s *Service) logProgress(snap domain.TaskSnapshot) {
	switch snap.Status {
	case domain.TaskProcessing:
		s.log.Info("task progress",
			"task_id", snap.TaskID,
			"file", snap.OriginalName,
			"progress", fmt.Sprintf("%.1f", snap.Progress),
			"chunks_processed", snap.ChunksProcessed,
			"chunks_total", snap.ChunksTotal,
		)
	case domain.TaskFailed:
		errMsg := ""
		if snap.ErrorMessage != nil {
			errMsg = *snap.ErrorMessage
		}
		s.log.Warn("task status", "task_id", snap.TaskID, "file", snap.OriginalName, "status", snap.Status, "error", errMsg)
	default:
		s.log.Info("task status", "task_id", snap.TaskID, "file", snap.OriginalName, "status", snap.Status)
	}
}
