package vectorize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akryukov/doc-vectorizer/internal/core/domain"
)

// processTask drives one task end-to-end. Tasks are never cancelled once
// dequeued, so processing runs on a background context.
//
// Chunk rows written before a mid-task failure are deliberately left in
// place: partial writes are not rolled back.
func (q *Queue) processTask(task *domain.VectorizeTask, log *slog.Logger) {
	ctx := context.Background()

	q.mutate(task, func(t *domain.VectorizeTask) {
		now := time.Now().UTC()
		t.Status = domain.TaskProcessing
		t.StartedAt = &now
	})
	log.Info("task processing started", "task_id", task.ID, "file", task.File.OriginalName)

	if err := q.files.EnsureFileRecord(ctx, task.File); err != nil {
		q.failTask(ctx, task, log, fmt.Errorf("ensure file record: %w", err))
		return
	}
	if err := q.files.UpdateVectorizeStatus(ctx, task.File.FileID, domain.VectorizeProcessing); err != nil {
		q.failTask(ctx, task, log, fmt.Errorf("mark file processing: %w", err))
		return
	}

	content, err := q.reader.ReadText(ctx, task.File.FilePath)
	if err != nil {
		q.failTask(ctx, task, log, err)
		return
	}

	chunks := q.chunker.Split(content)
	q.mutate(task, func(t *domain.VectorizeTask) {
		t.ChunksTotal = len(chunks)
	})
	log.Info("file chunked", "task_id", task.ID, "chunks", len(chunks))

	if err := q.vectorizeChunks(ctx, task, chunks); err != nil {
		q.failTask(ctx, task, log, err)
		return
	}

	if err := q.files.UpdateVectorizeStatus(ctx, task.File.FileID, domain.VectorizeCompleted); err != nil {
		q.failTask(ctx, task, log, fmt.Errorf("mark file completed: %w", err))
		return
	}

	q.mutate(task, func(t *domain.VectorizeTask) {
		now := time.Now().UTC()
		t.Status = domain.TaskCompleted
		t.Progress = 100.0
		t.CompletedAt = &now
	})
	log.Info("task completed", "task_id", task.ID, "chunks", task.ChunksTotal)
}

// vectorizeChunks embeds chunks in fixed-size batches and persists one
// DocumentChunk row per chunk, advancing progress after every row.
func (q *Queue) vectorizeChunks(ctx context.Context, task *domain.VectorizeTask, chunks []string) error {
	if len(chunks) == 0 {
		return nil
	}

	doc := &domain.Document{
		Filename: task.File.OriginalName,
		FilePath: task.File.FilePath,
		Content:  strings.Join(chunks, "\n"),
		FileType: task.File.FileType,
		FileSize: task.File.FileSize,
	}
	docID, err := q.docs.InsertDocument(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	total := len(chunks)
	for start := 0; start < total; start += q.cfg.BatchSize {
		end := start + q.cfg.BatchSize
		if end > total {
			end = total
		}
		batch := chunks[start:end]

		vectors, err := q.embedder.Embed(ctx, batch)
		if err != nil {
			return fmt.Errorf("embed batch at chunk %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embed batch at chunk %d: vectors/chunks mismatch: %d/%d", start, len(vectors), len(batch))
		}

		for j, chunk := range batch {
			if _, err := q.docs.InsertChunk(ctx, &domain.DocumentChunk{
				DocumentID: docID,
				Index:      start + j,
				Content:    chunk,
				Embedding:  vectors[j],
			}); err != nil {
				return fmt.Errorf("insert chunk %d: %w", start+j, err)
			}

			q.mutate(task, func(t *domain.VectorizeTask) {
				t.ChunksProcessed++
				t.Progress = float64(t.ChunksProcessed) / float64(t.ChunksTotal) * 100
			})
		}
	}
	return nil
}

// failTask records the terminal failure and mirrors it to the durable file
// status. The mirror write is best-effort: the task record stays the source
// of truth.
func (q *Queue) failTask(ctx context.Context, task *domain.VectorizeTask, log *slog.Logger, taskErr error) {
	if err := q.files.UpdateVectorizeStatus(ctx, task.File.FileID, domain.VectorizeFailed); err != nil {
		log.Error("update durable file status failed", "task_id", task.ID, "file_id", task.File.FileID, "error", err)
	}

	q.mutate(task, func(t *domain.VectorizeTask) {
		now := time.Now().UTC()
		t.Status = domain.TaskFailed
		t.ErrorMessage = taskErr.Error()
		t.CompletedAt = &now
	})
	log.Error("task failed", "task_id", task.ID, "file", task.File.OriginalName, "error", taskErr)
}
