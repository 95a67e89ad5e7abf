package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/akryukov/doc-vectorizer/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) InsertDocument(ctx context.Context, doc *domain.Document) (int64, error) {
	var metadata any
	if doc.Metadata != nil {
		raw, err := json.Marshal(doc.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshal document metadata: %w", err)
		}
		metadata = raw
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO documents (filename, file_path, content, file_type, file_size, metadata)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id
`,
		doc.Filename, doc.FilePath, doc.Content, doc.FileType, doc.FileSize, metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

func (r *DocumentRepository) InsertChunk(ctx context.Context, chunk *domain.DocumentChunk) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO document_chunks (document_id, chunk_index, content, embedding)
VALUES ($1,$2,$3,$4)
RETURNING id
`,
		chunk.DocumentID, chunk.Index, chunk.Content, pgvector.NewVector(chunk.Embedding),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert document chunk: %w", err)
	}
	return id, nil
}

// DeleteDocument removes a document; its chunks go with it via the cascading
// foreign key.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, documentID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document rows: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", fmt.Errorf("document id=%d", documentID))
	}
	return nil
}
