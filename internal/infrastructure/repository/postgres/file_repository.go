package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akryukov/doc-vectorizer/internal/core/domain"
)

type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// EnsureFileRecord inserts the file row if no record with the same file_id
// exists yet. Existing rows are left untouched.
func (r *FileRepository) EnsureFileRecord(ctx context.Context, file domain.TaskFile) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO files (file_id, original_name, file_name, file_path, file_type, file_size, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (file_id) DO NOTHING
`,
		file.FileID, file.OriginalName, file.FileName, file.FilePath, file.FileType, file.FileSize, file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ensure file record: %w", err)
	}
	return nil
}

func (r *FileRepository) GetFileByID(ctx context.Context, fileID string) (*domain.FileRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, file_id, original_name, file_name, file_path, file_type, file_size, vectorize_status, vectorized_at, created_at
FROM files
WHERE file_id = $1
`, fileID)

	var rec domain.FileRecord
	var status sql.NullString
	var vectorizedAt sql.NullTime

	err := row.Scan(
		&rec.ID, &rec.FileID, &rec.OriginalName, &rec.FileName, &rec.FilePath,
		&rec.FileType, &rec.FileSize, &status, &vectorizedAt, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFileNotFound, "get file by id", fmt.Errorf("file_id=%s", fileID))
		}
		return nil, fmt.Errorf("scan file record: %w", err)
	}

	if status.Valid {
		s := domain.VectorizeStatus(status.String)
		rec.VectorizeStatus = &s
	}
	if vectorizedAt.Valid {
		t := vectorizedAt.Time
		rec.VectorizedAt = &t
	}
	return &rec, nil
}

// UpdateVectorizeStatus writes the durable status mirror. The vectorized_at
// timestamp is set only when the status reaches completed.
func (r *FileRepository) UpdateVectorizeStatus(ctx context.Context, fileID string, status domain.VectorizeStatus) error {
	var vectorizedAt any
	if status == domain.VectorizeCompleted {
		vectorizedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE files
SET vectorize_status = $2, vectorized_at = $3
WHERE file_id = $1
`, fileID, string(status), vectorizedAt)
	if err != nil {
		return fmt.Errorf("update file vectorize status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update file vectorize status rows: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrFileNotFound, "update file vectorize status", fmt.Errorf("file_id=%s", fileID))
	}
	return nil
}

// ListUnvectorized returns files whose durable status is absent, pending or
// failed, oldest first.
func (r *FileRepository) ListUnvectorized(ctx context.Context) ([]domain.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, file_id, original_name, file_name, file_path, file_type, file_size, vectorize_status, vectorized_at, created_at
FROM files
WHERE vectorize_status IS NULL OR vectorize_status IN ('pending', 'failed')
ORDER BY created_at ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list unvectorized files: %w", err)
	}
	defer rows.Close()

	var records []domain.FileRecord
	for rows.Next() {
		var rec domain.FileRecord
		var status sql.NullString
		var vectorizedAt sql.NullTime
		if err := rows.Scan(
			&rec.ID, &rec.FileID, &rec.OriginalName, &rec.FileName, &rec.FilePath,
			&rec.FileType, &rec.FileSize, &status, &vectorizedAt, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan unvectorized file: %w", err)
		}
		if status.Valid {
			s := domain.VectorizeStatus(status.String)
			rec.VectorizeStatus = &s
		}
		if vectorizedAt.Valid {
			t := vectorizedAt.Time
			rec.VectorizedAt = &t
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unvectorized files: %w", err)
	}
	return records, nil
}
