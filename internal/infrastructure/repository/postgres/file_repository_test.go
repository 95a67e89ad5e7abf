package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/akryukov/doc-vectorizer/internal/core/domain"
)

func newFileRepoWithMock(t *testing.T) (*FileRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &FileRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetFileByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newFileRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, file_id, original_name").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetFileByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetFileByIDScansNullableColumns(t *testing.T) {
	repo, mock, done := newFileRepoWithMock(t)
	defer done()

	created := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "file_id", "original_name", "file_name", "file_path",
		"file_type", "file_size", "vectorize_status", "vectorized_at", "created_at",
	}).AddRow(int64(1), "f-1", "report.txt", "f-1.txt", "/data/f-1.txt", "txt", int64(42), nil, nil, created)

	mock.ExpectQuery("SELECT id, file_id, original_name").
		WithArgs("f-1").
		WillReturnRows(rows)

	rec, err := repo.GetFileByID(context.Background(), "f-1")
	if err != nil {
		t.Fatalf("GetFileByID() error = %v", err)
	}
	if rec.VectorizeStatus != nil {
		t.Fatalf("expected nil status for never-vectorized file, got %v", *rec.VectorizeStatus)
	}
	if rec.VectorizedAt != nil {
		t.Fatalf("expected nil vectorized_at, got %v", rec.VectorizedAt)
	}
	if rec.Vectorized() {
		t.Fatalf("file without completed status must not report vectorized")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateVectorizeStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newFileRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE files").
		WithArgs("missing", string(domain.VectorizeProcessing), nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateVectorizeStatus(context.Background(), "missing", domain.VectorizeProcessing)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateVectorizeStatusSetsTimestampOnlyWhenCompleted(t *testing.T) {
	repo, mock, done := newFileRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE files").
		WithArgs("f-1", string(domain.VectorizeCompleted), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE files").
		WithArgs("f-1", string(domain.VectorizeFailed), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateVectorizeStatus(context.Background(), "f-1", domain.VectorizeCompleted); err != nil {
		t.Fatalf("UpdateVectorizeStatus(completed) error = %v", err)
	}
	if err := repo.UpdateVectorizeStatus(context.Background(), "f-1", domain.VectorizeFailed); err != nil {
		t.Fatalf("UpdateVectorizeStatus(failed) error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListUnvectorizedReturnsRecordsOldestFirst(t *testing.T) {
	repo, mock, done := newFileRepoWithMock(t)
	defer done()

	older := time.Now().UTC().Add(-time.Hour)
	newer := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "file_id", "original_name", "file_name", "file_path",
		"file_type", "file_size", "vectorize_status", "vectorized_at", "created_at",
	}).
		AddRow(int64(1), "f-1", "a.txt", "f-1.txt", "/data/f-1.txt", "txt", int64(10), nil, nil, older).
		AddRow(int64(2), "f-2", "b.txt", "f-2.txt", "/data/f-2.txt", "txt", int64(20), "failed", nil, newer)

	mock.ExpectQuery("SELECT id, file_id, original_name").
		WillReturnRows(rows)

	records, err := repo.ListUnvectorized(context.Background())
	if err != nil {
		t.Fatalf("ListUnvectorized() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].FileID != "f-1" || records[1].FileID != "f-2" {
		t.Fatalf("unexpected record order: %s, %s", records[0].FileID, records[1].FileID)
	}
	if records[1].VectorizeStatus == nil || *records[1].VectorizeStatus != domain.VectorizeFailed {
		t.Fatalf("expected failed status on second record")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
