package domain

import "time"

// VectorizeStatus is the durable projection of a file's vectorization
// progress. Unlike the in-memory task record it survives process restarts.
type VectorizeStatus string

const (
	VectorizePending    VectorizeStatus = "pending"
	VectorizeProcessing VectorizeStatus = "processing"
	VectorizeCompleted  VectorizeStatus = "completed"
	VectorizeFailed     VectorizeStatus = "failed"
)

// FileRecord is the persisted description of an uploaded file. A nil
// VectorizeStatus means no vectorization was ever attempted.
type FileRecord struct {
	ID              int64            `json:"-"`
	FileID          string           `json:"file_id"`
	OriginalName    string           `json:"original_name"`
	FileName        string           `json:"file_name"`
	FilePath        string           `json:"file_path"`
	FileType        string           `json:"file_type"`
	FileSize        int64            `json:"file_size"`
	VectorizeStatus *VectorizeStatus `json:"vectorize_status"`
	VectorizedAt    *time.Time       `json:"vectorized_at"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Vectorized reports whether the file's durable status is completed.
func (f *FileRecord) Vectorized() bool {
	return f.VectorizeStatus != nil && *f.VectorizeStatus == VectorizeCompleted
}

// TaskFileFromRecord builds the immutable task input from a persisted file.
func TaskFileFromRecord(rec *FileRecord) TaskFile {
	return TaskFile{
		FileID:       rec.FileID,
		OriginalName: rec.OriginalName,
		FileName:     rec.FileName,
		FilePath:     rec.FilePath,
		FileType:     rec.FileType,
		FileSize:     rec.FileSize,
		CreatedAt:    rec.CreatedAt,
	}
}
