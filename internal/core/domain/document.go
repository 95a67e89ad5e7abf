package domain

import "time"

// Document is the full-text record persisted once per vectorization task.
type Document struct {
	ID        int64             `json:"id"`
	Filename  string            `json:"filename"`
	FilePath  string            `json:"file_path"`
	Content   string            `json:"content"`
	FileType  string            `json:"file_type"`
	FileSize  int64             `json:"file_size"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DocumentChunk is one text segment of a Document together with its
// embedding vector. Chunks are written in index order and never updated.
type DocumentChunk struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	Index      int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding"`
	CreatedAt  time.Time `json:"created_at"`
}
