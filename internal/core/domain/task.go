package domain

import "time"

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Terminal reports whether the status is final. Terminal tasks are never
// transitioned again.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// TaskFile describes the file a vectorization task operates on. It is copied
// into the task at submission and never mutated afterwards.
type TaskFile struct {
	FileID       string    `json:"file_id"`
	OriginalName string    `json:"original_name"`
	FileName     string    `json:"file_name"`
	FilePath     string    `json:"file_path"`
	FileType     string    `json:"file_type"`
	FileSize     int64     `json:"file_size"`
	CreatedAt    time.Time `json:"created_at"`
}

// VectorizeTask is the in-memory lifecycle record of one vectorization job.
// The queue owns it: all mutation happens under the queue mutex, and callers
// only ever see Snapshot copies.
type VectorizeTask struct {
	ID              string
	File            TaskFile
	Status          TaskStatus
	Progress        float64
	ErrorMessage    string
	CreatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	ChunksTotal     int
	ChunksProcessed int
}

func NewVectorizeTask(id string, file TaskFile) *VectorizeTask {
	return &VectorizeTask{
		ID:        id,
		File:      file,
		Status:    TaskPending,
		CreatedAt: time.Now().UTC(),
	}
}

// TaskSnapshot is the read-only projection of a task handed to callers and
// progress observers.
type TaskSnapshot struct {
	TaskID          string     `json:"task_id"`
	FileID          string     `json:"file_id"`
	OriginalName    string     `json:"original_name"`
	Status          TaskStatus `json:"status"`
	Progress        float64    `json:"progress"`
	ErrorMessage    *string    `json:"error_message"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	ChunksTotal     int        `json:"chunks_total"`
	ChunksProcessed int        `json:"chunks_processed"`
}

func (t *VectorizeTask) Snapshot() TaskSnapshot {
	snap := TaskSnapshot{
		TaskID:          t.ID,
		FileID:          t.File.FileID,
		OriginalName:    t.File.OriginalName,
		Status:          t.Status,
		Progress:        t.Progress,
		CreatedAt:       t.CreatedAt,
		ChunksTotal:     t.ChunksTotal,
		ChunksProcessed: t.ChunksProcessed,
	}
	if t.ErrorMessage != "" {
		msg := t.ErrorMessage
		snap.ErrorMessage = &msg
	}
	if t.StartedAt != nil {
		started := *t.StartedAt
		snap.StartedAt = &started
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		snap.CompletedAt = &completed
	}
	return snap
}
