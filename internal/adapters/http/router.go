package httpadapter

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/akryukov/doc-vectorizer/internal/config"
	"github.com/akryukov/doc-vectorizer/internal/core/domain"
	"github.com/akryukov/doc-vectorizer/internal/core/ports"
	"github.com/akryukov/doc-vectorizer/internal/observability/metrics"
)

type Router struct {
	cfg     config.Config
	svc     ports.VectorizeService
	metrics *metrics.HTTPServerMetrics
	promh   http.Handler
}

func NewRouter(cfg config.Config, svc ports.VectorizeService, httpMetrics *metrics.HTTPServerMetrics, promHandler http.Handler) *Router {
	return &Router{
		cfg:     cfg,
		svc:     svc,
		metrics: httpMetrics,
		promh:   promHandler,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/tasks/vectorize", rt.submitTask)
	mux.HandleFunc("/v1/tasks", rt.listTasks)
	mux.HandleFunc("/v1/tasks/", rt.taskStatus)
	mux.HandleFunc("/v1/files/batch_vectorize", rt.batchVectorize)
	mux.HandleFunc("/v1/files/unvectorized", rt.listUnvectorized)
	mux.HandleFunc("/v1/files/", rt.fileStatus)
	mux.HandleFunc("/v1/documents/", rt.deleteDocument)
	if rt.promh != nil {
		mux.Handle("/metrics", rt.promh)
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) submitTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		FileID   string `json:"file_id"`
		FilePath string `json:"file_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.FileID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file_id is required"})
		return
	}

	rec, err := rt.svc.FileByID(r.Context(), req.FileID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	filePath := rec.FilePath
	if strings.TrimSpace(req.FilePath) != "" {
		filePath = req.FilePath
	}
	if _, err := os.Stat(filePath); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found on disk: " + filePath})
		return
	}

	if rec.Vectorized() {
		writeJSON(w, http.StatusOK, map[string]any{
			"already_vectorized": true,
			"file_id":            rec.FileID,
			"original_name":      rec.OriginalName,
			"vectorized_at":      rec.VectorizedAt,
		})
		return
	}

	file := domain.TaskFileFromRecord(rec)
	file.FilePath = filePath
	taskID := rt.svc.AddTask(file)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"task_id":       taskID,
		"file_id":       file.FileID,
		"original_name": file.OriginalName,
		"file_size":     file.FileSize,
		"file_type":     file.FileType,
	})
}

func (rt *Router) taskStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/tasks/")
	taskID, ok := strings.CutSuffix(rest, "/status")
	if !ok || taskID == "" || strings.Contains(taskID, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	snap, found := rt.svc.TaskStatus(taskID)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found: " + taskID})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (rt *Router) listTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	tasks := rt.svc.AllTasks()
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks":       tasks,
		"total_count": len(tasks),
	})
}

func (rt *Router) batchVectorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	taskIDs, err := rt.svc.EnqueueUnvectorized(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"files_processed": len(taskIDs),
		"task_ids":        taskIDs,
	})
}

func (rt *Router) listUnvectorized(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	files, err := rt.svc.UnvectorizedFiles(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"files":       files,
		"total_count": len(files),
	})
}

func (rt *Router) fileStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/files/")
	fileID, ok := strings.CutSuffix(rest, "/status")
	if !ok || fileID == "" || strings.Contains(fileID, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	rec, err := rt.svc.FileByID(r.Context(), fileID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	documentID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || documentID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id must be a positive integer"})
		return
	}

	if err := rt.svc.DeleteDocument(r.Context(), documentID); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "document_id": documentID})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
