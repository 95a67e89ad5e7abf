package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/akryukov/doc-vectorizer/internal/core/domain"
)

// TaskMetrics instruments the vectorization queue. It observes the queue
// exclusively through a registered progress callback, so the queue itself
// carries no metrics dependency.
type TaskMetrics struct {
	registry *prometheus.Registry

	tasksTotal      *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
	tasksInFlight   prometheus.Gauge
	chunksProcessed prometheus.Counter
	queueWait       prometheus.Histogram
}

func NewTaskMetrics(service string) *TaskMetrics {
	registry := prometheus.NewRegistry()

	tasksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docvec",
			Subsystem: "tasks",
			Name:      "total",
			Help:      "Total finished vectorization tasks by status.",
		},
		[]string{"service", "status"},
	)
	taskDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docvec",
			Subsystem: "tasks",
			Name:      "duration_seconds",
			Help:      "Vectorization task duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	tasksInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docvec",
			Subsystem: "tasks",
			Name:      "in_flight",
			Help:      "Number of tasks currently being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chunksProcessed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docvec",
			Subsystem: "tasks",
			Name:      "chunks_processed_total",
			Help:      "Total persisted chunk embeddings.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueWait := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docvec",
			Subsystem: "tasks",
			Name:      "queue_wait_seconds",
			Help:      "Delay between task submission and processing start.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(tasksTotal, taskDuration, tasksInFlight, chunksProcessed, queueWait)

	return &TaskMetrics{
		registry:        registry,
		tasksTotal:      tasksTotal,
		taskDuration:    taskDuration,
		tasksInFlight:   tasksInFlight,
		chunksProcessed: chunksProcessed,
		queueWait:       queueWait,
	}
}

func (m *TaskMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ProgressCallback returns a queue observer that derives counter increments
// from successive task snapshots.
func (m *TaskMetrics) ProgressCallback(service string) func(domain.TaskSnapshot) {
	rec := &progressRecorder{
		metrics:   m,
		service:   service,
		processed: make(map[string]int),
	}
	return rec.observe
}

type progressRecorder struct {
	metrics *TaskMetrics
	service string

	mu        sync.Mutex
	processed map[string]int
}

func (r *progressRecorder) observe(snap domain.TaskSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case snap.Status == domain.TaskProcessing:
		last, seen := r.processed[snap.TaskID]
		if !seen {
			r.processed[snap.TaskID] = 0
			r.metrics.tasksInFlight.Inc()
			if snap.StartedAt != nil {
				r.metrics.queueWait.Observe(snap.StartedAt.Sub(snap.CreatedAt).Seconds())
			}
			last = 0
		}
		if delta := snap.ChunksProcessed - last; delta > 0 {
			r.metrics.chunksProcessed.Add(float64(delta))
			r.processed[snap.TaskID] = snap.ChunksProcessed
		}

	case snap.Status.Terminal():
		if _, seen := r.processed[snap.TaskID]; seen {
			r.metrics.tasksInFlight.Dec()
			delete(r.processed, snap.TaskID)
		}
		r.metrics.tasksTotal.WithLabelValues(r.service, string(snap.Status)).Inc()
		if snap.StartedAt != nil && snap.CompletedAt != nil {
			r.metrics.taskDuration.WithLabelValues(r.service, string(snap.Status)).
				Observe(snap.CompletedAt.Sub(*snap.StartedAt).Seconds())
		}
	}
}
