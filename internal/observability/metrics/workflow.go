package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics observes skill synchronization and resume submission.
type WorkflowMetrics struct {
	registry *prometheus.Registry

	skillSyncTotal   *prometheus.CounterVec
	uploadTotal      *prometheus.CounterVec
	uploadDuration   *prometheus.HistogramVec
	uploadFilesTotal prometheus.Counter
}

func NewWorkflowMetrics(service string) *WorkflowMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	skillSyncTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "resumind",
			Subsystem:   "workflow",
			Name:        "skill_sync_total",
			Help:        "Skill set pushes to the server by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	uploadTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "resumind",
			Subsystem:   "workflow",
			Name:        "upload_total",
			Help:        "Resume submissions by status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	uploadDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "resumind",
			Subsystem:   "workflow",
			Name:        "upload_duration_seconds",
			Help:        "Resume submission duration in seconds by status.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	uploadFilesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "resumind",
			Subsystem:   "workflow",
			Name:        "uploaded_files_total",
			Help:        "Files accepted by successful submissions.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(skillSyncTotal, uploadTotal, uploadDuration, uploadFilesTotal)

	return &WorkflowMetrics{
		registry:         registry,
		skillSyncTotal:   skillSyncTotal,
		uploadTotal:      uploadTotal,
		uploadDuration:   uploadDuration,
		uploadFilesTotal: uploadFilesTotal,
	}
}

func (m *WorkflowMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// RecordSkillSync takes one of "success", "failure" or "stale".
func (m *WorkflowMetrics) RecordSkillSync(outcome string) {
	m.skillSyncTotal.WithLabelValues(outcome).Inc()
}

func (m *WorkflowMetrics) RecordUpload(files int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.uploadTotal.WithLabelValues(status).Inc()
	m.uploadDuration.WithLabelValues(status).Observe(duration.Seconds())
	if err == nil && files > 0 {
		m.uploadFilesTotal.Add(float64(files))
	}
}
