package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the domain Prometheus metrics. Every method is safe on a nil
// receiver so services can record unconditionally.
type Metrics struct {
	WebSocketConnections prometheus.Gauge

	ProjectsCreated   prometheus.Counter
	ApprovalDecisions *prometheus.CounterVec
	TasksCreated      prometheus.Counter
	TaskEdits         prometheus.Counter
	CommentsSent      *prometheus.CounterVec
	RoleMigrations    *prometheus.CounterVec
}

var globalMetrics *Metrics

// InitMetrics registers the metrics with the default registry
func InitMetrics(connManager *ConnectionManager) *Metrics {
	metrics := &Metrics{
		WebSocketConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "collabhub_websocket_connections_active",
			Help: "Number of active notification WebSocket connections",
		}),
		ProjectsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collabhub_projects_created_total",
			Help: "Total number of projects created",
		}),
		ApprovalDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "collabhub_project_approval_decisions_total",
			Help: "Admin decisions on projects by status",
		}, []string{"status"}),
		TasksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collabhub_tasks_created_total",
			Help: "Total number of tasks created",
		}),
		TaskEdits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collabhub_task_edits_total",
			Help: "Total number of applied task edits",
		}),
		CommentsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "collabhub_comments_sent_total",
			Help: "Total number of comments by attachment presence",
		}, []string{"has_file"}),
		RoleMigrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "collabhub_role_migrations_total",
			Help: "Account role migrations by target role",
		}, []string{"role"}),
	}

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "collabhub_websocket_connections_current",
			Help: "Current number of WebSocket connections (from connection manager)",
		},
		func() float64 {
			if connManager != nil {
				return float64(connManager.Count())
			}
			return 0
		},
	))

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance (nil before InitMetrics)
func GetMetrics() *Metrics {
	return globalMetrics
}

func (m *Metrics) WebSocketConnected() {
	if m != nil {
		m.WebSocketConnections.Inc()
	}
}

func (m *Metrics) WebSocketDisconnected() {
	if m != nil {
		m.WebSocketConnections.Dec()
	}
}

func (m *Metrics) ProjectCreated() {
	if m != nil {
		m.ProjectsCreated.Inc()
	}
}

func (m *Metrics) ApprovalDecision(status string) {
	if m != nil {
		m.ApprovalDecisions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) TaskCreated() {
	if m != nil {
		m.TasksCreated.Inc()
	}
}

func (m *Metrics) TaskEdited() {
	if m != nil {
		m.TaskEdits.Inc()
	}
}

func (m *Metrics) CommentSent(hasFile bool) {
	if m == nil {
		return
	}
	label := "false"
	if hasFile {
		label = "true"
	}
	m.CommentsSent.WithLabelValues(label).Inc()
}

func (m *Metrics) RoleMigrated(role string) {
	if m != nil {
		m.RoleMigrations.WithLabelValues(role).Inc()
	}
}
