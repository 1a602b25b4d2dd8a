// Package metrics exposes Prometheus collectors for the connection layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Shivanand-hulikatti/event-manager/internal/model"
)

const namespace = "emserver"

// Error stages recorded by ConnectionError.
const (
	StageRead   = "read"
	StageDecode = "decode"
	StageEncode = "encode"
	StageWrite  = "write"
	StageAccept = "accept"
)

// Metrics holds the server's collectors.
type Metrics struct {
	connections      prometheus.Counter
	connectionErrors *prometheus.CounterVec
	commands         *prometheus.CounterVec
	liveWorkers      prometheus.Gauge
}

// New registers the collectors with reg. A nil reg uses a private registry,
// which keeps tests independent of the global default.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		connections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted connections",
		}),
		connectionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_errors_total",
			Help:      "Total number of connections that failed, by stage",
		}, []string{"stage"}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of dispatched commands, by verb and status",
		}, []string{"verb", "status"}),
		liveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_workers",
			Help:      "Number of connection workers currently running",
		}),
	}
}

// ConnectionAccepted records an accepted connection.
func (m *Metrics) ConnectionAccepted() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

// ConnectionError records a failure at the given stage.
func (m *Metrics) ConnectionError(stage string) {
	if m == nil {
		return
	}
	m.connectionErrors.WithLabelValues(stage).Inc()
}

// Command records one dispatched command. Unknown verbs are labelled "unknown".
func (m *Metrics) Command(verb model.Verb, status model.Status) {
	if m == nil {
		return
	}
	label := string(verb)
	if label == "" {
		label = "unknown"
	}
	m.commands.WithLabelValues(label, status.String()).Inc()
}

// WorkerStarted and WorkerDone track the live worker gauge.
func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.liveWorkers.Inc()
}

func (m *Metrics) WorkerDone() {
	if m == nil {
		return
	}
	m.liveWorkers.Dec()
}
