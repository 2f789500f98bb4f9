// Package metrics records the counters of one build run in its own
// Prometheus registry and exports them as a node-exporter textfile or to a
// Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Run holds the metrics of one build.
type Run struct {
	registry *prometheus.Registry

	Documents       prometheus.Counter
	Statements      *prometheus.CounterVec
	Flattened       *prometheus.CounterVec
	UnmatchedGroups *prometheus.CounterVec
	Anomalies       prometheus.Counter
	Vertices        *prometheus.CounterVec
	Edges           *prometheus.CounterVec
	Duration        prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// NewRun creates the metrics of a run labeled with its id.
func NewRun(runID string) *Run {
	reg := prometheus.NewRegistry()
	f := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"run_id": runID}, reg))

	return &Run{
		registry: reg,
		Documents: f.NewCounter(prometheus.CounterOpts{
			Name: "ontokn_documents_total",
			Help: "Ontology documents decoded",
		}),
		Statements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ontokn_statements_total",
			Help: "Statements decoded, by source and node kind bucket",
		}, []string{"source", "bucket"}),
		Flattened: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ontokn_flattened_groups_total",
			Help: "Blank-node groups flattened, by pattern",
		}, []string{"pattern"}),
		UnmatchedGroups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ontokn_unmatched_groups_total",
			Help: "Blank-node groups matching no pattern, by source",
		}, []string{"source"}),
		Anomalies: f.NewCounter(prometheus.CounterOpts{
			Name: "ontokn_flatten_anomalies_total",
			Help: "Statements inside flattened groups that were not recognized",
		}),
		Vertices: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ontokn_vertices_total",
			Help: "Vertices loaded, by outcome",
		}, []string{"outcome"}),
		Edges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ontokn_edges_total",
			Help: "Edges loaded, by outcome",
		}, []string{"outcome"}),
		Duration: f.NewGauge(prometheus.GaugeOpts{
			Name: "ontokn_run_duration_seconds",
			Help: "Wall time of the run",
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "ontokn_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
	}
}

// Registry returns the registry holding the run metrics.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// Finish records the run duration and, when ok, the success time.
func (r *Run) Finish(started time.Time, ok bool) {
	now := time.Now()
	r.Duration.Set(now.Sub(started).Seconds())
	if ok {
		r.LastSuccess.Set(float64(now.Unix()))
	}
}

// WriteTextfile writes the metrics in the text exposition format for the
// node-exporter textfile collector.
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Push sends the metrics to a Pushgateway, replacing the job's group.
func (r *Run) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
