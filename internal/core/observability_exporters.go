package core

import (
	"context"
	"encoding/json"
	"io"
	"maps"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports operation timings and simulation counts
// as Prometheus collectors.
type PrometheusMetricsRecorder struct {
	operations *prometheus.HistogramVec
	steps      *prometheus.CounterVec
	commands   prometheus.Counter
}

// NewPrometheusMetricsRecorder registers the recorder's collectors with reg.
// A nil reg uses a private registry, which is convenient in tests.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	rec := &PrometheusMetricsRecorder{
		operations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stepgen",
			Name:      "operation_duration_seconds",
			Help:      "Duration of service operations by outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation", "status"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepgen",
			Name:      "steps_total",
			Help:      "Protocol steps simulated, by result.",
		}, []string{"result"}),
		commands: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stepgen",
			Name:      "commands_total",
			Help:      "Robot commands generated.",
		}),
	}
	for _, c := range []prometheus.Collector{rec.operations, rec.steps, rec.commands} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.operations.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// RecordTimeline implements TimelineRecorder.
func (r *PrometheusMetricsRecorder) RecordTimeline(timeline Timeline) {
	r.steps.WithLabelValues("ok").Add(float64(len(timeline.Frames)))
	r.steps.WithLabelValues("error").Add(float64(len(timeline.Errors)))
	r.commands.Add(float64(len(timeline.Commands(false))))
}

// JSONTraceEntry is a finished span as written by JSONTracer.
type JSONTraceEntry struct {
	Operation  string            `json:"operation"`
	Status     string            `json:"status"`
	DurationMS float64           `json:"duration_ms"`
	Error      string            `json:"error,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	EndedAt    time.Time         `json:"ended_at"`
}

// JSONTracer writes finished spans as JSON lines and keeps them for
// inspection.
type JSONTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer constructs a tracer writing to w. A nil w only retains spans.
func NewJSONTracer(w io.Writer) *JSONTracer {
	t := &JSONTracer{}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns a copy of all finished spans.
func (t *JSONTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]JSONTraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Start implements Tracer.
func (t *JSONTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonSpan{tracer: t, operation: operation, started: time.Now().UTC()}
}

type jsonSpan struct {
	tracer    *JSONTracer
	operation string
	started   time.Time
	mu        sync.Mutex
	attrs     map[string]string
}

func (s *jsonSpan) SetAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attrs == nil {
		s.attrs = make(map[string]string)
	}
	s.attrs[key] = value
}

func (s *jsonSpan) End(err error) {
	ended := time.Now().UTC()
	entry := JSONTraceEntry{
		Operation:  s.operation,
		Status:     "success",
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		StartedAt:  s.started,
		EndedAt:    ended,
	}
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	}
	s.mu.Lock()
	entry.Attributes = maps.Clone(s.attrs)
	s.mu.Unlock()

	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.tracer.entries = append(s.tracer.entries, entry)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(entry)
	}
}
