package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"stepgen/internal/blob"
	"stepgen/internal/core"
	"stepgen/pkg/domain"
)

// serviceNeeds says which backends a command has to open.
type serviceNeeds struct {
	history   bool
	artifacts bool
}

// session is a configured service plus the resources to release after it.
type session struct {
	svc      *core.Service
	history  domain.HistoryStore
	registry *prometheus.Registry
	closers  []func() error
}

func (s *session) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *cli) openSession(ctx context.Context, needs serviceNeeds) (*session, error) {
	s := &session{registry: prometheus.NewRegistry()}
	metrics, err := core.NewPrometheusMetricsRecorder(s.registry)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	opts := []core.ServiceOption{core.WithLogger(c.logger), core.WithMetrics(metrics)}

	if c.traceOut != "" {
		f, err := os.Create(c.traceOut)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		s.closers = append(s.closers, f.Close)
		opts = append(opts, core.WithTracer(core.NewJSONTracer(f)))
	}
	if needs.history {
		store, err := core.OpenHistoryStore(ctx, c.storage)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open history store: %w", err)
		}
		s.history = store
		s.closers = append(s.closers, store.Close)
		opts = append(opts, core.WithHistoryStore(store))
	}
	if needs.artifacts {
		store, err := blob.Open(ctx, c.artifacts)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open artifact store: %w", err)
		}
		opts = append(opts, core.WithArtifactStore(store))
	}
	s.svc = core.NewService(opts...)
	return s, nil
}

// logMetrics writes the counters and histogram sample counts gathered
// during the session at debug level.
func (c *cli) logMetrics(s *session) {
	families, err := s.registry.Gather()
	if err != nil {
		c.logger.Warn("gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			sort.Strings(labels)
			value := m.GetCounter().GetValue()
			if h := m.GetHistogram(); h != nil {
				value = float64(h.GetSampleCount())
			}
			c.logger.Debug("metric", "name", mf.GetName(), "labels", strings.Join(labels, ","), "value", value)
		}
	}
}
