package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stepgen/internal/blob"
	"stepgen/pkg/domain"
)

// EngineVersion is recorded in history entries and exported artifacts.
const EngineVersion = "0.4.0"

// ArtifactPrefix is the key prefix exported timelines are written under.
const ArtifactPrefix = "timelines/"

// DefaultBatchLimit bounds SimulateBatch concurrency when no limit is given.
const DefaultBatchLimit = 4

var (
	// ErrNoHistoryStore is returned when recording is requested without a history store.
	ErrNoHistoryStore = errors.New("no history store configured")
	// ErrNoArtifactStore is returned when exporting is requested without an artifact store.
	ErrNoArtifactStore = errors.New("no artifact store configured")
)

// ErrNotFound is returned when a run's artifact does not exist.
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Service runs protocols through the step generator and records the outcome.
type Service struct {
	steps         *StepRegistry
	history       domain.HistoryStore
	artifacts     blob.Store
	logger        Logger
	clock         Clock
	metrics       MetricsRecorder
	tracer        Tracer
	engineVersion string
	newRunID      func() string
}

// ServiceOption customizes a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	steps         *StepRegistry
	history       domain.HistoryStore
	artifacts     blob.Store
	logger        Logger
	clock         Clock
	metrics       MetricsRecorder
	tracer        Tracer
	engineVersion string
	newRunID      func() string
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		logger:        noopLogger{},
		clock:         systemClock{},
		metrics:       noopMetrics{},
		tracer:        noopTracer{},
		engineVersion: EngineVersion,
		newRunID:      func() string { return uuid.NewString() },
	}
}

// WithLogger sets the structured logger. Nil is ignored.
func WithLogger(l Logger) ServiceOption {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(c Clock) ServiceOption {
	return func(o *serviceOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithHistoryStore enables recording runs.
func WithHistoryStore(h domain.HistoryStore) ServiceOption {
	return func(o *serviceOptions) { o.history = h }
}

// WithArtifactStore enables exporting timelines.
func WithArtifactStore(s blob.Store) ServiceOption {
	return func(o *serviceOptions) { o.artifacts = s }
}

// WithStepRegistry replaces the default step registry.
func WithStepRegistry(r *StepRegistry) ServiceOption {
	return func(o *serviceOptions) {
		if r != nil {
			o.steps = r
		}
	}
}

// WithEngineVersion overrides the version stamped on history and artifacts.
func WithEngineVersion(v string) ServiceOption {
	return func(o *serviceOptions) {
		if v != "" {
			o.engineVersion = v
		}
	}
}

// WithRunIDGenerator overrides run id generation.
func WithRunIDGenerator(fn func() string) ServiceOption {
	return func(o *serviceOptions) {
		if fn != nil {
			o.newRunID = fn
		}
	}
}

// NewService constructs a service. Without options it simulates only:
// recording and exporting need a history or artifact store.
func NewService(opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.steps == nil {
		o.steps = NewDefaultStepRegistry()
	}
	return &Service{
		steps:         o.steps,
		history:       o.history,
		artifacts:     o.artifacts,
		logger:        o.logger,
		clock:         o.clock,
		metrics:       o.metrics,
		tracer:        o.tracer,
		engineVersion: o.engineVersion,
		newRunID:      o.newRunID,
	}
}

// Steps returns the registry protocol steps are decoded with.
func (s *Service) Steps() *StepRegistry { return s.steps }

// SimulateOptions configures one simulation.
type SimulateOptions struct {
	ContinueOnError bool
	StripNoOp       bool
	Record          bool
	Export          bool
}

// SimulationRun is the outcome of Simulate.
type SimulationRun struct {
	RunID       string
	Name        string
	ContentHash string
	Timeline    Timeline
	Commands    []domain.Command
	History     *domain.HistoryEntry
	ArtifactKey string
}

// OK reports whether every step succeeded.
func (r SimulationRun) OK() bool { return r.Timeline.OK() }

// TimelineArtifact is the exported form of a run.
type TimelineArtifact struct {
	RunID         string             `json:"runId"`
	Name          string             `json:"name"`
	ContentHash   string             `json:"contentHash,omitempty"`
	SchemaVersion string             `json:"schemaVersion"`
	EngineVersion string             `json:"engineVersion"`
	Commands      domain.CommandList `json:"commands"`
	Errors        json.RawMessage    `json:"errors"`
}

// ArtifactKey returns the blob key a run's timeline is exported to.
func ArtifactKey(runID string) string {
	return ArtifactPrefix + runID + ".json"
}

// Simulate runs a decoded protocol. Step failures are reported in the
// returned timeline; the error return is reserved for setup and I/O.
func (s *Service) Simulate(ctx context.Context, loaded LoadedProtocol, opts SimulateOptions) (run SimulationRun, err error) {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, "simulate")
	defer func() {
		span.End(err)
		s.metrics.Observe(ctx, "simulate", err == nil, s.clock.Now().Sub(start))
	}()

	protocol := loaded.Protocol
	span.SetAttribute("protocol", protocol.Name)
	if opts.Record && s.history == nil {
		return SimulationRun{}, ErrNoHistoryStore
	}
	if opts.Export && s.artifacts == nil {
		return SimulationRun{}, ErrNoArtifactStore
	}
	initial, err := protocol.StartingState()
	if err != nil {
		return SimulationRun{}, fmt.Errorf("starting state: %w", err)
	}

	run = SimulationRun{RunID: s.newRunID(), Name: protocol.Name, ContentHash: loaded.ContentHash}
	span.SetAttribute("run_id", run.RunID)
	creators := s.steps.BuildAll(protocol.Steps)
	run.Timeline = CommandCreatorsTimeline(creators, protocol.InvariantContext, initial, TimelineOptions{ContinueOnError: opts.ContinueOnError})
	run.Commands = run.Timeline.Commands(opts.StripNoOp)
	if rec, ok := s.metrics.(TimelineRecorder); ok {
		rec.RecordTimeline(run.Timeline)
	}
	s.logger.Info("protocol simulated",
		"run_id", run.RunID,
		"protocol", protocol.Name,
		"steps", len(protocol.Steps),
		"commands", len(run.Commands),
		"errors", run.Timeline.ErrorCount())

	if opts.Export {
		key, err := s.export(ctx, run, protocol)
		if err != nil {
			return run, err
		}
		run.ArtifactKey = key
	}
	if opts.Record {
		entry, err := s.history.Add(ctx, domain.HistoryEntry{
			RunID:         run.RunID,
			Name:          protocol.Name,
			Author:        protocol.Author,
			ContentHash:   loaded.ContentHash,
			SchemaVersion: protocol.SchemaVersion,
			EngineVersion: s.engineVersion,
			CommandCount:  len(run.Commands),
			ErrorCount:    run.Timeline.ErrorCount(),
			Halted:        run.Timeline.Halted(),
			CreatedAt:     s.clock.Now(),
		})
		if err != nil {
			if run.ArtifactKey != "" {
				s.discardArtifact(ctx, run.ArtifactKey)
				run.ArtifactKey = ""
			}
			return run, fmt.Errorf("record run %s: %w", run.RunID, err)
		}
		run.History = &entry
	}
	return run, nil
}

// SimulateFile loads the protocol at path and simulates it.
func (s *Service) SimulateFile(ctx context.Context, path string, opts SimulateOptions) (SimulationRun, error) {
	loaded, err := LoadProtocolFile(path)
	if err != nil {
		s.logger.Error("load protocol failed", "path", path, "error", err)
		return SimulationRun{}, err
	}
	return s.Simulate(ctx, loaded, opts)
}

// SimulateBatch simulates independent protocol files concurrently, at most
// limit at a time. Results are returned in input order. The first error
// cancels the remaining work.
func (s *Service) SimulateBatch(ctx context.Context, paths []string, opts SimulateOptions, limit int) ([]SimulationRun, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	runs := make([]SimulationRun, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			run, err := s.SimulateFile(gctx, path, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// History returns recorded runs matching query, ordered by id.
func (s *Service) History(ctx context.Context, query domain.HistoryQuery) ([]domain.HistoryEntry, error) {
	if s.history == nil {
		return nil, ErrNoHistoryStore
	}
	entries, err := s.history.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return entries, nil
}

// Artifact reads back the exported timeline of a run.
func (s *Service) Artifact(ctx context.Context, runID string) (TimelineArtifact, error) {
	if s.artifacts == nil {
		return TimelineArtifact{}, ErrNoArtifactStore
	}
	_, rc, err := s.artifacts.Get(ctx, ArtifactKey(runID))
	if errors.Is(err, blob.ErrNotFound) {
		return TimelineArtifact{}, ErrNotFound{Kind: "artifact", ID: runID}
	}
	if err != nil {
		return TimelineArtifact{}, fmt.Errorf("read artifact %s: %w", runID, err)
	}
	defer rc.Close()
	var artifact TimelineArtifact
	if err := json.NewDecoder(rc).Decode(&artifact); err != nil {
		return TimelineArtifact{}, fmt.Errorf("decode artifact %s: %w", runID, err)
	}
	return artifact, nil
}

func (s *Service) export(ctx context.Context, run SimulationRun, protocol domain.ProtocolFile) (string, error) {
	errs := run.Timeline.Errors
	if errs == nil {
		errs = []StepErrors{}
	}
	rawErrors, err := json.Marshal(errs)
	if err != nil {
		return "", fmt.Errorf("encode errors: %w", err)
	}
	commands := domain.CommandList(run.Commands)
	if commands == nil {
		commands = domain.CommandList{}
	}
	schema := protocol.SchemaVersion
	if schema == "" {
		schema = domain.ProtocolSchemaVersion
	}
	body, err := json.MarshalIndent(TimelineArtifact{
		RunID:         run.RunID,
		Name:          run.Name,
		ContentHash:   run.ContentHash,
		SchemaVersion: schema,
		EngineVersion: s.engineVersion,
		Commands:      commands,
		Errors:        rawErrors,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode artifact: %w", err)
	}
	key := ArtifactKey(run.RunID)
	_, err = s.artifacts.Put(ctx, key, bytes.NewReader(body), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"protocol": run.Name,
			"engine":   s.engineVersion,
			"exported": s.clock.Now().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("export run %s: %w", run.RunID, err)
	}
	s.logger.Debug("timeline exported", "run_id", run.RunID, "key", key, "driver", string(s.artifacts.Driver()))
	return key, nil
}

// discardArtifact removes an exported timeline whose run could not be
// recorded.
func (s *Service) discardArtifact(ctx context.Context, key string) {
	if _, err := s.artifacts.Delete(ctx, key); err != nil {
		s.logger.Warn("discard artifact failed", "key", key, "error", err)
	}
}
