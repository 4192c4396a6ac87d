package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/davidschrooten/solr-schema-sync/config"
	"github.com/davidschrooten/solr-schema-sync/internal/languages"
	"github.com/davidschrooten/solr-schema-sync/internal/schema"
	"github.com/davidschrooten/solr-schema-sync/internal/search"
	syncstate "github.com/davidschrooten/solr-schema-sync/internal/sync"
)

// SchemaStore reads and mutates the live schema
type SchemaStore interface {
	FetchSnapshot(ctx context.Context) (*schema.Snapshot, error)
	Apply(ctx context.Context, ops []schema.Operation) error
}

// Service plans and applies schema reconciliation runs
type Service struct {
	store     SchemaStore
	languages languages.Source
	planner   *schema.Planner
	state     *syncstate.StateManager
	catalog   search.FieldCatalog
	cfg       config.ReconcileConfig
	batchSize int
	logger    zerolog.Logger

	runMutex sync.Mutex // one run at a time within the process
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// Preview is a computed but unapplied plan
type Preview struct {
	Plan      *schema.Plan   `json:"-"`
	Summary   schema.Summary `json:"summary"`
	Digest    string         `json:"digest"`
	Languages []string       `json:"languages"`
}

// Result describes a finished reconciliation run
type Result struct {
	Preview
	DryRun      bool          `json:"dryRun"`
	BatchesSent int           `json:"batchesSent"`
	Duration    time.Duration `json:"duration"`
}

// NewService creates a new reconciler service. catalog may be nil.
func NewService(store SchemaStore, langs languages.Source, state *syncstate.StateManager, catalog search.FieldCatalog, cfg *config.Config, logger zerolog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("schema store is required")
	}
	if langs == nil {
		return nil, errors.New("language source is required")
	}
	if state == nil {
		return nil, errors.New("state manager is required")
	}

	logger = logger.With().Str("component", "reconciler").Logger()
	s := &Service{
		store:     store,
		languages: langs,
		state:     state,
		catalog:   catalog,
		cfg:       cfg.Reconcile,
		batchSize: cfg.Solr.BatchSize,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
	s.planner = schema.NewPlanner(schema.WithLanguageNotifier(func(code, fieldType string) {
		logger.Info().Str("language", code).Str("type", fieldType).Msg("Adding custom defined language to schema")
	}))
	return s, nil
}

// Preview fetches the live schema and languages and computes a plan without applying it
func (s *Service) Preview(ctx context.Context) (*Preview, error) {
	snap, err := s.store.FetchSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schema: %w", err)
	}

	codes, err := s.languages.Languages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}
	codes = languages.Normalize(codes, s.logger)

	plan, err := s.planner.BuildPlan(snap, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to build plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	digest, err := plan.Digest()
	if err != nil {
		return nil, fmt.Errorf("failed to digest plan: %w", err)
	}

	return &Preview{
		Plan:      plan,
		Summary:   plan.Summary(),
		Digest:    digest,
		Languages: codes,
	}, nil
}

// Reconcile computes a plan and applies it batch by batch in plan order.
// In dry-run mode the plan is recorded but not applied. A call made while
// another run is in progress returns ErrLocked without touching the schema.
func (s *Service) Reconcile(ctx context.Context) (*Result, error) {
	if !s.runMutex.TryLock() {
		return nil, ErrLocked
	}
	defer s.runMutex.Unlock()

	if s.cfg.LockPath != "" {
		release, err := acquireLock(ctx, s.cfg.LockPath, s.cfg.LockTimeout())
		if err != nil {
			return nil, err
		}
		defer release()
	}

	started := time.Now()
	s.state.Begin(started)

	result, err := s.run(ctx)

	run := syncstate.RunState{
		StartedAt:  started,
		FinishedAt: time.Now(),
		Status:     syncstate.StatusSucceeded,
	}
	if result != nil {
		result.Duration = run.FinishedAt.Sub(started)
		run.PlanDigest = result.Digest
		run.Removals = result.Summary.Removals
		run.FieldTypes = result.Summary.FieldTypes
		run.Fields = result.Summary.Fields
		run.BatchesSent = result.BatchesSent
		run.Languages = result.Languages
		if result.DryRun {
			run.Status = syncstate.StatusDryRun
		}
	}
	if err != nil {
		run.Status = syncstate.StatusFailed
		run.Error = err.Error()
	}
	s.state.Finish(run)
	if saveErr := s.state.Save(); saveErr != nil {
		s.logger.Error().Err(saveErr).Msg("Failed to save reconcile state")
	}

	if err != nil {
		s.logger.Error().Err(err).Msg("Reconciliation failed")
		return result, err
	}

	s.logger.Info().
		Str("status", string(run.Status)).
		Int("removals", run.Removals).
		Int("fieldTypes", run.FieldTypes).
		Int("fields", run.Fields).
		Int("batches", run.BatchesSent).
		Dur("duration", result.Duration).
		Msg("Reconciliation finished")
	return result, nil
}

func (s *Service) run(ctx context.Context) (*Result, error) {
	preview, err := s.Preview(ctx)
	if err != nil {
		return nil, err
	}
	result := &Result{Preview: *preview, DryRun: s.cfg.DryRun}

	if s.catalog != nil {
		if err := s.catalog.Rebuild(preview.Plan); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to rebuild field catalog")
		}
	}

	if s.cfg.DryRun {
		s.logger.Info().Int("operations", preview.Summary.Total()).Msg("Dry run, plan not applied")
		return result, nil
	}

	chunks := preview.Plan.Chunks(s.batchSize)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			s.warnPartial(result.BatchesSent, len(chunks))
			return result, err
		}
		if err := s.store.Apply(ctx, chunk); err != nil {
			s.warnPartial(result.BatchesSent, len(chunks))
			return result, fmt.Errorf("batch %d/%d failed: %w", i+1, len(chunks), err)
		}
		result.BatchesSent++
		s.logger.Debug().Int("batch", i+1).Int("of", len(chunks)).Int("operations", len(chunk)).Msg("Applied batch")
	}
	return result, nil
}

// warnPartial reports a run stopped after some batches were committed. Earlier
// batches carry the teardown, so the core may lack fields until the next full run.
func (s *Service) warnPartial(sent, total int) {
	if sent == 0 {
		return
	}
	s.logger.Warn().
		Int("batchesSent", sent).
		Int("of", total).
		Msg("Schema partially applied, fields removed by earlier batches stay missing until the next successful run")
}

// Start begins periodic reconciliation when an interval is configured
func (s *Service) Start(ctx context.Context) error {
	interval := s.cfg.IntervalDuration()
	if interval <= 0 {
		s.logger.Info().Msg("Periodic reconciliation disabled")
		return nil
	}

	s.logger.Info().Dur("interval", interval).Msg("Starting reconciler service...")
	s.wg.Add(1)
	go s.loop(ctx, interval)
	return nil
}

func (s *Service) loop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// errors are logged and kept in state; the next tick retries
			_, _ = s.Reconcile(ctx)
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		}
	}
}

// Stop stops the periodic loop and waits for a running pass to return
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

// State returns the persisted reconcile state
func (s *Service) State() syncstate.ReconcileState {
	return s.state.Snapshot()
}

// Running reports whether a reconciliation is in progress
func (s *Service) Running() bool {
	return s.state.InProgress()
}
