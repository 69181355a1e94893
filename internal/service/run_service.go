package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/notion-mdx-sync/internal/models"
	"github.com/notion-mdx-sync/internal/repository"
)

// runService is the concrete implementation of RunService. Runs execute one
// at a time so two passes never write the same destination concurrently.
type runService struct {
	runRepo      repository.RunRepository
	sync         SyncService
	interval     time.Duration
	pollInterval time.Duration
	now          func() time.Time
	log          zerolog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
	execMu  sync.Mutex
}

// NewRunService creates a RunService. A positive interval schedules runs
// while the processor is active.
func NewRunService(runRepo repository.RunRepository, syncSvc SyncService, interval time.Duration, log zerolog.Logger, opts ...Option) RunService {
	o := buildOptions(opts)
	return &runService{
		runRepo:      runRepo,
		sync:         syncSvc,
		interval:     interval,
		pollInterval: o.pollInterval,
		now:          o.now,
		log:          log.With().Str("service", "run").Logger(),
	}
}

// CreateRun records a pending run. A request carrying an idempotency key
// that was already used returns the existing run instead.
func (s *runService) CreateRun(ctx context.Context, req *models.RunRequest, trigger models.RunTrigger) (*models.SyncRun, error) {
	if req == nil {
		req = &models.RunRequest{}
	}

	if req.IdempotencyKey != "" {
		existing, err := s.runRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	run := &models.SyncRun{
		ID:             uuid.New().String(),
		Trigger:        trigger,
		Status:         models.RunStatusPending,
		IdempotencyKey: req.IdempotencyKey,
		DryRun:         req.DryRun,
		CreatedAt:      s.now(),
	}

	if err := s.runRepo.Create(ctx, run); err != nil {
		// Lost a race with a concurrent request using the same key
		if errors.Is(err, repository.ErrDuplicateIdempotencyKey) {
			return s.runRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		}
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	s.log.Info().
		Str("run_id", run.ID).
		Str("trigger", string(trigger)).
		Bool("dry_run", run.DryRun).
		Msg("Run created")

	return run, nil
}

// RunNow records a run and executes it immediately
func (s *runService) RunNow(ctx context.Context, trigger models.RunTrigger, dryRun bool) (*models.SyncRun, *models.SyncReport, error) {
	run, err := s.CreateRun(ctx, &models.RunRequest{DryRun: dryRun}, trigger)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.runRepo.MarkRunAsRunning(ctx, run.ID); err != nil {
		return run, nil, fmt.Errorf("failed to mark run as running: %w", err)
	}

	report, err := s.Execute(ctx, run)
	return run, report, err
}

// Execute performs the sync for run and records its outcome
func (s *runService) Execute(ctx context.Context, run *models.SyncRun) (*models.SyncReport, error) {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	start := s.now()
	if run.StartedAt == nil {
		run.StartedAt = &start
	}
	run.Status = models.RunStatusRunning

	s.log.Info().Str("run_id", run.ID).Msg("Executing run")

	report, syncErr := s.sync.Run(ctx, SyncOptions{DryRun: run.DryRun})

	completed := s.now()
	run.CompletedAt = &completed
	run.DurationMs = completed.Sub(start).Milliseconds()
	run.ApplyReport(report)

	if syncErr != nil {
		run.Status = models.RunStatusFailed
		run.Error = syncErr.Error()
	} else {
		run.Status = models.RunStatusCompleted
	}

	// Record outcomes even when the context is done so a cancelled run
	// still shows up in the ledger.
	recordCtx := context.WithoutCancel(ctx)

	if report != nil {
		if err := s.runRepo.AddFiles(recordCtx, run.ID, report.Files); err != nil {
			s.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to record file outcomes")
		}
	}

	if err := s.runRepo.Update(recordCtx, run); err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to update run")
		if syncErr == nil {
			return report, fmt.Errorf("failed to update run: %w", err)
		}
	}

	s.log.Info().
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Int64("duration_ms", run.DurationMs).
		Msg("Run finished")

	return report, syncErr
}

// StartProcessor runs pending and scheduled runs until ctx is cancelled or
// StopProcessor is called. It blocks.
func (s *runService) StartProcessor(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	s.log.Info().Dur("interval", s.interval).Msg("Run processor started")

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var schedule <-chan time.Time
	if s.interval > 0 {
		scheduleTicker := time.NewTicker(s.interval)
		defer scheduleTicker.Stop()
		schedule = scheduleTicker.C
	}

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("Run processor stopping")
			return
		case <-schedule:
			if _, err := s.CreateRun(s.ctx, nil, models.TriggerSchedule); err != nil {
				s.log.Error().Err(err).Msg("Failed to schedule run")
			}
			s.processPendingRuns()
		case <-ticker.C:
			s.processPendingRuns()
		}
	}
}

// StopProcessor stops the background processor and waits for it to exit
func (s *runService) StopProcessor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Run processor stopped")
}

// processPendingRuns executes pending runs oldest first
func (s *runService) processPendingRuns() {
	runs, err := s.runRepo.GetPendingRuns(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to get pending runs")
		return
	}

	for _, run := range runs {
		if s.ctx.Err() != nil {
			return
		}

		marked, err := s.runRepo.MarkRunAsRunning(s.ctx, run.ID)
		if err != nil || !marked {
			continue // Another processor already picked it up
		}

		s.processRun(run)
	}
}

// processRun executes one run, recovering from panics so the processor survives
func (s *runService) processRun(run *models.SyncRun) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Interface("panic", r).
				Str("run_id", run.ID).
				Msg("Run panicked - recovered")
			now := s.now()
			run.Status = models.RunStatusFailed
			run.Error = fmt.Sprintf("panic: %v", r)
			run.CompletedAt = &now
			s.runRepo.Update(context.WithoutCancel(s.ctx), run)
		}
	}()

	if _, err := s.Execute(s.ctx, run); err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Msg("Run failed")
	}
}

// GetRun retrieves a run with its file count
func (s *runService) GetRun(ctx context.Context, id string) (*models.RunResponse, error) {
	run, err := s.runRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, nil
	}

	files, err := s.runRepo.GetFiles(ctx, id, 0)
	if err != nil {
		s.log.Error().Err(err).Str("run_id", id).Msg("Failed to get run files")
	}

	return &models.RunResponse{
		SyncRun:   *run,
		FileCount: len(files),
	}, nil
}

// GetRunByIdempotencyKey retrieves a run by idempotency key
func (s *runService) GetRunByIdempotencyKey(ctx context.Context, key string) (*models.SyncRun, error) {
	return s.runRepo.GetByIdempotencyKey(ctx, key)
}

// ListRuns returns recent runs, newest first
func (s *runService) ListRuns(ctx context.Context, limit int) ([]*models.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.runRepo.List(ctx, limit)
}

// GetRunFiles retrieves per-file outcomes of a run
func (s *runService) GetRunFiles(ctx context.Context, id string, limit int) ([]models.FileResult, error) {
	return s.runRepo.GetFiles(ctx, id, limit)
}
