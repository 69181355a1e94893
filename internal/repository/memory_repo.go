package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/notion-mdx-sync/internal/models"
)

// memoryRunRepo keeps the ledger in process memory. It backs serve mode when
// no database is configured; runs are lost on restart.
type memoryRunRepo struct {
	mu    sync.RWMutex
	runs  map[string]*models.SyncRun
	keys  map[string]string
	files map[string][]models.FileResult
}

// NewMemoryRunRepo creates an in-memory run repository
func NewMemoryRunRepo() RunRepository {
	return &memoryRunRepo{
		runs:  make(map[string]*models.SyncRun),
		keys:  make(map[string]string),
		files: make(map[string][]models.FileResult),
	}
}

func (r *memoryRunRepo) Create(ctx context.Context, run *models.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.IdempotencyKey != "" {
		if _, ok := r.keys[run.IdempotencyKey]; ok {
			return ErrDuplicateIdempotencyKey
		}
		r.keys[run.IdempotencyKey] = run.ID
	}
	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

func (r *memoryRunRepo) Update(ctx context.Context, run *models.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; !ok {
		return nil
	}
	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

func (r *memoryRunRepo) GetByID(ctx context.Context, id string) (*models.SyncRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, nil
	}
	copied := *run
	return &copied, nil
}

func (r *memoryRunRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.SyncRun, error) {
	r.mu.RLock()
	id, ok := r.keys[key]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *memoryRunRepo) List(ctx context.Context, limit int) ([]*models.SyncRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]*models.SyncRun, 0, len(r.runs))
	for _, run := range r.runs {
		copied := *run
		runs = append(runs, &copied)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (r *memoryRunRepo) GetPendingRuns(ctx context.Context) ([]*models.SyncRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []*models.SyncRun
	for _, run := range r.runs {
		if run.Status == models.RunStatusPending {
			copied := *run
			pending = append(pending, &copied)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (r *memoryRunRepo) MarkRunAsRunning(ctx context.Context, runID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[runID]
	if !ok || run.Status != models.RunStatusPending {
		return false, nil
	}
	now := time.Now()
	run.Status = models.RunStatusRunning
	run.StartedAt = &now
	return true, nil
}

func (r *memoryRunRepo) AddFiles(ctx context.Context, runID string, files []models.FileResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.files[runID] = append(r.files[runID], files...)
	return nil
}

func (r *memoryRunRepo) GetFiles(ctx context.Context, runID string, limit int) ([]models.FileResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	files := r.files[runID]
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	out := make([]models.FileResult, len(files))
	copy(out, files)
	return out, nil
}
