package mocks

import (
	"context"
	"sync"

	"github.com/notion-mdx-sync/internal/models"
	"github.com/notion-mdx-sync/internal/service"
)

// MockSyncService is a mock implementation of SyncService
type MockSyncService struct {
	mu      sync.Mutex
	RunFunc func(ctx context.Context, opts service.SyncOptions) (*models.SyncReport, error)
	Calls   []service.SyncOptions
	Report  *models.SyncReport
}

// Verify interface compliance
var _ service.SyncService = (*MockSyncService)(nil)

func NewMockSyncService() *MockSyncService {
	return &MockSyncService{
		Report: &models.SyncReport{},
	}
}

func (m *MockSyncService) Run(ctx context.Context, opts service.SyncOptions) (*models.SyncReport, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, opts)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, opts)
	}
	copied := *m.Report
	return &copied, nil
}

// CallCount returns how many passes were requested
func (m *MockSyncService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockRunService is a mock implementation of RunService
type MockRunService struct {
	mu   sync.Mutex
	Runs map[string]*models.SyncRun
	Keys map[string]string
	// Files per run id
	Files map[string][]models.FileResult

	CreateErr error
	ListErr   error

	ProcessorStarted bool
	ProcessorStopped bool
}

// Verify interface compliance
var _ service.RunService = (*MockRunService)(nil)

func NewMockRunService() *MockRunService {
	return &MockRunService{
		Runs:  make(map[string]*models.SyncRun),
		Keys:  make(map[string]string),
		Files: make(map[string][]models.FileResult),
	}
}

// AddRun seeds a run
func (m *MockRunService) AddRun(run *models.SyncRun) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs[run.ID] = run
	if run.IdempotencyKey != "" {
		m.Keys[run.IdempotencyKey] = run.ID
	}
}

func (m *MockRunService) CreateRun(ctx context.Context, req *models.RunRequest, trigger models.RunTrigger) (*models.SyncRun, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if req == nil {
		req = &models.RunRequest{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.Keys[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return m.Runs[id], nil
	}

	run := &models.SyncRun{
		ID:             "test-run-id",
		Trigger:        trigger,
		Status:         models.RunStatusPending,
		IdempotencyKey: req.IdempotencyKey,
		DryRun:         req.DryRun,
	}
	m.Runs[run.ID] = run
	if req.IdempotencyKey != "" {
		m.Keys[req.IdempotencyKey] = run.ID
	}
	return run, nil
}

func (m *MockRunService) RunNow(ctx context.Context, trigger models.RunTrigger, dryRun bool) (*models.SyncRun, *models.SyncReport, error) {
	run, err := m.CreateRun(ctx, &models.RunRequest{DryRun: dryRun}, trigger)
	if err != nil {
		return nil, nil, err
	}
	report, err := m.Execute(ctx, run)
	return run, report, err
}

func (m *MockRunService) Execute(ctx context.Context, run *models.SyncRun) (*models.SyncReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.Status = models.RunStatusCompleted
	return &models.SyncReport{}, nil
}

func (m *MockRunService) GetRun(ctx context.Context, id string) (*models.RunResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.Runs[id]
	if !ok {
		return nil, nil
	}
	return &models.RunResponse{SyncRun: *run, FileCount: len(m.Files[id])}, nil
}

func (m *MockRunService) GetRunByIdempotencyKey(ctx context.Context, key string) (*models.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.Keys[key]; ok {
		return m.Runs[id], nil
	}
	return nil, nil
}

func (m *MockRunService) ListRuns(ctx context.Context, limit int) ([]*models.SyncRun, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	runs := make([]*models.SyncRun, 0, len(m.Runs))
	for _, run := range m.Runs {
		runs = append(runs, run)
		if limit > 0 && len(runs) == limit {
			break
		}
	}
	return runs, nil
}

func (m *MockRunService) GetRunFiles(ctx context.Context, id string, limit int) ([]models.FileResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	files := m.Files[id]
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

func (m *MockRunService) StartProcessor(ctx context.Context) {
	m.mu.Lock()
	m.ProcessorStarted = true
	m.mu.Unlock()
	<-ctx.Done()
}

func (m *MockRunService) StopProcessor() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProcessorStopped = true
}
