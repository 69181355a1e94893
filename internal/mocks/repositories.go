package mocks

import (
	"context"
	"sync"

	"github.com/notion-mdx-sync/internal/models"
	"github.com/notion-mdx-sync/internal/repository"
)

// MockRunRepository wraps the in-memory ledger with error injection and a
// history of updates
type MockRunRepository struct {
	repository.RunRepository

	mu          sync.Mutex
	CreateErr   error
	UpdateErr   error
	AddFilesErr error
	PendingErr  error
	Updates     []models.SyncRun
}

// Verify interface compliance
var _ repository.RunRepository = (*MockRunRepository)(nil)

func NewMockRunRepository() *MockRunRepository {
	return &MockRunRepository{
		RunRepository: repository.NewMemoryRunRepo(),
	}
}

func (m *MockRunRepository) Create(ctx context.Context, run *models.SyncRun) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	return m.RunRepository.Create(ctx, run)
}

func (m *MockRunRepository) Update(ctx context.Context, run *models.SyncRun) error {
	m.mu.Lock()
	m.Updates = append(m.Updates, *run)
	m.mu.Unlock()

	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	return m.RunRepository.Update(ctx, run)
}

func (m *MockRunRepository) AddFiles(ctx context.Context, runID string, files []models.FileResult) error {
	if m.AddFilesErr != nil {
		return m.AddFilesErr
	}
	return m.RunRepository.AddFiles(ctx, runID, files)
}

func (m *MockRunRepository) GetPendingRuns(ctx context.Context) ([]*models.SyncRun, error) {
	if m.PendingErr != nil {
		return nil, m.PendingErr
	}
	return m.RunRepository.GetPendingRuns(ctx)
}

// UpdateCount returns how many updates were recorded
func (m *MockRunRepository) UpdateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Updates)
}
