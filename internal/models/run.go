package models

import (
	"time"
)

// RunStatus represents the status of a sync run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunTrigger says what started a run
type RunTrigger string

const (
	TriggerCLI      RunTrigger = "cli"
	TriggerAPI      RunTrigger = "api"
	TriggerSchedule RunTrigger = "schedule"
)

// SyncRun is one recorded execution of the sync driver
type SyncRun struct {
	ID             string     `json:"run_id" db:"id"`
	Trigger        RunTrigger `json:"trigger" db:"trigger"`
	Status         RunStatus  `json:"status" db:"status"`
	IdempotencyKey string     `json:"idempotency_key,omitempty" db:"idempotency_key"`
	DryRun         bool       `json:"dry_run" db:"dry_run"`
	Total          int        `json:"total" db:"total"`
	Created        int        `json:"created" db:"created"`
	Updated        int        `json:"updated" db:"updated"`
	Unchanged      int        `json:"unchanged" db:"unchanged"`
	Skipped        int        `json:"skipped" db:"skipped"`
	DurationMs     int64      `json:"duration_ms,omitempty" db:"duration_ms"`
	Error          string     `json:"error,omitempty" db:"error"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Finished reports whether the run reached a terminal status
func (r *SyncRun) Finished() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}

// ApplyReport copies the counters of a finished sync into the run
func (r *SyncRun) ApplyReport(report *SyncReport) {
	if report == nil {
		return
	}
	r.Total = report.Total
	r.Created = report.Created
	r.Updated = report.Updated
	r.Unchanged = report.Unchanged
	r.Skipped = report.Skipped
}

// RunRequest is the body of a trigger request
type RunRequest struct {
	DryRun         bool   `json:"dry_run"`
	IdempotencyKey string `json:"-"` // From header
}

// RunResponse is the API response for a run
type RunResponse struct {
	SyncRun
	FileCount int `json:"file_count,omitempty"`
}
