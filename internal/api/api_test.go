package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/notion-mdx-sync/internal/api"
	"github.com/notion-mdx-sync/internal/config"
	"github.com/notion-mdx-sync/internal/mocks"
	"github.com/notion-mdx-sync/internal/models"
	"github.com/notion-mdx-sync/internal/service"
)

func setupTestRouter() (*gin.Engine, *mocks.MockRunService, *config.Config) {
	gin.SetMode(gin.TestMode)

	mockRun := mocks.NewMockRunService()
	services := &service.Services{
		Sync: mocks.NewMockSyncService(),
		Run:  mockRun,
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Notion: config.NotionConfig{DatabaseID: "db", Token: "secret"},
		Sync:   config.SyncConfig{DestDir: "content/posts", FileExtension: "mdx"},
	}

	router := api.NewRouter(services, cfg, zerolog.Nop())
	return router, mockRun, cfg
}

func doRequest(router *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, "GET", "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "notion-mdx-sync" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, mockRun, _ := setupTestRouter()
	mockRun.AddRun(&models.SyncRun{ID: "run-1", Status: models.RunStatusCompleted, Total: 4, Created: 2, Unchanged: 2})

	w := doRequest(router, "GET", "/metrics", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		LastRun map[string]interface{} `json:"last_run"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response.LastRun["run_id"] != "run-1" {
		t.Errorf("Expected last run 'run-1', got %v", response.LastRun["run_id"])
	}
	if response.LastRun["created"] != float64(2) {
		t.Errorf("Expected created 2, got %v", response.LastRun["created"])
	}
}

func TestMetricsEndpoint_LedgerError(t *testing.T) {
	router, mockRun, _ := setupTestRouter()
	mockRun.ListErr = errors.New("db down")

	w := doRequest(router, "GET", "/metrics", nil, nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestCreateSync(t *testing.T) {
	router, mockRun, _ := setupTestRouter()

	w := doRequest(router, "POST", "/v1/syncs", nil, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	var run models.SyncRun
	json.Unmarshal(w.Body.Bytes(), &run)
	if run.ID != "test-run-id" {
		t.Errorf("Expected run id 'test-run-id', got %q", run.ID)
	}
	if run.Status != models.RunStatusPending {
		t.Errorf("Expected pending status, got %s", run.Status)
	}
	if run.Trigger != models.TriggerAPI {
		t.Errorf("Expected api trigger, got %s", run.Trigger)
	}
	if stored := mockRun.Runs["test-run-id"]; stored == nil || stored.DryRun {
		t.Errorf("Expected stored regular run, got %+v", stored)
	}
}

func TestCreateSync_DryRunBody(t *testing.T) {
	router, mockRun, _ := setupTestRouter()

	w := doRequest(router, "POST", "/v1/syncs", []byte(`{"dry_run": true}`), nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if !mockRun.Runs["test-run-id"].DryRun {
		t.Error("Expected dry run flag to be passed through")
	}
}

func TestCreateSync_InvalidBody(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, "POST", "/v1/syncs", []byte(`{"dry_run": "yes`), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestCreateSync_RequiresTokenForRealRuns(t *testing.T) {
	router, _, cfg := setupTestRouter()
	cfg.Notion.Token = ""

	w := doRequest(router, "POST", "/v1/syncs", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	w = doRequest(router, "POST", "/v1/syncs", []byte(`{"dry_run": true}`), nil)
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected dry run to be accepted, got %d", w.Code)
	}
}

func TestCreateSync_ServiceError(t *testing.T) {
	router, mockRun, _ := setupTestRouter()
	mockRun.CreateErr = errors.New("ledger unavailable")

	w := doRequest(router, "POST", "/v1/syncs", nil, nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestIdempotencyKey(t *testing.T) {
	router, mockRun, _ := setupTestRouter()
	mockRun.AddRun(&models.SyncRun{
		ID:             "existing-run",
		Status:         models.RunStatusCompleted,
		IdempotencyKey: "same-key",
	})

	w := doRequest(router, "POST", "/v1/syncs", nil, map[string]string{"Idempotency-Key": "same-key"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for existing run, got %d", w.Code)
	}

	var run models.SyncRun
	json.Unmarshal(w.Body.Bytes(), &run)
	if run.ID != "existing-run" {
		t.Errorf("Expected existing run, got %q", run.ID)
	}
	if _, ok := mockRun.Runs["test-run-id"]; ok {
		t.Error("No new run should have been created")
	}
}

func TestGetSyncStatus(t *testing.T) {
	router, mockRun, _ := setupTestRouter()
	completed := time.Now()
	mockRun.AddRun(&models.SyncRun{
		ID:          "run-42",
		Status:      models.RunStatusCompleted,
		Total:       3,
		Created:     1,
		Updated:     1,
		Unchanged:   1,
		CompletedAt: &completed,
	})
	mockRun.Files["run-42"] = []models.FileResult{{NotionID: "p1", Slug: "a", Outcome: models.FileCreated}}

	w := doRequest(router, "GET", "/v1/syncs/run-42", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response models.RunResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	if response.ID != "run-42" || response.Total != 3 {
		t.Errorf("Unexpected response: %+v", response)
	}
	if response.FileCount != 1 {
		t.Errorf("Expected file_count 1, got %d", response.FileCount)
	}
}

func TestGetSyncStatus_NotFound(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, "GET", "/v1/syncs/nope", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestListSyncs(t *testing.T) {
	router, mockRun, _ := setupTestRouter()
	mockRun.AddRun(&models.SyncRun{ID: "a"})
	mockRun.AddRun(&models.SyncRun{ID: "b"})

	w := doRequest(router, "GET", "/v1/syncs?limit=1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Count int              `json:"count"`
		Runs  []models.SyncRun `json:"runs"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response.Count != 1 || len(response.Runs) != 1 {
		t.Errorf("Expected 1 run, got %d", response.Count)
	}
}

func TestListSyncs_InvalidLimit(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, "GET", "/v1/syncs?limit=abc", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGetSyncFiles(t *testing.T) {
	router, mockRun, _ := setupTestRouter()
	mockRun.AddRun(&models.SyncRun{ID: "run-1"})
	mockRun.Files["run-1"] = []models.FileResult{
		{NotionID: "p1", Slug: "hello", Path: "content/posts/hello.mdx", Outcome: models.FileCreated},
		{NotionID: "p2", Outcome: models.FileSkipped, Reason: "status Draft"},
	}

	w := doRequest(router, "GET", "/v1/syncs/run-1/files", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		RunID     string              `json:"run_id"`
		FileCount int                 `json:"file_count"`
		Files     []models.FileResult `json:"files"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response.FileCount != 2 {
		t.Errorf("Expected 2 files, got %d", response.FileCount)
	}
	if response.Files[1].Reason != "status Draft" {
		t.Errorf("Expected skip reason, got %q", response.Files[1].Reason)
	}
}

func TestGetSyncFiles_CSV(t *testing.T) {
	router, mockRun, _ := setupTestRouter()
	mockRun.AddRun(&models.SyncRun{ID: "run-1"})
	mockRun.Files["run-1"] = []models.FileResult{
		{NotionID: "p1", Slug: "hello", Path: "content/posts/hello.mdx", Outcome: models.FileUnchanged},
	}

	w := doRequest(router, "GET", "/v1/syncs/run-1/files?format=csv", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected Content-Type text/csv, got %s", ct)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header plus 1 row, got %d lines", len(lines))
	}
	if lines[0] != "notion_id,slug,path,outcome,reason" {
		t.Errorf("Unexpected CSV header: %s", lines[0])
	}
	if lines[1] != "p1,hello,content/posts/hello.mdx,unchanged," {
		t.Errorf("Unexpected CSV row: %s", lines[1])
	}
}

func TestGetSyncFiles_NotFound(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, "GET", "/v1/syncs/missing/files", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, "OPTIONS", "/v1/syncs", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS allow origin header")
	}
}
