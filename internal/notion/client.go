package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"
	// MaxPageSize is the largest page the Notion API returns in one call.
	MaxPageSize = 100
)

// Source is the remote collection the sync driver reads from.
type Source interface {
	QueryDatabase(ctx context.Context, databaseID, cursor string, pageSize int) (*QueryResult, error)
	BlockTree(ctx context.Context, blockID string) ([]Block, error)
}

// APIError is a non-2xx answer from the Notion API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api: %d %s: %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether the request may succeed if repeated.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL    string
	Token      string
	Version    string
	Timeout    time.Duration
	MaxRetries int
	// InitialBackoff is the first retry delay; zero uses 500ms.
	InitialBackoff time.Duration
}

// Client talks to the Notion REST API.
type Client struct {
	http       *http.Client
	baseURL    string
	token      string
	version    string
	maxRetries int
	initial    time.Duration
	log        zerolog.Logger
}

// NewClient creates a Notion API client.
func NewClient(cfg ClientConfig, log zerolog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := cfg.Version
	if version == "" {
		version = DefaultVersion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	initial := cfg.InitialBackoff
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		http:       &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      cfg.Token,
		version:    version,
		maxRetries: maxRetries,
		initial:    initial,
		log:        log.With().Str("component", "notion").Logger(),
	}
}

// QueryDatabase fetches one page of database rows starting at cursor.
func (c *Client) QueryDatabase(ctx context.Context, databaseID, cursor string, pageSize int) (*QueryResult, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	body := map[string]interface{}{"page_size": pageSize}
	if cursor != "" {
		body["start_cursor"] = cursor
	}

	var result QueryResult
	path := "/databases/" + url.PathEscape(databaseID) + "/query"
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, fmt.Errorf("query database %s: %w", databaseID, err)
	}

	c.log.Debug().
		Str("database_id", databaseID).
		Int("results", len(result.Results)).
		Bool("has_more", result.HasMore).
		Msg("Database page fetched")

	return &result, nil
}

// BlockTree fetches every child block of blockID, descending into nested blocks.
func (c *Client) BlockTree(ctx context.Context, blockID string) ([]Block, error) {
	var blocks []Block
	cursor := ""

	for {
		page, err := c.blockChildren(ctx, blockID, cursor)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, page.Results...)
		if !page.HasMore || page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}

	for i := range blocks {
		if !blocks[i].HasChildren {
			continue
		}
		children, err := c.BlockTree(ctx, blocks[i].ID)
		if err != nil {
			return nil, err
		}
		blocks[i].Children = children
	}

	return blocks, nil
}

type blockList struct {
	Results    []Block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

func (c *Client) blockChildren(ctx context.Context, blockID, cursor string) (*blockList, error) {
	query := url.Values{}
	query.Set("page_size", fmt.Sprint(MaxPageSize))
	if cursor != "" {
		query.Set("start_cursor", cursor)
	}

	var list blockList
	path := "/blocks/" + url.PathEscape(blockID) + "/children?" + query.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("list children of %s: %w", blockID, err)
	}
	return &list, nil
}

// do performs one API call, retrying transport errors, 429 and 5xx answers.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initial
	policy.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		err := c.send(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}

		c.log.Warn().Err(err).Int("attempt", attempt).Str("path", path).Msg("Notion request failed, retrying")
		return err
	}

	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx)
	return backoff.Retry(operation, retry)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
