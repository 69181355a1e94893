package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/notion-mdx-sync/internal/notion"
)

// MockSource is an in-memory Notion database
type MockSource struct {
	mu sync.Mutex

	Pages  []notion.Page
	Blocks map[string][]notion.Block
	// PageSize caps results per query to force pagination; 0 uses the caller's size
	PageSize int

	QueryErr error
	BlockErr error

	QueryCalls []string // cursors in call order
	BlockCalls []string // page ids in call order
}

// Verify interface compliance
var _ notion.Source = (*MockSource)(nil)

func NewMockSource(pages ...notion.Page) *MockSource {
	return &MockSource{
		Pages:  pages,
		Blocks: make(map[string][]notion.Block),
	}
}

// SetContent stores a single paragraph as the page body
func (m *MockSource) SetContent(pageID, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Blocks[pageID] = []notion.Block{Paragraph(text)}
}

func (m *MockSource) QueryDatabase(ctx context.Context, databaseID, cursor string, pageSize int) (*notion.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCalls = append(m.QueryCalls, cursor)
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}

	size := pageSize
	if m.PageSize > 0 && m.PageSize < size {
		size = m.PageSize
	}
	if size <= 0 {
		size = len(m.Pages)
	}

	start := 0
	if cursor != "" {
		if _, err := fmt.Sscanf(cursor, "offset-%d", &start); err != nil {
			return nil, fmt.Errorf("bad cursor %q", cursor)
		}
	}
	end := start + size
	if end > len(m.Pages) {
		end = len(m.Pages)
	}

	result := &notion.QueryResult{
		Object:  "list",
		Results: append([]notion.Page(nil), m.Pages[start:end]...),
	}
	if end < len(m.Pages) {
		next := fmt.Sprintf("offset-%d", end)
		result.HasMore = true
		result.NextCursor = &next
	}
	return result, nil
}

func (m *MockSource) BlockTree(ctx context.Context, blockID string) ([]notion.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BlockCalls = append(m.BlockCalls, blockID)
	if m.BlockErr != nil {
		return nil, m.BlockErr
	}
	return m.Blocks[blockID], nil
}

// Paragraph builds a plain paragraph block
func Paragraph(text string) notion.Block {
	return notion.Block{
		Object:    "block",
		Type:      "paragraph",
		Paragraph: &notion.TextBlock{RichText: []notion.RichText{{Type: "text", PlainText: text}}},
	}
}

// TitlePage builds a page whose title property is Name
func TitlePage(id, title string) notion.Page {
	return notion.Page{
		Object:         "page",
		ID:             id,
		CreatedTime:    "2024-01-01T00:00:00.000Z",
		LastEditedTime: "2024-01-02T00:00:00.000Z",
		Properties: map[string]notion.Property{
			"Name": {Type: notion.PropertyTitle, Title: []notion.RichText{{Type: "text", PlainText: title}}},
		},
	}
}
