package validation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/notion-mdx-sync/internal/config"
	"github.com/notion-mdx-sync/internal/extract"
	"github.com/notion-mdx-sync/internal/notion"
)

func testdataPath(t *testing.T, filename string) string {
	t.Helper()
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(currentFile)))
	path := filepath.Join(projectRoot, "testdata", filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skipf("testdata file not found: %s", path)
	}
	return path
}

func TestValidateDocument_RecordedQuery(t *testing.T) {
	data, err := os.ReadFile(testdataPath(t, filepath.Join("notion", "database_query.json")))
	if err != nil {
		t.Fatal(err)
	}

	var result notion.QueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	ex := extract.New(config.SyncConfig{
		Properties: config.PropertyNames{
			Slug:     "Slug",
			Title:    "Name",
			Status:   "Status",
			Tags:     "Tags",
			Category: "Category",
			Excerpt:  "Excerpt",
			Cover:    "Cover",
			Date:     "Date",
			Author:   "Author",
		},
		PublishedStatus: "Published",
		DraftStatus:     "Draft",
	})

	validator := NewValidator()
	kept := 0
	slugs := map[string]bool{}

	for i := range result.Results {
		page := &result.Results[i]
		if !ex.Gate(page).Keep {
			continue
		}
		kept++

		doc := ex.Extract(page)
		if errs := validator.ValidateDocument(&doc); len(errs) > 0 {
			t.Errorf("Page %s failed validation: %s", page.ID, Join(errs))
			continue
		}
		validator.ClaimSlug(doc.Slug, doc.NotionID)
		slugs[doc.Slug] = true
	}

	t.Logf("Validated %d of %d recorded pages", kept, len(result.Results))

	if kept != 2 {
		t.Errorf("Expected 2 pages past the gate, got %d", kept)
	}
	for _, slug := range []string{"hello-world", "creme-brulee-a-la-carte"} {
		if !slugs[slug] {
			t.Errorf("Expected slug %q among %v", slug, slugs)
		}
	}
}
