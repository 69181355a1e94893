package frontmatter

import (
	"reflect"
	"strings"
	"testing"

	fm "github.com/adrg/frontmatter"

	"github.com/notion-mdx-sync/internal/models"
)

func boolPtr(v bool) *bool { return &v }

func TestBuilder_OmitsAbsentFields(t *testing.T) {
	got := NewBuilder().
		Required("title", "Hello World").
		String("slug", "").
		String("date", "2024-01-02").
		StringList("tags", nil).
		Bool("draft", nil).
		Build()

	expected := "---\ntitle: \"Hello World\"\ndate: \"2024-01-02\"\n---\n\n"
	if got != expected {
		t.Errorf("Build() = %q, expected %q", got, expected)
	}
}

func TestBuilder_RequiredEmittedWhenEmpty(t *testing.T) {
	got := NewBuilder().Required("title", "").Build()
	if !strings.Contains(got, "title: \"\"\n") {
		t.Errorf("Expected empty title line, got %q", got)
	}
}

func TestBuilder_StringList(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected string
	}{
		{"nil is absent", nil, ""},
		{"empty renders brackets", []string{}, "tags: []\n"},
		{"quoted and escaped", []string{"A", `say "hi"`}, "tags: [\"A\", \"say \\\"hi\\\"\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewBuilder().StringList("tags", tt.values).Build()
			body := strings.TrimSuffix(strings.TrimPrefix(out, "---\n"), "---\n\n")
			if body != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, body)
			}
		})
	}
}

func TestBuilder_Bool(t *testing.T) {
	out := NewBuilder().Bool("draft", boolPtr(false)).Build()
	if !strings.Contains(out, "draft: false\n") {
		t.Errorf("Expected unquoted false, got %q", out)
	}
}

func TestFromDocument_Order(t *testing.T) {
	doc := models.Document{
		Title:    "Post",
		Slug:     "post",
		Date:     "2024-01-01",
		Updated:  "2024-01-03T10:00:00.000Z",
		NotionID: "abc",
		Draft:    boolPtr(true),
		Tags:     []string{"A", "B"},
		Category: "News",
		Excerpt:  "Short",
		Cover:    "https://img/c.png",
		Authors:  []string{"Ada"},
	}

	keys := FromDocument(doc, Options{EmitDraft: true}).Keys()
	expected := []string{"title", "slug", "date", "updated", "notion_id", "draft", "tags", "category", "excerpt", "cover", "authors"}
	if !reflect.DeepEqual(keys, expected) {
		t.Errorf("Expected keys %v, got %v", expected, keys)
	}

	keys = FromDocument(doc, Options{}).Keys()
	for _, k := range keys {
		if k == "draft" {
			t.Error("draft should not be emitted without EmitDraft")
		}
	}
}

func TestFromDocument_OnlyPresentKeys(t *testing.T) {
	doc := models.Document{Title: "Hello World", Slug: "hello-world"}
	out := FromDocument(doc, Options{EmitDraft: true}).Build()

	expected := "---\ntitle: \"Hello World\"\nslug: \"hello-world\"\n---\n\n"
	if out != expected {
		t.Errorf("Expected %q, got %q", expected, out)
	}
}

func TestFromDocument_TagsScenario(t *testing.T) {
	doc := models.Document{Title: "T", Slug: "t", Tags: []string{"A", "B"}}
	out := FromDocument(doc, Options{}).Build()
	if !strings.Contains(out, "\ntags: [\"A\", \"B\"]\n") {
		t.Errorf("Expected tags line, got %q", out)
	}
}

func TestCompose_ParsesAsFrontmatter(t *testing.T) {
	doc := models.Document{
		Title:    `Quote "me"`,
		Slug:     "quote-me",
		Date:     "2024-05-01",
		NotionID: "page-1",
		Tags:     []string{"go", "notion"},
		Authors:  []string{"Ada", "Linus"},
		Body:     "# Heading\n\nBody text.",
	}

	content := Compose(doc, Options{})
	if !strings.HasSuffix(content, "Body text.\n") || strings.HasSuffix(content, "\n\n") {
		t.Errorf("Expected exactly one trailing newline, got %q", content)
	}

	var meta struct {
		Title    string   `yaml:"title"`
		Slug     string   `yaml:"slug"`
		Date     string   `yaml:"date"`
		NotionID string   `yaml:"notion_id"`
		Tags     []string `yaml:"tags"`
		Authors  []string `yaml:"authors"`
	}
	rest, err := fm.Parse(strings.NewReader(content), &meta)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if meta.Title != `Quote "me"` {
		t.Errorf("Expected title with quotes, got %q", meta.Title)
	}
	if meta.Slug != "quote-me" || meta.NotionID != "page-1" || meta.Date != "2024-05-01" {
		t.Errorf("Unexpected metadata: %+v", meta)
	}
	if !reflect.DeepEqual(meta.Tags, []string{"go", "notion"}) {
		t.Errorf("Unexpected tags: %v", meta.Tags)
	}
	if !reflect.DeepEqual(meta.Authors, []string{"Ada", "Linus"}) {
		t.Errorf("Unexpected authors: %v", meta.Authors)
	}
	if strings.TrimSpace(string(rest)) != "# Heading\n\nBody text." {
		t.Errorf("Unexpected body: %q", rest)
	}
}

func TestCompose_MultilineValuesStayOnOneLine(t *testing.T) {
	doc := models.Document{
		Title:    "First\n---\nslug: hijacked",
		Slug:     "first",
		NotionID: "page-1",
		Excerpt:  `line one\nline "two"` + "\n",
		Body:     "Body.",
	}

	content := Compose(doc, Options{})
	delimiters := 0
	for _, line := range strings.Split(content, "\n") {
		if line == "---" {
			delimiters++
		}
	}
	if delimiters != 2 {
		t.Fatalf("Expected 2 delimiter lines, got %d in %q", delimiters, content)
	}

	var meta struct {
		Title   string `yaml:"title"`
		Slug    string `yaml:"slug"`
		Excerpt string `yaml:"excerpt"`
	}
	if _, err := fm.Parse(strings.NewReader(content), &meta); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if meta.Title != doc.Title {
		t.Errorf("Expected title %q, got %q", doc.Title, meta.Title)
	}
	if meta.Slug != "first" {
		t.Errorf("Expected slug first, got %q", meta.Slug)
	}
	if meta.Excerpt != doc.Excerpt {
		t.Errorf("Expected excerpt %q, got %q", doc.Excerpt, meta.Excerpt)
	}
}
