// Package frontmatter assembles the metadata header written at the top of
// every generated document.
package frontmatter

import (
	"strconv"
	"strings"

	"github.com/notion-mdx-sync/internal/models"
	"github.com/notion-mdx-sync/internal/text"
)

// Delimiter opens and closes a header block.
const Delimiter = "---"

type field struct {
	key   string
	value string
}

// Builder collects header fields in insertion order. Absent values are
// dropped when added, so Build never has to splice lines afterwards.
type Builder struct {
	fields []field
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Required adds a quoted string field that is emitted even when empty.
func (b *Builder) Required(key, value string) *Builder {
	b.fields = append(b.fields, field{key: key, value: quote(value)})
	return b
}

// String adds a quoted string field unless value is empty.
func (b *Builder) String(key, value string) *Builder {
	if value == "" {
		return b
	}
	return b.Required(key, value)
}

// StringList adds a bracketed list of quoted strings. A nil slice is absent;
// an empty non-nil slice renders as [].
func (b *Builder) StringList(key string, values []string) *Builder {
	if values == nil {
		return b
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quote(v)
	}
	b.fields = append(b.fields, field{key: key, value: "[" + strings.Join(quoted, ", ") + "]"})
	return b
}

// Bool adds an unquoted boolean unless value is nil.
func (b *Builder) Bool(key string, value *bool) *Builder {
	if value == nil {
		return b
	}
	b.fields = append(b.fields, field{key: key, value: strconv.FormatBool(*value)})
	return b
}

// Keys returns the field keys in emission order.
func (b *Builder) Keys() []string {
	keys := make([]string, len(b.fields))
	for i, f := range b.fields {
		keys[i] = f.key
	}
	return keys
}

// Build renders the header: opening delimiter, one line per field, closing
// delimiter and a blank separator line.
func (b *Builder) Build() string {
	var sb strings.Builder
	sb.WriteString(Delimiter + "\n")
	for _, f := range b.fields {
		sb.WriteString(f.key)
		sb.WriteString(": ")
		sb.WriteString(f.value)
		sb.WriteString("\n")
	}
	sb.WriteString(Delimiter + "\n\n")
	return sb.String()
}

func quote(v string) string {
	return `"` + text.EscapeQuote(v) + `"`
}

// Options controls optional header keys.
type Options struct {
	// EmitDraft adds the draft flag after notion_id when it is set.
	EmitDraft bool
}

// FromDocument lays out a document's metadata in canonical order.
func FromDocument(doc models.Document, opts Options) *Builder {
	b := NewBuilder().
		Required("title", doc.Title).
		String("slug", doc.Slug).
		String("date", doc.Date).
		String("updated", doc.Updated).
		String("notion_id", doc.NotionID)
	if opts.EmitDraft {
		b.Bool("draft", doc.Draft)
	}
	return b.
		StringList("tags", doc.Tags).
		String("category", doc.Category).
		String("excerpt", doc.Excerpt).
		String("cover", doc.Cover).
		StringList("authors", doc.Authors)
}

// Compose returns the full file content for doc: header, body and a single
// trailing newline.
func Compose(doc models.Document, opts Options) string {
	return FromDocument(doc, opts).Build() + doc.Body + "\n"
}
