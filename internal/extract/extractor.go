// Package extract maps Notion page properties onto document fields.
//
// Each concept (title, tags, cover, ...) is read by a small function keyed by
// its configured property name. A property that is not configured, missing
// from the page or of an unexpected type yields an unset value; extraction
// itself never fails.
package extract

import (
	"strings"

	"github.com/notion-mdx-sync/internal/config"
	"github.com/notion-mdx-sync/internal/models"
	"github.com/notion-mdx-sync/internal/notion"
	"github.com/notion-mdx-sync/internal/text"
)

// DefaultTitle is used when no title can be read.
const DefaultTitle = "Untitled"

// Decision is the outcome of gating a page.
type Decision struct {
	Keep   bool
	Reason string
}

var keep = Decision{Keep: true}

// Extractor reads documents from pages using one mapping configuration.
type Extractor struct {
	props           config.PropertyNames
	publishedStatus string
	draftStatus     string
	fields          []fieldRule
}

// fieldRule fills one document field from a page.
type fieldRule struct {
	concept string
	apply   func(e *Extractor, page *notion.Page, doc *models.Document)
}

// New builds an Extractor for the given sync configuration.
func New(cfg config.SyncConfig) *Extractor {
	e := &Extractor{
		props:           cfg.Properties,
		publishedStatus: cfg.PublishedStatus,
		draftStatus:     cfg.DraftStatus,
	}
	e.fields = []fieldRule{
		{"title", func(e *Extractor, p *notion.Page, d *models.Document) { d.Title = e.title(p) }},
		{"slug", func(e *Extractor, p *notion.Page, d *models.Document) { d.Slug = e.slug(p, d.Title) }},
		{"draft", func(e *Extractor, p *notion.Page, d *models.Document) { d.Draft = e.draft(p) }},
		{"tags", func(e *Extractor, p *notion.Page, d *models.Document) { d.Tags = e.tags(p) }},
		{"category", func(e *Extractor, p *notion.Page, d *models.Document) { d.Category = e.category(p) }},
		{"excerpt", func(e *Extractor, p *notion.Page, d *models.Document) { d.Excerpt = e.excerpt(p) }},
		{"cover", func(e *Extractor, p *notion.Page, d *models.Document) { d.Cover = e.cover(p) }},
		{"date", func(e *Extractor, p *notion.Page, d *models.Document) { d.Date = e.date(p) }},
		{"authors", func(e *Extractor, p *notion.Page, d *models.Document) { d.Authors = e.authors(p) }},
	}
	return e
}

// Gate decides whether a page is materialized. The sync gate is checked
// first, then the publish gate: a published checkbox when configured,
// otherwise the status select.
func (e *Extractor) Gate(page *notion.Page) Decision {
	if p, ok := e.property(page, e.props.Sync, notion.PropertyCheckbox); ok && !p.Checkbox {
		return Decision{Reason: "sync disabled"}
	}

	if p, ok := e.property(page, e.props.Published, notion.PropertyCheckbox); ok {
		if !p.Checkbox {
			return Decision{Reason: "not published"}
		}
		return keep
	}

	if p, ok := e.property(page, e.props.Status, notion.PropertySelect); ok {
		// No selection passes the gate.
		if p.Select != nil && p.Select.Name != "" && p.Select.Name != e.publishedStatus {
			return Decision{Reason: "status " + p.Select.Name}
		}
	}

	return keep
}

// Extract computes every document field from page. Body is left empty.
func (e *Extractor) Extract(page *notion.Page) models.Document {
	doc := models.Document{
		NotionID: page.ID,
		Updated:  page.LastEditedTime,
	}
	for _, f := range e.fields {
		f.apply(e, page, &doc)
	}
	return doc
}

// property returns the named property when it is configured, present and
// of one of the accepted types.
func (e *Extractor) property(page *notion.Page, name string, types ...string) (notion.Property, bool) {
	if name == "" || page == nil || page.Properties == nil {
		return notion.Property{}, false
	}
	p, ok := page.Properties[name]
	if !ok {
		return notion.Property{}, false
	}
	for _, t := range types {
		if p.Type == t {
			return p, true
		}
	}
	return notion.Property{}, false
}

func (e *Extractor) title(page *notion.Page) string {
	if p, ok := e.property(page, e.props.Title, notion.PropertyTitle); ok {
		if t := notion.PlainText(p.Title); strings.TrimSpace(t) != "" {
			return t
		}
	}
	return DefaultTitle
}

func (e *Extractor) slug(page *notion.Page, title string) string {
	slug := text.Slugify(textValue(e.property(page, e.props.Slug, notion.PropertyRichText, notion.PropertyTitle, notion.PropertyURL)))
	if slug == "" {
		slug = text.SlugifyOr(title, DefaultTitle)
	}

	if override := text.Slugify(textValue(e.property(page, e.props.Filename, notion.PropertyRichText, notion.PropertyTitle, notion.PropertyURL))); override != "" {
		slug = override
	}
	return slug
}

func (e *Extractor) draft(page *notion.Page) *bool {
	if p, ok := e.property(page, e.props.Draft, notion.PropertyCheckbox); ok {
		v := p.Checkbox
		return &v
	}
	if p, ok := e.property(page, e.props.Published, notion.PropertyCheckbox); ok {
		v := !p.Checkbox
		return &v
	}
	if p, ok := e.property(page, e.props.Status, notion.PropertySelect); ok {
		if p.Select != nil && p.Select.Name == e.draftStatus {
			v := true
			return &v
		}
	}
	return nil
}

func (e *Extractor) tags(page *notion.Page) []string {
	p, ok := e.property(page, e.props.Tags, notion.PropertyMultiSelect)
	if !ok {
		return nil
	}
	tags := make([]string, 0, len(p.MultiSelect))
	for _, opt := range p.MultiSelect {
		if opt.Name != "" {
			tags = append(tags, opt.Name)
		}
	}
	return tags
}

func (e *Extractor) category(page *notion.Page) string {
	if p, ok := e.property(page, e.props.Category, notion.PropertySelect); ok && p.Select != nil {
		return p.Select.Name
	}
	return ""
}

func (e *Extractor) excerpt(page *notion.Page) string {
	if p, ok := e.property(page, e.props.Excerpt, notion.PropertyRichText); ok {
		return notion.PlainText(p.RichText)
	}
	return ""
}

func (e *Extractor) cover(page *notion.Page) string {
	p, ok := e.property(page, e.props.Cover, notion.PropertyURL, notion.PropertyFiles)
	if !ok {
		return ""
	}
	if p.Type == notion.PropertyURL {
		if p.URL != nil {
			return *p.URL
		}
		return ""
	}
	if len(p.Files) > 0 {
		return p.Files[0].Location()
	}
	return ""
}

func (e *Extractor) date(page *notion.Page) string {
	if p, ok := e.property(page, e.props.Date, notion.PropertyDate); ok && p.Date != nil {
		if p.Date.Start != "" {
			return p.Date.Start
		}
		if p.Date.End != "" {
			return p.Date.End
		}
	}
	return page.CreatedTime
}

func (e *Extractor) authors(page *notion.Page) []string {
	p, ok := e.property(page, e.props.Author, notion.PropertyPeople, notion.PropertyRichText, notion.PropertyTitle)
	if !ok {
		return nil
	}
	var names []string
	switch p.Type {
	case notion.PropertyPeople:
		for _, u := range p.People {
			if u.Name != "" {
				names = append(names, u.Name)
			}
		}
	default:
		if t := textValue(p, true); t != "" {
			names = []string{t}
		}
	}
	if len(names) == 0 {
		return nil
	}
	return names
}

// textValue reads the plain text of a rich_text, title or url property.
func textValue(p notion.Property, ok bool) string {
	if !ok {
		return ""
	}
	switch p.Type {
	case notion.PropertyRichText:
		return notion.PlainText(p.RichText)
	case notion.PropertyTitle:
		return notion.PlainText(p.Title)
	case notion.PropertyURL:
		if p.URL != nil {
			return *p.URL
		}
	}
	return ""
}
