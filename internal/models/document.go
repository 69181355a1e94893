package models

// Document is one record rendered for the static site. Optional fields left
// at their zero value are omitted from the header; for Tags and Authors nil
// means unset while an empty slice is still emitted.
type Document struct {
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	Date     string   `json:"date,omitempty"`
	Updated  string   `json:"updated,omitempty"`
	NotionID string   `json:"notion_id,omitempty"`
	Draft    *bool    `json:"draft,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`
	Excerpt  string   `json:"excerpt,omitempty"`
	Cover    string   `json:"cover,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Body     string   `json:"-"`
}

// FileOutcome is what happened to a destination file during a run.
type FileOutcome string

const (
	FileCreated   FileOutcome = "created"
	FileUpdated   FileOutcome = "updated"
	FileUnchanged FileOutcome = "unchanged"
	FileSkipped   FileOutcome = "skipped"
)

// FileResult records the outcome for one examined record.
type FileResult struct {
	NotionID string      `json:"notion_id"`
	Slug     string      `json:"slug,omitempty"`
	Path     string      `json:"path,omitempty"`
	Outcome  FileOutcome `json:"outcome"`
	Reason   string      `json:"reason,omitempty"`
}

// SyncReport holds the counters of one run.
type SyncReport struct {
	Total     int          `json:"total"`
	Created   int          `json:"created"`
	Updated   int          `json:"updated"`
	Unchanged int          `json:"unchanged"`
	Skipped   int          `json:"skipped"`
	Files     []FileResult `json:"files,omitempty"`
}

// Record adds a file result and bumps the matching counter. Total is counted
// separately since every examined record counts once regardless of outcome.
func (r *SyncReport) Record(res FileResult) {
	switch res.Outcome {
	case FileCreated:
		r.Created++
	case FileUpdated:
		r.Updated++
	case FileUnchanged:
		r.Unchanged++
	case FileSkipped:
		r.Skipped++
	}
	r.Files = append(r.Files, res)
}
