package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/notion-mdx-sync/internal/models"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// MsgDuplicateSlug marks a slug already claimed by another page in this run.
const MsgDuplicateSlug = "duplicate slug"

// dateLayouts are the shapes Notion uses for date values and timestamps.
// Dates carrying a time_zone come back without an offset.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05.000", "2006-01-02T15:04:05", "2006-01-02"}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validator checks documents before they are written. It remembers which
// page claimed each slug so that collisions within a run are detected.
type Validator struct {
	slugOwners map[string]string
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		slugOwners: make(map[string]string),
	}
}

// ClaimSlug records that notionID owns slug for the rest of the run
func (v *Validator) ClaimSlug(slug, notionID string) {
	if _, taken := v.slugOwners[slug]; !taken {
		v.slugOwners[slug] = notionID
	}
}

// SlugOwner returns the page that claimed slug, if any
func (v *Validator) SlugOwner(slug string) (string, bool) {
	owner, ok := v.slugOwners[slug]
	return owner, ok
}

// ValidateDocument returns the problems that make a document unwritable: a
// slug that is missing, malformed or owned by another page, or a missing
// notion_id. Field content is never fatal; see Warnings.
func (v *Validator) ValidateDocument(doc *models.Document) []ValidationError {
	var errors []ValidationError

	// Validate slug
	if doc.Slug == "" {
		errors = append(errors, ValidationError{Field: "slug", Message: "slug is required"})
	} else if !slugRegex.MatchString(doc.Slug) {
		errors = append(errors, ValidationError{Field: "slug", Message: "slug must be kebab-case (lowercase letters, numbers, hyphens)", Value: doc.Slug})
	} else if owner, ok := v.slugOwners[doc.Slug]; ok && owner != doc.NotionID {
		errors = append(errors, ValidationError{Field: "slug", Message: MsgDuplicateSlug, Value: owner})
	}

	// Validate notion_id
	if doc.NotionID == "" {
		errors = append(errors, ValidationError{Field: "notion_id", Message: "notion_id is required"})
	}

	return errors
}

// Warnings reports header values that are written as-is but look unusual.
func (v *Validator) Warnings(doc *models.Document) []ValidationError {
	var warnings []ValidationError

	if strings.TrimSpace(doc.Title) == "" {
		warnings = append(warnings, ValidationError{Field: "title", Message: "title is blank"})
	}
	if doc.Date != "" && !isValidDate(doc.Date) {
		warnings = append(warnings, ValidationError{Field: "date", Message: "unrecognized date format", Value: doc.Date})
	}
	if doc.Updated != "" && !isValidDate(doc.Updated) {
		warnings = append(warnings, ValidationError{Field: "updated", Message: "unrecognized date format", Value: doc.Updated})
	}

	return warnings
}

// IsDuplicate reports whether errs contains only a slug collision
func IsDuplicate(errs []ValidationError) bool {
	if len(errs) != 1 {
		return false
	}
	return errs[0].Field == "slug" && errs[0].Message == MsgDuplicateSlug
}

// Join renders errors as one message
func Join(errs []ValidationError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// IsValidSlug reports whether s is a well-formed slug
func IsValidSlug(s string) bool {
	return slugRegex.MatchString(s)
}

func isValidDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
