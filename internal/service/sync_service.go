package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/notion-mdx-sync/internal/config"
	"github.com/notion-mdx-sync/internal/extract"
	"github.com/notion-mdx-sync/internal/frontmatter"
	"github.com/notion-mdx-sync/internal/models"
	"github.com/notion-mdx-sync/internal/notion"
	"github.com/notion-mdx-sync/internal/storage"
	"github.com/notion-mdx-sync/internal/validation"
)

// isoMillis matches the timestamps Notion returns.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// dryRunRecord is a synthetic page used when no remote calls may be made.
type dryRunRecord struct {
	id      string
	title   string
	slug    string
	content string
}

var dryRunRecords = []dryRunRecord{
	{id: "dry_1", title: "Hello Dry Run", slug: "hello-dry-run", content: "# Hello Dry Run\n\nSample content."},
	{id: "dry_2", title: "Second Post", slug: "second-post", content: "Content 2"},
}

// syncService is the concrete implementation of SyncService
type syncService struct {
	source     notion.Source
	databaseID string
	extractor  *extract.Extractor
	renderer   *notion.Renderer
	writer     *storage.Writer
	header     frontmatter.Options
	dryRun     bool
	now        func() time.Time
	log        zerolog.Logger
}

// NewSyncService creates the sync driver. source may be nil when only dry
// runs are performed.
func NewSyncService(source notion.Source, cfg *config.Config, log zerolog.Logger, opts ...Option) SyncService {
	o := buildOptions(opts)
	return &syncService{
		source:     source,
		databaseID: cfg.Notion.DatabaseID,
		extractor:  extract.New(cfg.Sync),
		renderer:   notion.NewRenderer(),
		writer:     storage.NewWriter(cfg.Sync.DestDir, cfg.Sync.FileExtension),
		header:     frontmatter.Options{EmitDraft: cfg.Sync.EmitDraft},
		dryRun:     cfg.Sync.DryRun,
		now:        o.now,
		log:        log.With().Str("service", "sync").Logger(),
	}
}

// Run performs one full pass. On error the partial report is returned with
// it; files written before the failure stay on disk.
func (s *syncService) Run(ctx context.Context, opts SyncOptions) (*models.SyncReport, error) {
	report := &models.SyncReport{}

	if err := s.writer.EnsureDir(); err != nil {
		return report, err
	}

	validator := validation.NewValidator()
	dryRun := s.dryRun || opts.DryRun

	s.log.Info().
		Str("dest", s.writer.Dir()).
		Bool("dry_run", dryRun).
		Msg("Sync started")

	var err error
	if dryRun {
		err = s.runDry(ctx, validator, report)
	} else {
		err = s.runRemote(ctx, validator, report)
	}
	if err != nil {
		s.log.Error().Err(err).Int("total", report.Total).Msg("Sync aborted")
		return report, err
	}

	s.log.Info().
		Int("total", report.Total).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("unchanged", report.Unchanged).
		Int("skipped", report.Skipped).
		Msg("Sync completed")

	return report, nil
}

func (s *syncService) runDry(ctx context.Context, validator *validation.Validator, report *models.SyncReport) error {
	now := s.now().UTC().Format(isoMillis)

	for _, rec := range dryRunRecords {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Total++

		doc := models.Document{
			Title:    rec.title,
			Slug:     rec.slug,
			Date:     now,
			Updated:  now,
			NotionID: rec.id,
			Body:     rec.content,
		}
		skip, err := s.claim(validator, &doc, report)
		if err != nil {
			return err
		}
		if skip {
			continue
		}
		if err := s.write(&doc, report); err != nil {
			return err
		}
	}
	return nil
}

func (s *syncService) runRemote(ctx context.Context, validator *validation.Validator, report *models.SyncReport) error {
	if s.source == nil {
		return fmt.Errorf("no Notion source configured")
	}

	cursor := ""
	for {
		page, err := s.source.QueryDatabase(ctx, s.databaseID, cursor, notion.MaxPageSize)
		if err != nil {
			return fmt.Errorf("query database: %w", err)
		}

		for i := range page.Results {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.syncPage(ctx, &page.Results[i], validator, report); err != nil {
				return err
			}
		}

		cursor = page.Cursor()
		if cursor == "" {
			return nil
		}
	}
}

// syncPage gates, extracts, renders and writes one database row.
func (s *syncService) syncPage(ctx context.Context, page *notion.Page, validator *validation.Validator, report *models.SyncReport) error {
	report.Total++

	if decision := s.extractor.Gate(page); !decision.Keep {
		s.log.Debug().Str("notion_id", page.ID).Str("reason", decision.Reason).Msg("Page skipped")
		report.Record(models.FileResult{NotionID: page.ID, Outcome: models.FileSkipped, Reason: decision.Reason})
		return nil
	}

	doc := s.extractor.Extract(page)

	skip, err := s.claim(validator, &doc, report)
	if err != nil || skip {
		return err
	}

	blocks, err := s.source.BlockTree(ctx, page.ID)
	if err != nil {
		return fmt.Errorf("fetch content of %s: %w", page.ID, err)
	}
	doc.Body = s.renderer.Render(blocks).Content()

	return s.write(&doc, report)
}

// claim validates doc and reserves its slug. A slug already taken by an
// earlier page in this run is skipped; any other violation aborts the run.
// Field warnings are logged and the document is still written.
func (s *syncService) claim(validator *validation.Validator, doc *models.Document, report *models.SyncReport) (bool, error) {
	errs := validator.ValidateDocument(doc)
	if validation.IsDuplicate(errs) {
		owner, _ := validator.SlugOwner(doc.Slug)
		s.log.Warn().
			Str("slug", doc.Slug).
			Str("notion_id", doc.NotionID).
			Str("owner", owner).
			Msg("Slug already written by another page in this run, skipping")
		report.Record(models.FileResult{
			NotionID: doc.NotionID,
			Slug:     doc.Slug,
			Path:     s.writer.PathFor(doc.Slug),
			Outcome:  models.FileSkipped,
			Reason:   "slug collision with " + owner,
		})
		return true, nil
	}
	if len(errs) > 0 {
		return false, fmt.Errorf("invalid document for page %s: %s", doc.NotionID, validation.Join(errs))
	}

	for _, w := range validator.Warnings(doc) {
		s.log.Warn().
			Str("notion_id", doc.NotionID).
			Str("field", w.Field).
			Interface("value", w.Value).
			Msg(w.Message)
	}

	validator.ClaimSlug(doc.Slug, doc.NotionID)
	return false, nil
}

func (s *syncService) write(doc *models.Document, report *models.SyncReport) error {
	path := s.writer.PathFor(doc.Slug)

	if h, ok, err := s.writer.ReadHeader(path); err != nil {
		s.log.Debug().Err(err).Str("path", path).Msg("Existing header unreadable")
	} else if ok && h.NotionID != "" && h.NotionID != doc.NotionID {
		s.log.Warn().
			Str("path", path).
			Str("previous_notion_id", h.NotionID).
			Str("notion_id", doc.NotionID).
			Msg("Overwriting file written for a different page")
	}

	content := frontmatter.Compose(*doc, s.header)
	outcome, err := s.writer.Write(path, []byte(content))
	if err != nil {
		return err
	}

	s.log.Debug().Str("path", path).Str("outcome", string(outcome)).Msg("Document written")
	report.Record(models.FileResult{
		NotionID: doc.NotionID,
		Slug:     doc.Slug,
		Path:     path,
		Outcome:  outcome,
	})
	return nil
}
