package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"bentobot/lib/scrapers/menupage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type SyncOptions struct {
	// directory where menu pdfs are cached, defaults to "menus"
	Dir string
	// re-extract pdfs that were already on disk
	Force bool
}

type SyncReport struct {
	RunId          uuid.UUID
	PDFsFound      int
	PDFsDownloaded int
	PDFsSkipped    int
	DaysUpserted   int
	Errors         []string
}

// Pipeline wires the menu page scraper, the Gemini extractor and the
// store into one sync pass.
type Pipeline struct {
	scraper   menupage.Client
	extractor Extractor
	store     Service
}

func NewPipeline(scraper menupage.Client, extractor Extractor, store Service) Pipeline {
	return Pipeline{
		scraper:   scraper,
		extractor: extractor,
		store:     store,
	}
}

// Sync scrapes the menu listing, downloads pdfs that are not cached
// yet and extracts the fresh ones into the store. A single bad pdf
// only lands in the report, it does not stop the others.
func (p Pipeline) Sync(ctx context.Context, opts SyncOptions) (SyncReport, error) {
	ctx, span := tracer.Start(ctx, "pipeline:Sync")
	defer span.End()

	report := SyncReport{RunId: uuid.New()}
	span.SetAttributes(attribute.String("run_id", report.RunId.String()))

	if opts.Dir == "" {
		opts.Dir = "menus"
	}

	links, err := p.scraper.FetchPDFLinks(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}
	report.PDFsFound = len(links)

	for _, link := range links {
		path, downloaded, err := p.scraper.Download(ctx, link, opts.Dir)
		if err != nil {
			slog.ErrorContext(ctx, "failed to download menu pdf", "url", link.URL, "err", err)
			report.Errors = append(report.Errors, fmt.Sprintf("download %s: %s", link.URL, err))
			continue
		}
		if downloaded {
			report.PDFsDownloaded++
		} else {
			report.PDFsSkipped++
			if !opts.Force {
				continue
			}
		}

		days, err := p.extractor.ExtractDays(ctx, path)
		if errors.Is(err, MissingApiKey) {
			// without a key every remaining pdf would fail the same way
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return report, err
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to extract menu pdf", "pdf", path, "err", err)
			report.Errors = append(report.Errors, fmt.Sprintf("extract %s: %s", filepath.Base(path), err))
			continue
		}

		err = p.store.UpsertDays(ctx, days)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return report, err
		}
		report.DaysUpserted += len(days)
	}

	slog.InfoContext(
		ctx, "menu sync finished",
		"run_id", report.RunId,
		"found", report.PDFsFound,
		"downloaded", report.PDFsDownloaded,
		"skipped", report.PDFsSkipped,
		"days", report.DaysUpserted,
		"errors", len(report.Errors),
	)
	return report, nil
}
