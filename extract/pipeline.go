// Package extract orchestrates the extraction pipeline: load the manifest,
// resolve page locators, metadata, and structure, extract text from every
// page resource, and hand the assembled volume to a writer.
package extract

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tbruckner/metsalto"
	"golang.org/x/sync/errgroup"
)

// Pipeline wires the extraction components. Pages are processed in
// resolved-locator order; Concurrency > 1 parallelizes the per-page
// load+extract step while results are written back at their original
// position, so output is identical to sequential execution.
type Pipeline struct {
	Loader    metsalto.Loader
	Manifest  metsalto.ManifestReader
	Extractor metsalto.TextExtractor
	Writer    metsalto.VolumeWriter

	Logger      *slog.Logger
	Concurrency int
}

// Request describes one extraction run.
type Request struct {
	// ManifestPath is the local path or URL of the METS manifest.
	ManifestPath string

	// Format selects the output shape.
	Format metsalto.Format

	// Mode selects combined or per-page output.
	Mode metsalto.Mode

	// Normalize applies the historical-character table to extracted text.
	Normalize bool
}

// Result summarizes a completed run.
type Result struct {
	// Path of the written file (combined) or directory (per-page).
	Path string

	// Pages is the number of page records written, including failed ones.
	Pages int

	// Failed counts pages whose resource could not be loaded; their text
	// is empty in the output.
	Failed int
}

// PageProgress reports progress as page resources are processed.
type PageProgress struct {
	Key       string
	Address   string
	Completed int
	Total     int
	Error     error
}

// ProgressFunc is called once per processed page.
type ProgressFunc func(PageProgress)

// pageResult holds the outcome of processing a single page resource. The
// failure reason is kept for logging and collapsed to an empty string at
// the assembly boundary.
type pageResult struct {
	position int
	locator  metsalto.PageLocator
	text     string
	err      error
}

// Run executes the pipeline. Failures affecting a single page never abort
// the run; failures affecting the manifest or the destination always do.
func (p *Pipeline) Run(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	if req.ManifestPath == "" {
		return nil, metsalto.Errorf(metsalto.EINVALID, "manifest path required")
	}
	if !req.Format.Valid() {
		return nil, metsalto.Errorf(metsalto.EINVALID, "unsupported output format %q", req.Format)
	}
	if !req.Mode.Valid() {
		return nil, metsalto.Errorf(metsalto.EINVALID, "unsupported output mode %q", req.Mode)
	}
	// A bad destination is a configuration failure; catch it before any
	// page resource is fetched.
	if err := p.Writer.Validate(); err != nil {
		return nil, err
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run", uuid.NewString(), "manifest", req.ManifestPath)

	begin := time.Now()

	manifest, err := p.Loader.Load(ctx, req.ManifestPath)
	if err != nil {
		return nil, err
	}

	locators, err := p.Manifest.Locators(manifest)
	if err != nil {
		return nil, err
	}
	logger.Info("manifest resolved", "pages", len(locators))

	// Fail-soft by contract: both degrade to empty on malformed sections.
	metadata := p.Manifest.Metadata(manifest)
	structure := p.Manifest.Structure(manifest)

	results := p.extractPages(ctx, locators, req.Normalize, progress, logger)

	pages := make([]metsalto.PageText, len(results))
	var failed int
	for i, r := range results {
		text := r.text
		if r.err != nil {
			failed++
			text = ""
		}
		pages[i] = metsalto.PageText{Key: metsalto.PageKey(i + 1), Text: text}
	}

	volume := &metsalto.Volume{
		Source:    sourceName(req.ManifestPath),
		Metadata:  metadata,
		Structure: structure,
		Pages:     pages,
	}

	var outPath string
	if req.Mode == metsalto.ModePerPage {
		outPath, err = p.Writer.WritePages(volume, req.Format)
	} else {
		outPath, err = p.Writer.WriteCombined(volume, req.Format)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("extraction finished",
		"path", outPath,
		"pages", len(pages),
		"failed", failed,
		"duration", time.Since(begin),
	)

	return &Result{Path: outPath, Pages: len(pages), Failed: failed}, nil
}

// extractPages loads and extracts every page resource, in parallel when
// Concurrency > 1. The returned slice is indexed by locator position.
func (p *Pipeline) extractPages(ctx context.Context, locators []metsalto.PageLocator, normalize bool, progress ProgressFunc, logger *slog.Logger) []pageResult {
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	resultCh := make(chan pageResult, len(locators))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for i, loc := range locators {
			i, loc := i, loc
			g.Go(func() error {
				resultCh <- p.processPage(gctx, i, loc, normalize)
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	results := make([]pageResult, len(locators))
	completed := 0
	for r := range resultCh {
		completed++
		results[r.position] = r

		key := metsalto.PageKey(r.position + 1)
		if r.err != nil {
			logger.Warn("page extraction failed",
				"page", key,
				"address", r.locator.Address,
				"err", r.err,
			)
		} else {
			logger.Debug("page extracted", "page", key, "address", r.locator.Address)
		}
		if progress != nil {
			progress(PageProgress{
				Key:       key,
				Address:   r.locator.Address,
				Completed: completed,
				Total:     len(locators),
				Error:     r.err,
			})
		}
	}

	return results
}

func (p *Pipeline) processPage(ctx context.Context, pos int, loc metsalto.PageLocator, normalize bool) pageResult {
	doc, err := p.Loader.Load(ctx, loc.Address)
	if err != nil {
		return pageResult{position: pos, locator: loc, err: err}
	}
	return pageResult{
		position: pos,
		locator:  loc,
		text:     p.Extractor.ExtractText(doc, normalize),
	}
}

// sourceName reduces the manifest address to its final path segment, or
// empty when a remote address has no path to take a segment from.
func sourceName(manifestPath string) string {
	if u, err := url.Parse(manifestPath); err == nil && u.Scheme != "" && u.Host != "" {
		if base := path.Base(u.Path); base != "." && base != "/" {
			return base
		}
		return ""
	}
	return filepath.Base(manifestPath)
}
