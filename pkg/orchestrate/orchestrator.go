package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/Sriram-PR/image-extractor/pkg/config"
	"github.com/Sriram-PR/image-extractor/pkg/extract"
	"github.com/Sriram-PR/image-extractor/pkg/fetch"
	"github.com/Sriram-PR/image-extractor/pkg/models"
	"github.com/Sriram-PR/image-extractor/pkg/parse"
	"github.com/Sriram-PR/image-extractor/pkg/process"
	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

// DiagnosticCancelled is attached to pages that were never started because the batch context ended
const DiagnosticCancelled = "batch cancelled before page was processed"

// Orchestrator drives page fetch, candidate resolution, image processing and bundling for a batch.
// It holds no per-run state, so one Orchestrator can serve concurrent batches.
type Orchestrator struct {
	appCfg *config.AppConfig
	log    *logrus.Entry

	// Shared resources
	fetcher *fetch.Fetcher
	robots  *fetch.RobotsChecker
	images  *process.ImageProcessor
}

// PageCandidates is a page's resolved image references, without any images fetched
type PageCandidates struct {
	SourceURL  string
	FinalURL   string
	PageName   string
	Candidates []models.ImageCandidate
}

// loadedPage is a fetched and parsed page
type loadedPage struct {
	sourceURL string
	finalURL  *url.URL
	doc       *goquery.Document
	pageName  string
}

// New creates an Orchestrator. appCfg must already be validated.
func New(appCfg *config.AppConfig, log *logrus.Entry) *Orchestrator {
	httpClient := fetch.NewClient(appCfg.HTTPClientSettings, log)

	// Bounds in-flight requests across every batch sharing this Orchestrator
	globalSemaphore := semaphore.NewWeighted(int64(appCfg.MaxRequests))
	fetcher := fetch.NewFetcher(httpClient, appCfg.UserAgent, globalSemaphore, log)

	return &Orchestrator{
		appCfg:  appCfg,
		log:     log,
		fetcher: fetcher,
		robots:  fetch.NewRobotsChecker(fetcher, appCfg.UserAgent, appCfg.PageTimeout, log),
		images:  process.NewImageProcessor(fetcher, *appCfg, log),
	}
}

// ProcessBatch processes every request in order and returns one PageResult per request.
// Page failures are recorded on their PageResult and never stop the batch. ctx is checked
// between pages only: a page that has started always runs to completion.
func (o *Orchestrator) ProcessBatch(ctx context.Context, requests []models.PageRequest) models.BatchResult {
	batch := models.BatchResult{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Pages:     make([]models.PageResult, 0, len(requests)),
	}
	batchLog := o.log.WithField("run_id", batch.RunID)
	batchLog.Infof("Starting batch of %d page(s)", len(requests))

	for i, req := range requests {
		if err := ctx.Err(); err != nil {
			batch.Pages = append(batch.Pages, models.PageResult{
				Request:    req,
				SourceURL:  req.URL,
				PageName:   extract.FallbackPageName,
				Diagnostic: DiagnosticCancelled,
				Err:        err,
			})
			continue
		}

		pageLog := batchLog.WithFields(logrus.Fields{"page_index": i, "page_url": req.URL})
		batch.Pages = append(batch.Pages, o.processPage(context.WithoutCancel(ctx), req, pageLog))
	}

	batch.FinishedAt = time.Now()
	o.logSummary(batchLog, batch)
	return batch
}

// processPage runs the whole pipeline for one page
func (o *Orchestrator) processPage(ctx context.Context, req models.PageRequest, pageLog *logrus.Entry) models.PageResult {
	result := models.PageResult{
		Request:   req,
		SourceURL: req.URL,
		PageName:  extract.FallbackPageName,
	}

	page, err := o.loadPage(ctx, req.URL, pageLog)
	if page != nil {
		result.SourceURL = page.sourceURL
	}
	if err != nil {
		result.Err = err
		result.Diagnostic = pageDiagnostic(err)
		pageLog.WithField("error_type", utils.CategorizeError(err)).Warn(result.Diagnostic)
		return result
	}
	result.PageName = page.pageName

	minWidth, minHeight := o.appCfg.EffectiveThresholds(req.MinWidth, req.MinHeight)
	candidates := extract.ResolveCandidates(page.doc, page.finalURL)
	result.CandidateCount = len(candidates)
	pageLog = pageLog.WithField("page_name", page.pageName)
	pageLog.Debugf("Resolved %d image candidate(s), thresholds %dx%d", len(candidates), minWidth, minHeight)

	images := o.images.ProcessImages(ctx, candidates, page.pageName, minWidth, minHeight, pageLog)
	result.Accepted = images.Accepted
	result.AcceptedCount = len(images.Accepted)
	result.RejectedCount = images.Rejected
	result.SkippedCount = images.Skipped
	result.SkipReasons = images.Reasons

	if result.AcceptedCount == 0 {
		result.Diagnostic = fmt.Sprintf("no suitable images found on page %q", page.pageName)
		pageLog.Info(result.Diagnostic)
	} else {
		pageLog.Infof("Accepted %d of %d image candidate(s)", result.AcceptedCount, result.CandidateCount)
	}
	return result
}

// ListCandidates fetches a single page and resolves its image references without downloading them
func (o *Orchestrator) ListCandidates(ctx context.Context, rawURL string) (*PageCandidates, error) {
	pageLog := o.log.WithField("page_url", rawURL)
	page, err := o.loadPage(ctx, rawURL, pageLog)
	if err != nil {
		return nil, err
	}
	return &PageCandidates{
		SourceURL:  page.sourceURL,
		FinalURL:   page.finalURL.String(),
		PageName:   page.pageName,
		Candidates: extract.ResolveCandidates(page.doc, page.finalURL),
	}, nil
}

// loadPage normalizes, robots-checks, fetches and parses a page.
// The returned page is non-nil whenever the URL could be normalized, even on error.
func (o *Orchestrator) loadPage(ctx context.Context, rawURL string, pageLog *logrus.Entry) (*loadedPage, error) {
	normalized, parsedURL, err := parse.NormalizePageURL(rawURL)
	if err != nil {
		return nil, err
	}
	page := &loadedPage{sourceURL: normalized}

	if o.appCfg.RespectRobotsTxt && !o.robots.Allowed(ctx, parsedURL) {
		return page, fmt.Errorf("%w: %s", utils.ErrRobotsDisallowed, normalized)
	}

	resp, err := o.fetcher.FetchPage(ctx, normalized, o.appCfg.PageTimeout, o.appCfg.MaxPageSizeBytes)
	if err != nil {
		return page, fmt.Errorf("%w: %w", utils.ErrPageFetch, err)
	}

	doc, err := extract.ParseDocument(resp.Body, resp.ContentType)
	if err != nil {
		return page, err
	}

	page.finalURL = resp.FinalURL
	page.doc = doc
	page.pageName = extract.DerivePageName(doc)
	pageLog.WithField("final_url", resp.FinalURL.String()).Debugf("Fetched page (%d bytes)", len(resp.Body))
	return page, nil
}

// pageDiagnostic turns a page-level failure into the message shown to the caller
func pageDiagnostic(err error) string {
	switch {
	case errors.Is(err, utils.ErrRobotsDisallowed):
		return "page disallowed by robots.txt"
	case errors.Is(err, utils.ErrPageFetch):
		return fmt.Sprintf("page fetch failed: %v", err)
	case errors.Is(err, utils.ErrParsing):
		if utils.CategorizeError(err) == "Content_ParsingURL" {
			return fmt.Sprintf("invalid page URL: %v", err)
		}
		return fmt.Sprintf("page could not be parsed: %v", err)
	default:
		return fmt.Sprintf("page failed: %v", err)
	}
}

// logSummary logs a summary of all page results
func (o *Orchestrator) logSummary(batchLog *logrus.Entry, batch models.BatchResult) {
	batchLog.Info("============================================")
	batchLog.Infof("Batch completed in %v", batch.FinishedAt.Sub(batch.StartedAt))
	batchLog.Info("Page Results:")

	failCount := 0
	for _, p := range batch.Pages {
		status := "OK"
		if p.Failed() {
			status = "FAILED"
			failCount++
		}
		batchLog.Infof("  %s (%s): %s - %d accepted, %d rejected, %d skipped",
			p.PageName, p.SourceURL, status, p.AcceptedCount, p.RejectedCount, p.SkippedCount)
		if p.Diagnostic != "" {
			batchLog.Infof("    %s", p.Diagnostic)
		}
	}

	batchLog.Info("--------------------------------------------")
	batchLog.Infof("Total: %d pages (%d failed), %d images accepted",
		len(batch.Pages), failCount, batch.TotalAccepted())
	batchLog.Info("============================================")
}
