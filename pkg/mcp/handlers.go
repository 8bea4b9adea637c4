package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Sriram-PR/image-extractor/pkg/bundle"
	"github.com/Sriram-PR/image-extractor/pkg/models"
	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

// maxURLsPerCall caps a single extract_images batch
const maxURLsPerCall = 50

// BatchSummary is the JSON view of a batch returned to tool callers
type BatchSummary struct {
	RunID       string        `json:"run_id"`
	TotalImages int           `json:"total_images"`
	Pages       []PageSummary `json:"pages"`
	OutputDir   string        `json:"output_dir,omitempty"`
	Manifest    string        `json:"manifest,omitempty"`
}

// PageSummary is the JSON view of one page result
type PageSummary struct {
	SourceURL   string         `json:"source_url"`
	PageName    string         `json:"page_name"`
	Candidates  int            `json:"candidates"`
	Accepted    int            `json:"accepted"`
	Rejected    int            `json:"rejected"`
	Skipped     int            `json:"skipped"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
	Images      []ImageSummary `json:"images,omitempty"`
	Diagnostic  string         `json:"diagnostic,omitempty"`
	ErrorType   string         `json:"error_type,omitempty"`
	Archive     string         `json:"archive,omitempty"`
}

// ImageSummary describes one accepted image
type ImageSummary struct {
	Filename  string `json:"filename"`
	SourceURL string `json:"source_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int    `json:"bytes"`
}

// handleExtractImages handles the extract_images tool
func (s *Server) handleExtractImages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	urls := parseURLList(request.GetArguments()["urls"])
	if len(urls) == 0 {
		return mcp.NewToolResultError("urls parameter is required"), nil
	}
	if len(urls) > maxURLsPerCall {
		return mcp.NewToolResultError(fmt.Sprintf("too many urls: %d (max %d)", len(urls), maxURLsPerCall)), nil
	}

	minWidth := request.GetInt("min_width", 0)
	minHeight := request.GetInt("min_height", 0)
	if minWidth < 0 || minHeight < 0 {
		return mcp.NewToolResultError("min_width and min_height must not be negative"), nil
	}
	requests := buildRequests(urls, minWidth, minHeight)

	if request.GetBool("background", false) {
		job := s.jobManager.CreateJob(urls)
		go s.runJob(job.ID, requests)

		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"job_id":  job.ID,
			"status":  job.Status,
			"pages":   len(requests),
			"message": "Extraction started. Use get_job_status to check progress.",
		})), nil
	}

	summary, err := s.extract(ctx, requests, request.GetBool("save", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatJSON(summary)), nil
}

// extract runs one batch and optionally saves it under the output directory, in a folder per run
func (s *Server) extract(ctx context.Context, requests []models.PageRequest, save bool) (*BatchSummary, error) {
	batch := s.orchestrator.ProcessBatch(ctx, requests)

	var saved *bundle.SavedBatch
	if save {
		var err error
		outDir := filepath.Join(s.cfg.AppConfig.OutputDir, batch.RunID)
		saved, err = bundle.SaveBatch(outDir, batch, s.cfg.AppConfig, s.log.WithField("run_id", batch.RunID))
		if err != nil {
			return nil, fmt.Errorf("saving batch: %w", err)
		}
	}
	return summarizeBatch(batch, saved), nil
}

// runJob runs a background batch to completion
func (s *Server) runJob(jobID string, requests []models.PageRequest) {
	jobLog := s.log.WithField("job_id", jobID)
	defer func() {
		if r := recover(); r != nil {
			jobLog.Errorf("PANIC in extraction job: %v", r)
			s.jobManager.UpdateStatus(jobID, JobStatusFailed, fmt.Sprintf("panic: %v", r))
		}
	}()

	s.jobManager.UpdateStatus(jobID, JobStatusRunning, "")
	summary, err := s.extract(s.jobManager.GetContext(jobID), requests, true)
	if err != nil {
		jobLog.Errorf("Extraction job failed: %v", err)
		s.jobManager.UpdateStatus(jobID, JobStatusFailed, err.Error())
		return
	}
	s.jobManager.Complete(jobID, summary)
	jobLog.Infof("Extraction job finished: %d image(s)", summary.TotalImages)
}

// handleListImageCandidates handles the list_image_candidates tool
func (s *Server) handleListImageCandidates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	urlStr := request.GetString("url", "")
	if strings.TrimSpace(urlStr) == "" {
		return mcp.NewToolResultError("url parameter is required"), nil
	}

	page, err := s.orchestrator.ListCandidates(ctx, urlStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load page (%s): %v", utils.CategorizeError(err), err)), nil
	}

	candidates := make([]map[string]interface{}, 0, len(page.Candidates))
	for _, c := range page.Candidates {
		candidates = append(candidates, map[string]interface{}{
			"tag_index": c.SourceTagIndex,
			"url":       c.URL,
			"attribute": c.Attribute,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"source_url": page.SourceURL,
		"final_url":  page.FinalURL,
		"page_name":  page.PageName,
		"candidates": candidates,
		"total":      len(candidates),
	})), nil
}

// handleGetJobStatus handles the get_job_status tool
func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job := s.jobManager.GetJob(jobID)
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}
	return mcp.NewToolResultText(formatJSON(job)), nil
}

// handleCancelJob handles the cancel_job tool
func (s *Server) handleCancelJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	if !s.jobManager.CancelJob(jobID) {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found or already finished", jobID)), nil
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"job_id": jobID,
		"status": JobStatusCancelled,
	})), nil
}

// handleListJobs handles the list_jobs tool
func (s *Server) handleListJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs := s.jobManager.ListJobs()
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].StartedAt.Before(jobs[j].StartedAt) })

	summaries := make([]map[string]interface{}, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, map[string]interface{}{
			"job_id":     job.ID,
			"status":     job.Status,
			"pages":      len(job.URLs),
			"started_at": job.StartedAt,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"jobs":  summaries,
		"total": len(summaries),
	})), nil
}

// handleServerInfo handles the server_info tool
func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	appCfg := s.cfg.AppConfig
	configPath := s.cfg.ConfigPath
	if configPath == "" {
		configPath = "(defaults and environment only)"
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"name":             serverName,
		"version":          serverVersion,
		"config_path":      configPath,
		"transport":        s.cfg.Transport,
		"min_width":        appCfg.MinWidth,
		"min_height":       appCfg.MinHeight,
		"max_image_pixels": appCfg.MaxImagePixels,
		"output_dir":       appCfg.OutputDir,
		"respect_robots":   appCfg.RespectRobotsTxt,
	})), nil
}

// parseURLList accepts a comma/newline separated string or a JSON array of strings
func parseURLList(raw interface{}) []string {
	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' })
	case []interface{}:
		for _, item := range v {
			if str, ok := item.(string); ok {
				parts = append(parts, str)
			}
		}
	case []string:
		parts = v
	}

	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

// buildRequests pairs every URL with the same thresholds
func buildRequests(urls []string, minWidth, minHeight int) []models.PageRequest {
	requests := make([]models.PageRequest, 0, len(urls))
	for _, u := range urls {
		requests = append(requests, models.PageRequest{URL: u, MinWidth: minWidth, MinHeight: minHeight})
	}
	return requests
}

// summarizeBatch converts a batch result to its JSON view. saved may be nil.
func summarizeBatch(batch models.BatchResult, saved *bundle.SavedBatch) *BatchSummary {
	summary := &BatchSummary{
		RunID:       batch.RunID,
		TotalImages: batch.TotalAccepted(),
		Pages:       make([]PageSummary, 0, len(batch.Pages)),
	}
	if saved != nil {
		summary.OutputDir = saved.OutputDir
		summary.Manifest = saved.ManifestPath
	}

	for i, page := range batch.Pages {
		ps := PageSummary{
			SourceURL:   page.SourceURL,
			PageName:    page.PageName,
			Candidates:  page.CandidateCount,
			Accepted:    page.AcceptedCount,
			Rejected:    page.RejectedCount,
			Skipped:     page.SkippedCount,
			SkipReasons: models.ReasonCounts(page.SkipReasons),
			Diagnostic:  page.Diagnostic,
		}
		if page.Err != nil {
			ps.ErrorType = utils.CategorizeError(page.Err)
		}
		if saved != nil && i < len(saved.Archives) {
			ps.Archive = saved.Archives[i]
		}
		for _, img := range page.Accepted {
			ps.Images = append(ps.Images, ImageSummary{
				Filename:  img.Filename,
				SourceURL: img.SourceURL,
				Width:     img.Width,
				Height:    img.Height,
				Bytes:     len(img.Bytes),
			})
		}
		summary.Pages = append(summary.Pages, ps)
	}
	return summary
}

// formatJSON formats data as an indented JSON string
func formatJSON(data interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
