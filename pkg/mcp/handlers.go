package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/chaijs/docsite/pkg/config"
	"github.com/chaijs/docsite/pkg/search"
	"github.com/chaijs/docsite/pkg/site"
	"github.com/chaijs/docsite/pkg/toc"
)

const maxSearchResults = 100

// handleExtractOutline handles the extract_outline tool
func (s *Server) handleExtractOutline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := request.GetString("html", "")
	if content == "" {
		return mcp.NewToolResultError("html parameter is required"), nil
	}
	summary := request.GetString("summary", s.cfg.AppConfig.TOC.Summary)

	headings, err := toc.Headings(content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse HTML: %v", err)), nil
	}
	outline := toc.Build(headings)
	nav, err := toc.RenderWithSummary(outline, summary)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render navigation: %v", err)), nil
	}

	result := map[string]interface{}{
		"headings":      headings,
		"outline":       outline,
		"nav":           nav,
		"section_count": len(outline),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleRenderMarkdown handles the render_markdown tool
func (s *Server) handleRenderMarkdown(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := request.GetString("markdown", "")
	if source == "" {
		return mcp.NewToolResultError("markdown parameter is required"), nil
	}

	doc, err := s.renderer.Render([]byte(source))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render markdown: %v", err)), nil
	}
	headings, err := toc.Headings(doc.HTML)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to extract outline: %v", err)), nil
	}
	outline := toc.Build(headings)
	nav, err := toc.RenderWithSummary(outline, config.GetEffectiveTOCSummary(doc.Meta, *s.cfg.AppConfig))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render navigation: %v", err)), nil
	}

	result := map[string]interface{}{
		"html":         doc.HTML,
		"front_matter": doc.Meta,
		"headings":     headings,
		"outline":      outline,
		"nav":          nav,
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleBuildSite handles the build_site tool
func (s *Server) handleBuildSite(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clean := request.GetBool("clean", false)

	job, created := s.jobManager.CreateJob(clean)
	if !created {
		result := map[string]interface{}{
			"status":  "already_running",
			"message": "A build is already in progress",
			"job_id":  job.ID,
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		s.runBuildJob(job)
	}()

	result := map[string]interface{}{
		"status":     "started",
		"message":    "Build started successfully",
		"job_id":     job.ID,
		"clean":      clean,
		"output_dir": s.cfg.AppConfig.OutputDir,
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetJobStatus handles the get_job_status tool
func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job, ok := s.jobManager.GetJob(jobID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}

	result := map[string]interface{}{
		"job_id":     job.ID,
		"status":     job.Status,
		"clean":      job.Clean,
		"started_at": job.StartedAt.Format(time.RFC3339),
		"pages":      job.Pages,
		"assets":     job.Assets,
		"bytes":      job.Bytes,
	}
	if !job.CompletedAt.IsZero() {
		result["completed_at"] = job.CompletedAt.Format(time.RFC3339)
		result["duration_seconds"] = job.CompletedAt.Sub(job.StartedAt).Seconds()
	}
	if len(job.Errors) > 0 {
		result["errors"] = job.Errors
	}
	if job.ErrorMessage != "" {
		result["error_message"] = job.ErrorMessage
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleListJobs handles the list_jobs tool
func (s *Server) handleListJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs := s.jobManager.ListJobs()
	items := make([]map[string]interface{}, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, map[string]interface{}{
			"job_id":     job.ID,
			"status":     job.Status,
			"started_at": job.StartedAt.Format(time.RFC3339),
			"pages":      job.Pages,
		})
	}

	result := map[string]interface{}{
		"jobs":  items,
		"count": len(items),
	}
	if active, ok := s.jobManager.Running(); ok {
		result["active_job_id"] = active.ID
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleCancelJob handles the cancel_job tool
func (s *Server) handleCancelJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}
	if !s.jobManager.CancelJob(jobID) {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' is not active", jobID)), nil
	}

	result := map[string]interface{}{
		"job_id": jobID,
		"status": JobStatusCancelled,
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleSearchPages handles the search_pages tool
func (s *Server) handleSearchPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	maxResults := request.GetInt("max_results", 10)
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > maxSearchResults {
		maxResults = maxSearchResults
	}

	indexPath := filepath.Join(s.cfg.AppConfig.OutputDir, config.GetEffectiveSearchIndexFilename(*s.cfg.AppConfig))
	results, err := search.Query(indexPath, query, maxResults)
	if errors.Is(err, os.ErrNotExist) {
		return mcp.NewToolResultError(fmt.Sprintf("search index %s not found; enable search_index and run build_site first", indexPath)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"query":         query,
		"results":       results,
		"total_matches": len(results),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// runBuildJob runs a build in the background
func (s *Server) runBuildJob(job Job) {
	s.jobManager.UpdateStatus(job.ID, JobStatusRunning, "")
	jobLog := s.log.WithField("job_id", job.ID)

	appCfg := *s.cfg.AppConfig
	appCfg.CleanOutput = appCfg.CleanOutput || job.Clean

	builder := site.NewBuilder(&appCfg, s.cfg.Loader, jobLog)
	summary, err := builder.Build(s.jobManager.GetContext(job.ID))
	if summary != nil {
		s.jobManager.RecordResult(job.ID, summary.Pages, summary.Assets, summary.Bytes, summary.Errors)
	}

	switch {
	case errors.Is(err, context.Canceled):
		s.jobManager.UpdateStatus(job.ID, JobStatusCancelled, "")
	case err != nil:
		jobLog.Errorf("Build failed: %v", err)
		s.jobManager.UpdateStatus(job.ID, JobStatusFailed, err.Error())
	default:
		s.jobManager.UpdateStatus(job.ID, JobStatusCompleted, "")
	}
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
