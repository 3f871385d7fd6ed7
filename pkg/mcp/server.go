// Package mcp exposes outline extraction, markdown rendering, site builds and
// search over the built site as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/chaijs/docsite/pkg/config"
	"github.com/chaijs/docsite/pkg/markdown"
	"github.com/chaijs/docsite/pkg/site"
)

const serverName = "docsite"

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig  *config.AppConfig
	ConfigPath string
	Transport  string // "stdio" or "sse"
	Port       int
	Version    string
	Logger     *logrus.Logger
	Loader     site.DataLoader // Global data for builds; nil for none
}

// Server wraps the MCP server with the site tools
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	jobManager *JobManager
	renderer   *markdown.Renderer
	jobs       sync.WaitGroup
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	s := &Server{
		mcpServer:  server.NewMCPServer(serverName, cfg.Version, server.WithLogging()),
		cfg:        cfg,
		log:        cfg.Logger.WithField("component", "mcp"),
		jobManager: NewJobManager(),
		renderer:   markdown.NewRenderer(markdown.OptionsFromConfig(*cfg.AppConfig)),
	}
	s.registerTools()
	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	tools := []server.ServerTool{
		{
			Tool: mcp.NewTool("extract_outline",
				mcp.WithDescription("Extract the h2-h6 outline of an HTML document and render its navigation markup"),
				mcp.WithString("html",
					mcp.Required(),
					mcp.Description("HTML document or fragment"),
				),
				mcp.WithString("summary",
					mcp.Description("Label of the navigation container (defaults to 'Navigation')"),
				),
			),
			Handler: s.handleExtractOutline,
		},
		{
			Tool: mcp.NewTool("render_markdown",
				mcp.WithDescription("Render markdown to HTML with unique heading identifiers, returning front matter and outline"),
				mcp.WithString("markdown",
					mcp.Required(),
					mcp.Description("Markdown source, optionally with YAML front matter"),
				),
			),
			Handler: s.handleRenderMarkdown,
		},
		{
			Tool: mcp.NewTool("build_site",
				mcp.WithDescription("Start a background build of the configured site. Returns immediately with a job ID."),
				mcp.WithBoolean("clean",
					mcp.Description("Remove the output directory before building"),
				),
			),
			Handler: s.handleBuildSite,
		},
		{
			Tool: mcp.NewTool("get_job_status",
				mcp.WithDescription("Get the status of a build job"),
				mcp.WithString("job_id",
					mcp.Required(),
					mcp.Description("The job ID returned by build_site"),
				),
			),
			Handler: s.handleGetJobStatus,
		},
		{
			Tool: mcp.NewTool("list_jobs",
				mcp.WithDescription("List build jobs of this server, oldest first"),
			),
			Handler: s.handleListJobs,
		},
		{
			Tool: mcp.NewTool("cancel_job",
				mcp.WithDescription("Cancel an active build job"),
				mcp.WithString("job_id",
					mcp.Required(),
					mcp.Description("The job ID returned by build_site"),
				),
			),
			Handler: s.handleCancelJob,
		},
		{
			Tool: mcp.NewTool("search_pages",
				mcp.WithDescription("Search built pages by title, heading and content using text matching"),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("Search query (case-insensitive substring match)"),
				),
				mcp.WithNumber("max_results",
					mcp.Description("Maximum number of results to return (default: 10, max: 100)"),
				),
			),
			Handler: s.handleSearchPages,
		},
	}
	s.mcpServer.AddTools(tools...)
	s.log.Infof("Registered %d MCP tools", len(tools))
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		return server.NewSSEServer(s.mcpServer).Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown cancels running builds and waits for them to stop or ctx to end
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	s.jobManager.CancelAll()

	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
