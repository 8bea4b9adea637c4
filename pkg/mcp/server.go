package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/image-extractor/pkg/config"
	"github.com/Sriram-PR/image-extractor/pkg/orchestrate"
)

const (
	serverName    = "image-extractor"
	serverVersion = "1.0.0"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig  *config.AppConfig
	ConfigPath string
	Transport  string // "stdio" or "sse"
	Port       int
	Logger     *logrus.Logger
}

// Server exposes the extraction pipeline as MCP tools
type Server struct {
	mcpServer    *server.MCPServer
	cfg          *ServerConfig
	log          *logrus.Entry
	orchestrator *orchestrate.Orchestrator
	jobManager   *JobManager

	mu        sync.Mutex
	sseServer *server.SSEServer // Set while the SSE transport is running
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	log := cfg.Logger.WithField("component", "mcp")
	s := &Server{
		mcpServer:    mcpServer,
		cfg:          cfg,
		log:          log,
		orchestrator: orchestrate.New(cfg.AppConfig, log),
		jobManager:   NewJobManager(),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractImagesTool := mcp.NewTool("extract_images",
		mcp.WithDescription("Extract images at least min_width x min_height pixels from one or more web pages. "+
			"Returns per-page accepted image names and diagnostics."),
		mcp.WithString("urls",
			mcp.Required(),
			mcp.Description("Page URLs, separated by commas or newlines. https:// is assumed when no scheme is given."),
		),
		mcp.WithNumber("min_width",
			mcp.Description(fmt.Sprintf("Minimum image width in pixels (default: %d)", s.cfg.AppConfig.MinWidth)),
		),
		mcp.WithNumber("min_height",
			mcp.Description(fmt.Sprintf("Minimum image height in pixels (default: %d)", s.cfg.AppConfig.MinHeight)),
		),
		mcp.WithBoolean("save",
			mcp.Description("Write one zip archive per page plus a manifest to the configured output directory"),
		),
		mcp.WithBoolean("background",
			mcp.Description("Run as a background job and return a job ID immediately (implies save)"),
		),
	)
	s.mcpServer.AddTool(extractImagesTool, s.handleExtractImages)

	listCandidatesTool := mcp.NewTool("list_image_candidates",
		mcp.WithDescription("Fetch one page and list the image URLs it references, without downloading them"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The page URL"),
		),
	)
	s.mcpServer.AddTool(listCandidatesTool, s.handleListImageCandidates)

	getJobStatusTool := mcp.NewTool("get_job_status",
		mcp.WithDescription("Get the status and, once finished, the result of a background extraction job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by extract_images"),
		),
	)
	s.mcpServer.AddTool(getJobStatusTool, s.handleGetJobStatus)

	cancelJobTool := mcp.NewTool("cancel_job",
		mcp.WithDescription("Cancel a background extraction job. The page in progress finishes; later pages are skipped."),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by extract_images"),
		),
	)
	s.mcpServer.AddTool(cancelJobTool, s.handleCancelJob)

	listJobsTool := mcp.NewTool("list_jobs",
		mcp.WithDescription("List background extraction jobs started by this server, oldest first"),
	)
	s.mcpServer.AddTool(listJobsTool, s.handleListJobs)

	serverInfoTool := mcp.NewTool("server_info",
		mcp.WithDescription("Show the server version, the config file in use and the effective extraction defaults"),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)

	s.log.Infof("Registered %d MCP tools", 6)
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
		sseServer := server.NewSSEServer(s.mcpServer)
		s.mu.Lock()
		s.sseServer = sseServer
		s.mu.Unlock()
		if err := sseServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown cancels background jobs and stops the SSE listener if one is running.
// Pages already in progress finish; the stdio transport stops on its own signal handling.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	s.jobManager.CancelAll()

	s.mu.Lock()
	sseServer := s.sseServer
	s.mu.Unlock()
	if sseServer == nil {
		return nil
	}
	if err := sseServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("stopping SSE server: %w", err)
	}
	return nil
}
