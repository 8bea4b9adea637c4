package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	applog "github.com/Sriram-PR/image-extractor/pkg/log"
	"github.com/Sriram-PR/image-extractor/pkg/mcp"
)

// mcpShutdownTimeout bounds how long a stopping server waits for open SSE connections
const mcpShutdownTimeout = 10 * time.Second

// runMcpServer handles the mcp-server subcommand
func runMcpServer(args []string) {
	fs := flag.NewFlagSet("mcp-server", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file (optional)")
	transport := fs.String("transport", "stdio", "Transport type (stdio, sse)")
	port := fs.Int("port", 8080, "HTTP port (for sse transport)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: image-extractor mcp-server [options]

Start an MCP (Model Context Protocol) server for AI tool integration.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Start with stdio transport
  image-extractor mcp-server -config config.yaml

  # Start with SSE transport on port 8080
  image-extractor mcp-server -transport sse -port 8080

Available MCP Tools:
  extract_images         Extract large images from pages (optionally in the background)
  list_image_candidates  List the image URLs a page references
  get_job_status         Check a background extraction job
  cancel_job             Cancel a background extraction job
  list_jobs              List background extraction jobs
  server_info            Show the config file in use and effective defaults
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doMcpServer(*configFile, *transport, *port, *logLevel, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doMcpServer is the testable implementation of the MCP server
func doMcpServer(configPath, transport string, port int, logLevel string, stdout, stderr io.Writer) int {
	// MCP protocol uses stdout, logs go to stderr
	log, err := applog.New(logLevel, "text", stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid log level: %s\n", logLevel)
		return 1
	}

	appCfg, err := loadConfig(configPath, false)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	warnings, err := appCfg.Validate()
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	for _, w := range warnings {
		log.Warn(w)
	}

	serverCfg := &mcp.ServerConfig{
		AppConfig:  appCfg,
		ConfigPath: configPath,
		Transport:  transport,
		Port:       port,
		Logger:     log,
	}

	server, err := mcp.NewServer(serverCfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating MCP server: %v\n", err)
		return 1
	}

	// --- Handle signals for graceful shutdown ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal %v, shutting down MCP server...", sig)
			shutdownServer(server, log)
		case <-done:
		}
	}()

	log.Infof("Starting MCP server (transport: %s)", transport)

	err = server.Run()
	shutdownServer(server, log)
	if err != nil {
		fmt.Fprintf(stderr, "MCP server error: %v\n", err)
		return 1
	}

	return 0
}

// shutdownServer cancels running jobs and stops the transport, bounded by mcpShutdownTimeout
func shutdownServer(server *mcp.Server, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), mcpShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("MCP server shutdown: %v", err)
	}
}
