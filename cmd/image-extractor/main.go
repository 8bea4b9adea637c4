package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/image-extractor/pkg/bundle"
	"github.com/Sriram-PR/image-extractor/pkg/config"
	applog "github.com/Sriram-PR/image-extractor/pkg/log"
	"github.com/Sriram-PR/image-extractor/pkg/models"
	"github.com/Sriram-PR/image-extractor/pkg/orchestrate"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "extract":
		runExtract(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "mcp-server":
		runMcpServer(os.Args[2:])
	case "version":
		fmt.Printf("image-extractor %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `image-extractor - Product page image extractor

Usage:
  image-extractor <command> [options]

Commands:
  extract     Extract large images from one or more pages
  validate    Validate configuration file
  mcp-server  Start MCP server for AI tool integration
  version     Show version info

Run 'image-extractor <command> -h' for command-specific help.`)
}

// loadConfig loads the config file and applies environment overrides.
// A missing file is tolerated unless required is set.
func loadConfig(path string, required bool) (*config.AppConfig, error) {
	return config.Load(path, required)
}

// extractOptions carries the extract subcommand's flags
type extractOptions struct {
	ConfigPath     string
	ConfigRequired bool
	URLs           []string
	MinWidth       int
	MinHeight      int
	OutDir         string
	LogLevel       string
	LogFormat      string
}

// runExtract handles the extract subcommand
func runExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file (optional)")
	urlList := fs.String("urls", "", "Comma-separated page URLs (in addition to positional URLs)")
	minWidth := fs.Int("min-width", 0, "Minimum image width in pixels (0 = config default)")
	minHeight := fs.Int("min-height", 0, "Minimum image height in pixels (0 = config default)")
	outDir := fs.String("out", "", "Output directory for archives (default: output_dir from config)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "text", "Log format (text, json)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: image-extractor extract [options] URL...\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  image-extractor extract https://shop.example/products/widget\n")
		fmt.Fprintf(os.Stderr, "  image-extractor extract -min-width 800 -min-height 600 -out ./imgs shop.example/a shop.example/b\n")
		fmt.Fprintf(os.Stderr, "  image-extractor extract -urls shop.example/a,shop.example/b\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	configSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configSet = true
		}
	})

	opts := extractOptions{
		ConfigPath:     *configFile,
		ConfigRequired: configSet,
		URLs:           collectURLs(*urlList, fs.Args()),
		MinWidth:       *minWidth,
		MinHeight:      *minHeight,
		OutDir:         *outDir,
		LogLevel:       *logLevel,
		LogFormat:      *logFormat,
	}

	// --- Handle signals for graceful shutdown ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		sig, ok := <-sigChan
		if !ok {
			return
		}
		fmt.Fprintf(os.Stderr, "Received signal %v, finishing current page...\n", sig)
		cancel()

		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "Received second signal, forcing exit.")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			fmt.Fprintln(os.Stderr, "Graceful shutdown period exceeded, forcing exit.")
			os.Exit(1)
		}
	}()

	os.Exit(doExtract(ctx, opts, os.Stdout, os.Stderr))
}

// collectURLs merges the -urls list with positional arguments, dropping blanks
func collectURLs(list string, positional []string) []string {
	var urls []string
	for _, u := range strings.Split(list, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	for _, u := range positional {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// doExtract runs one batch and saves its archives.
// Returns exit code: 0 once the batch ran, even if some pages failed; 1 on setup errors.
func doExtract(ctx context.Context, opts extractOptions, stdout, stderr io.Writer) int {
	if len(opts.URLs) == 0 {
		fmt.Fprintln(stderr, "Error: at least one page URL is required")
		return 1
	}
	if opts.MinWidth < 0 || opts.MinHeight < 0 {
		fmt.Fprintln(stderr, "Error: -min-width and -min-height cannot be negative")
		return 1
	}

	log, err := applog.New(opts.LogLevel, opts.LogFormat, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	appCfg, err := loadConfig(opts.ConfigPath, opts.ConfigRequired)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.OutDir != "" {
		appCfg.OutputDir = opts.OutDir
	}
	warnings, err := appCfg.Validate()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	logAppConfig(appCfg, log)

	requests := make([]models.PageRequest, 0, len(opts.URLs))
	for _, u := range opts.URLs {
		requests = append(requests, models.PageRequest{URL: u, MinWidth: opts.MinWidth, MinHeight: opts.MinHeight})
	}

	logEntry := log.WithField("component", "extract")
	orch := orchestrate.New(appCfg, logEntry)
	batch := orch.ProcessBatch(ctx, requests)

	saved, err := bundle.SaveBatch(appCfg.OutputDir, batch, appCfg, logEntry.WithField("run_id", batch.RunID))
	if err != nil {
		fmt.Fprintf(stderr, "Error saving results: %v\n", err)
		return 1
	}

	printBatch(stdout, batch, saved)

	if errors.Is(ctx.Err(), context.Canceled) {
		log.Warn("Extraction cancelled; remaining pages were skipped.")
	}
	return 0
}

// printBatch writes one line per page in request order, then the output locations
func printBatch(w io.Writer, batch models.BatchResult, saved *bundle.SavedBatch) {
	for i, page := range batch.Pages {
		if page.Failed() || page.AcceptedCount == 0 {
			fmt.Fprintf(w, "FAIL  %s (%s): %s\n", page.PageName, page.SourceURL, page.Diagnostic)
			continue
		}
		fmt.Fprintf(w, "OK    %s (%s): %d image(s)", page.PageName, page.SourceURL, page.AcceptedCount)
		if saved != nil && i < len(saved.Archives) && saved.Archives[i] != "" {
			fmt.Fprintf(w, " -> %s", saved.Archives[i])
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d image(s) from %d page(s), run %s\n", batch.TotalAccepted(), len(batch.Pages), batch.RunID)
	if saved != nil && saved.ManifestPath != "" {
		fmt.Fprintf(w, "Manifest: %s\n", saved.ManifestPath)
	}
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: image-extractor validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doValidate(*configFile, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath, true)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := appCfg.Validate()
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}

	fmt.Fprintf(stdout, "OK: thresholds %dx%d, %d image worker(s), output to %s\n",
		appCfg.MinWidth, appCfg.MinHeight, appCfg.NumImageWorkers, appCfg.OutputDir)
	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// logAppConfig logs the effective global configuration
func logAppConfig(appCfg *config.AppConfig, log *logrus.Logger) {
	log.Infof("Global Config: ImageWorkers:%d, MaxReqs:%d, Thresholds:%dx%d",
		appCfg.NumImageWorkers, appCfg.MaxRequests, appCfg.MinWidth, appCfg.MinHeight)
	log.Infof("Global Config Timeouts: Page:%v, Image:%v", appCfg.PageTimeout, appCfg.ImageTimeout)
	log.Infof("Global Config Limits: MaxPageSize:%d bytes, MaxImageSize:%d bytes",
		appCfg.MaxPageSizeBytes, appCfg.MaxImageSizeBytes)
	log.Infof("Global Config Behaviour: RespectRobots:%t, Reencode:%t, OutputDir:%s",
		appCfg.RespectRobotsTxt, appCfg.ReencodeImages, appCfg.OutputDir)
	log.Infof("Global Config HTTP Client: Timeout:%v, MaxIdle:%d, MaxIdlePerHost:%d, IdleTimeout:%v, TLSTimeout:%v, DialerTimeout:%v",
		appCfg.HTTPClientSettings.Timeout, appCfg.HTTPClientSettings.MaxIdleConns, appCfg.HTTPClientSettings.MaxIdleConnsPerHost,
		appCfg.HTTPClientSettings.IdleConnTimeout, appCfg.HTTPClientSettings.TLSHandshakeTimeout, appCfg.HTTPClientSettings.DialerTimeout)
	log.Infof("Global Config Manifest: Enabled:%t, Filename:'%s'",
		appCfg.GetEffectiveEnableManifest(), appCfg.GetEffectiveManifestFilename())
}
