// Package main is the textctr CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/otaku572/gptproduct/internal/cli"
	"github.com/otaku572/gptproduct/internal/config"
	"github.com/otaku572/gptproduct/internal/docstore"
	"github.com/otaku572/gptproduct/internal/parser"
	"github.com/otaku572/gptproduct/internal/server"
	"github.com/otaku572/gptproduct/internal/storage"
	"github.com/otaku572/gptproduct/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/textctr/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "textctr server" from the project dir uses the project's config (including debug).
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// buildStore constructs the configured storage backend.
func buildStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	case config.BackendFiles:
		return storage.NewFilesStore(cfg.Storage.DataDir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "parse":
		runParse()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("textctr version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (request logging, document writes, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("backend", cfg.Storage.Backend),
		zap.Bool("debug", debugMode),
	)

	store, err := buildStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	svc := docstore.New(store, logger)
	srv := server.NewServer(svc, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// parseText runs the full parser over text and bundles the result.
func parseText(text string) *cli.ParseResult {
	return &cli.ParseResult{
		TOC:      parser.ExtractTOC(text),
		Sections: parser.SplitSections(text),
		Outline:  parser.Outline(text),
	}
}

func runParse() {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: textctr parse [flags] <file>\n\n")
		fmt.Fprintf(fs.Output(), "Prints the table of contents, sections, and outline derived from the file.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteParseResult(os.Stdout, parseText(string(data)), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// statusResponse is the shape of GET /api/status.
type statusResponse struct {
	Projects       int64  `json:"projects"`
	Documents      int64  `json:"documents"`
	Snapshots      int64  `json:"snapshots"`
	Backend        string `json:"backend"`
	DiskUsageBytes *int64 `json:"disk_usage_bytes,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:7350", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response: %v\n", err)
		os.Exit(1)
	}

	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
		return
	}
	fmt.Printf("Backend:   %s\n", status.Backend)
	fmt.Printf("Projects:  %d\n", status.Projects)
	fmt.Printf("Documents: %d\n", status.Documents)
	fmt.Printf("Snapshots: %d\n", status.Snapshots)
	if status.DiskUsageBytes != nil {
		fmt.Printf("Disk:      %d bytes\n", *status.DiskUsageBytes)
	}
}

func printUsage() {
	fmt.Println(`textctr - document structure server

Usage:
  textctr server [-config path] [-debug]   Start the HTTP server
  textctr parse [-output text|json] <file> Print TOC, sections, and outline of a file
  textctr status [-server url]             Show server record counts and disk usage
  textctr version                          Show version
  textctr help                             Show this help`)
}
