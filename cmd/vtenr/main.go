// # cmd/vtenr/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"vtschooldata/internal/config"
	"vtschooldata/internal/shared/observability"
)

var (
	configPath = flag.String("config", "./vtenr.toml", "Path to config file")
	years      = flag.String("years", "", "Years to fetch, e.g. 2023 or 2019-2021,2023 (default: latest published year)")
	variant    = flag.String("variant", "total", "Dataset variant: total or demographic")
	school     = flag.String("school", "", "Glob filter on school name or ID, e.g. 'Burlington*'")
	format     = flag.String("format", "tsv", "Output format: tsv, csv or json")
	outPath    = flag.String("out", "", "Write output to file instead of stdout")
	listYears  = flag.Bool("list-years", false, "Print available years and exit")
	refresh    = flag.Bool("refresh", false, "Bypass the local cache and re-fetch from the provider")
	watch      = flag.Bool("watch", false, "Re-fetch when the local mirror changes (file provider only)")
	obsAddr    = flag.String("obs-addr", "", "Serve /metrics and /health on this address (overrides config)")
	ui         = flag.Bool("ui", false, "Enable terminal UI mode")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.1.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("vtenr v%s\n", VERSION)
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stderr
	if *ui {
		// In UI mode, avoid stderr logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600); err == nil {
			output = f
		} else {
			fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) && *configPath == "./vtenr.toml" {
			cfg = config.Default()
		} else {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}
	config.ApplyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if *obsAddr != "" {
		cfg.Observability.Enabled = true
		cfg.Observability.Addr = *obsAddr
	}

	if *watch && cfg.Provider.Kind != config.ProviderFile {
		fmt.Fprintln(os.Stderr, "--watch requires the file provider (provider.kind = \"file\")")
		os.Exit(1)
	}

	ctx := context.Background()

	if cfg.Observability.EnableTracing && cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, VERSION)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	if cfg.Observability.Enabled {
		obs := NewObservabilityServer(cfg.Observability.Addr, rt.Health())
		if err := obs.Start(ctx); err != nil {
			slog.Warn("observability server failed to start", "error", err)
		} else {
			defer obs.Stop(context.Background())
		}
	}

	if err := rt.Run(ctx, runOptions{
		Years:     *years,
		Variant:   *variant,
		School:    *school,
		Format:    *format,
		OutPath:   *outPath,
		ListYears: *listYears,
		Refresh:   *refresh,
		Watch:     *watch,
		UI:        *ui,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "vtenr", "vtenr.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "vtenr", "vtenr.log")
	}

	return "vtenr.log"
}
