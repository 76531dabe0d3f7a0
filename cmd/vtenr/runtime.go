package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"vtschooldata/internal/config"
	"vtschooldata/internal/core/app"
	"vtschooldata/internal/core/enrollment"
	"vtschooldata/internal/core/ports"
	"vtschooldata/internal/data/cache"
	"vtschooldata/internal/provider/filesrc"
	"vtschooldata/internal/provider/httpsrc"
	"vtschooldata/internal/shared/util"
	"vtschooldata/internal/ui/export"
)

// Runtime wires the configured provider, optional cache and the
// use-case layer together for one CLI invocation.
type Runtime struct {
	cfg      *config.Config
	app      *app.App
	provider ports.DataProvider
	store    *cache.Store
}

type runOptions struct {
	Years     string
	Variant   string
	School    string
	Format    string
	OutPath   string
	ListYears bool
	Refresh   bool
	Watch     bool
	UI        bool
}

func newRuntime(cfg *config.Config) (*Runtime, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{cfg: cfg, provider: provider}

	opts := app.Options{Workers: cfg.Aggregate.Workers}
	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		rt.store = store
		opts.Cache = store
	}

	rt.app, err = app.New(provider, opts)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func buildProvider(cfg *config.Config) (ports.DataProvider, error) {
	switch cfg.Provider.Kind {
	case config.ProviderHTTP:
		return httpsrc.New(cfg.Provider.BaseURL, httpsrc.Options{
			Timeout:   cfg.Provider.Timeout,
			RateLimit: cfg.Provider.RateLimit,
			RateBurst: cfg.Provider.RateBurst,
		})
	case config.ProviderFile:
		return filesrc.New(cfg.Provider.MirrorDir)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}
}

func (rt *Runtime) Health() *app.HealthService {
	return app.NewHealthService(rt.app)
}

func (rt *Runtime) Close() error {
	return rt.app.Close()
}

func (rt *Runtime) Run(ctx context.Context, opts runOptions) error {
	if opts.ListYears {
		years, err := rt.app.AvailableYears(ctx)
		if err != nil {
			return err
		}
		for _, y := range years {
			fmt.Println(y)
		}
		return nil
	}

	variant, err := enrollment.ParseVariant(opts.Variant)
	if err != nil {
		return err
	}

	years, err := rt.resolveYears(ctx, opts.Years)
	if err != nil {
		return err
	}

	if opts.Refresh {
		rt.app.InvalidateYears(ctx, years)
	}

	if opts.UI {
		return rt.runUI(ctx, years, variant, opts.School)
	}

	result, err := rt.fetchFiltered(ctx, years, variant, opts.School)
	if err != nil {
		return err
	}
	if err := rt.emit(result, opts.Format, opts.OutPath); err != nil {
		return err
	}

	if opts.Watch {
		return rt.runWatch(ctx, years, variant, opts)
	}
	return nil
}

// resolveYears expands the -years selector, defaulting to the latest
// published year.
func (rt *Runtime) resolveYears(ctx context.Context, spec string) ([]int, error) {
	if spec != "" {
		return util.ParseYearSet(spec)
	}

	available, err := rt.app.AvailableYears(ctx)
	if err != nil {
		return nil, err
	}
	if len(available) == 0 {
		return nil, fmt.Errorf("provider publishes no years")
	}
	return available[len(available)-1:], nil
}

func (rt *Runtime) fetchFiltered(ctx context.Context, years []int, variant enrollment.Variant, school string) (*enrollment.FetchResult, error) {
	result, err := rt.app.FetchEnrMulti(ctx, years, variant)
	if err != nil {
		return nil, err
	}

	for _, f := range result.Failures {
		slog.Warn("year skipped", "year", f.Year, "error", f.Err)
	}

	filtered, err := enrollment.FilterBySchool(result.Records, school)
	if err != nil {
		return nil, err
	}
	result.Records = filtered
	return result, nil
}

func (rt *Runtime) emit(result *enrollment.FetchResult, format, outPath string) error {
	rendered, err := export.Render(result, format)
	if err != nil {
		return err
	}

	if outPath != "" {
		if err := util.WriteFileWithDirs(outPath, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("write output %q: %w", outPath, err)
		}
		slog.Info("output written", "path", outPath, "summary", export.Summary(result))
		return nil
	}

	if _, err := fmt.Fprint(os.Stdout, rendered); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, export.Summary(result))
	return nil
}

// runWatch blocks, re-fetching and re-emitting whenever the file
// provider's mirror directory changes.
func (rt *Runtime) runWatch(ctx context.Context, years []int, variant enrollment.Variant, opts runOptions) error {
	mirror, ok := rt.provider.(*filesrc.Provider)
	if !ok {
		return fmt.Errorf("provider does not support watch mode")
	}

	refetch := make(chan []int, 1)
	stop, err := mirror.WatchMirrorDebounced(rt.cfg.Watch.Debounce, func(changed []int) {
		select {
		case refetch <- changed:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("start mirror watcher: %w", err)
	}
	defer stop()

	slog.Info("watching mirror for changes", "years", years)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case changed := <-refetch:
			slog.Info("mirror changed", "years", changed)
			rt.app.InvalidateYears(ctx, changed)
			result, err := rt.fetchFiltered(ctx, years, variant, opts.School)
			if err != nil {
				slog.Error("re-fetch failed", "error", err)
				continue
			}
			if err := rt.emit(result, opts.Format, opts.OutPath); err != nil {
				slog.Error("re-emit failed", "error", err)
			}
		}
	}
}
