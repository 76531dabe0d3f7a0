package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vtschooldata/internal/core/enrollment"
	"vtschooldata/internal/core/errors"
	"vtschooldata/internal/core/ports"
	"vtschooldata/internal/shared/observability"
)

// App is the use-case layer over a DataProvider: single-year fetch,
// multi-year aggregation and catalog enumeration, with an optional
// write-through cache for published (immutable) years.
type App struct {
	provider ports.DataProvider
	cache    ports.RecordCache
	workers  int
}

type Options struct {
	// Cache, when non-nil, is consulted before the provider and
	// populated after a successful fetch.
	Cache ports.RecordCache

	// Workers bounds parallel per-year fetches during aggregation.
	// Values below 2 keep aggregation sequential.
	Workers int
}

func New(provider ports.DataProvider, opts Options) (*App, error) {
	if provider == nil {
		return nil, errors.New(errors.CodeValidationError, "provider is required")
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &App{provider: provider, cache: opts.Cache, workers: workers}, nil
}

// FetchEnr retrieves and tidies one year. The result is ordered by
// school, grade then category.
func (a *App) FetchEnr(ctx context.Context, year int, variant enrollment.Variant) ([]enrollment.Record, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.FetchEnr", trace.WithAttributes(
		attribute.Int("enrollment.year", year),
		attribute.String("enrollment.variant", variant.String()),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !variant.Valid() {
		return nil, errors.AddContext(
			errors.New(errors.CodeValidationError, fmt.Sprintf("unknown variant %q", variant)),
			errors.CtxVariant, variant.String())
	}

	if a.cache != nil {
		records, ok, err := a.cache.Get(ctx, year, variant)
		if err != nil {
			slog.Warn("cache read failed, falling through to provider", "year", year, "error", err)
		} else if ok {
			observability.CacheHitsTotal.Inc()
			return records, nil
		}
		observability.CacheMissesTotal.Inc()
	}

	records, err := a.fetchAndTidy(ctx, year, variant)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.Put(ctx, year, variant, records); err != nil {
			slog.Warn("cache write failed", "year", year, "error", err)
		}
	}
	return records, nil
}

func (a *App) fetchAndTidy(ctx context.Context, year int, variant enrollment.Variant) ([]enrollment.Record, error) {
	started := time.Now()
	raw, err := a.provider.FetchYear(ctx, year, variant)
	observability.FetchDuration.WithLabelValues(variant.String()).Observe(time.Since(started).Seconds())
	if err != nil {
		observability.ProviderErrorsTotal.WithLabelValues(string(errors.CodeOf(err))).Inc()
		return nil, errors.AddContext(err, errors.CtxYear, year)
	}

	tidyStarted := time.Now()
	records, err := enrollment.Tidy(raw)
	observability.TidyDuration.Observe(time.Since(tidyStarted).Seconds())
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxYear, year)
	}

	observability.YearsFetchedTotal.Inc()
	observability.RecordsReturnedTotal.Add(float64(len(records)))
	return records, nil
}

// AvailableYears returns the provider's current catalog, strictly
// ascending with duplicates removed. The catalog is queried fresh on
// every call so it always reflects what the provider publishes now.
func (a *App) AvailableYears(ctx context.Context) ([]int, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.AvailableYears")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	observability.CatalogRequestsTotal.Inc()
	years, err := a.provider.AvailableYears(ctx)
	if err != nil {
		observability.ProviderErrorsTotal.WithLabelValues(string(errors.CodeOf(err))).Inc()
		if errors.IsCode(err, errors.CodeProvider) {
			return nil, err
		}
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeProvider, "catalog query failed"),
			errors.CtxOperation, "available_years")
	}

	sort.Ints(years)
	deduped := years[:0]
	for i, y := range years {
		if i == 0 || y != years[i-1] {
			deduped = append(deduped, y)
		}
	}
	return deduped, nil
}

// InvalidateYears drops cached records for the given years, used when
// the provider signals that its dataset changed.
func (a *App) InvalidateYears(ctx context.Context, years []int) {
	if a.cache == nil {
		return
	}
	for _, y := range years {
		if err := a.cache.InvalidateYear(ctx, y); err != nil {
			slog.Warn("cache invalidation failed", "year", y, "error", err)
		}
	}
}

func (a *App) Close() error {
	if a == nil || a.cache == nil {
		return nil
	}
	return a.cache.Close()
}
