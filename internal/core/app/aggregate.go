package app

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vtschooldata/internal/core/enrollment"
	"vtschooldata/internal/core/errors"
	"vtschooldata/internal/shared/observability"
)

type yearOutcome struct {
	year    int
	records []enrollment.Record
	err     error
}

// FetchEnrMulti fetches and tidies each requested year independently.
// One year's failure never aborts the others; failed years land in the
// result metadata instead. Only when every year fails does the call
// return NO_DATA. Records are concatenated in ascending year order
// regardless of the order years were requested in.
func (a *App) FetchEnrMulti(ctx context.Context, years []int, variant enrollment.Variant) (*enrollment.FetchResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.FetchEnrMulti", trace.WithAttributes(
		attribute.IntSlice("enrollment.years", years),
		attribute.String("enrollment.variant", variant.String()),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !variant.Valid() {
		return nil, errors.AddContext(
			errors.New(errors.CodeValidationError, "unknown variant"),
			errors.CtxVariant, variant.String())
	}
	if len(years) == 0 {
		return nil, errors.New(errors.CodeValidationError, "at least one year is required")
	}

	req := enrollment.FetchRequest{Years: normalizeYears(years), Variant: variant}
	outcomes := a.fetchYears(ctx, req.Years, req.Variant)

	result := &enrollment.FetchResult{
		RequestID: uuid.NewString(),
		Variant:   req.Variant,
	}
	for _, out := range outcomes {
		if out.err != nil {
			observability.YearsFailedTotal.Inc()
			result.Failures = append(result.Failures, enrollment.YearFailure{Year: out.year, Err: out.err})
			continue
		}
		result.YearsFetched = append(result.YearsFetched, out.year)
		result.Records = append(result.Records, out.records...)
	}

	if len(result.YearsFetched) == 0 {
		err := errors.New(errors.CodeNoData, "no requested year could be fetched")
		for _, f := range result.Failures {
			err = errors.AddContext(err, errors.CtxYear, f.Year)
		}
		return nil, err
	}

	slog.Debug("aggregate fetch complete",
		"request_id", result.RequestID,
		"years_fetched", result.YearsFetched,
		"years_failed", result.FailedYears(),
		"records", len(result.Records))
	return result, nil
}

// fetchYears runs per-year fetches, optionally on a bounded worker
// pool. Outcomes are always returned in ascending year order so
// parallelism cannot change observable output.
func (a *App) fetchYears(ctx context.Context, years []int, variant enrollment.Variant) []yearOutcome {
	outcomes := make([]yearOutcome, len(years))

	if a.workers < 2 || len(years) < 2 {
		for i, year := range years {
			records, err := a.FetchEnr(ctx, year, variant)
			outcomes[i] = yearOutcome{year: year, records: records, err: err}
		}
		return outcomes
	}

	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup
	for i, year := range years {
		wg.Add(1)
		go func(slot, year int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			records, err := a.FetchEnr(ctx, year, variant)
			outcomes[slot] = yearOutcome{year: year, records: records, err: err}
		}(i, year)
	}
	wg.Wait()
	return outcomes
}

// normalizeYears sorts ascending and drops duplicates.
func normalizeYears(years []int) []int {
	normalized := make([]int, len(years))
	copy(normalized, years)
	sort.Ints(normalized)
	deduped := normalized[:0]
	for i, y := range normalized {
		if i == 0 || y != normalized[i-1] {
			deduped = append(deduped, y)
		}
	}
	return deduped
}
