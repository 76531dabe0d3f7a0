package ports

import (
	"context"

	"vtschooldata/internal/core/enrollment"
)

// DataProvider abstracts the external enrollment data source. One
// implementation fetches the published dataset over HTTP, another
// reads a local mirror directory.
type DataProvider interface {
	// FetchYear retrieves the raw table for one school year and one
	// dataset variant, unmodified in shape. Unpublished years surface
	// as DATA_UNAVAILABLE, any other failure as PROVIDER_ERROR.
	FetchYear(ctx context.Context, year int, variant enrollment.Variant) (enrollment.RawTable, error)

	// AvailableYears lists the years the provider currently publishes,
	// queried fresh on every call.
	AvailableYears(ctx context.Context) ([]int, error)
}

// RecordCache abstracts optional persistence of tidied results for
// already-published (immutable) years.
type RecordCache interface {
	Get(ctx context.Context, year int, variant enrollment.Variant) ([]enrollment.Record, bool, error)
	Put(ctx context.Context, year int, variant enrollment.Variant, records []enrollment.Record) error
	InvalidateYear(ctx context.Context, year int) error
	Close() error
}

// MirrorWatcher is implemented by providers that can report when
// their underlying dataset changed (new year published to the local
// mirror). Watch-mode adapters subscribe to re-fetch on change.
type MirrorWatcher interface {
	WatchMirror(onChange func(years []int)) (stop func() error, err error)
}
