package httpsrc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"vtschooldata/internal/core/enrollment"
	"vtschooldata/internal/core/errors"
)

const sampleCSV = "school_id,school_name,grade,total\nVT001,Albany Community School,K,26\nVT002,Burlington High School,9,180\n"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/catalog.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[2021, 2022, 2023]`))
	})
	mux.HandleFunc("/enrollment_2023.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(sampleCSV))
	})
	mux.HandleFunc("/enrollment_2020.csv", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestProvider_FetchYear(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)

	p, err := New(server.URL, Options{})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	t.Run("PublishedYear", func(t *testing.T) {
		table, err := p.FetchYear(ctx, 2023, enrollment.VariantTotal)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if table.Year != 2023 {
			t.Errorf("expected year 2023, got %d", table.Year)
		}
		want := []string{"school_id", "school_name", "grade", "total"}
		if !reflect.DeepEqual(table.Columns, want) {
			t.Errorf("expected columns %v, got %v", want, table.Columns)
		}
		if len(table.Rows) != 2 {
			t.Errorf("expected 2 raw rows, got %d", len(table.Rows))
		}
	})

	t.Run("NotFoundIsDataUnavailable", func(t *testing.T) {
		_, err := p.FetchYear(ctx, 2031, enrollment.VariantTotal)
		if !errors.IsCode(err, errors.CodeDataUnavailable) {
			t.Fatalf("expected DATA_UNAVAILABLE, got %v", err)
		}
	})

	t.Run("ServerErrorIsProviderError", func(t *testing.T) {
		_, err := p.FetchYear(ctx, 2020, enrollment.VariantTotal)
		if !errors.IsCode(err, errors.CodeProvider) {
			t.Fatalf("expected PROVIDER_ERROR, got %v", err)
		}
	})

	t.Run("ConnectionRefusedIsProviderError", func(t *testing.T) {
		dead, err := New("http://127.0.0.1:1", Options{})
		if err != nil {
			t.Fatalf("new provider: %v", err)
		}
		_, err = dead.FetchYear(ctx, 2023, enrollment.VariantTotal)
		if !errors.IsCode(err, errors.CodeProvider) {
			t.Fatalf("expected PROVIDER_ERROR, got %v", err)
		}
	})
}

func TestProvider_AvailableYears(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)

	p, err := New(server.URL, Options{})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	years, err := p.AvailableYears(ctx)
	if err != nil {
		t.Fatalf("available years: %v", err)
	}
	if !reflect.DeepEqual(years, []int{2021, 2022, 2023}) {
		t.Errorf("expected [2021 2022 2023], got %v", years)
	}
}

func TestProvider_AvailableYearsBadCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a year list"}`))
	}))
	defer server.Close()

	p, err := New(server.URL, Options{})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	_, err = p.AvailableYears(context.Background())
	if !errors.IsCode(err, errors.CodeProvider) {
		t.Fatalf("expected PROVIDER_ERROR, got %v", err)
	}
}

func TestProvider_RateLimit(t *testing.T) {
	server := newTestServer(t)
	p, err := New(server.URL, Options{RateLimit: 100, RateBurst: 1})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	ctx := context.Background()
	// Both calls must succeed; the second just waits for a token.
	for i := 0; i < 2; i++ {
		if _, err := p.FetchYear(ctx, 2023, enrollment.VariantTotal); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("   ", Options{}); !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("expected VALIDATION_ERROR for empty base URL, got %v", err)
	}
}
