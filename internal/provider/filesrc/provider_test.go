package filesrc

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"vtschooldata/internal/core/enrollment"
	"vtschooldata/internal/core/errors"
)

const sampleCSV = "school_id,school_name,grade,total\nVT001,Albany Community School,K,26\n"

func writeMirrorFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestProvider_FetchYear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeMirrorFile(t, dir, "enrollment_2023.csv", sampleCSV)

	p, err := New(dir)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	t.Run("MirroredYear", func(t *testing.T) {
		table, err := p.FetchYear(ctx, 2023, enrollment.VariantTotal)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if table.Year != 2023 || len(table.Rows) != 1 {
			t.Errorf("unexpected table %+v", table)
		}
	})

	t.Run("MissingYearIsDataUnavailable", func(t *testing.T) {
		_, err := p.FetchYear(ctx, 2031, enrollment.VariantTotal)
		if !errors.IsCode(err, errors.CodeDataUnavailable) {
			t.Fatalf("expected DATA_UNAVAILABLE, got %v", err)
		}
	})
}

func TestProvider_AvailableYears(t *testing.T) {
	dir := t.TempDir()
	writeMirrorFile(t, dir, "enrollment_2023.csv", sampleCSV)
	writeMirrorFile(t, dir, "enrollment_2021.csv", sampleCSV)
	writeMirrorFile(t, dir, "enrollment_demo_2022.csv", sampleCSV)
	writeMirrorFile(t, dir, "notes.txt", "not a dataset")
	writeMirrorFile(t, dir, "enrollment_draft.csv", "not a year file")

	p, err := New(dir)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	years, err := p.AvailableYears(context.Background())
	if err != nil {
		t.Fatalf("available years: %v", err)
	}
	// Demographic-only files do not define catalog years.
	if !reflect.DeepEqual(years, []int{2021, 2023}) {
		t.Errorf("expected [2021 2023], got %v", years)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(""); !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if _, err := New(filepath.Join(t.TempDir(), "missing")); !errors.IsCode(err, errors.CodeProvider) {
		t.Fatalf("expected PROVIDER_ERROR for missing dir, got %v", err)
	}
}

func TestWatchMirror(t *testing.T) {
	dir := t.TempDir()
	p, err := New(dir)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	changed := make(chan []int, 1)
	stop, err := p.WatchMirrorDebounced(50*time.Millisecond, func(years []int) {
		select {
		case changed <- years:
		default:
		}
	})
	if err != nil {
		t.Fatalf("watch mirror: %v", err)
	}
	defer stop()

	writeMirrorFile(t, dir, "enrollment_2024.csv", sampleCSV)
	writeMirrorFile(t, dir, "README.md", "ignored")

	select {
	case years := <-changed:
		if !reflect.DeepEqual(years, []int{2024}) {
			t.Errorf("expected changed years [2024], got %v", years)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for mirror change callback")
	}
}
