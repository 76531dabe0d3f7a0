package export

import (
	"encoding/json"
	"strings"
	"testing"

	"vtschooldata/internal/core/enrollment"
	"vtschooldata/internal/core/errors"
)

func sampleResult() *enrollment.FetchResult {
	return &enrollment.FetchResult{
		RequestID:    "req-1",
		Variant:      enrollment.VariantTotal,
		YearsFetched: []int{2023},
		Failures: []enrollment.YearFailure{
			{Year: 2031, Err: errors.New(errors.CodeDataUnavailable, "year not published")},
		},
		Records: []enrollment.Record{
			{Year: 2023, SchoolID: "VT001", SchoolName: "Albany Community School", Grade: "K", Category: "total", Count: 26},
			{Year: 2023, SchoolID: "VT002", SchoolName: "Burlington High School", Grade: "9", Category: "total", Count: 180},
		},
	}
}

func TestRenderTSV(t *testing.T) {
	out, err := Render(sampleResult(), FormatTSV)
	if err != nil {
		t.Fatalf("render tsv: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "Year\tSchoolID\tSchoolName\tGrade\tCategory\tCount" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "VT001") {
		t.Errorf("expected VT001 in first row, got %q", lines[1])
	}
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(sampleResult(), FormatCSV)
	if err != nil {
		t.Fatalf("render csv: %v", err)
	}
	if !strings.HasPrefix(out, "year,school_id,school_name,grade,category,count\n") {
		t.Errorf("unexpected csv header in %q", out)
	}
	if !strings.Contains(out, "2023,VT002,Burlington High School,9,total,180") {
		t.Errorf("expected Burlington row in %q", out)
	}
}

func TestRenderJSON(t *testing.T) {
	out, err := Render(sampleResult(), FormatJSON)
	if err != nil {
		t.Fatalf("render json: %v", err)
	}

	var envelope struct {
		RequestID    string              `json:"request_id"`
		YearsFetched []int               `json:"years_fetched"`
		YearsFailed  []map[string]any    `json:"years_failed"`
		Records      []enrollment.Record `json:"records"`
	}
	if err := json.Unmarshal([]byte(out), &envelope); err != nil {
		t.Fatalf("unmarshal rendered json: %v", err)
	}
	if envelope.RequestID != "req-1" {
		t.Errorf("expected request id req-1, got %s", envelope.RequestID)
	}
	if len(envelope.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(envelope.Records))
	}
	if len(envelope.YearsFailed) != 1 {
		t.Errorf("expected 1 failed year, got %d", len(envelope.YearsFailed))
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	if _, err := Render(sampleResult(), "parquet"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSummary(t *testing.T) {
	got := Summary(sampleResult())
	if got != "2 records across 1 years (1 failed)" {
		t.Errorf("unexpected summary %q", got)
	}
}
