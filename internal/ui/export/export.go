// Package export renders a FetchResult for terminal or file output.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"vtschooldata/internal/core/enrollment"
)

const (
	FormatTSV  = "tsv"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatTSV, FormatCSV, FormatJSON}
}

// Render returns a FetchResult in the requested format.
func Render(result *enrollment.FetchResult, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatTSV:
		return renderTSV(result), nil
	case FormatCSV:
		return renderCSV(result)
	case FormatJSON:
		return renderJSON(result)
	default:
		return "", fmt.Errorf("unknown output format %q (expected one of %v)", format, Formats())
	}
}

func renderTSV(result *enrollment.FetchResult) string {
	var buf strings.Builder

	buf.WriteString("Year\tSchoolID\tSchoolName\tGrade\tCategory\tCount\n")
	for _, r := range result.Records {
		buf.WriteString(fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%d\n",
			r.Year, r.SchoolID, r.SchoolName, r.Grade, r.Category, r.Count))
	}

	return buf.String()
}

func renderCSV(result *enrollment.FetchResult) (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"year", "school_id", "school_name", "grade", "category", "count"}); err != nil {
		return "", err
	}
	for _, r := range result.Records {
		row := []string{
			strconv.Itoa(r.Year), r.SchoolID, r.SchoolName, r.Grade, r.Category, strconv.Itoa(r.Count),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type jsonEnvelope struct {
	RequestID    string              `json:"request_id"`
	Variant      string              `json:"variant"`
	YearsFetched []int               `json:"years_fetched"`
	YearsFailed  []jsonFailure       `json:"years_failed,omitempty"`
	Records      []enrollment.Record `json:"records"`
}

type jsonFailure struct {
	Year  int    `json:"year"`
	Error string `json:"error"`
}

func renderJSON(result *enrollment.FetchResult) (string, error) {
	envelope := jsonEnvelope{
		RequestID:    result.RequestID,
		Variant:      result.Variant.String(),
		YearsFetched: result.YearsFetched,
		Records:      result.Records,
	}
	for _, f := range result.Failures {
		envelope.YearsFailed = append(envelope.YearsFailed, jsonFailure{Year: f.Year, Error: f.Err.Error()})
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

// Summary returns a one-line account of an aggregate fetch for logs
// and the terminal footer.
func Summary(result *enrollment.FetchResult) string {
	return fmt.Sprintf("%d records across %d years (%d failed)",
		len(result.Records), len(result.YearsFetched), len(result.Failures))
}
