// Package csvtable decodes the CSV layout both providers share: one
// header row followed by data rows, file-per-year.
package csvtable

import (
	"encoding/csv"
	"fmt"
	"io"

	"vtschooldata/internal/core/enrollment"
	"vtschooldata/internal/core/errors"
)

// FileName returns the published file name for a year and variant,
// e.g. enrollment_2023.csv or enrollment_demo_2023.csv.
func FileName(year int, variant enrollment.Variant) string {
	if variant == enrollment.VariantDemographic {
		return fmt.Sprintf("enrollment_demo_%d.csv", year)
	}
	return fmt.Sprintf("enrollment_%d.csv", year)
}

// Decode reads CSV into a raw table without reshaping it. Malformed
// CSV is a provider-format failure, not a schema failure: the bytes
// never became rows at all.
func Decode(r io.Reader, year int, variant enrollment.Variant) (enrollment.RawTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return enrollment.RawTable{}, errors.New(errors.CodeProvider, "empty table")
	}
	if err != nil {
		return enrollment.RawTable{}, errors.Wrap(err, errors.CodeProvider, "read table header")
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return enrollment.RawTable{}, errors.Wrap(err, errors.CodeProvider, "read table rows")
	}

	return enrollment.RawTable{
		Year:    year,
		Variant: variant,
		Columns: header,
		Rows:    rows,
	}, nil
}
