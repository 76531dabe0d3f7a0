package enrollment

import (
	"fmt"
	"strings"

	"vtschooldata/internal/core/errors"
)

// Variant selects a dataset flavor published by the provider.
type Variant string

const (
	VariantTotal       Variant = "total"
	VariantDemographic Variant = "demographic"
)

// Variants lists every selectable dataset flavor.
func Variants() []Variant {
	return []Variant{VariantTotal, VariantDemographic}
}

func (v Variant) Valid() bool {
	switch v {
	case VariantTotal, VariantDemographic:
		return true
	}
	return false
}

func (v Variant) String() string {
	return string(v)
}

// ParseVariant normalizes a user-supplied variant selector.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", errors.New(errors.CodeValidationError,
			fmt.Sprintf("unknown variant %q (expected one of %v)", s, Variants()))
	}
	return v, nil
}

// Record is one observation in tidy format: a single (school, grade,
// demographic category) enrollment count for one school year.
type Record struct {
	Year       int    `json:"year"`
	SchoolID   string `json:"school_id"`
	SchoolName string `json:"school_name"`
	Grade      string `json:"grade"`
	Category   string `json:"category"`
	Count      int    `json:"count"`
}

// Key returns the unique identity of a record within a result set.
func (r Record) Key() string {
	return fmt.Sprintf("%d|%s|%s|%s", r.Year, r.SchoolID, r.Grade, r.Category)
}

// RawTable holds provider rows exactly as retrieved, one header plus
// data rows. The column schema is owned by the provider and may vary
// by year.
type RawTable struct {
	Year    int
	Variant Variant
	Columns []string
	Rows    [][]string
}

// FetchRequest is the normalized form of one aggregate fetch: years
// ascending without duplicates, variant validated.
type FetchRequest struct {
	Years   []int
	Variant Variant
}

// YearFailure records a single year that could not be fetched during
// an aggregate request.
type YearFailure struct {
	Year int
	Err  error
}

// FetchResult is the outcome of a multi-year fetch: tidy records in
// ascending year order plus per-year success/failure metadata. It is
// built fresh per call and never mutated afterwards.
type FetchResult struct {
	RequestID    string
	Variant      Variant
	Records      []Record
	YearsFetched []int
	Failures     []YearFailure
}

// FailedYears returns the years that could not be fetched, ascending.
func (r *FetchResult) FailedYears() []int {
	years := make([]int, 0, len(r.Failures))
	for _, f := range r.Failures {
		years = append(years, f.Year)
	}
	return years
}
