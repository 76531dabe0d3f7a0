package enrollment

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"vtschooldata/internal/core/errors"
)

// Key columns expected in every raw table, matched case-insensitively.
// Everything else is treated as a demographic category column.
const (
	colSchoolID   = "school_id"
	colSchoolName = "school_name"
	colGrade      = "grade"
	colYear       = "year"
)

// Cell values the provider uses for suppressed or missing counts.
// Rows carrying these are dropped rather than coerced to zero.
var nullMarkers = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"*":    true,
}

// Tidy pivots a raw wide provider table into tidy long format: one
// record per school, grade and category. It is a pure function; the
// output is deterministically ordered by school, grade then category.
func Tidy(raw RawTable) ([]Record, error) {
	idx, categories, err := indexColumns(raw.Columns)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, errors.New(errors.CodeSchema, "raw table has no count columns")
	}

	records := make([]Record, 0, len(raw.Rows)*len(categories))
	seen := make(map[string]bool, len(raw.Rows)*len(categories))

	for i, row := range raw.Rows {
		if len(row) != len(raw.Columns) {
			return nil, errors.New(errors.CodeSchema,
				fmt.Sprintf("row %d has %d cells, header has %d columns", i+1, len(row), len(raw.Columns)))
		}

		base := Record{
			Year:       raw.Year,
			SchoolID:   strings.TrimSpace(row[idx[colSchoolID]]),
			SchoolName: strings.TrimSpace(row[idx[colSchoolName]]),
			Grade:      strings.TrimSpace(row[idx[colGrade]]),
		}
		if base.SchoolID == "" {
			return nil, errors.New(errors.CodeSchema,
				fmt.Sprintf("row %d has an empty school_id", i+1))
		}

		for _, cat := range categories {
			cell := strings.TrimSpace(row[idx[cat]])
			if nullMarkers[strings.ToLower(cell)] {
				continue
			}

			count, err := parseCount(cell)
			if err != nil {
				return nil, errors.AddContext(
					errors.Wrap(err, errors.CodeSchema,
						fmt.Sprintf("row %d: count is not a non-negative integer", i+1)),
					errors.CtxColumn, cat)
			}

			rec := base
			rec.Category = cat
			rec.Count = count
			if seen[rec.Key()] {
				return nil, errors.New(errors.CodeSchema,
					fmt.Sprintf("duplicate key %s in raw table", rec.Key()))
			}
			seen[rec.Key()] = true
			records = append(records, rec)
		}
	}

	SortRecords(records)
	return records, nil
}

// SortRecords orders records by year, school, grade then category.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.SchoolID != b.SchoolID {
			return a.SchoolID < b.SchoolID
		}
		if ra, rb := gradeRank(a.Grade), gradeRank(b.Grade); ra != rb {
			return ra < rb
		}
		if a.Grade != b.Grade {
			return a.Grade < b.Grade
		}
		return a.Category < b.Category
	})
}

func indexColumns(columns []string) (map[string]int, []string, error) {
	idx := make(map[string]int, len(columns))
	categories := make([]string, 0, len(columns))

	for i, col := range columns {
		name := strings.ToLower(strings.TrimSpace(col))
		if name == "" {
			return nil, nil, errors.New(errors.CodeSchema,
				fmt.Sprintf("column %d has an empty header", i+1))
		}
		if _, dup := idx[name]; dup {
			return nil, nil, errors.AddContext(
				errors.New(errors.CodeSchema, "duplicate column header"),
				errors.CtxColumn, name)
		}
		idx[name] = i
		switch name {
		case colSchoolID, colSchoolName, colGrade, colYear:
		default:
			categories = append(categories, name)
		}
	}

	for _, required := range []string{colSchoolID, colSchoolName, colGrade} {
		if _, ok := idx[required]; !ok {
			return nil, nil, errors.AddContext(
				errors.New(errors.CodeSchema, "required column missing"),
				errors.CtxColumn, required)
		}
	}

	sort.Strings(categories)
	return idx, categories, nil
}

func parseCount(cell string) (int, error) {
	// Published tables thousand-separate large counts.
	cleaned := strings.ReplaceAll(cell, ",", "")
	count, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, fmt.Errorf("negative count %d", count)
	}
	return count, nil
}

// gradeRank orders Vermont grade labels the way a roster reads:
// pre-kindergarten, kindergarten, then numeric grades. Unknown labels
// sort after known ones by string order.
func gradeRank(grade string) int {
	switch strings.ToUpper(strings.TrimSpace(grade)) {
	case "PK", "PREK", "EE":
		return 0
	case "K":
		return 1
	}
	if n, err := strconv.Atoi(strings.TrimSpace(grade)); err == nil && n >= 1 && n <= 12 {
		return 1 + n
	}
	return 100
}
