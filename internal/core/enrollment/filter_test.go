package enrollment

import (
	"testing"

	"vtschooldata/internal/core/errors"
)

func TestFilterBySchool(t *testing.T) {
	records := []Record{
		{Year: 2023, SchoolID: "VT001", SchoolName: "Albany Community School", Grade: "K", Category: "total", Count: 26},
		{Year: 2023, SchoolID: "VT002", SchoolName: "Burlington High School", Grade: "9", Category: "total", Count: 180},
		{Year: 2023, SchoolID: "VT003", SchoolName: "Burlington Elementary", Grade: "2", Category: "total", Count: 54},
	}

	t.Run("GlobMatchesName", func(t *testing.T) {
		got, err := FilterBySchool(records, "burlington*")
		if err != nil {
			t.Fatalf("filter: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 Burlington records, got %d", len(got))
		}
	})

	t.Run("GlobMatchesID", func(t *testing.T) {
		got, err := FilterBySchool(records, "VT001")
		if err != nil {
			t.Fatalf("filter: %v", err)
		}
		if len(got) != 1 || got[0].SchoolID != "VT001" {
			t.Errorf("expected only VT001, got %+v", got)
		}
	})

	t.Run("EmptyPatternKeepsAll", func(t *testing.T) {
		got, err := FilterBySchool(records, "  ")
		if err != nil {
			t.Fatalf("filter: %v", err)
		}
		if len(got) != len(records) {
			t.Errorf("expected all records, got %d", len(got))
		}
	})

	t.Run("InvalidPattern", func(t *testing.T) {
		_, err := FilterBySchool(records, "[unclosed")
		if !errors.IsCode(err, errors.CodeValidationError) {
			t.Fatalf("expected VALIDATION_ERROR, got %v", err)
		}
	})
}
