package enrollment

import (
	"strings"

	"github.com/gobwas/glob"

	"vtschooldata/internal/core/errors"
)

// FilterBySchool keeps records whose school name or ID matches the
// glob pattern, case-insensitively. An empty pattern keeps everything.
func FilterBySchool(records []Record, pattern string) ([]Record, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return records, nil
	}

	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid school pattern")
	}

	filtered := make([]Record, 0, len(records))
	for _, r := range records {
		if g.Match(strings.ToLower(r.SchoolName)) || g.Match(strings.ToLower(r.SchoolID)) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}
