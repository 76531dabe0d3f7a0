// Package filesrc serves enrollment data from a local mirror of the
// published dataset: the same file-per-year CSV layout on disk.
package filesrc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"vtschooldata/internal/core/enrollment"
	"vtschooldata/internal/core/errors"
	"vtschooldata/internal/core/ports"
	"vtschooldata/internal/provider/csvtable"
)

// Catalog years come from total-variant file names; the demographic
// file is an optional companion per year.
var yearFilePattern = regexp.MustCompile(`^enrollment_(\d{4})\.csv$`)

type Provider struct {
	dir string
}

var _ ports.DataProvider = (*Provider)(nil)

func New(dir string) (*Provider, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New(errors.CodeValidationError, "mirror directory must not be empty")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeProvider, "stat mirror directory")
	}
	if !info.IsDir() {
		return nil, errors.New(errors.CodeProvider, fmt.Sprintf("mirror path %q is not a directory", dir))
	}
	return &Provider{dir: dir}, nil
}

func (p *Provider) Dir() string {
	return p.dir
}

func (p *Provider) FetchYear(ctx context.Context, year int, variant enrollment.Variant) (enrollment.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return enrollment.RawTable{}, err
	}

	path := filepath.Join(p.dir, csvtable.FileName(year, variant))
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return enrollment.RawTable{}, errors.AddContext(
			errors.New(errors.CodeDataUnavailable, fmt.Sprintf("no mirror file for year %d", year)),
			errors.CtxYear, year)
	}
	if err != nil {
		return enrollment.RawTable{}, errors.Wrap(err, errors.CodeProvider, "open mirror file")
	}
	defer f.Close()

	return csvtable.Decode(f, year, variant)
}

func (p *Provider) AvailableYears(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeProvider, "scan mirror directory")
	}

	years := make([]int, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := yearFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		years = append(years, year)
	}
	sort.Ints(years)
	return years, nil
}
