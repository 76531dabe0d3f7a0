// Package httpsrc fetches the published Vermont enrollment dataset
// over HTTP: one CSV file per year plus a JSON year catalog.
package httpsrc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vtschooldata/internal/core/enrollment"
	"vtschooldata/internal/core/errors"
	"vtschooldata/internal/core/ports"
	"vtschooldata/internal/provider/csvtable"
	"vtschooldata/internal/shared/util"
)

const catalogFile = "catalog.json"

type Provider struct {
	baseURL string
	client  *http.Client
	limiter *util.Limiter
}

var _ ports.DataProvider = (*Provider)(nil)

type Options struct {
	// Timeout bounds each HTTP request. Zero means 30s.
	Timeout time.Duration

	// RateLimit and RateBurst throttle outbound calls so aggregate
	// fetches stay polite against the publisher. Zero disables.
	RateLimit float64
	RateBurst int
}

func New(baseURL string, opts Options) (*Provider, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New(errors.CodeValidationError, "base URL must not be empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid base URL")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	p := &Provider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		p.limiter = util.NewLimiter(opts.RateLimit, burst)
	}
	return p, nil
}

func (p *Provider) FetchYear(ctx context.Context, year int, variant enrollment.Variant) (enrollment.RawTable, error) {
	fileURL := fmt.Sprintf("%s/%s", p.baseURL, csvtable.FileName(year, variant))

	resp, err := p.get(ctx, fileURL)
	if err != nil {
		return enrollment.RawTable{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return enrollment.RawTable{}, errors.AddContext(
			errors.New(errors.CodeDataUnavailable, fmt.Sprintf("no data published for year %d", year)),
			errors.CtxURL, fileURL)
	case resp.StatusCode != http.StatusOK:
		return enrollment.RawTable{}, errors.AddContext(
			errors.New(errors.CodeProvider, fmt.Sprintf("unexpected status %d", resp.StatusCode)),
			errors.CtxURL, fileURL)
	}

	table, err := csvtable.Decode(resp.Body, year, variant)
	if err != nil {
		return enrollment.RawTable{}, errors.AddContext(err, errors.CtxURL, fileURL)
	}
	return table, nil
}

func (p *Provider) AvailableYears(ctx context.Context) ([]int, error) {
	catalogURL := fmt.Sprintf("%s/%s", p.baseURL, catalogFile)

	resp, err := p.get(ctx, catalogURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.AddContext(
			errors.New(errors.CodeProvider, fmt.Sprintf("catalog returned status %d", resp.StatusCode)),
			errors.CtxURL, catalogURL)
	}

	var years []int
	if err := json.NewDecoder(resp.Body).Decode(&years); err != nil {
		return nil, errors.Wrap(err, errors.CodeProvider, "decode year catalog")
	}
	return years, nil
}

func (p *Provider) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, 1); err != nil {
			return nil, errors.Wrap(err, errors.CodeProvider, "rate limiter wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeProvider, "build request")
	}
	req.Header.Set("Accept", "text/csv, application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeProvider, "provider call failed"),
			errors.CtxURL, rawURL)
	}
	return resp, nil
}
