// Package fdsn fetches day-long miniSEED windows from an FDSN dataselect
// service. The client retries transient failures, spaces requests with a
// shared rate limiter, and decodes gzip-encoded bodies transparently.
package fdsn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/time/rate"
)

// ErrNoData is returned when the service has no waveforms for the window.
var ErrNoData = errors.New("no data for window")

// DefaultBaseURL is the IRIS dataselect endpoint.
const DefaultBaseURL = "https://service.iris.edu/fdsnws/dataselect/1/query"

const timeLayout = "2006-01-02T15:04:05"

// Request selects one channel window. Station, Location and Channel accept
// FDSN wildcards.
type Request struct {
	Network  string
	Station  string
	Location string
	Channel  string
	Start    time.Time
	End      time.Time
}

// DayWindow returns the request window for one whole UTC day.
func DayWindow(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// Client is a rate-limited dataselect client. The limiter is shared across
// all workers of a run so the request spacing holds regardless of
// concurrency.
type Client struct {
	http    *retryablehttp.Client
	limiter *rate.Limiter
	baseURL string
}

// New builds a client for the given endpoint. interval is the minimum time
// between request starts across the whole run.
func New(baseURL string, interval time.Duration) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 1 * time.Second
	rc.RetryWaitMax = 30 * time.Second
	rc.HTTPClient.Timeout = 5 * time.Minute
	rc.Logger = nil

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Client{
		http:    rc,
		limiter: rate.NewLimiter(limit, 1),
		baseURL: baseURL,
	}
}

// FetchWindow downloads the miniSEED bytes for one request. A 204 or 404
// from the service maps to ErrNoData so callers can distinguish an empty
// window from a failure.
func (c *Client) FetchWindow(ctx context.Context, r Request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("network", r.Network)
	q.Set("station", r.Station)
	q.Set("location", r.Location)
	q.Set("channel", r.Channel)
	q.Set("starttime", r.Start.UTC().Format(timeLayout))
	q.Set("endtime", r.End.UTC().Format(timeLayout))
	q.Set("nodata", "404")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("fdsn request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fdsn fetch %s.%s %s: %w",
			r.Network, r.Station, r.Start.Format("2006-01-02"), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoData
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fdsn fetch %s.%s %s: status %d: %s",
			r.Network, r.Station, r.Start.Format("2006-01-02"),
			resp.StatusCode, string(body))
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("fdsn decode: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("fdsn read body: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoData
	}
	return data, nil
}
