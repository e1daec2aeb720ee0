package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"villa-portal-service/pkg/logger"
)

const (
	defaultTimeout = 15 * time.Second
	maxFeedBytes   = 5 << 20
)

// FetchError reports a feed that could not be retrieved: a transport failure
// or a non-2xx response. URL is already redacted.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("calendar fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("calendar fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher downloads calendar feeds. It performs exactly one request per call.
type Fetcher struct {
	client *http.Client
	logger logger.Logger
}

// NewFetcher creates a fetcher; a nil client gets a 15s timeout client
func NewFetcher(client *http.Client, logger logger.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Fetcher{
		client: client,
		logger: logger,
	}
}

// Fetch returns the feed body. Any failure is a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (string, error) {
	redacted := RedactURL(feedURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return "", &FetchError{URL: redacted, Err: err}
	}
	req.Header.Set("Accept", "text/calendar, text/plain;q=0.9, */*;q=0.5")

	f.logger.Debug("calendar fetch start", "url", redacted)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("calendar fetch failed", "url", redacted, "error", err)
		return "", &FetchError{URL: redacted, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		f.logger.Warn("calendar fetch non-OK", "url", redacted, "status", resp.StatusCode)
		return "", &FetchError{URL: redacted, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return "", &FetchError{URL: redacted, Err: fmt.Errorf("read body: %w", err)}
	}

	f.logger.Debug("calendar fetch success", "url", redacted, "bytes", len(body))
	return string(body), nil
}

// RedactURL keeps scheme and host only; feed URLs embed private tokens
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}

// StripQuery removes the query string and fragment from a feed URL
func StripQuery(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}
