package datasource

import (
	"context"
	"errors"
	"fmt"
	"healthhelper/internal/logger"
	"io"
	"net/http"
	"time"
)

const maxTableBytes = 2 * 1024 * 1024

var errTableTooLarge = errors.New("table exceeds size limit")

// HTTPSource fetches the three tables from URLs, e.g. CSV exports or
// published pages of a shared spreadsheet.
type HTTPSource struct {
	BaseURL        string
	AgeSpecificURL string
	FitnessURL     string
	UserAgent      string
	// Retries is the number of extra attempts per table on retryable errors.
	Retries int
	// Backoff is the delay before the first retry; it doubles on each attempt.
	Backoff time.Duration

	client *http.Client
}

// NewHTTPSource creates a remote source with a bounded per-request timeout.
func NewHTTPSource(baseURL, ageURL, fitnessURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		BaseURL:        baseURL,
		AgeSpecificURL: ageURL,
		FitnessURL:     fitnessURL,
		Backoff:        500 * time.Millisecond,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

func (s *HTTPSource) Name() string { return "remote" }

func (s *HTTPSource) Enabled() bool {
	return s.BaseURL != "" && s.AgeSpecificURL != "" && s.FitnessURL != ""
}

// Fetch retrieves all three tables; any failure fails the whole source.
func (s *HTTPSource) Fetch(ctx context.Context) (Tables, error) {
	var (
		t   Tables
		err error
	)
	if t.Base, err = s.fetchTable(ctx, BaseFile, s.BaseURL); err != nil {
		return Tables{}, fmt.Errorf("failed to fetch base recommendations: %w", err)
	}
	if t.AgeSpecific, err = s.fetchTable(ctx, AgeSpecificFile, s.AgeSpecificURL); err != nil {
		return Tables{}, fmt.Errorf("failed to fetch age-specific recommendations: %w", err)
	}
	if t.Fitness, err = s.fetchTable(ctx, FitnessFile, s.FitnessURL); err != nil {
		return Tables{}, fmt.Errorf("failed to fetch fitness recommendations: %w", err)
	}
	return t, nil
}

// statusError is a non-2xx response.
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.code, e.url)
}

func (s *HTTPSource) fetchTable(ctx context.Context, name, url string) (Table, error) {
	var lastErr error
	delay := s.Backoff
	for attempt := 0; attempt <= s.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Table{}, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		t, err := s.fetchURL(ctx, name, url)
		if err == nil {
			return t, nil
		}
		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			return Table{}, err
		}
		logger.Warn("datasource: retrying", map[string]interface{}{
			"url": url, "attempt": attempt + 1, "error": err.Error(),
		})
	}
	return Table{}, fmt.Errorf("all retries exhausted: %w", lastErr)
}

func (s *HTTPSource) fetchURL(ctx context.Context, name, url string) (Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Table{}, err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	req.Header.Set("Accept", "text/csv, text/html;q=0.9, */*;q=0.5")

	client := s.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Table{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Table{}, &statusError{code: resp.StatusCode, url: url}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTableBytes+1))
	if err != nil {
		return Table{}, err
	}
	if len(data) > maxTableBytes {
		return Table{}, fmt.Errorf("%w: %s is larger than %d bytes", errTableTooLarge, url, maxTableBytes)
	}
	return Table{Name: name, ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}

// isRetryable reports whether a failed fetch is worth another attempt:
// transport errors and 5xx/429 responses are, other statuses are not.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, errTableTooLarge) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}
