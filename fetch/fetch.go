// Package fetch retrieves and parses target pages, either with a plain HTTP
// GET or through a headless browser for script-heavy sites. A fetch is an
// expensive, serialized operation: browser sessions are opened and closed
// per call, never pooled, and failures are returned to the caller verbatim
// rather than retried.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// userAgent identifies us to target sites. Some job boards refuse the Go
// default agent outright.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// httpTimeout bounds a plain HTTP fetch.
const httpTimeout = 30 * time.Second

// Error is a network, status or navigation failure while retrieving a page.
// It is reported to the caller with a human-actionable hint and never
// retried automatically.
type Error struct {
	URL  string
	Hint string
	Err  error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("failed to fetch %s: %v (%s)", e.URL, e.Err, e.Hint)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsFailure reports whether err is a fetch/navigation failure.
func IsFailure(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}

// Result is a fetched, parsed page. ResolvedURL is where the fetch actually
// landed after redirects; ExtractionURL applies the redirect judgment in
// ChooseExtractionURL and is what gets stamped on extracted records.
type Result struct {
	Doc           *goquery.Document
	RequestedURL  string
	ResolvedURL   string
	ExtractionURL string
}

// Document fetches a URL over plain HTTP and parses the body. Non-2xx
// statuses are fetch failures, not empty results.
func Document(ctx context.Context, url string) (*Result, error) {
	client := &http.Client{Timeout: httpTimeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Err: err, Hint: "check that the URL is well-formed"}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8,ar;q=0.7")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Err: err, Hint: "the site may be unreachable or blocking automated requests"}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			URL:  url,
			Err:  fmt.Errorf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			Hint: "the page may have moved or require a browser session",
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &Error{URL: url, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	resolved := url
	if resp.Request != nil && resp.Request.URL != nil {
		resolved = resp.Request.URL.String()
	}

	logrus.WithFields(logrus.Fields{
		"url":      url,
		"resolved": resolved,
		"status":   resp.StatusCode,
	}).Debug("fetched page")

	return &Result{
		Doc:           doc,
		RequestedURL:  url,
		ResolvedURL:   resolved,
		ExtractionURL: ChooseExtractionURL(url, resolved),
	}, nil
}
