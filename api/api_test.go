package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oppex "github.com/kmezzour/oppex"
	"github.com/kmezzour/oppex/fetch"
)

// stubFetcher serves canned HTML per URL.
type stubFetcher struct {
	pages map[string]string
}

func (s *stubFetcher) fetch(_ context.Context, url string) (*fetch.Result, error) {
	html, ok := s.pages[url]
	if !ok {
		return nil, &fetch.Error{URL: url, Err: errors.New("HTTP 404 Not Found")}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &fetch.Result{Doc: doc, RequestedURL: url, ResolvedURL: url, ExtractionURL: url}, nil
}

func newTestServer(pages map[string]string) *Server {
	fetcher := &stubFetcher{pages: pages}
	return NewServer(oppex.NewEngine(fetcher.fetch), nil)
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// TestHandleManualExtract_Matches returns the matched texts.
func TestHandleManualExtract_Matches(t *testing.T) {
	srv := newTestServer(map[string]string{
		"https://example.com/p": `<html><body><h2>First</h2><h2>Second</h2></body></html>`,
	})

	rec := doJSON(t, srv.HandleManualExtract, http.MethodPost, "/api/v1/manual-extract",
		`{"url":"https://example.com/p","selector":"h2"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ManualExtractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, []string{"First", "Second"}, resp.Matches)
	assert.Empty(t, resp.Suggestions)
}

// TestHandleManualExtract_SyntaxError maps a malformed selector to 400 with
// suggestions attached.
func TestHandleManualExtract_SyntaxError(t *testing.T) {
	srv := newTestServer(nil)

	rec := doJSON(t, srv.HandleManualExtract, http.MethodPost, "/api/v1/manual-extract",
		`{"url":"https://example.com/p","selector":"h2 >"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_selector", resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Suggestions)
}

// TestHandleManualExtract_ZeroMatches is a 200 with suggestions, never an
// error status.
func TestHandleManualExtract_ZeroMatches(t *testing.T) {
	srv := newTestServer(map[string]string{
		"https://example.com/p": `<html><body><h2>Only</h2></body></html>`,
	})

	rec := doJSON(t, srv.HandleManualExtract, http.MethodPost, "/api/v1/manual-extract",
		`{"url":"https://example.com/p","selector":".absent"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ManualExtractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Matches)
	assert.NotEmpty(t, resp.Suggestions)
}

// TestHandleManualExtract_FetchFailure maps fetch errors to 502.
func TestHandleManualExtract_FetchFailure(t *testing.T) {
	srv := newTestServer(nil)

	rec := doJSON(t, srv.HandleManualExtract, http.MethodPost, "/api/v1/manual-extract",
		`{"url":"https://example.com/gone","selector":"h2"}`)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "fetch_failed", resp.Error.Code)
}

// TestHandleExtract_ListingPage returns the listing shape for a listing URL.
func TestHandleExtract_ListingPage(t *testing.T) {
	srv := newTestServer(map[string]string{
		"https://example.com/jobs": `<html><head><title>Jobs</title></head><body>
			<h2><a href="/job/1">Backend Engineer Position</a></h2>
			<h2><a href="/job/2">Frontend Engineer Position</a></h2>
		</body></html>`,
	})

	rec := doJSON(t, srv.HandleExtract, http.MethodPost, "/api/v1/extract",
		`{"url":"https://example.com/jobs"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp oppex.ScrapeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Classification.IsListing)
	require.NotNil(t, resp.Listing)
	assert.Len(t, resp.Listing.Jobs, 2)
}

// TestHandleExtract_MissingURL rejects an empty body field.
func TestHandleExtract_MissingURL(t *testing.T) {
	srv := newTestServer(nil)

	rec := doJSON(t, srv.HandleExtract, http.MethodPost, "/api/v1/extract", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestHandleExtractFields_PreviewShape returns valid items plus the hidden
// count.
func TestHandleExtractFields_PreviewShape(t *testing.T) {
	srv := newTestServer(map[string]string{
		"https://example.com/jobs": `<html><body>
			<div class="job-item"><h2 class="title">Backend Engineer</h2></div>
			<div class="job-item"><h2 class="title">Frontend Engineer</h2></div>
			<div class="job-item"><span class="other">no title</span></div>
		</body></html>`,
	})

	body := `{"url":"https://example.com/jobs","item_selector":".job-item",` +
		`"fields":[{"name":"title","selector":".title","type":"text","required":true}]}`
	rec := doJSON(t, srv.HandleExtractFields, http.MethodPost, "/api/v1/extract-fields", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp FieldsExtractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, ".job-item", resp.UsedSelector)
	assert.Equal(t, "Backend Engineer", resp.Items[0].Get("title"))
}

// TestHandleExport_NoStore is a 503 when no store is wired.
func TestHandleExport_NoStore(t *testing.T) {
	srv := newTestServer(nil)

	rec := doJSON(t, srv.HandleExport, http.MethodGet, "/api/v1/export?format=csv", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// TestMethodNotAllowed rejects wrong verbs across handlers.
func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(nil)

	rec := doJSON(t, srv.HandleExtract, http.MethodGet, "/api/v1/extract", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doJSON(t, srv.HandleExport, http.MethodPost, "/api/v1/export", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
