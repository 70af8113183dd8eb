package replay

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oppex "github.com/kmezzour/oppex"
	"github.com/kmezzour/oppex/fetch"
	"github.com/kmezzour/oppex/scraper"
	"github.com/kmezzour/oppex/store"
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

func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// TestRunCycle_SavesMappedRecords replays a stored config and persists the
// records its items map to.
func TestRunCycle_SavesMappedRecords(t *testing.T) {
	st := createTestStore(t)

	title := scraper.NewFieldMapping("title", ".title")
	title.Required = true
	company := scraper.NewFieldMapping("company", ".company")
	cfg := scraper.NewScrapeConfig("test", "https://example.com/jobs",
		[]scraper.FieldMapping{title, company})
	cfg.ItemSelector = ".job-item"
	require.NoError(t, st.CreateConfig(*cfg))

	fetcher := &stubFetcher{pages: map[string]string{
		"https://example.com/jobs": `<html><body>
			<div class="job-item">
				<span class="title">Backend Engineer</span>
				<span class="company">Acme</span>
			</div>
			<div class="job-item">
				<span class="company">no title, hidden</span>
			</div>
		</body></html>`,
	}}

	service := NewService(oppex.NewEngine(fetcher.fetch), st)
	service.RunCycle(context.Background())

	jobs, err := st.ListOpportunities(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1, "only the valid item is saved")
	assert.Equal(t, "Backend Engineer", jobs[0].Title)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.Equal(t, "https://example.com/jobs", jobs[0].SourceURL)
}

// TestRunCycle_FailedConfigDoesNotAbort keeps going past a config whose
// page cannot be fetched.
func TestRunCycle_FailedConfigDoesNotAbort(t *testing.T) {
	st := createTestStore(t)

	bad := scraper.NewScrapeConfig("bad", "https://example.com/gone",
		[]scraper.FieldMapping{scraper.NewFieldMapping("title", ".title")})
	good := scraper.NewScrapeConfig("good", "https://example.com/ok",
		[]scraper.FieldMapping{scraper.NewFieldMapping("title", ".title")})
	good.ItemSelector = ".item"
	require.NoError(t, st.CreateConfig(*bad))
	require.NoError(t, st.CreateConfig(*good))

	fetcher := &stubFetcher{pages: map[string]string{
		"https://example.com/ok": `<html><body>
			<div class="item"><span class="title">Survivor Role</span></div>
		</body></html>`,
	}}

	service := NewService(oppex.NewEngine(fetcher.fetch), st)
	service.RunCycle(context.Background())

	jobs, err := st.ListOpportunities(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Survivor Role", jobs[0].Title)
}

// TestItemToJob_FieldNameMapping maps known names onto record fields and
// folds the rest into the description.
func TestItemToJob_FieldNameMapping(t *testing.T) {
	job := itemToJob(oppex.ExtractedItem{
		"Title":    "Engineer",
		"company":  "Acme",
		"lieu":     "Rabat",
		"job_link": "https://example.com/job/1",
		"contract": "CDI",
	}, "https://example.com/jobs")

	assert.Equal(t, "Engineer", job.Title)
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, "Rabat", job.Location)
	assert.Equal(t, "https://example.com/job/1", job.SourceURL)
	assert.Contains(t, job.Description, "contract: CDI")
}
