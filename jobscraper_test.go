package oppex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtractJobDetail_SlotSelectors pulls each semantic slot from its
// class-named element.
func TestExtractJobDetail_SlotSelectors(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<h1 data-testid="job-title">Platform Engineer</h1>
		<div class="company-name">Acme Corp</div>
		<div class="job-location">Rabat</div>
		<div class="job-description">Running Kubernetes clusters all day.</div>
		<div class="requirements">5+ years with Linux</div>
		<div class="benefits">Health insurance</div>
		<div class="salary">$90,000 per year</div>
		<div class="deadline">2025-01-31</div>
	</body></html>`)

	job := ExtractJobDetail(doc, "https://jobs.acme.co/platform-engineer")
	assert.Equal(t, "Platform Engineer", job.Title)
	assert.Equal(t, "Acme Corp", job.Company)
	assert.Equal(t, "Rabat", job.Location)
	assert.Equal(t, "Running Kubernetes clusters all day.", job.Description)
	assert.Equal(t, "5+ years with Linux", job.Requirements)
	assert.Equal(t, "Health insurance", job.Benefits)
	assert.Equal(t, "$90,000 per year", job.SalaryRange)
	assert.Equal(t, "2025-01-31", job.ApplicationDeadline)
	assert.Equal(t, "Senior", job.ExperienceLevel, "5+ years implies senior")
	assert.Contains(t, job.Tags, "Kubernetes")
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "https://jobs.acme.co/platform-engineer", job.SourceURL)
}

// TestExtractJobDetail_HeuristicFallbacks fills empty slots from page text
// and finally the hostname.
func TestExtractJobDetail_HeuristicFallbacks(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<h1>Accountant</h1>
		<p>A quiet posting with no structure at all.</p>
	</body></html>`)

	job := ExtractJobDetail(doc, "https://careers.globex.com/accountant")
	assert.Equal(t, "Accountant", job.Title)
	assert.Equal(t, "Globex", job.Company, "hostname is the last company fallback")
	assert.Empty(t, job.Location)
	assert.Empty(t, job.ExperienceLevel, "no seniority signal means unset")
	assert.False(t, job.RemoteWork)
}

// TestExtractJobListing_PartialRecords builds one partial record per
// candidate item with context-derived fields.
func TestExtractJobListing_PartialRecords(t *testing.T) {
	doc := parseDoc(t, `<html><head><title>Globex Careers</title></head><body>
		<article>
			<h2><a href="/job/1">Backend Engineer Position</a></h2>
			<span class="company">Globex</span>
			<span class="location">Casablanca</span>
			<time>01/15/2025</time>
		</article>
		<article>
			<h2><a href="/job/2">Frontend Engineer Position</a></h2>
		</article>
	</body></html>`)

	result := ExtractJobListing(doc, "https://globex.com/jobs")
	require.Len(t, result.Jobs, 2)
	assert.Equal(t, 2, result.Summary.TotalFound)
	assert.Equal(t, "Globex Careers", result.Summary.PageTitle)

	first := result.Jobs[0]
	assert.Equal(t, "Backend Engineer Position", first.Title)
	assert.Equal(t, "Globex", first.Company)
	assert.Equal(t, "Casablanca", first.Location)
	assert.Equal(t, "https://globex.com/job/1", first.SourceURL)

	second := result.Jobs[1]
	assert.Equal(t, "Globex", second.Company, "hostname fallback when context has no company")
}

// TestExtractJobListing_FallbackSummaryRecord emits a single summary record
// when nothing item-shaped matches.
func TestExtractJobListing_FallbackSummaryRecord(t *testing.T) {
	doc := parseDoc(t, `<html><head><title>Careers</title></head><body>
		<p>Nothing here yet.</p>
	</body></html>`)

	result := ExtractJobListing(doc, "https://globex.com/jobs")
	require.Len(t, result.Jobs, 1)
	assert.Equal(t, "Careers - Job Listings", result.Jobs[0].Title)
	assert.Equal(t, "Various locations", result.Jobs[0].Location)
	assert.Equal(t, 0, result.Summary.TotalFound)
}

// TestExtractJobListing_FiltersChrome skips navigation links and too-short
// titles.
func TestExtractJobListing_FiltersChrome(t *testing.T) {
	doc := parseDoc(t, `<html><head><title>Jobs</title></head><body>
		<h2><a href="/about">About our company team</a></h2>
		<h2><a href="/job/1">Go</a></h2>
		<h2><a href="/job/2">Data Engineer Position</a></h2>
	</body></html>`)

	result := ExtractJobListing(doc, "https://globex.com/jobs")
	require.Len(t, result.Jobs, 1)
	assert.Equal(t, "Data Engineer Position", result.Jobs[0].Title)
}
