package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oppex "github.com/kmezzour/oppex"
	"github.com/kmezzour/oppex/scraper"
)

// TestFormatCSVRow_QuotesEverything quotes every value, including empties.
func TestFormatCSVRow_QuotesEverything(t *testing.T) {
	got := FormatCSVRow([]string{"a", "", "c"})
	assert.Equal(t, `"a","","c"`, got)
}

// TestFormatCSVRow_EscapesQuotes doubles embedded quotes.
func TestFormatCSVRow_EscapesQuotes(t *testing.T) {
	got := FormatCSVRow([]string{`say "hello"`, "plain"})
	assert.Equal(t, `"say ""hello""","plain"`, got)
}

// TestParseCSVLine_RoundTrip verifies that values containing commas, quotes
// and both survive a format/parse cycle.
func TestParseCSVLine_RoundTrip(t *testing.T) {
	tests := [][]string{
		{"simple", "row"},
		{"with, comma", "plain"},
		{`with "quotes"`, "and, both", ""},
		{"", "", ""},
		{`""`, `a,"b",c`},
	}

	for _, values := range tests {
		line := FormatCSVRow(values)
		got := ParseCSVLine(line)
		assert.Equal(t, values, got, line)
	}
}

// TestItemsCSV_HeaderAndWidth emits a header row and keeps every row the
// same width, absent fields included.
func TestItemsCSV_HeaderAndWidth(t *testing.T) {
	fields := []scraper.FieldMapping{
		scraper.NewFieldMapping("title", ".t"),
		scraper.NewFieldMapping("company", ".c"),
	}
	items := []oppex.ExtractedItem{
		{"title": "Engineer", "company": "Acme, Inc."},
		{"title": "Designer"},
	}

	out := ItemsCSV(items, fields)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"title","company"`, lines[0])
	assert.Equal(t, `"Engineer","Acme, Inc."`, lines[1])
	assert.Equal(t, `"Designer",""`, lines[2])

	// Every data row parses back to the header width.
	for _, line := range lines[1:] {
		assert.Len(t, ParseCSVLine(line), 2)
	}
}

// TestJobsCSV_FixedColumns renders records with the fixed column set.
func TestJobsCSV_FixedColumns(t *testing.T) {
	job := oppex.NewJobData("https://example.com/job/1")
	job.Title = `Senior "Go" Engineer`
	job.Company = "Acme"
	job.RemoteWork = true
	job.Tags = []string{"Go", "Docker"}

	out := JobsCSV([]oppex.JobData{job})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)

	values := ParseCSVLine(lines[1])
	require.Len(t, values, len(jobCSVHeader))
	assert.Equal(t, `Senior "Go" Engineer`, values[1])
	assert.Equal(t, "Acme", values[2])
	assert.Equal(t, "true", values[8])
	assert.Equal(t, "Go; Docker", values[9])
	assert.Equal(t, "https://example.com/job/1", values[11])
}
