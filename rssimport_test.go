package oppex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Globex Careers</title>
    <link>https://globex.com/jobs</link>
    <description>Openings</description>
    <item>
      <title><![CDATA[[Globex] Senior Go Developer chez Globex - Casablanca]]></title>
      <link>https://globex.com/job/1</link>
      <description><![CDATA[Full-time remote position. Go and Docker required. Location: Casablanca]]></description>
    </item>
    <item>
      <title>Stage Marketing</title>
      <description>Stage de 6 mois à Rabat</description>
    </item>
    <item>
      <title></title>
      <description>no title, dropped</description>
    </item>
  </channel>
</rss>`

// TestImportFeed_ConvertsEntries pulls a feed and runs the heuristic
// cascades over each entry.
func TestImportFeed_ConvertsEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	jobs, err := ImportFeed(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, jobs, 2, "entry without a title is dropped")

	first := jobs[0]
	assert.Equal(t, "Senior Go Developer chez Globex - Casablanca", first.Title, "bracket prefix stripped")
	assert.Equal(t, "Globex", first.Company)
	assert.Equal(t, "full-time", first.JobType)
	assert.Equal(t, "Senior", first.ExperienceLevel)
	assert.True(t, first.RemoteWork)
	assert.Equal(t, "Casablanca", first.Location)
	assert.Contains(t, first.Tags, "Go")
	assert.Contains(t, first.Tags, "Docker")
	assert.Equal(t, "https://globex.com/job/1", first.SourceURL)

	second := jobs[1]
	assert.Equal(t, "Stage Marketing", second.Title)
	assert.Equal(t, "internship", second.JobType)
	assert.Equal(t, "Globex Careers", second.Company, "feed title is the company fallback")
}

// TestImportFeed_BadFeed surfaces parse failures.
func TestImportFeed_BadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a feed"))
	}))
	defer srv.Close()

	_, err := ImportFeed(context.Background(), srv.URL)
	assert.Error(t, err)
}
