package oppex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCollectJobLinks_HarvestAndDedupe harvests unique posting links with
// absolutized URLs and preview text.
func TestCollectJobLinks_HarvestAndDedupe(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<article>
			<a href="/job/1">Backend Engineer Position</a>
			<p>Build and run services in production.</p>
		</article>
		<article>
			<a href="/job/1">Backend Engineer Position</a>
		</article>
		<article>
			<a href="https://other.com/job/2">Frontend Engineer Position</a>
		</article>
	</body></html>`)

	links := CollectJobLinks(doc, "https://example.com/jobs")
	require.Len(t, links, 2, "same absolute URL harvested once")

	assert.Equal(t, "Backend Engineer Position", links[0].Title)
	assert.Equal(t, "https://example.com/job/1", links[0].URL)
	assert.Contains(t, links[0].Preview, "Build and run services")

	assert.Equal(t, "https://other.com/job/2", links[1].URL)
}

// TestCollectJobLinks_Filters drops navigation text, anchors and non-HTTP
// schemes.
func TestCollectJobLinks_Filters(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<article><a href="/job/1">About the hiring team</a></article>
		<article><a href="#apply">Jump to application form</a></article>
		<article><a href="mailto:hr@x.com">Email the recruiting office</a></article>
		<article><a href="/job/2">Ok</a></article>
		<article><a href="/job/3">Data Engineer Position</a></article>
	</body></html>`)

	links := CollectJobLinks(doc, "https://example.com/jobs")
	require.Len(t, links, 1)
	assert.Equal(t, "Data Engineer Position", links[0].Title)
}

// TestIsLikelyJobLink accepts job-token URLs and posting-shaped titles,
// rejecting chrome words.
func TestIsLikelyJobLink(t *testing.T) {
	assert.True(t, isLikelyJobLink("https://x.com/emploi/5", "Anything at all here"))
	assert.True(t, isLikelyJobLink("https://x.com/p/5", "Responsable Commercial Casablanca"))
	assert.False(t, isLikelyJobLink("https://x.com/p/5", "Back to home page"))
	assert.False(t, isLikelyJobLink("https://x.com/p/5", "Short"))
}
