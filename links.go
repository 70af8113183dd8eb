package oppex

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kmezzour/oppex/scraper"
)

// JobLink is a harvested link to an individual posting, with preview text
// from its surrounding context.
type JobLink struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Preview string `json:"preview,omitempty"`
}

// jobLinkSelectors is the harvest order for posting links on a listing
// page: explicit job paths first, then posting-shaped containers, then
// title links, then generic content areas.
var jobLinkSelectors = []string{
	`a[href*="/job/"]`, `a[href*="/jobs/"]`,
	`a[href*="/emploi/"]`, `a[href*="/emplois/"]`,
	`a[href*="/career/"]`, `a[href*="/careers/"]`,
	`a[href*="/position/"]`, `a[href*="/opportunity/"]`,
	`a[href*="/offre/"]`, `a[href*="/offres/"]`,
	`a[href*="/poste/"]`, `a[href*="/postes/"]`,
	"article a[href]", ".post a[href]",
	".job-item a[href]", ".job-listing a[href]",
	".opportunity a[href]", ".position a[href]", ".vacancy a[href]",
	"h1 a[href]", "h2 a[href]", "h3 a[href]",
	".title a[href]", ".entry-title a[href]",
	".post-title a[href]", ".job-title a[href]",
	".content a[href]", ".main a[href]", ".list-item a[href]",
}

// likelyJobTokens flags an href as pointing at a posting.
var likelyJobTokens = []string{
	"job", "emploi", "career", "position", "opportunity", "vacancy",
	"offre", "poste", "recrutement", "hiring", "work",
}

// CollectJobLinks harvests unique candidate posting links from a listing
// page, filtering out navigation, anchors-within-page and non-HTTP schemes.
func CollectJobLinks(doc *goquery.Document, pageURL string) []JobLink {
	var links []JobLink
	seen := make(map[string]bool)

	for _, sel := range jobLinkSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			title := scraper.CleanText(s.Text())
			if !ok || href == "" || title == "" {
				return
			}
			if len(title) <= 5 || len(title) >= 200 {
				return
			}

			full := scraper.AbsoluteURL(href, pageURL)
			if seen[full] ||
				strings.Contains(full, "#") ||
				strings.HasPrefix(full, "mailto:") ||
				strings.HasPrefix(full, "tel:") {
				return
			}
			if isNavigationItem(title) || !isLikelyJobLink(full, title) {
				return
			}
			seen[full] = true

			preview := scraper.CleanText(s.Closest("article, .post, .job-item, div, li").Text())
			if len(preview) > 150 {
				preview = preview[:150] + "..."
			}

			links = append(links, JobLink{Title: title, URL: full, Preview: preview})
		})
	}

	return links
}

// isLikelyJobLink accepts a link when either its URL carries a job token or
// its title is posting-shaped (long enough to be a title, free of obvious
// chrome words).
func isLikelyJobLink(linkURL, title string) bool {
	lowerURL := strings.ToLower(linkURL)
	for _, token := range likelyJobTokens {
		if strings.Contains(lowerURL, token) {
			return true
		}
	}

	lowerTitle := strings.ToLower(title)
	if len(title) <= 10 || len(title) >= 150 {
		return false
	}
	for _, kw := range []string{"home", "about", "contact", "menu"} {
		if strings.Contains(lowerTitle, kw) {
			return false
		}
	}
	return true
}
