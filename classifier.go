package oppex

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// listingURLPatterns is the fixed URL-path vocabulary signalling an index of
// many opportunities.
var listingURLPatterns = []string{
	"/jobs",
	"/emploi",
	"/offres-demploi",
	"/careers",
	"/opportunities",
	"/positions",
	"/vacancies",
	"/openings",
	"category",
	"listing",
	"search",
}

// listingSelectors are structural shapes that repeat once per item on a
// listing page.
var listingSelectors = []string{
	".job-listing",
	".job-item",
	".post-item",
	`article[class*="post"]`,
	`[class*="job-list"]`,
	`h3 a[href*="job"]`,
	`h3 a[href*="emploi"]`,
	`h3 a[href*="opportunity"]`,
	`h3 a[href*="career"]`,
	`h3 a[href*="position"]`,
	".entry-title a",
	".job-title a",
	`a[href*="apply"]`,
	".listing-item",
	".opportunity-item",
}

// listingKeywords are phrases that only appear on pages advertising several
// openings at once.
var listingKeywords = []string{
	"job opportunities",
	"career opportunities",
	"open positions",
	"available jobs",
	"job listings",
	"employment opportunities",
	"offres d'emploi",
	"opportunités",
}

// jobLinkTokens mark an anchor href as job-related for the link-density
// signal.
var jobLinkTokens = []string{"job", "emploi", "career", "position", "opportunity"}

// ClassifyEvidence records which signals fired, so callers can explain a
// classification.
type ClassifyEvidence struct {
	URLPattern   bool `json:"url_pattern"`
	Repetition   bool `json:"repetition"`
	Keywords     bool `json:"keywords"`
	JobLinkCount int  `json:"job_link_count"`
}

// Classification is the listing-vs-detail decision for one page.
type Classification struct {
	IsListing bool             `json:"is_listing"`
	Evidence  ClassifyEvidence `json:"evidence"`
}

// Classify decides whether a page lists many opportunities or describes
// exactly one. Four independent signals are OR'd together; any single one
// flags a listing. None is authoritative, and the bias is deliberate: a
// false listing costs a noisier list of partial records, while a missed
// listing silently loses every item but one.
func Classify(doc *goquery.Document, pageURL string) Classification {
	ev := ClassifyEvidence{}

	lowerURL := strings.ToLower(pageURL)
	for _, pattern := range listingURLPatterns {
		if strings.Contains(lowerURL, pattern) {
			ev.URLPattern = true
			break
		}
	}

	for _, sel := range listingSelectors {
		if doc.Find(sel).Length() > 1 {
			ev.Repetition = true
			break
		}
	}

	bodyText := strings.ToLower(doc.Find("body").Text())
	for _, kw := range listingKeywords {
		if strings.Contains(bodyText, kw) {
			ev.Keywords = true
			break
		}
	}

	ev.JobLinkCount = countJobLinks(doc)

	return Classification{
		IsListing: ev.URLPattern || ev.Repetition || ev.Keywords || ev.JobLinkCount > 2,
		Evidence:  ev,
	}
}

// countJobLinks counts anchors whose href carries a job-related token and
// whose visible text is plausibly a posting title: longer than navigation
// chrome, shorter than a paragraph.
func countJobLinks(doc *goquery.Document) int {
	count := 0
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		tokenHit := false
		for _, token := range jobLinkTokens {
			if strings.Contains(href, token) {
				tokenHit = true
				break
			}
		}
		if !tokenHit {
			return
		}
		textLen := len(strings.TrimSpace(s.Text()))
		if textLen > 10 && textLen < 100 {
			count++
		}
	})
	return count
}
