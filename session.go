package oppex

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/kmezzour/oppex/scraper"
)

// ExtractionSession is the in-memory state of one in-progress scrape: the
// target URL, the field mappings and the accumulated results. It is passed
// explicitly through the pipeline -- there is no hidden global state, and
// exactly one scrape runs against a session at a time.
type ExtractionSession struct {
	URL          string
	Fields       []scraper.FieldMapping
	ItemSelector string
	Items        []ExtractedItem
}

// NewSession starts a session for one URL and field set.
func NewSession(url string, fields []scraper.FieldMapping) *ExtractionSession {
	return &ExtractionSession{URL: url, Fields: fields}
}

// ValidItems returns the session's complete-enough items plus the count of
// hidden ones.
func (s *ExtractionSession) ValidItems() ([]ExtractedItem, int) {
	return ValidItems(s.Items, s.Fields)
}

// containerSelectors is the sweep order for auto-detecting the repeated
// item element when the caller did not supply one. Job-shaped containers
// first, generic content shapes later, bare structural tags last.
var containerSelectors = []string{
	".job", ".job-item", ".job-listing", ".job-post", ".job-card",
	".position", ".vacancy", ".career-item", ".opportunity", ".offre",
	"article", ".post", ".entry", ".item", ".listing",
	".card", ".news-item", ".content-item", ".story",
	`[class*="item"]`, `[class*="post"]`, `[class*="job"]`,
	`[class*="article"]`, `[class*="card"]`, `[class*="listing"]`,
	"li", ".list-item", "tr",
	`div[class*="row"]`, `div[class*="item"]`, `div[class*="box"]`,
}

// Sweep limits. A selector matching more than maxContainers elements is
// matching page structure, not items.
const (
	maxContainers     = 200
	maxItemsPerScrape = 50
)

// ExtractConfigured runs the configured field mappings over a parsed page.
// With an explicit item selector, each match is one candidate item. Without
// one, every container selector is tried and the one yielding the most
// items wins. When no container works at all, fields are extracted
// directly and grouped by match index. The winning selector is returned for
// the debug surface.
func ExtractConfigured(doc *goquery.Document, fields []scraper.FieldMapping, itemSelector, baseURL string) ([]ExtractedItem, string) {
	if itemSelector != "" {
		return extractWithContainer(doc, fields, itemSelector, baseURL), itemSelector
	}

	var best []ExtractedItem
	bestSelector := ""
	for _, sel := range containerSelectors {
		matched := doc.Find(sel)
		if matched.Length() == 0 || matched.Length() > maxContainers {
			continue
		}
		items := extractWithContainer(doc, fields, sel, baseURL)
		if len(items) > len(best) {
			best = items
			bestSelector = sel
		}
	}

	if len(best) > 0 {
		return best, bestSelector
	}
	return extractDirect(doc, fields, baseURL), "fallback"
}

// extractWithContainer treats each selector match as one candidate item.
func extractWithContainer(doc *goquery.Document, fields []scraper.FieldMapping, containerSel, baseURL string) []ExtractedItem {
	var items []ExtractedItem
	doc.Find(containerSel).EachWithBreak(func(i int, container *goquery.Selection) bool {
		if i >= maxItemsPerScrape {
			return false
		}
		values := scraper.Extract(container, fields, baseURL)
		if len(values) > 0 {
			items = append(items, ExtractedItem(values))
		}
		return true
	})
	return items
}

// extractDirect runs each field's selector against the whole document and
// zips the matches together by index. It is the last resort when no
// container shape fits the page.
func extractDirect(doc *goquery.Document, fields []scraper.FieldMapping, baseURL string) []ExtractedItem {
	groups := make(map[int]ExtractedItem)
	maxIndex := -1

	for _, field := range fields {
		if field.Selector == "" || field.Name == "" {
			continue
		}
		doc.Find(field.Selector).EachWithBreak(func(i int, el *goquery.Selection) bool {
			if i >= maxItemsPerScrape {
				return false
			}
			value := scraper.ExtractField(el, scraper.FieldMapping{
				Name: field.Name, Selector: field.Selector, Type: field.Type,
			}, baseURL)
			// The element itself is the match here, so fall back to its own
			// value resolution when the nested lookup finds nothing.
			if value == "" {
				value = scraper.CleanText(el.Text())
			}
			if value != "" {
				if groups[i] == nil {
					groups[i] = make(ExtractedItem)
				}
				groups[i][field.Name] = value
				if i > maxIndex {
					maxIndex = i
				}
			}
			return true
		})
	}

	var items []ExtractedItem
	for i := 0; i <= maxIndex; i++ {
		if item, ok := groups[i]; ok && len(item) > 0 {
			items = append(items, item)
		}
	}
	return items
}
