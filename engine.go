package oppex

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/kmezzour/oppex/fetch"
	"github.com/kmezzour/oppex/scraper"
)

// Fetcher retrieves and parses one page. The engine takes it as a function
// so callers can pick plain HTTP, the headless renderer, or a test stub.
type Fetcher func(ctx context.Context, url string) (*fetch.Result, error)

// Engine runs the extraction pipeline for one URL at a time. It holds no
// per-scrape state; sessions carry that. Concurrent Scrape calls on one
// Engine are safe but each call is internally sequential.
type Engine struct {
	fetch Fetcher
	log   *logrus.Entry
}

// NewEngine returns an engine backed by the given fetcher, defaulting to
// plain HTTP fetching when nil.
func NewEngine(f Fetcher) *Engine {
	if f == nil {
		f = fetch.Document
	}
	return &Engine{fetch: f, log: logrus.WithField("component", "engine")}
}

// ScrapeResult is what one classify-and-extract pass produces. Exactly one
// of Job and Listing is set, per the classification.
type ScrapeResult struct {
	Classification Classification `json:"classification"`
	Job            *JobData       `json:"job,omitempty"`
	Listing        *JobListResult `json:"listing,omitempty"`
	ExtractionURL  string         `json:"extraction_url"`
}

// followupDelay spaces out the per-link fetches of a deep scrape, so the
// target site sees at most one request per second from us.
const followupDelay = time.Second

// maxFollowups caps how many individual postings a deep scrape visits.
const maxFollowups = 10

// Scrape fetches a URL, classifies it and routes to the matching extractor:
// listing pages yield partial records per item, detail pages yield a single
// full record.
func (e *Engine) Scrape(ctx context.Context, url string) (*ScrapeResult, error) {
	res, err := e.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	cls := Classify(res.Doc, res.ExtractionURL)
	out := &ScrapeResult{Classification: cls, ExtractionURL: res.ExtractionURL}

	if cls.IsListing {
		out.Listing = ExtractJobListing(res.Doc, res.ExtractionURL)
		e.log.WithFields(logrus.Fields{
			"url":   url,
			"items": len(out.Listing.Jobs),
		}).Info("scraped listing page")
	} else {
		job := ExtractJobDetail(res.Doc, res.ExtractionURL)
		out.Job = &job
		e.log.WithFields(logrus.Fields{
			"url":   url,
			"title": job.Title,
		}).Info("scraped detail page")
	}

	return out, nil
}

// ScrapeDeep fetches a listing page, harvests its posting links and visits
// each one for a full detail record. Visits run strictly one at a time with
// a fixed delay between them, and one bad posting never aborts the rest.
// maxJobs above maxFollowups (or zero) is clamped.
func (e *Engine) ScrapeDeep(ctx context.Context, url string, maxJobs int) (*JobListResult, error) {
	if maxJobs <= 0 || maxJobs > maxFollowups {
		maxJobs = maxFollowups
	}

	res, err := e.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	links := CollectJobLinks(res.Doc, res.ExtractionURL)
	if len(links) == 0 {
		e.log.WithField("url", url).Warn("no posting links found, falling back to single-pass listing extraction")
		return ExtractJobListing(res.Doc, res.ExtractionURL), nil
	}
	if len(links) > maxJobs {
		links = links[:maxJobs]
	}

	var jobs []JobData
	for i, link := range links {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(followupDelay):
			}
		}

		detail, err := e.fetch(ctx, link.URL)
		if err != nil {
			e.log.WithError(err).WithField("url", link.URL).Warn("skipping posting, fetch failed")
			continue
		}
		job := ExtractJobDetail(detail.Doc, detail.ExtractionURL)
		if job.Title == "" {
			job.Title = link.Title
		}
		jobs = append(jobs, job)
	}

	pageTitle := scraper.CleanText(res.Doc.Find("title").First().Text())
	return &JobListResult{
		Jobs: jobs,
		Summary: ListSummary{
			TotalFound: len(links),
			Source:     CompanyFromHost(hostOf(res.ExtractionURL)),
			PageTitle:  pageTitle,
		},
	}, nil
}

// ExtractWithFields fetches the session URL and runs its field mappings,
// filling the session's Items. The selector that actually produced the
// items is returned for the caller's debug surface.
func (e *Engine) ExtractWithFields(ctx context.Context, session *ExtractionSession) (string, error) {
	for _, field := range session.Fields {
		if field.Selector == "" {
			continue
		}
		if err := ValidateSelector(field.Selector); err != nil {
			return "", err
		}
	}
	if session.ItemSelector != "" {
		if err := ValidateSelector(session.ItemSelector); err != nil {
			return "", err
		}
	}

	res, err := e.fetch(ctx, session.URL)
	if err != nil {
		return "", err
	}

	items, used := ExtractConfigured(res.Doc, session.Fields, session.ItemSelector, res.ExtractionURL)
	session.Items = items

	e.log.WithFields(logrus.Fields{
		"url":      session.URL,
		"items":    len(items),
		"selector": used,
	}).Info("extracted configured fields")
	return used, nil
}

// ManualExtract runs a single user-supplied selector against a page and
// returns the trimmed text of every match. A selector that compiles but
// matches nothing returns an empty slice and no error; only malformed
// selectors and fetch failures are errors.
func (e *Engine) ManualExtract(ctx context.Context, url, selector string) ([]string, error) {
	if err := ValidateSelector(selector); err != nil {
		return nil, err
	}

	res, err := e.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var values []string
	res.Doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if v := scraper.CleanText(s.Text()); v != "" {
			values = append(values, v)
		}
	})

	e.log.WithFields(logrus.Fields{
		"url":      url,
		"selector": selector,
		"matches":  len(values),
	}).Info("manual extraction")
	return values, nil
}
