package oppex

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/kmezzour/oppex/scraper"
)

// Ordered selector lists for the semantic slots of a detail page. Platform
// test-ids come first, semantic class names next, bare tags last; the first
// selector that matches an element with non-empty text wins.
var (
	detailTitleSelectors = []string{
		`h1[data-testid="job-title"]`,
		".job-title",
		`[data-cy="job-title"]`,
		"h1.jobTitle",
		".jobsearch-JobInfoHeader-title",
		"h1",
		`[class*="title"]`,
		`[class*="heading"]`,
	}
	detailCompanySelectors = []string{
		`[data-testid="company-name"]`,
		".company-name",
		`[data-cy="company-name"]`,
		".jobsearch-CompanyInfoContainer",
		`[class*="company"]`,
		`[class*="employer"]`,
		".entreprise",
	}
	detailLocationSelectors = []string{
		`[data-testid="job-location"]`,
		".job-location",
		`[data-cy="location"]`,
		".jobsearch-JobInfoHeader-subtitle",
		`[class*="location"]`,
		".lieu",
		".localisation",
	}
	detailDescriptionSelectors = []string{
		`[data-testid="job-description"]`,
		".job-description",
		`[data-cy="job-description"]`,
		".jobsearch-jobDescriptionText",
		`[class*="description"]`,
		`[class*="content"]`,
	}
	detailRequirementsSelectors = []string{
		".requirements",
		".job-requirements",
		`[class*="requirement"]`,
		".qualifications",
		".exigences",
		".competences",
	}
	detailBenefitsSelectors = []string{
		".benefits",
		".job-benefits",
		`[class*="benefit"]`,
		".avantages",
	}
	detailSalarySelectors = []string{
		".salary",
		".job-salary",
		`[class*="salary"]`,
		`[class*="salaire"]`,
		".compensation",
		".remuneration",
	}
	detailDeadlineSelectors = []string{
		".deadline",
		".application-deadline",
		`[class*="deadline"]`,
		".date-limite",
	}
)

// listingItemSelectors is the sweep order for finding candidate items on a
// listing page, from title links down to generic job-flavored anchors.
var listingItemSelectors = []string{
	"h1 a", "h2 a", "h3 a", "h4 a",
	".entry-title a", ".post-title a", ".job-title a",
	".title a", ".heading a",
	"article h1", "article h2", "article h3",
	"article .title", "article .entry-title",
	".job-listing a", ".job-item a", ".opportunity a",
	".position a", ".career a", ".vacancy a",
	".content a", ".main a", ".posts a",
	".list-item a", ".item a",
	`a[href*="job"]`, `a[href*="emploi"]`, `a[href*="career"]`,
	`a[href*="position"]`, `a[href*="opportunity"]`, `a[href*="vacancy"]`,
}

// navKeywords marks link text that belongs to site chrome, not postings.
var navKeywords = []string{
	"menu", "navigation", "nav", "header", "footer", "sidebar",
	"contact", "about", "home", "login", "register", "search",
	"à propos", "accueil", "connexion", "recherche",
}

// enoughListingItems stops the selector sweep early once a listing has
// yielded a healthy number of distinct items.
const enoughListingItems = 5

// isNavigationItem reports whether link text looks like site navigation.
func isNavigationItem(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range navKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// hostOf returns the hostname of a URL, or "" when unparseable.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// ExtractJobDetail pulls a single opportunity record out of a detail page.
// Slot selectors go first; whatever they leave empty, the text heuristics
// fill from the whole-page text. Absent fields stay absent.
func ExtractJobDetail(doc *goquery.Document, pageURL string) JobData {
	job := NewJobData(pageURL)

	job.Title = scraper.FirstText(doc, detailTitleSelectors)
	job.Company = scraper.FirstText(doc, detailCompanySelectors)
	job.Location = scraper.FirstText(doc, detailLocationSelectors)
	job.Description = scraper.FirstText(doc, detailDescriptionSelectors)
	job.Requirements = scraper.FirstText(doc, detailRequirementsSelectors)
	job.Benefits = scraper.FirstText(doc, detailBenefitsSelectors)
	job.SalaryRange = scraper.FirstText(doc, detailSalarySelectors)
	job.ApplicationDeadline = scraper.FirstText(doc, detailDeadlineSelectors)

	bodyText := doc.Find("body").Text()
	heur := ParseHeuristics(bodyText, bodyText)

	if job.Company == "" {
		job.Company = CompanyFromTitle(job.Title)
	}
	if job.Company == "" {
		job.Company = heur.Company
	}
	if job.Company == "" {
		job.Company = CompanyFromHost(hostOf(pageURL))
	}
	if job.Location == "" {
		job.Location = heur.Location
	}
	if job.Location == "" {
		job.Location = LocationFromTitle(job.Title)
	}
	if job.SalaryRange == "" {
		job.SalaryRange = heur.SalaryRange
	}

	job.JobType = heur.JobType
	job.ExperienceLevel = heur.ExperienceLevel
	job.RemoteWork = heur.RemoteWork
	job.Tags = TagsFromText(job.Title, job.Description)

	return job
}

// ExtractJobListing sweeps a listing page for candidate items and builds a
// partial record for each from its surrounding context. The summary says
// how many items were found and where.
func ExtractJobListing(doc *goquery.Document, pageURL string) *JobListResult {
	host := hostOf(pageURL)
	pageTitle := scraper.CleanText(doc.Find("title").First().Text())
	if pageTitle == "" {
		pageTitle = "Unknown Page"
	}

	var jobs []JobData
	seenTitles := make(map[string]bool)

	for _, sel := range listingItemSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			title, href := itemTitleAndLink(s)
			if len(title) <= 8 || len(title) >= 200 {
				return
			}
			if seenTitles[title] || isNavigationItem(title) {
				return
			}
			seenTitles[title] = true

			context := s.Closest("article, .post, .job-item, .item, div, li")
			contextText := scraper.CleanText(context.Text())

			job := NewJobData(pageURL)
			job.Title = title
			job.Company = contextCompany(context)
			if job.Company == "" {
				job.Company = CompanyFromHost(host)
			}
			job.Location = contextLocation(context)
			if job.Location == "" {
				job.Location = LocationFromText(contextText)
			}
			if job.Location == "" {
				job.Location = LocationFromTitle(title)
			}
			job.ApplicationDeadline = contextDate(context)
			job.Description = contextDescription(contextText, host)
			job.JobType = JobTypeFromText(contextText)
			job.ExperienceLevel = ExperienceFromText(contextText)
			job.RemoteWork = IsRemote(contextText)
			job.Tags = TagsFromText(title, contextText)
			if href != "" {
				job.SourceURL = scraper.AbsoluteURL(href, pageURL)
			}

			jobs = append(jobs, job)
		})

		if len(jobs) >= enoughListingItems {
			break
		}
	}

	if len(jobs) == 0 {
		logrus.WithField("url", pageURL).Warn("no listing items matched, emitting summary record")
		fallback := NewJobData(pageURL)
		fallback.Title = pageTitle + " - Job Listings"
		fallback.Company = CompanyFromHost(host)
		fallback.Location = "Various locations"
		fallback.Description = "Job listing page from " + host +
			". Multiple opportunities may be available - please visit the source page for details."
		jobs = append(jobs, fallback)
	}

	return &JobListResult{
		Jobs: jobs,
		Summary: ListSummary{
			TotalFound: len(seenTitles),
			Source:     CompanyFromHost(host),
			PageTitle:  pageTitle,
		},
	}
}

// itemTitleAndLink returns a candidate item's title text and href. Non-link
// elements use the first anchor inside them, falling back to their own text.
func itemTitleAndLink(s *goquery.Selection) (string, string) {
	if s.Is("a") {
		href, _ := s.Attr("href")
		return scraper.CleanText(s.Text()), href
	}
	link := s.Find("a").First()
	if link.Length() > 0 {
		href, _ := link.Attr("href")
		title := scraper.CleanText(link.Text())
		if title == "" {
			title = scraper.CleanText(s.Text())
		}
		return title, href
	}
	return scraper.CleanText(s.Text()), ""
}

func contextCompany(context *goquery.Selection) string {
	for _, sel := range []string{".company", ".organization", ".employer", ".org"} {
		if v := scraper.CleanText(context.Find(sel).First().Text()); v != "" {
			return v
		}
	}
	return ""
}

func contextLocation(context *goquery.Selection) string {
	for _, sel := range []string{".location", ".city", ".place", ".address"} {
		if v := scraper.CleanText(context.Find(sel).First().Text()); v != "" {
			return v
		}
	}
	return ""
}

func contextDate(context *goquery.Selection) string {
	for _, sel := range []string{".date", ".post-date", ".published", "time"} {
		if v := scraper.CleanText(context.Find(sel).First().Text()); v != "" {
			return v
		}
	}
	return ""
}

func contextDescription(contextText, host string) string {
	if len(contextText) > 100 {
		if len(contextText) > 200 {
			return contextText[:200] + "..."
		}
		return contextText
	}
	return "Job opportunity found on " + host + ". Visit the source URL for full details."
}
