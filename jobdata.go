package oppex

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobData is one extracted opportunity record. Every field except ID,
// SourceURL and ScrapedAt is optional: heuristic extraction routinely comes
// back with partial records, and an absent field is an expected outcome, not
// an error.
type JobData struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title,omitempty"`
	Company             string   `json:"company,omitempty"`
	Location            string   `json:"location,omitempty"`
	JobType             string   `json:"job_type,omitempty"`
	SalaryRange         string   `json:"salary_range,omitempty"`
	Description         string   `json:"description,omitempty"`
	Requirements        string   `json:"requirements,omitempty"`
	Benefits            string   `json:"benefits,omitempty"`
	ApplicationDeadline string   `json:"application_deadline,omitempty"`
	Tags                []string `json:"tags,omitempty"`
	ExperienceLevel     string   `json:"experience_level,omitempty"`
	RemoteWork          bool     `json:"remote_work"`
	SourceURL           string   `json:"source_url"`
	ScrapedAt           time.Time `json:"scraped_at"`
}

// NewJobData returns a record stamped with a fresh ID, the source URL and
// the scrape time. RemoteWork starts false, never unset.
func NewJobData(sourceURL string) JobData {
	return JobData{
		ID:        uuid.New().String(),
		SourceURL: sourceURL,
		ScrapedAt: time.Now(),
	}
}

// ListSummary describes where a set of listing-page records came from.
type ListSummary struct {
	TotalFound int    `json:"totalFound"`
	Source     string `json:"source"`
	PageTitle  string `json:"pageTitle"`
}

// JobListResult is the listing-page counterpart of JobData: each entry in
// Jobs is a best-effort partial record built from one candidate element's
// surrounding context. A result is either a JobListResult or a single
// JobData, never both -- the classifier decides which shape comes back.
type JobListResult struct {
	Jobs    []JobData   `json:"jobs"`
	Summary ListSummary `json:"summary"`
}

// ExtractedItem maps a configured field name to the string value pulled out
// of one candidate DOM node. A field whose selector matched nothing is
// simply absent from the map. Items are ephemeral: they live only for the
// duration of a preview/save cycle.
type ExtractedItem map[string]string

// Get returns the trimmed value for name, or "" when the field is absent.
func (it ExtractedItem) Get(name string) string {
	return strings.TrimSpace(it[name])
}

// Section is a named group of elements a human selected interactively on the
// manual-scrape path. It holds the synthesized selector plus the literal
// text values captured at selection time.
type Section struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Selector string   `json:"selector"`
	Elements []string `json:"elements"`
}

// ScrapedOpportunity is a manual-scrape record assembled from sections,
// keyed by section name.
type ScrapedOpportunity struct {
	ID    string            `json:"id"`
	Title string            `json:"title"`
	Data  map[string]string `json:"data"`
	URL   string            `json:"url"`
}
