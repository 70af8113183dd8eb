// Package export renders extracted opportunity data into the three
// interchange formats the pipeline supports: a JSON envelope, quoted CSV
// and an RSS 2.0 feed. Formatting is pure: every function takes data in
// and returns bytes out, with no I/O.
package export

import (
	"encoding/json"
	"fmt"
	"time"

	oppex "github.com/kmezzour/oppex"
	"github.com/kmezzour/oppex/scraper"
)

// Format names a supported output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatRSS  Format = "rss"
)

// ContentType returns the HTTP content type for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatRSS:
		return "application/rss+xml; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// ParseFormat maps a user-supplied format name to a Format, defaulting to
// JSON for anything unrecognized.
func ParseFormat(name string) Format {
	switch Format(name) {
	case FormatCSV:
		return FormatCSV
	case FormatRSS:
		return FormatRSS
	default:
		return FormatJSON
	}
}

// itemsEnvelope is the JSON export shape for configured-field items.
type itemsEnvelope struct {
	Source     string                `json:"source"`
	ExportedAt time.Time             `json:"exported_at"`
	Count      int                   `json:"count"`
	Items      []oppex.ExtractedItem `json:"items"`
}

// jobsEnvelope is the JSON export shape for opportunity records.
type jobsEnvelope struct {
	Source     string          `json:"source"`
	ExportedAt time.Time       `json:"exported_at"`
	Count      int             `json:"count"`
	Jobs       []oppex.JobData `json:"jobs"`
}

// ItemsJSON renders extracted items as a pretty-printed JSON envelope.
func ItemsJSON(items []oppex.ExtractedItem, source string) ([]byte, error) {
	env := itemsEnvelope{
		Source:     source,
		ExportedAt: time.Now().UTC(),
		Count:      len(items),
		Items:      items,
	}
	return json.MarshalIndent(env, "", "  ")
}

// JobsJSON renders opportunity records as a pretty-printed JSON envelope.
func JobsJSON(jobs []oppex.JobData, source string) ([]byte, error) {
	env := jobsEnvelope{
		Source:     source,
		ExportedAt: time.Now().UTC(),
		Count:      len(jobs),
		Jobs:       jobs,
	}
	return json.MarshalIndent(env, "", "  ")
}

// Items renders extracted items in the requested format.
func Items(format Format, items []oppex.ExtractedItem, fields []scraper.FieldMapping, source string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return []byte(ItemsCSV(items, fields)), nil
	case FormatRSS:
		return []byte(ItemsRSS(items, fields, FeedMeta{
			Title:       "Extracted Opportunities",
			Link:        source,
			Description: fmt.Sprintf("%d items extracted from %s", len(items), source),
		})), nil
	default:
		return ItemsJSON(items, source)
	}
}
