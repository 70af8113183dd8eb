package export

import (
	"strings"

	oppex "github.com/kmezzour/oppex"
	"github.com/kmezzour/oppex/scraper"
)

// The CSV written here quotes every value, empty or not, and escapes
// embedded quotes by doubling them. Consumers of earlier exports depend on
// that exact shape, so this does not use encoding/csv, which quotes only
// when needed.

// FormatCSVRow renders one row, every value double-quoted.
func FormatCSVRow(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

// ParseCSVLine splits one line produced by FormatCSVRow back into values.
// A doubled quote inside a quoted value is one literal quote; commas inside
// quotes do not split.
func ParseCSVLine(line string) []string {
	var values []string
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			values = append(values, current.String())
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	values = append(values, current.String())
	return values
}

// ItemsCSV renders extracted items as CSV: a header row of field names,
// then one row per item in field order. Absent fields become empty quoted
// values, keeping every row the same width.
func ItemsCSV(items []oppex.ExtractedItem, fields []scraper.FieldMapping) string {
	names := scraper.FieldNames(fields)

	var b strings.Builder
	b.WriteString(FormatCSVRow(names))
	b.WriteString("\n")

	for _, item := range items {
		row := make([]string, len(names))
		for i, name := range names {
			row[i] = item.Get(name)
		}
		b.WriteString(FormatCSVRow(row))
		b.WriteString("\n")
	}
	return b.String()
}

// jobCSVHeader is the fixed column order for opportunity-record exports.
var jobCSVHeader = []string{
	"id", "title", "company", "location", "job_type", "salary_range",
	"description", "experience_level", "remote_work", "tags",
	"application_deadline", "source_url", "scraped_at",
}

// JobsCSV renders opportunity records as CSV with the fixed column set.
func JobsCSV(jobs []oppex.JobData) string {
	var b strings.Builder
	b.WriteString(FormatCSVRow(jobCSVHeader))
	b.WriteString("\n")

	for _, job := range jobs {
		remote := "false"
		if job.RemoteWork {
			remote = "true"
		}
		b.WriteString(FormatCSVRow([]string{
			job.ID,
			job.Title,
			job.Company,
			job.Location,
			job.JobType,
			job.SalaryRange,
			job.Description,
			job.ExperienceLevel,
			remote,
			strings.Join(job.Tags, "; "),
			job.ApplicationDeadline,
			job.SourceURL,
			job.ScrapedAt.Format("2006-01-02 15:04:05"),
		}))
		b.WriteString("\n")
	}
	return b.String()
}
