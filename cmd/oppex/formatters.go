package main

import (
	"fmt"
	"os"
	"strings"

	oppex "github.com/kmezzour/oppex"
	"github.com/kmezzour/oppex/export"
	"github.com/kmezzour/oppex/scraper"
)

// truncate shortens a value to fit a table column.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func printJobsTable(jobs []oppex.JobData) {
	if len(jobs) == 0 {
		fmt.Println("No records.")
		return
	}

	fmt.Printf("%-40s %-25s %-20s %-12s\n", "TITLE", "COMPANY", "LOCATION", "TYPE")
	fmt.Println(strings.Repeat("-", 100))
	for _, job := range jobs {
		fmt.Printf("%-40s %-25s %-20s %-12s\n",
			truncate(job.Title, 40),
			truncate(job.Company, 25),
			truncate(job.Location, 20),
			truncate(job.JobType, 12),
		)
		if len(job.Tags) > 0 {
			fmt.Printf("    tags: %s\n", strings.Join(job.Tags, ", "))
		}
	}
}

func printJobsJSON(jobs []oppex.JobData, source string) {
	body, err := export.JobsJSON(jobs, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(body))
}

func printConfigsTable(configs []scraper.ScrapeConfig) {
	if len(configs) == 0 {
		fmt.Println("No configs saved.")
		return
	}

	fmt.Printf("%-36s %-25s %-8s %s\n", "ID", "NAME", "FIELDS", "URL")
	fmt.Println(strings.Repeat("-", 100))
	for _, cfg := range configs {
		fmt.Printf("%-36s %-25s %-8d %s\n",
			cfg.ID,
			truncate(cfg.Name, 25),
			len(cfg.Fields),
			truncate(cfg.URL, 40),
		)
	}
}

// fieldList collects repeatable --field name=selector flags.
type fieldList struct {
	fields []scraper.FieldMapping
}

func (f *fieldList) String() string {
	names := make([]string, len(f.fields))
	for i, fm := range f.fields {
		names[i] = fm.Name
	}
	return strings.Join(names, ",")
}

func (f *fieldList) Set(value string) error {
	name, selector, found := strings.Cut(value, "=")
	if !found || name == "" || selector == "" {
		return fmt.Errorf("field must be name=selector, got %q", value)
	}
	f.fields = append(f.fields, scraper.NewFieldMapping(name, selector))
	return nil
}
