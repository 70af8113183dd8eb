package scraper

import (
	"time"

	"github.com/google/uuid"
)

// FieldType says how a matched element is turned into a value.
type FieldType string

const (
	// FieldText takes the trimmed text content of the matched element.
	FieldText FieldType = "text"
	// FieldLink takes the href attribute of the matched element or its
	// nearest containing anchor.
	FieldLink FieldType = "link"
	// FieldImage takes the src attribute of the matched element or a
	// contained img.
	FieldImage FieldType = "image"
	// FieldDate takes the raw text of the matched element. No parsing or
	// normalization happens here; downstream consumers interpret it.
	FieldDate FieldType = "date"
)

// FieldMapping defines one column of structured output: a human names the
// column, supplies a CSS selector and picks how the match becomes a value.
// Mappings are immutable once a scrape runs against them.
type FieldMapping struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Selector string    `json:"selector"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// NewFieldMapping creates a text field mapping with a fresh ID.
func NewFieldMapping(name, selector string) FieldMapping {
	return FieldMapping{
		ID:       uuid.New().String(),
		Name:     name,
		Selector: selector,
		Type:     FieldText,
	}
}

// ScrapeConfig is the durable configuration a human builds once and replays:
// a target URL, the field mappings and an optional container selector for
// the repeated item element.
type ScrapeConfig struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	URL          string         `json:"url"`
	Fields       []FieldMapping `json:"fields"`
	ItemSelector string         `json:"itemSelector"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// NewScrapeConfig creates a config with a fresh ID and timestamps.
func NewScrapeConfig(name, url string, fields []FieldMapping) *ScrapeConfig {
	now := time.Now()
	return &ScrapeConfig{
		ID:        uuid.New().String(),
		Name:      name,
		URL:       url,
		Fields:    fields,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RequiredNames returns the names of fields marked required, in order.
func RequiredNames(fields []FieldMapping) []string {
	var names []string
	for _, f := range fields {
		if f.Required && f.Name != "" {
			names = append(names, f.Name)
		}
	}
	return names
}

// FieldNames returns all non-empty field names, in order.
func FieldNames(fields []FieldMapping) []string {
	var names []string
	for _, f := range fields {
		if f.Name != "" {
			names = append(names, f.Name)
		}
	}
	return names
}
