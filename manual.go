package oppex

import (
	"context"

	"github.com/google/uuid"
)

// The manual path lets a human name what they selected: each named section
// pairs a synthesized or hand-written selector with the texts it captured,
// and a set of sections assembles into one opportunity record.

// NewSection creates a named section with a fresh ID.
func NewSection(name, selector string, elements []string) Section {
	return Section{
		ID:       uuid.New().String(),
		Name:     name,
		Selector: selector,
		Elements: elements,
	}
}

// ManualSection runs one selector against a page and packages the matches
// as a named section. The error contract is ManualExtract's: zero matches
// is a section with no elements, not an error.
func (e *Engine) ManualSection(ctx context.Context, url, name, selector string) (Section, error) {
	matches, err := e.ManualExtract(ctx, url, selector)
	if err != nil {
		return Section{}, err
	}
	return NewSection(name, selector, matches), nil
}

// AssembleOpportunity folds sections into one manual-scrape record. Each
// section contributes its first captured element under its name; a section
// named "title" (or the first section, failing that) also becomes the
// record title. Empty sections are skipped.
func AssembleOpportunity(url string, sections []Section) ScrapedOpportunity {
	opp := ScrapedOpportunity{
		ID:   uuid.New().String(),
		URL:  url,
		Data: make(map[string]string),
	}

	for _, section := range sections {
		if section.Name == "" || len(section.Elements) == 0 {
			continue
		}
		value := section.Elements[0]
		opp.Data[section.Name] = value

		if section.Name == "title" {
			opp.Title = value
		}
		if opp.Title == "" {
			opp.Title = value
		}
	}

	return opp
}
