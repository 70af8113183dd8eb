package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	spaceRe    = regexp.MustCompile(`\s+`)
	readMoreRe = regexp.MustCompile(`(?i)^(read more|learn more|view details|click here|lire la suite|en savoir plus)`)
	// Bare date shapes like 12/31/2024 or 2024-12-31. Used only to trim a
	// date out of surrounding text, never to interpret it.
	dateShapeRe = regexp.MustCompile(`\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}|\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2}`)
)

// CleanText collapses whitespace runs to single spaces and trims.
func CleanText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// FirstText returns the trimmed text of the first selector that matches at
// least one element and yields non-empty text. Selectors are tried in the
// order given, which callers arrange in decreasing specificity
// (platform-specific attributes first, generic tag names last). First match
// wins; an empty string means no selector produced text.
func FirstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		text := CleanText(doc.Find(sel).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// Extract runs every field mapping against one container element and
// returns the name -> value map for fields that produced a non-empty value.
// A selector matching nothing yields an absent entry, never an error.
func Extract(container *goquery.Selection, fields []FieldMapping, baseURL string) map[string]string {
	item := make(map[string]string)
	for _, field := range fields {
		if field.Selector == "" || field.Name == "" {
			continue
		}
		if value := ExtractField(container, field, baseURL); value != "" {
			item[field.Name] = value
		}
	}
	return item
}

// ExtractField resolves one field mapping within a container element. The
// field element is located by trying, in order: a descendant match, the
// container itself, a match in the parent, and the nearest matching
// ancestor. The first strategy that finds an element wins.
func ExtractField(container *goquery.Selection, field FieldMapping, baseURL string) string {
	strategies := []func() *goquery.Selection{
		func() *goquery.Selection { return container.Find(field.Selector).First() },
		func() *goquery.Selection {
			if container.Is(field.Selector) {
				return container
			}
			return nil
		},
		func() *goquery.Selection { return container.Parent().Find(field.Selector).First() },
		func() *goquery.Selection { return container.Closest(field.Selector) },
	}

	for _, strategy := range strategies {
		el := strategy()
		if el == nil || el.Length() == 0 {
			continue
		}
		if value := resolveValue(el, field.Type); value != "" {
			return postProcess(value, field.Type, baseURL)
		}
	}
	return ""
}

// resolveValue turns a matched element into a raw string according to the
// field type.
func resolveValue(el *goquery.Selection, typ FieldType) string {
	switch typ {
	case FieldLink:
		if href, ok := el.Attr("href"); ok && href != "" {
			return href
		}
		if href, ok := el.Find("a").First().Attr("href"); ok && href != "" {
			return href
		}
		if href, ok := el.Closest("a").Attr("href"); ok {
			return href
		}
		return ""
	case FieldImage:
		for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
			if src, ok := el.Attr(attr); ok && src != "" {
				return src
			}
		}
		if src, ok := el.Find("img").First().Attr("src"); ok {
			return src
		}
		return ""
	case FieldDate:
		if text := strings.TrimSpace(el.Text()); text != "" {
			return text
		}
		for _, attr := range []string{"datetime", "data-date"} {
			if v, ok := el.Attr(attr); ok && v != "" {
				return v
			}
		}
		if v, ok := el.Find("time").First().Attr("datetime"); ok {
			return v
		}
		return ""
	default: // FieldText
		if text := strings.TrimSpace(el.Text()); text != "" {
			return text
		}
		return strings.TrimSpace(el.Find("h1, h2, h3, h4, h5, h6, p, span, div").First().Text())
	}
}

// postProcess cleans text values, absolutizes link/image URLs and trims a
// recognizable date shape out of date values. Dates are otherwise passed
// through raw.
func postProcess(value string, typ FieldType, baseURL string) string {
	switch typ {
	case FieldText:
		value = CleanText(value)
		value = strings.TrimSpace(readMoreRe.ReplaceAllString(value, ""))
	case FieldLink, FieldImage:
		value = AbsoluteURL(value, baseURL)
	case FieldDate:
		value = strings.TrimSpace(value)
		if m := dateShapeRe.FindString(value); m != "" {
			value = m
		}
	}
	return value
}

// AbsoluteURL resolves a possibly-relative href against the page URL.
// Fragment-only, mailto: and tel: values come back unchanged, as does
// anything that fails to parse.
func AbsoluteURL(href, baseURL string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	if strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
