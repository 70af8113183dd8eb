package export

import (
	"fmt"
	"strings"
	"time"

	oppex "github.com/kmezzour/oppex"
	"github.com/kmezzour/oppex/scraper"
)

// FeedMeta is the channel-level metadata of a generated feed.
type FeedMeta struct {
	Title       string
	Link        string
	Description string
}

// cdata wraps text for an RSS element. Titles and descriptions carry scraped
// text verbatim, so they are always CDATA-wrapped rather than entity-escaped;
// an embedded "]]>" is split across two sections to keep the XML well-formed.
func cdata(text string) string {
	safe := strings.ReplaceAll(text, "]]>", "]]]]><![CDATA[>")
	return "<![CDATA[" + safe + "]]>"
}

// xmlEscape escapes the few metacharacters allowed outside CDATA, used for
// link elements which must stay plain text.
func xmlEscape(text string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(text)
}

type rssItem struct {
	title       string
	link        string
	description string
	pubDate     time.Time
}

// renderFeed assembles an RSS 2.0 document from channel metadata and items.
func renderFeed(meta FeedMeta, items []rssItem) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0">` + "\n")
	b.WriteString("  <channel>\n")
	fmt.Fprintf(&b, "    <title>%s</title>\n", cdata(meta.Title))
	fmt.Fprintf(&b, "    <link>%s</link>\n", xmlEscape(meta.Link))
	fmt.Fprintf(&b, "    <description>%s</description>\n", cdata(meta.Description))
	fmt.Fprintf(&b, "    <lastBuildDate>%s</lastBuildDate>\n", time.Now().UTC().Format(time.RFC1123Z))

	for _, item := range items {
		b.WriteString("    <item>\n")
		fmt.Fprintf(&b, "      <title>%s</title>\n", cdata(item.title))
		if item.link != "" {
			fmt.Fprintf(&b, "      <link>%s</link>\n", xmlEscape(item.link))
			fmt.Fprintf(&b, "      <guid>%s</guid>\n", xmlEscape(item.link))
		}
		fmt.Fprintf(&b, "      <description>%s</description>\n", cdata(item.description))
		if !item.pubDate.IsZero() {
			fmt.Fprintf(&b, "      <pubDate>%s</pubDate>\n", item.pubDate.UTC().Format(time.RFC1123Z))
		}
		b.WriteString("    </item>\n")
	}

	b.WriteString("  </channel>\n")
	b.WriteString("</rss>\n")
	return b.String()
}

// linkFieldName picks the field whose values should become item links: the
// first field whose name mentions a link or URL.
func linkFieldName(fields []scraper.FieldMapping) string {
	for _, f := range fields {
		lower := strings.ToLower(f.Name)
		if strings.Contains(lower, "link") || strings.Contains(lower, "url") {
			return f.Name
		}
	}
	return ""
}

// ItemsRSS renders extracted items as an RSS 2.0 feed. The first configured
// field becomes each item's title, the second its description, and any
// field named like a link becomes the item link. Items with no title field
// value fall back to a positional title rather than being dropped.
func ItemsRSS(items []oppex.ExtractedItem, fields []scraper.FieldMapping, meta FeedMeta) string {
	names := scraper.FieldNames(fields)
	linkName := linkFieldName(fields)

	out := make([]rssItem, 0, len(items))
	for i, item := range items {
		var it rssItem
		if len(names) > 0 {
			it.title = item.Get(names[0])
		}
		if it.title == "" {
			it.title = fmt.Sprintf("Item %d", i+1)
		}
		if len(names) > 1 {
			it.description = item.Get(names[1])
		}
		if linkName != "" {
			it.link = item.Get(linkName)
		}
		out = append(out, it)
	}

	return renderFeed(meta, out)
}

// JobsRSS renders opportunity records as an RSS 2.0 feed, one item per
// record, descriptions assembled from the record's populated fields.
func JobsRSS(jobs []oppex.JobData, meta FeedMeta) string {
	out := make([]rssItem, 0, len(jobs))
	for _, job := range jobs {
		var desc strings.Builder
		if job.Company != "" {
			fmt.Fprintf(&desc, "Company: %s. ", job.Company)
		}
		if job.Location != "" {
			fmt.Fprintf(&desc, "Location: %s. ", job.Location)
		}
		if job.JobType != "" {
			fmt.Fprintf(&desc, "Type: %s. ", job.JobType)
		}
		if job.SalaryRange != "" {
			fmt.Fprintf(&desc, "Salary: %s. ", job.SalaryRange)
		}
		desc.WriteString(job.Description)

		out = append(out, rssItem{
			title:       job.Title,
			link:        job.SourceURL,
			description: strings.TrimSpace(desc.String()),
			pubDate:     job.ScrapedAt,
		})
	}

	return renderFeed(meta, out)
}
