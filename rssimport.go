package oppex

import (
	"context"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"github.com/kmezzour/oppex/scraper"
)

// ImportFeed pulls an RSS/Atom feed and converts each entry into an
// opportunity record through the same heuristic cascades the HTML paths
// use. Feeds from job boards carry the posting title and a description
// blob; everything else is inferred. Items without a title are dropped.
func ImportFeed(ctx context.Context, feedURL string) ([]JobData, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var jobs []JobData
	for _, item := range feed.Items {
		title := CleanTitle(scraper.CleanText(item.Title))
		if title == "" {
			continue
		}

		link := item.Link
		if link == "" {
			link = feedURL
		}

		job := NewJobData(link)
		job.Title = title
		job.Description = scraper.CleanText(item.Description)

		body := title + " " + job.Description

		job.Company = CompanyFromTitle(title)
		if job.Company == "" {
			job.Company = CompanyFromText(body)
		}
		if job.Company == "" {
			job.Company = scraper.CleanText(feed.Title)
		}

		job.Location = LocationFromText(body)
		if job.Location == "" {
			job.Location = LocationFromTitle(title)
		}

		job.SalaryRange = SalaryFromText(body)
		job.JobType = JobTypeFromText(body)
		job.ExperienceLevel = ExperienceFromText(body)
		job.RemoteWork = IsRemote(body)
		job.Tags = TagsFromText(title, job.Description)

		if item.PublishedParsed != nil {
			job.ScrapedAt = *item.PublishedParsed
		}

		jobs = append(jobs, job)
	}

	logrus.WithFields(logrus.Fields{
		"feed":  feedURL,
		"items": len(feed.Items),
		"jobs":  len(jobs),
	}).Info("imported feed")
	return jobs, nil
}
