// Package replay re-runs saved scrape configurations on a schedule, turning
// the one-shot extraction pipeline into a standing collector. Each cycle
// walks the stored configs strictly one at a time; a config that fails is
// logged and skipped, never retried within the cycle.
package replay

import (
	"context"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	oppex "github.com/kmezzour/oppex"
	"github.com/kmezzour/oppex/scraper"
	"github.com/kmezzour/oppex/store"
)

// Service schedules and runs replay cycles.
type Service struct {
	engine *oppex.Engine
	store  *store.Store
	cron   *cron.Cron
	log    *logrus.Entry
}

// NewService creates a replay service over an engine and store.
func NewService(engine *oppex.Engine, st *store.Store) *Service {
	return &Service{
		engine: engine,
		store:  st,
		cron:   cron.New(),
		log:    logrus.WithField("component", "replay"),
	}
}

// Start runs one cycle immediately, then schedules repeats at the given
// cron spec (e.g. "@every 1h"). It returns after scheduling; Stop ends the
// schedule.
func (s *Service) Start(ctx context.Context, spec string) error {
	s.RunCycle(ctx)

	_, err := s.cron.AddFunc(spec, func() {
		s.RunCycle(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule. A cycle already in flight finishes.
func (s *Service) Stop() {
	s.cron.Stop()
}

// RunCycle replays every stored config once, sequentially.
func (s *Service) RunCycle(ctx context.Context) {
	configs, err := s.store.ListConfigs()
	if err != nil {
		s.log.WithError(err).Error("failed to list configs, skipping cycle")
		return
	}

	s.log.WithField("configs", len(configs)).Info("starting replay cycle")
	for _, cfg := range configs {
		if ctx.Err() != nil {
			s.log.Info("replay cycle cancelled")
			return
		}
		if err := s.replayOne(ctx, cfg); err != nil {
			s.log.WithError(err).WithField("config", cfg.Name).Warn("config replay failed")
		}
	}
}

// replayOne runs one config and saves the records its valid items map to.
func (s *Service) replayOne(ctx context.Context, cfg scraper.ScrapeConfig) error {
	session := oppex.NewSession(cfg.URL, cfg.Fields)
	session.ItemSelector = cfg.ItemSelector

	if _, err := s.engine.ExtractWithFields(ctx, session); err != nil {
		return err
	}

	valid, hidden := session.ValidItems()
	jobs := make([]oppex.JobData, 0, len(valid))
	for _, item := range valid {
		jobs = append(jobs, itemToJob(item, cfg.URL))
	}

	tally, err := oppex.SaveAll(ctx, s.store, jobs)
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"config": cfg.Name,
		"items":  len(valid),
		"hidden": hidden,
		"saved":  tally.Saved,
		"failed": tally.Failed,
	}).Info("replayed config")
	return nil
}

// itemToJob maps an extracted item onto an opportunity record by field
// name. Unrecognized fields land in the description so nothing a config
// captured is silently lost.
func itemToJob(item oppex.ExtractedItem, sourceURL string) oppex.JobData {
	job := oppex.NewJobData(sourceURL)

	var extras []string
	for name := range item {
		value := item.Get(name)
		if value == "" {
			continue
		}
		switch {
		case equalsAny(name, "title", "titre"):
			job.Title = value
		case equalsAny(name, "company", "organization", "employer", "entreprise"):
			job.Company = value
		case equalsAny(name, "location", "city", "lieu"):
			job.Location = value
		case equalsAny(name, "description", "summary"):
			job.Description = value
		case equalsAny(name, "deadline", "date"):
			job.ApplicationDeadline = value
		case strings.Contains(strings.ToLower(name), "link"),
			strings.Contains(strings.ToLower(name), "url"):
			job.SourceURL = value
		default:
			extras = append(extras, name+": "+value)
		}
	}

	if len(extras) > 0 {
		if job.Description != "" {
			job.Description += "\n"
		}
		job.Description += strings.Join(extras, "\n")
	}
	return job
}

func equalsAny(name string, candidates ...string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, c := range candidates {
		if lower == c {
			return true
		}
	}
	return false
}
