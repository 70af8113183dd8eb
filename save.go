package oppex

import (
	"context"

	"github.com/sirupsen/logrus"
)

// OpportunitySaver persists one record. Persistence backends live outside
// this module; the engine only needs the single-record contract.
type OpportunitySaver interface {
	Save(ctx context.Context, job JobData) error
}

// SaveTally reports the outcome of a batch save. Saved+Failed always equals
// the number of records submitted.
type SaveTally struct {
	Saved  int `json:"saved"`
	Failed int `json:"failed"`
}

// SaveAll persists records one at a time, in order. A failed record is
// counted and logged, never retried, and never stops the rest of the batch.
// The error return is reserved for context cancellation; per-record
// failures only surface through the tally.
func SaveAll(ctx context.Context, saver OpportunitySaver, jobs []JobData) (SaveTally, error) {
	var tally SaveTally
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return tally, err
		}
		if err := saver.Save(ctx, job); err != nil {
			tally.Failed++
			logrus.WithError(err).WithFields(logrus.Fields{
				"id":    job.ID,
				"title": job.Title,
			}).Warn("failed to save opportunity")
			continue
		}
		tally.Saved++
	}

	logrus.WithFields(logrus.Fields{
		"saved":  tally.Saved,
		"failed": tally.Failed,
	}).Info("batch save finished")
	return tally, nil
}
