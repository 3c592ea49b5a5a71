package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/kontor-erp/kontor-erp/internal/jobs"
)

// OverdueScanner marks booked documents past due as overdue.
type OverdueScanner interface {
	ScanOverdue(ctx context.Context) (int, error)
}

// SnapshotWarmer rebuilds cached report snapshots.
type SnapshotWarmer interface {
	Warmup(ctx context.Context, orgID int64, from, to time.Time) error
	OrgIDs(ctx context.Context) ([]int64, error)
}

// NewOverdueScanHandler builds the handler for TaskOverdueScan.
func NewOverdueScanHandler(logger *slog.Logger, scanner OverdueScanner, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metrics.Track(TaskOverdueScan)
		flipped, err := scanner.ScanOverdue(ctx)
		if err != nil {
			logger.Error("overdue scan failed", slog.Any("error", err))
			return tracker.End(err)
		}
		metrics.AddOverdue(flipped)
		logger.Info("overdue scan complete", slog.Int("flipped", flipped))
		return tracker.End(nil)
	}
}

// NewReportWarmupHandler builds the handler for TaskReportWarmup.
func NewReportWarmupHandler(logger *slog.Logger, warmer SnapshotWarmer, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskReportWarmup)
		var payload ReportWarmupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(asynq.SkipRetry)
		}
		from, to := payload.FromDate, payload.ToDate
		if to.IsZero() {
			now := time.Now().UTC()
			from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
			to = now
		}
		orgIDs := []int64{payload.OrgID}
		if payload.OrgID == 0 {
			ids, err := warmer.OrgIDs(ctx)
			if err != nil {
				logger.Error("list organisations for warmup failed", slog.Any("error", err))
				return tracker.End(err)
			}
			orgIDs = ids
		}
		for _, orgID := range orgIDs {
			if err := warmer.Warmup(ctx, orgID, from, to); err != nil {
				logger.Error("report warmup failed",
					slog.Int64("org_id", orgID),
					slog.Any("error", err))
				return tracker.End(err)
			}
		}
		logger.Info("report warmup complete", slog.Int("orgs", len(orgIDs)))
		return tracker.End(nil)
	}
}
