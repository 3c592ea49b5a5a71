package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOverdueScan flips booked documents past their due date to overdue.
	TaskOverdueScan = "payments:overdue_scan"
	// TaskReportWarmup rebuilds report snapshots after postings.
	TaskReportWarmup = "reports:warmup"
)

// ReportWarmupPayload scopes a snapshot warmup run. A zero OrgID warms
// every organisation with posted entries.
type ReportWarmupPayload struct {
	OrgID    int64     `json:"org_id"`
	FromDate time.Time `json:"from_date"`
	ToDate   time.Time `json:"to_date"`
}

// NewOverdueScanTask constructs the nightly overdue-scan task.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskOverdueScan, nil)
}

// NewReportWarmupTask constructs a snapshot warmup task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}
