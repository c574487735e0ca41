package model

import "time"

// RunStatus represents the current state of a batch run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one batch enrichment pass over the record store.
type Run struct {
	ID          string     `json:"id"`
	Status      RunStatus  `json:"status"`
	DryRun      bool       `json:"dry_run"`
	Stats       *RunStats  `json:"stats,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunStats accumulates counters for a batch run.
type RunStats struct {
	Processed    int          `json:"processed"`
	Enriched     int          `json:"enriched"`
	Unchanged    int          `json:"unchanged"`
	Errors       int          `json:"errors"`
	FieldsFilled map[Kind]int `json:"fields_filled"`
	AICalls      int          `json:"ai_calls"`
	CostUSD      float64      `json:"cost_usd"`
}

// NewRunStats returns zeroed stats ready for accumulation.
func NewRunStats() *RunStats {
	return &RunStats{FieldsFilled: make(map[Kind]int)}
}
