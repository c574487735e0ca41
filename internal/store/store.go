// Package store persists leads and batch runs. Postgres is the production
// backend; SQLite serves local runs and tests.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/model"
)

// ErrNotFound is returned when a lead or run does not exist.
var ErrNotFound = eris.New("store: not found")

// LeadFilter selects a page of leads. Pages are keyed on id: pass the last
// id of the previous page as AfterID.
type LeadFilter struct {
	AfterID string `json:"after_id,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	// Unenriched restricts the page to leads never enriched before.
	Unenriched bool `json:"unenriched,omitempty"`
}

// DefaultPageSize is used when a filter has no limit.
const DefaultPageSize = 100

// PageSize returns the effective limit.
func (f LeadFilter) PageSize() int {
	if f.Limit <= 0 {
		return DefaultPageSize
	}
	return f.Limit
}

// Store defines the persistence interface for lead enrichment.
type Store interface {
	// Leads
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	UpdateLead(ctx context.Context, id string, rec *model.EnrichedRecord, runID string) error
	// MarkEnriched stamps enriched_at on a lead that had nothing to write,
	// so unenriched-only runs do not select it again.
	MarkEnriched(ctx context.Context, id string) error

	// Runs
	CreateRun(ctx context.Context, dryRun bool) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, stats *model.RunStats, runErr string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// leadTextColumns are the scalar text columns of the leads table, in scan
// order after id.
var leadTextColumns = []string{
	"username", "full_name", "first_name", "last_name", "biography", "external_url",
	"business_email", "business_phone", "email", "phone", "city", "state",
	"neighborhood", "address", "zip_code",
}

func leadTextTargets(l *model.Lead) []any {
	return []any{
		&l.Username, &l.FullName, &l.FirstName, &l.LastName, &l.Biography, &l.ExternalURL,
		&l.BusinessEmail, &l.BusinessPhone, &l.Email, &l.Phone, &l.City, &l.State,
		&l.Neighborhood, &l.Address, &l.ZipCode,
	}
}

// sourceColumns are the columns of the lead_field_sources audit table.
var sourceColumns = []string{"lead_id", "kind", "value", "source", "run_id", "filled_at"}

// filledFields returns the column names and values of the kinds filled
// during enrichment. Kind names double as column names.
func filledFields(rec *model.EnrichedRecord) ([]string, []any) {
	kinds := rec.Filled()
	cols := make([]string, 0, len(kinds))
	vals := make([]any, 0, len(kinds))
	for _, k := range kinds {
		cols = append(cols, string(k))
		vals = append(vals, rec.Get(k))
	}
	return cols, vals
}

// sourceRows builds one audit row per filled kind.
func sourceRows(leadID string, rec *model.EnrichedRecord, runID string, now time.Time) [][]any {
	kinds := rec.Filled()
	rows := make([][]any, 0, len(kinds))
	for _, k := range kinds {
		rows = append(rows, []any{leadID, string(k), rec.Get(k), string(rec.Sources[k]), nullable(runID), now})
	}
	return rows
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
