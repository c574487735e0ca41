package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Array columns
// are stored as JSON text.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                TEXT PRIMARY KEY,
	username          TEXT NOT NULL DEFAULT '',
	full_name         TEXT,
	first_name        TEXT,
	last_name         TEXT,
	biography         TEXT,
	external_url      TEXT,
	business_email    TEXT,
	business_phone    TEXT,
	email             TEXT,
	phone             TEXT,
	city              TEXT,
	state             TEXT,
	neighborhood      TEXT,
	address           TEXT,
	zip_code          TEXT,
	hashtags          TEXT,
	additional_phones TEXT,
	additional_emails TEXT,
	consent_tags      TEXT,
	consent_score     INTEGER NOT NULL DEFAULT 0,
	enriched_at       DATETIME
);

CREATE TABLE IF NOT EXISTS lead_field_sources (
	lead_id   TEXT NOT NULL REFERENCES leads(id),
	kind      TEXT NOT NULL,
	value     TEXT NOT NULL DEFAULT '',
	source    TEXT NOT NULL,
	run_id    TEXT,
	filled_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS enrichment_runs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	dry_run      INTEGER NOT NULL DEFAULT 0,
	stats        TEXT,
	error        TEXT NOT NULL DEFAULT '',
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_leads_enriched_at ON leads(enriched_at);
CREATE INDEX IF NOT EXISTS idx_lead_field_sources_lead_id ON lead_field_sources(lead_id);
CREATE INDEX IF NOT EXISTS idx_enrichment_runs_started_at ON enrichment_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func sqliteLeadSelect() string {
	cols := make([]string, 0, len(leadTextColumns)+2)
	cols = append(cols, "id")
	for _, c := range leadTextColumns {
		cols = append(cols, fmt.Sprintf("COALESCE(%s, '')", c))
	}
	cols = append(cols, "COALESCE(hashtags, '')")
	return "SELECT " + strings.Join(cols, ", ") + " FROM leads"
}

func scanSQLiteLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var hashtags string
	dest := append([]any{&l.ID}, leadTextTargets(&l)...)
	dest = append(dest, &hashtags)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	tags, err := decodeList(hashtags)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode hashtags for %s", l.ID)
	}
	l.Hashtags = tags
	return &l, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := sqliteLeadSelect() + ` WHERE id > ?`
	if filter.Unenriched {
		query += ` AND enriched_at IS NULL`
	}
	query += ` ORDER BY id LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, filter.AfterID, filter.PageSize())
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	l, err := scanSQLiteLead(s.db.QueryRowContext(ctx, sqliteLeadSelect()+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get lead %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lead %s", id)
	}
	return l, nil
}

// UpdateLead reads the stored additional sets, merges the new values in
// and writes the lead and its provenance rows in one transaction.
func (s *SQLiteStore) UpdateLead(ctx context.Context, id string, rec *model.EnrichedRecord, runID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var phonesJSON, emailsJSON string
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(additional_phones, ''), COALESCE(additional_emails, '') FROM leads WHERE id = ?`, id,
	).Scan(&phonesJSON, &emailsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return eris.Wrapf(ErrNotFound, "sqlite: update lead %s", id)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: read lead %s", id)
	}

	phones, err := mergeList(phonesJSON, rec.AdditionalPhones)
	if err != nil {
		return eris.Wrapf(err, "sqlite: merge phones for %s", id)
	}
	emails, err := mergeList(emailsJSON, rec.AdditionalEmails)
	if err != nil {
		return eris.Wrapf(err, "sqlite: merge emails for %s", id)
	}
	tags, err := encodeList(rec.ConsentTags)
	if err != nil {
		return eris.Wrapf(err, "sqlite: encode consent tags for %s", id)
	}

	now := time.Now().UTC()
	cols, vals := filledFields(rec)
	sets := make([]string, 0, len(cols)+6)
	args := make([]any, 0, len(cols)+7)
	for i, c := range cols {
		sets = append(sets, c+" = ?")
		args = append(args, vals[i])
	}
	sets = append(sets,
		"additional_phones = ?", "additional_emails = ?",
		"consent_tags = ?", "consent_score = ?", "enriched_at = ?",
	)
	args = append(args, phones, emails, tags, rec.ConsentScore, now, id)

	res, err := tx.ExecContext(ctx, "UPDATE leads SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", id)
	}
	if err := checkRowsAffected(res, "lead", id); err != nil {
		return err
	}

	for _, row := range sourceRows(id, rec, runID, now) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lead_field_sources (lead_id, kind, value, source, run_id, filled_at) VALUES (?, ?, ?, ?, ?, ?)`,
			row...,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert field source for %s", id)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// MarkEnriched stamps enriched_at without touching any other column.
func (s *SQLiteStore) MarkEnriched(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE leads SET enriched_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark lead %s enriched", id)
	}
	return checkRowsAffected(res, "lead", id)
}

func (s *SQLiteStore) CreateRun(ctx context.Context, dryRun bool) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment_runs (id, status, dry_run, started_at) VALUES (?, ?, ?, ?)`,
		id, string(model.RunStatusRunning), dryRun, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return &model.Run{ID: id, Status: model.RunStatusRunning, DryRun: dryRun, StartedAt: now}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, stats *model.RunStats, runErr string) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE enrichment_runs SET status = ?, stats = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(status), string(statsJSON), runErr, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

const sqliteRunSelect = `SELECT id, status, dry_run, stats, error, started_at, completed_at FROM enrichment_runs`

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, sqliteRunSelect+` WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, sqliteRunSelect+` ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: %s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var statsJSON sql.NullString
	var completedAt sql.NullTime

	if err := row.Scan(&r.ID, &r.Status, &r.DryRun, &statsJSON, &r.Error, &r.StartedAt, &completedAt); err != nil {
		return nil, err
	}
	if statsJSON.Valid && statsJSON.String != "" && statsJSON.String != "null" {
		r.Stats = model.NewRunStats()
		if err := json.Unmarshal([]byte(statsJSON.String), r.Stats); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal stats")
		}
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

func decodeList(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeList(list []string) (any, error) {
	if len(list) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// mergeList unions the stored JSON list with add and returns the sorted,
// de-duplicated result encoded for storage.
func mergeList(stored string, add []string) (any, error) {
	cur, err := decodeList(stored)
	if err != nil {
		return nil, err
	}
	merged := append(cur, add...)
	slices.Sort(merged)
	return encodeList(slices.Compact(merged))
}
