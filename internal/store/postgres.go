package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/db"
	"github.com/sells-group/lead-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
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
	hashtags          TEXT[],
	additional_phones TEXT[],
	additional_emails TEXT[],
	consent_tags      TEXT[],
	consent_score     INTEGER NOT NULL DEFAULT 0,
	enriched_at       TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_leads_enriched_at ON leads(enriched_at);

CREATE TABLE IF NOT EXISTS lead_field_sources (
	lead_id   TEXT NOT NULL REFERENCES leads(id),
	kind      TEXT NOT NULL,
	value     TEXT NOT NULL DEFAULT '',
	source    TEXT NOT NULL,
	run_id    TEXT,
	filled_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE lead_field_sources ADD COLUMN IF NOT EXISTS value TEXT NOT NULL DEFAULT '';

CREATE INDEX IF NOT EXISTS idx_lead_field_sources_lead_id ON lead_field_sources(lead_id);

CREATE TABLE IF NOT EXISTS enrichment_runs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	dry_run      BOOLEAN NOT NULL DEFAULT false,
	stats        JSONB,
	error        TEXT NOT NULL DEFAULT '',
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_enrichment_runs_started_at ON enrichment_runs(started_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func postgresLeadSelect() string {
	cols := make([]string, 0, len(leadTextColumns)+2)
	cols = append(cols, "id")
	for _, c := range leadTextColumns {
		cols = append(cols, fmt.Sprintf("COALESCE(%s, '')", c))
	}
	cols = append(cols, "COALESCE(hashtags, '{}')")
	return "SELECT " + strings.Join(cols, ", ") + " FROM leads"
}

func scanPostgresLead(row pgx.Row) (*model.Lead, error) {
	var l model.Lead
	dest := append([]any{&l.ID}, leadTextTargets(&l)...)
	dest = append(dest, &l.Hashtags)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := postgresLeadSelect() + ` WHERE id > $1`
	if filter.Unenriched {
		query += ` AND enriched_at IS NULL`
	}
	query += ` ORDER BY id LIMIT $2`

	rows, err := s.pool.Query(ctx, query, filter.AfterID, filter.PageSize())
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanPostgresLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	l, err := scanPostgresLead(s.pool.QueryRow(ctx, postgresLeadSelect()+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get lead %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return l, nil
}

// UpdateLead writes the newly filled fields, merges the additional sets,
// replaces the consent signal and records field provenance in one
// transaction.
func (s *PostgresStore) UpdateLead(ctx context.Context, id string, rec *model.EnrichedRecord, runID string) error {
	now := time.Now().UTC()
	query, args := postgresLeadUpdate(id, rec, now)

	return db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return eris.Wrapf(err, "postgres: update lead %s", id)
		}
		if tag.RowsAffected() == 0 {
			return eris.Wrapf(ErrNotFound, "postgres: update lead %s", id)
		}
		_, err = db.CopyFrom(ctx, tx, "lead_field_sources", sourceColumns, sourceRows(id, rec, runID, now))
		return err
	})
}

// MarkEnriched stamps enriched_at without touching any other column.
func (s *PostgresStore) MarkEnriched(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE leads SET enriched_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return eris.Wrapf(err, "postgres: mark lead %s enriched", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: mark lead %s enriched", id)
	}
	return nil
}

func postgresLeadUpdate(id string, rec *model.EnrichedRecord, now time.Time) (string, []any) {
	args := []any{id}
	var sets []string
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	cols, vals := filledFields(rec)
	for i, c := range cols {
		sets = append(sets, c+" = "+next(vals[i]))
	}
	mergeSet := func(col string, values []string) {
		if len(values) == 0 {
			return
		}
		p := next(values)
		sets = append(sets, fmt.Sprintf(
			"%s = ARRAY(SELECT DISTINCT v FROM unnest(COALESCE(%s, '{}'::text[]) || %s::text[]) AS v ORDER BY v)",
			col, col, p))
	}
	mergeSet("additional_phones", rec.AdditionalPhones)
	mergeSet("additional_emails", rec.AdditionalEmails)

	sets = append(sets,
		"consent_tags = "+next(rec.ConsentTags),
		"consent_score = "+next(rec.ConsentScore),
		"enriched_at = "+next(now),
	)
	return "UPDATE leads SET " + strings.Join(sets, ", ") + " WHERE id = $1", args
}

func (s *PostgresStore) CreateRun(ctx context.Context, dryRun bool) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichment_runs (id, status, dry_run, started_at) VALUES ($1, $2, $3, $4)`,
		id, string(model.RunStatusRunning), dryRun, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return &model.Run{ID: id, Status: model.RunStatusRunning, DryRun: dryRun, StartedAt: now}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, stats *model.RunStats, runErr string) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stats")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_runs SET status = $1, stats = $2, error = $3, completed_at = $4 WHERE id = $5`,
		string(status), statsJSON, runErr, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: complete run %s", runID)
	}
	return nil
}

const postgresRunSelect = `SELECT id, status, dry_run, stats, error, started_at, completed_at FROM enrichment_runs`

func scanPostgresRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var statsJSON []byte
	if err := row.Scan(&r.ID, &r.Status, &r.DryRun, &statsJSON, &r.Error, &r.StartedAt, &r.CompletedAt); err != nil {
		return nil, err
	}
	if len(statsJSON) > 0 && string(statsJSON) != "null" {
		r.Stats = model.NewRunStats()
		if err := json.Unmarshal(statsJSON, r.Stats); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal stats")
		}
	}
	return &r, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	r, err := scanPostgresRun(s.pool.QueryRow(ctx, postgresRunSelect+` WHERE id = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, postgresRunSelect+` ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
