// Package batch drives enrichment over the record store: it pages through
// leads by id, enriches each one, writes the merged result back and keeps
// run counters.
package batch

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-cli/internal/enrich"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/store"
)

// Enricher enriches a single lead. It never fails; collaborator errors
// surface as misses inside the result.
type Enricher interface {
	Enrich(ctx context.Context, lead model.Lead) *enrich.Result
}

// Options controls a batch run.
type Options struct {
	// PageSize is the number of leads fetched per store query.
	PageSize int
	// Delay is the minimum spacing between records.
	Delay time.Duration
	// Concurrency bounds in-flight records within a page. Default: 1.
	Concurrency int
	// Limit caps the number of leads processed. Zero means no cap.
	Limit int
	// Unenriched skips leads that were enriched by an earlier run.
	Unenriched bool
	// DryRun enriches without writing leads back.
	DryRun bool
}

// Runner runs batches.
type Runner struct {
	store    store.Store
	enricher Enricher
	opts     Options
	limiter  *rate.Limiter
	runID    string
}

// New creates a Runner.
func New(s store.Store, e Enricher, opts Options) *Runner {
	if opts.PageSize <= 0 {
		opts.PageSize = store.DefaultPageSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	r := &Runner{store: s, enricher: e, opts: opts}
	if opts.Delay > 0 {
		r.limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}
	return r
}

// Run processes every selected lead and records the run. Per-record
// failures are logged and counted; the returned error is reserved for
// failures that stop the whole batch (store unreachable, cancellation).
func (r *Runner) Run(ctx context.Context) (*model.RunStats, error) {
	run, err := r.store.CreateRun(ctx, r.opts.DryRun)
	if err != nil {
		return nil, eris.Wrap(err, "batch: create run")
	}
	r.runID = run.ID
	log := zap.L().With(zap.String("run_id", run.ID), zap.Bool("dry_run", r.opts.DryRun))
	log.Info("batch: run started",
		zap.Int("page_size", r.opts.PageSize),
		zap.Int("concurrency", r.opts.Concurrency),
		zap.Int("limit", r.opts.Limit),
	)

	acc := newAccumulator()
	runErr := r.loop(ctx, run.ID, acc)
	stats := acc.snapshot()

	status, msg := model.RunStatusComplete, ""
	if runErr != nil {
		status, msg = model.RunStatusFailed, runErr.Error()
	}
	if err := r.store.CompleteRun(context.WithoutCancel(ctx), run.ID, status, stats, msg); err != nil {
		log.Error("batch: complete run", zap.Error(err))
	}

	log.Info("batch: run finished",
		zap.String("status", string(status)),
		zap.Int("processed", stats.Processed),
		zap.Int("enriched", stats.Enriched),
		zap.Int("unchanged", stats.Unchanged),
		zap.Int("errors", stats.Errors),
		zap.Int("ai_calls", stats.AICalls),
		zap.Float64("cost_usd", stats.CostUSD),
	)
	return stats, runErr
}

// RunID returns the id of the run started by the last call to Run.
func (r *Runner) RunID() string { return r.runID }

func (r *Runner) loop(ctx context.Context, runID string, acc *accumulator) error {
	after := ""
	remaining := r.opts.Limit

	for {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "batch: cancelled")
		}

		size := r.opts.PageSize
		if r.opts.Limit > 0 {
			if remaining <= 0 {
				return nil
			}
			size = min(size, remaining)
		}

		leads, err := r.store.ListLeads(ctx, store.LeadFilter{
			AfterID:    after,
			Limit:      size,
			Unenriched: r.opts.Unenriched,
		})
		if err != nil {
			return eris.Wrapf(err, "batch: list leads after %q", after)
		}
		if len(leads) == 0 {
			return nil
		}

		if err := r.page(ctx, runID, leads, acc); err != nil {
			return err
		}

		after = leads[len(leads)-1].ID
		remaining -= len(leads)
		if len(leads) < size {
			return nil
		}
	}
}

func (r *Runner) page(ctx context.Context, runID string, leads []model.Lead, acc *accumulator) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for _, lead := range leads {
		if r.limiter != nil {
			if err := r.limiter.Wait(gctx); err != nil {
				break
			}
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			r.process(gctx, runID, lead, acc)
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "batch: cancelled")
	}
	return nil
}

func (r *Runner) process(ctx context.Context, runID string, lead model.Lead, acc *accumulator) {
	log := zap.L().With(zap.String("lead_id", lead.ID), zap.String("username", lead.Username))

	res := r.enricher.Enrich(ctx, lead)
	if !res.Changed() {
		// Stamp the lead anyway so unenriched-only runs skip it next time.
		if !r.opts.DryRun {
			if err := r.store.MarkEnriched(ctx, lead.ID); err != nil {
				acc.failed(res)
				logWriteError(log, "batch: mark lead enriched", err)
				return
			}
		}
		acc.unchanged(res)
		log.Debug("batch: nothing to write")
		return
	}

	if !r.opts.DryRun {
		if err := r.store.UpdateLead(ctx, lead.ID, res.Record, runID); err != nil {
			acc.failed(res)
			logWriteError(log, "batch: update lead", err)
			return
		}
	}

	acc.enriched(res)
	log.Info("batch: lead enriched",
		zap.Int("filled", len(res.Filled)),
		zap.Int("additional_phones", len(res.Record.AdditionalPhones)),
		zap.Int("additional_emails", len(res.Record.AdditionalEmails)),
		zap.Int("consent_score", res.Record.ConsentScore),
	)
}

func logWriteError(log *zap.Logger, msg string, err error) {
	if errors.Is(err, context.Canceled) {
		log.Warn(msg+": interrupted", zap.Error(err))
		return
	}
	log.Error(msg, zap.Error(err))
}

// accumulator collects run counters from concurrent workers.
type accumulator struct {
	mu    sync.Mutex
	stats *model.RunStats
}

func newAccumulator() *accumulator {
	return &accumulator{stats: model.NewRunStats()}
}

func (a *accumulator) record(res *enrich.Result) {
	a.stats.Processed++
	a.stats.AICalls += res.AICalls
	a.stats.CostUSD += res.CostUSD
}

func (a *accumulator) enriched(res *enrich.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record(res)
	a.stats.Enriched++
	for _, k := range res.Filled {
		a.stats.FieldsFilled[k]++
	}
}

func (a *accumulator) unchanged(res *enrich.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record(res)
	a.stats.Unchanged++
}

func (a *accumulator) failed(res *enrich.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.record(res)
	a.stats.Errors++
}

func (a *accumulator) snapshot() *model.RunStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := *a.stats
	out.FieldsFilled = maps.Clone(a.stats.FieldsFilled)
	return &out
}
