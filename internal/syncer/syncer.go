// Package syncer merges remote time entries into the local ledger.
// Merging is idempotent: each remote entry id is admitted at most once per
// user, so re-running a sync over the same range adds nothing.
package syncer

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wagetrack/wagetrack/internal/aggregate"
	"github.com/wagetrack/wagetrack/internal/clickup"
	"github.com/wagetrack/wagetrack/internal/errs"
	"github.com/wagetrack/wagetrack/internal/ledger"
	"github.com/wagetrack/wagetrack/internal/model"
)

// fetchLimit caps concurrent per-date remote fetches inside one sync.
const fetchLimit = 4

// FailedDate names a date whose fetch failed and why. The caller decides
// whether to re-issue the sync for those dates.
type FailedDate struct {
	Date string
	Err  error
}

// Result summarises one sync run.
type Result struct {
	Added   int
	Skipped int
	Failed  []FailedDate
}

// Engine fetches remote entries and merges them into ledger records.
type Engine struct {
	store *ledger.Store
	api   clickup.API
	log   *zap.Logger
	now   func() time.Time
}

// New returns an Engine using the given store and remote capability.
func New(store *ledger.Store, api clickup.API, log *zap.Logger) *Engine {
	return &Engine{store: store, api: api, log: log, now: time.Now}
}

type dayFetch struct {
	entries []clickup.TimeEntry
	err     error
}

// SyncRange merges the user's remote entries for every date in r.
//
// Dates are fetched independently (concurrently, bounded) and a failing
// date never blocks the others: its error lands in Result.Failed while the
// remaining dates still merge and persist. Only an authentication failure
// aborts the whole run, since no further date can succeed without a new
// token. The record is persisted after each merged date so partial progress
// survives a later ledger failure.
func (e *Engine) SyncRange(ctx context.Context, userID string, r aggregate.Range) (Result, error) {
	dates := r.Dates()
	fetched := make([]dayFetch, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for i, d := range dates {
		i, d := i, d
		g.Go(func() error {
			entries, err := e.api.ListTimeEntries(gctx, aggregate.StartOfDay(d), aggregate.EndOfDay(d))
			fetched[i] = dayFetch{entries: entries, err: err}
			if errs.IsRemoteAuth(err) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.log.Warn("sync aborted, credentials rejected", zap.String("user", userID))
		return Result{}, err
	}

	var res Result
	err := e.store.Do(userID, func() error {
		rec, err := e.store.GetOrCreate(userID)
		if err != nil {
			return err
		}
		for i, d := range dates {
			if fetched[i].err != nil {
				key := d.Format(model.DateKey)
				res.Failed = append(res.Failed, FailedDate{Date: key, Err: fetched[i].err})
				e.log.Warn("sync date failed",
					zap.String("user", userID),
					zap.String("date", key),
					zap.Error(fetched[i].err))
				continue
			}
			added, skipped := e.mergeDay(rec, d, fetched[i].entries)
			res.Added += added
			res.Skipped += skipped
			if added > 0 {
				// Ledger failures always propagate to the caller.
				if err := e.store.Put(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	e.log.Info("sync complete",
		zap.String("user", userID),
		zap.String("range", r.String()),
		zap.Int("added", res.Added),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed_dates", len(res.Failed)))
	return res, nil
}

// mergeDay appends the day's unseen remote entries to rec, pricing them at
// the rate in effect now. Entries whose id is already in the record's dedup
// index count as skipped; this is what makes a repeat sync a no-op and what
// protects against double-counting an entry already appended by a timer
// stop. Still-running entries are left alone entirely: admitting one would
// burn its id in the dedup index at a premature duration and the eventual
// stop could no longer record the real elapsed time.
func (e *Engine) mergeDay(rec *model.UserRecord, day time.Time, entries []clickup.TimeEntry) (added, skipped int) {
	key := day.Format(model.DateKey)
	for _, re := range entries {
		if re.ID == "" || re.Running() {
			continue
		}
		if rec.HasRemoteEntry(re.ID) {
			skipped++
			continue
		}
		minutes := re.Minutes()
		rec.AddEntry(key, model.TimeEntry{
			Source:         model.SourceRemoteSync,
			RemoteEntryID:  re.ID,
			Minutes:        minutes,
			EarningsAtRate: model.Earnings(minutes, rec.Rate),
			CreatedAt:      e.now(),
		})
		added++
	}
	return added, skipped
}
