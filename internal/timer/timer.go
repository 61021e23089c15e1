// Package timer drives the remote timer and keeps the local shadow of its
// state consistent with it.
package timer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wagetrack/wagetrack/internal/aggregate"
	"github.com/wagetrack/wagetrack/internal/clickup"
	"github.com/wagetrack/wagetrack/internal/errs"
	"github.com/wagetrack/wagetrack/internal/ledger"
	"github.com/wagetrack/wagetrack/internal/model"
)

// Controller starts and stops the remote timer for a user.
type Controller struct {
	store *ledger.Store
	api   clickup.API
	log   *zap.Logger
	now   func() time.Time
}

// New returns a Controller over the given store and remote capability.
func New(store *ledger.Store, api clickup.API, log *zap.Logger) *Controller {
	return &Controller{store: store, api: api, log: log, now: time.Now}
}

// Start starts the remote timer on taskID. A still-running timer is stopped
// first (its elapsed time is recorded), so at most one shadow ever exists.
func (c *Controller) Start(ctx context.Context, userID, taskID string) (*model.TimerShadow, error) {
	if taskID == "" {
		return nil, errs.Validation("task id is required")
	}
	var shadow *model.TimerShadow
	err := c.store.Do(userID, func() error {
		rec, err := c.store.GetOrCreate(userID)
		if err != nil {
			return err
		}

		if rec.TimerShadow != nil {
			prev := rec.TimerShadow.TaskID
			if _, err := c.stopLocked(ctx, rec); err != nil {
				return err
			}
			c.log.Info("auto-stopped previous timer",
				zap.String("user", userID),
				zap.String("task", prev))
		}

		entry, err := c.api.StartTimer(ctx, taskID)
		if err != nil {
			// The implicit stop already happened remotely; persist its
			// recorded entry even though the start failed.
			if putErr := c.store.Put(rec); putErr != nil {
				return putErr
			}
			return err
		}

		rec.TimerShadow = &model.TimerShadow{
			TaskID:        taskID,
			StartedAt:     c.now(),
			RemoteTimerID: entry.ID,
		}
		shadow = rec.TimerShadow
		return c.store.Put(rec)
	})
	return shadow, err
}

// Stop stops the running timer and returns the completed minutes. Fails
// with a no-active-timer error when no shadow is present.
func (c *Controller) Stop(ctx context.Context, userID string) (int, error) {
	var minutes int
	err := c.store.Do(userID, func() error {
		rec, err := c.store.GetOrCreate(userID)
		if err != nil {
			return err
		}
		if rec.TimerShadow == nil {
			return errs.NoActiveTimer()
		}
		minutes, err = c.stopLocked(ctx, rec)
		if err != nil {
			return err
		}
		return c.store.Put(rec)
	})
	return minutes, err
}

// Active returns the user's timer shadow, or nil when idle.
func (c *Controller) Active(userID string) (*model.TimerShadow, error) {
	var shadow *model.TimerShadow
	err := c.store.Do(userID, func() error {
		rec, err := c.store.Get(userID)
		if err != nil {
			return err
		}
		if rec != nil {
			shadow = rec.TimerShadow
		}
		return nil
	})
	return shadow, err
}

// stopLocked stops the remote timer, appends the completed entry to the
// session of the day the timer started, and clears the shadow. The entry is
// tagged remote-sync under the remote entry id so a later sync over the
// same range dedups against it instead of double-counting; when the remote
// yields no id a locally generated one is used. The caller persists rec.
func (c *Controller) stopLocked(ctx context.Context, rec *model.UserRecord) (int, error) {
	shadow := rec.TimerShadow
	remote, err := c.api.StopTimer(ctx)
	if err != nil && !errs.IsRemoteNotFound(err) {
		return 0, err
	}
	// RemoteNotFound: the remote timer is already gone (stopped elsewhere or
	// task deleted). The local elapsed time is still recorded.

	now := c.now()
	minutes := aggregate.RoundMinutes(now.Sub(shadow.StartedAt))

	entryID := ""
	if remote != nil {
		entryID = remote.ID
	}
	if entryID == "" {
		entryID = "local-" + uuid.NewString()
	}

	added := rec.AddEntry(shadow.StartedAt.Format(model.DateKey), model.TimeEntry{
		Source:         model.SourceRemoteSync,
		RemoteEntryID:  entryID,
		Minutes:        minutes,
		EarningsAtRate: model.Earnings(minutes, rec.Rate),
		CreatedAt:      now,
	})
	if !added {
		// A sync already merged the completed remote entry under this id,
		// so the minutes are in the ledger; appending again would double
		// count them.
		c.log.Warn("stop entry already merged by sync",
			zap.String("user", rec.UserID),
			zap.String("entry", entryID))
	}
	rec.TimerShadow = nil

	c.log.Info("timer stopped",
		zap.String("user", rec.UserID),
		zap.String("task", shadow.TaskID),
		zap.Int("minutes", minutes))
	return minutes, nil
}
