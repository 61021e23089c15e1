package timer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wagetrack/wagetrack/internal/aggregate"
	"github.com/wagetrack/wagetrack/internal/clickup"
	"github.com/wagetrack/wagetrack/internal/clickup/clickuptest"
	"github.com/wagetrack/wagetrack/internal/errs"
	"github.com/wagetrack/wagetrack/internal/ledger"
	"github.com/wagetrack/wagetrack/internal/model"
	"github.com/wagetrack/wagetrack/internal/syncer"
)

func newTestController(t *testing.T, fake *clickuptest.Fake) (*Controller, *ledger.Store) {
	t.Helper()
	store, err := ledger.Open(t.TempDir())
	require.NoError(t, err)
	return New(store, fake, zap.NewNop()), store
}

// setClock pins the controller's clock; successive calls advance it.
func setClock(c *Controller, times ...time.Time) {
	i := 0
	c.now = func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func TestStartCreatesShadow(t *testing.T) {
	fake := &clickuptest.Fake{}
	c, store := newTestController(t, fake)
	started := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	setClock(c, started)

	shadow, err := c.Start(context.Background(), "ada", "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", shadow.TaskID)
	assert.Equal(t, started, shadow.StartedAt)
	assert.Equal(t, "timer-t1", shadow.RemoteTimerID)

	rec, err := store.Get("ada")
	require.NoError(t, err)
	require.NotNil(t, rec.TimerShadow)
	assert.Equal(t, "t1", rec.TimerShadow.TaskID)
}

func TestStartRequiresTaskID(t *testing.T) {
	c, _ := newTestController(t, &clickuptest.Fake{})
	_, err := c.Start(context.Background(), "ada", "")
	assert.True(t, errs.IsValidation(err))
}

func TestStopRecordsElapsedEntry(t *testing.T) {
	fake := &clickuptest.Fake{
		StopTimerFn: func(ctx context.Context) (*clickup.TimeEntry, error) {
			return &clickup.TimeEntry{ID: "e77"}, nil
		},
	}
	c, store := newTestController(t, fake)

	started := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	stopped := started.Add(92*time.Minute + 40*time.Second) // rounds to 93
	setClock(c, started, stopped)

	_, err := c.Start(context.Background(), "ada", "t1")
	require.NoError(t, err)

	minutes, err := c.Stop(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, 93, minutes)

	rec, err := store.Get("ada")
	require.NoError(t, err)
	assert.Nil(t, rec.TimerShadow)

	sess := rec.Session("2026-08-20")
	require.NotNil(t, sess)
	require.Len(t, sess.Entries, 1)
	e := sess.Entries[0]
	assert.Equal(t, model.SourceRemoteSync, e.Source)
	assert.Equal(t, "e77", e.RemoteEntryID)
	assert.Equal(t, 93, e.Minutes)
	assert.True(t, rec.HasRemoteEntry("e77"), "stop entry must be visible to sync dedup")
}

func TestStopWithoutTimer(t *testing.T) {
	c, _ := newTestController(t, &clickuptest.Fake{})
	_, err := c.Stop(context.Background(), "ada")
	assert.True(t, errs.IsNoActiveTimer(err))
}

func TestStartAutoStopsRunningTimer(t *testing.T) {
	stopIDs := []string{"e1", "e2"}
	fake := &clickuptest.Fake{
		StopTimerFn: func(ctx context.Context) (*clickup.TimeEntry, error) {
			id := stopIDs[0]
			stopIDs = stopIDs[1:]
			return &clickup.TimeEntry{ID: id}, nil
		},
	}
	c, store := newTestController(t, fake)

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	setClock(c, base, base.Add(30*time.Minute), base.Add(30*time.Minute))

	_, err := c.Start(context.Background(), "ada", "t1")
	require.NoError(t, err)

	shadow, err := c.Start(context.Background(), "ada", "t2")
	require.NoError(t, err)
	assert.Equal(t, "t2", shadow.TaskID)

	rec, err := store.Get("ada")
	require.NoError(t, err)
	require.NotNil(t, rec.TimerShadow)
	assert.Equal(t, "t2", rec.TimerShadow.TaskID)

	// The first timer's 30 minutes were recorded on the way.
	sess := rec.Session("2026-08-20")
	require.NotNil(t, sess)
	assert.Equal(t, 30, sess.TotalMinutes)
	assert.Equal(t, "e1", sess.Entries[0].RemoteEntryID)
}

func TestStopToleratesVanishedRemoteTimer(t *testing.T) {
	fake := &clickuptest.Fake{
		StopTimerFn: func(ctx context.Context) (*clickup.TimeEntry, error) {
			return nil, errs.RemoteNotFound("timer", "")
		},
	}
	c, store := newTestController(t, fake)

	started := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	setClock(c, started, started.Add(45*time.Minute))

	_, err := c.Start(context.Background(), "ada", "t1")
	require.NoError(t, err)

	minutes, err := c.Stop(context.Background(), "ada")
	require.NoError(t, err, "a remotely vanished timer still records local elapsed time")
	assert.Equal(t, 45, minutes)

	rec, err := store.Get("ada")
	require.NoError(t, err)
	e := rec.Session("2026-08-20").Entries[0]
	assert.True(t, strings.HasPrefix(e.RemoteEntryID, "local-"), "entry id = %q", e.RemoteEntryID)
}

func TestStopFailurePreservesShadow(t *testing.T) {
	fake := &clickuptest.Fake{
		StopTimerFn: func(ctx context.Context) (*clickup.TimeEntry, error) {
			return nil, errs.RemoteUnavailable("POST /time_entries/stop", context.DeadlineExceeded)
		},
	}
	c, store := newTestController(t, fake)
	setClock(c, time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC))

	_, err := c.Start(context.Background(), "ada", "t1")
	require.NoError(t, err)

	_, err = c.Stop(context.Background(), "ada")
	require.Error(t, err)
	assert.True(t, errs.Retryable(err))

	rec, err := store.Get("ada")
	require.NoError(t, err)
	assert.NotNil(t, rec.TimerShadow, "shadow survives a retryable stop failure")
}

func TestStopAfterSyncMergedTheEntry(t *testing.T) {
	// The timer stopped remotely while it still ran locally, and a sync
	// merged the completed entry before the local stop. The stop must not
	// append a second entry under the same id.
	fake := &clickuptest.Fake{
		StopTimerFn: func(ctx context.Context) (*clickup.TimeEntry, error) {
			return &clickup.TimeEntry{ID: "e77"}, nil
		},
	}
	c, store := newTestController(t, fake)

	started := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	setClock(c, started, started.Add(time.Hour))

	_, err := c.Start(context.Background(), "ada", "t1")
	require.NoError(t, err)

	require.NoError(t, store.Do("ada", func() error {
		rec, err := store.GetOrCreate("ada")
		if err != nil {
			return err
		}
		rec.AddEntry("2026-08-20", model.TimeEntry{
			Source:        model.SourceRemoteSync,
			RemoteEntryID: "e77",
			Minutes:       60,
		})
		return store.Put(rec)
	}))

	_, err = c.Stop(context.Background(), "ada")
	require.NoError(t, err)

	rec, err := store.Get("ada")
	require.NoError(t, err)
	assert.Nil(t, rec.TimerShadow)
	sess := rec.Session("2026-08-20")
	assert.Equal(t, 60, sess.TotalMinutes, "the synced entry already carries the minutes")
	assert.Len(t, sess.Entries, 1)
}

func TestEntrySpansMidnightOnStartDate(t *testing.T) {
	c, store := newTestController(t, &clickuptest.Fake{})

	started := time.Date(2026, 8, 20, 23, 30, 0, 0, time.UTC)
	setClock(c, started, started.Add(90*time.Minute)) // stops at 01:00 next day

	_, err := c.Start(context.Background(), "ada", "t1")
	require.NoError(t, err)
	_, err = c.Stop(context.Background(), "ada")
	require.NoError(t, err)

	rec, err := store.Get("ada")
	require.NoError(t, err)
	assert.NotNil(t, rec.Session("2026-08-20"), "entry belongs to the start date")
	assert.Nil(t, rec.Session("2026-08-21"))
}

func TestSyncDuringRunningTimerThenStop(t *testing.T) {
	// A sync that runs mid-timer sees the running remote entry. It must
	// neither count it nor burn its id, so the stop still records the full
	// elapsed hour.
	fake := &clickuptest.Fake{
		StopTimerFn: func(ctx context.Context) (*clickup.TimeEntry, error) {
			return &clickup.TimeEntry{ID: "e77"}, nil
		},
		ListTimeEntriesFn: func(ctx context.Context, from, to time.Time) ([]clickup.TimeEntry, error) {
			return []clickup.TimeEntry{{ID: "e77", DurationMS: "-3600000"}}, nil
		},
	}
	c, store := newTestController(t, fake)

	started := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	setClock(c, started, started.Add(time.Hour))

	_, err := c.Start(context.Background(), "ada", "t1")
	require.NoError(t, err)

	res, err := syncer.New(store, fake, zap.NewNop()).
		SyncRange(context.Background(), "ada", aggregate.Day(started))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)

	minutes, err := c.Stop(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, 60, minutes)

	rec, err := store.Get("ada")
	require.NoError(t, err)
	sess := rec.Session("2026-08-20")
	require.NotNil(t, sess, "stopped minutes must reach the ledger")
	assert.Equal(t, 60, sess.TotalMinutes)
	require.Len(t, sess.Entries, 1)
	assert.Equal(t, "e77", sess.Entries[0].RemoteEntryID)
}

func TestActive(t *testing.T) {
	c, _ := newTestController(t, &clickuptest.Fake{})

	shadow, err := c.Active("ada")
	require.NoError(t, err)
	assert.Nil(t, shadow)

	setClock(c, time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC))
	_, err = c.Start(context.Background(), "ada", "t1")
	require.NoError(t, err)

	shadow, err = c.Active("ada")
	require.NoError(t, err)
	require.NotNil(t, shadow)
	assert.Equal(t, "t1", shadow.TaskID)
}
