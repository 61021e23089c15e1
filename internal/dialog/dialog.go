// Package dialog holds the per-user input flow for rate and time entry.
// The conversational layer asks a question, parks the user in a step, and
// feeds the next free-form message back through Handle; the step store
// makes that implicit state machine explicit and keyed by user.
package dialog

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wagetrack/wagetrack/internal/errs"
	"github.com/wagetrack/wagetrack/internal/ledger"
	"github.com/wagetrack/wagetrack/internal/model"
)

// Step identifies the input a user owes next.
type Step int

const (
	StepIdle Step = iota
	StepAwaitRate
	StepAwaitTime
)

// AddResult reports a recorded manual entry plus the day's running totals.
type AddResult struct {
	Minutes     int
	Earnings    float64
	DayMinutes  int
	DayEarnings float64
}

// Reply is the typed outcome of a handled input.
type Reply struct {
	// Step is the step still owed; StepIdle when the flow completed.
	Step Step
	Rate float64
	Add  *AddResult
}

// ParseRate parses an hourly rate. Must be a positive number.
func ParseRate(input string) (float64, error) {
	rate, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return 0, errs.Validation("rate %q is not a number", input)
	}
	if rate <= 0 {
		return 0, errs.Validation("rate must be positive")
	}
	return rate, nil
}

// ParseHoursMinutes parses "HOURS MINUTES" (e.g. "8 30") into total
// minutes. Minutes must be 0–59 and the total positive.
func ParseHoursMinutes(input string) (int, error) {
	parts := strings.Fields(input)
	if len(parts) != 2 {
		return 0, errs.Validation("time must be given as HOURS MINUTES, e.g. 8 30")
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, errs.Validation("hours %q is not a number", parts[0])
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, errs.Validation("minutes %q is not a number", parts[1])
	}
	if hours < 0 || minutes < 0 || minutes > 59 {
		return 0, errs.Validation("hours must be >= 0 and minutes between 0 and 59")
	}
	total := hours*60 + minutes
	if total == 0 {
		return 0, errs.Validation("time must be more than zero minutes")
	}
	return total, nil
}

// SetRate stores the user's hourly rate. Existing entries keep the earnings
// captured when they were written.
func SetRate(store *ledger.Store, userID string, rate float64) error {
	if rate <= 0 {
		return errs.Validation("rate must be positive")
	}
	return store.Do(userID, func() error {
		rec, err := store.GetOrCreate(userID)
		if err != nil {
			return err
		}
		rec.Rate = rate
		return store.Put(rec)
	})
}

// AddTime appends a manual entry of minutes to today's session at the
// user's current rate.
func AddTime(store *ledger.Store, userID string, minutes int, now time.Time) (AddResult, error) {
	if minutes <= 0 {
		return AddResult{}, errs.Validation("minutes must be positive")
	}
	var res AddResult
	err := store.Do(userID, func() error {
		rec, err := store.GetOrCreate(userID)
		if err != nil {
			return err
		}
		if rec.Rate <= 0 {
			return errs.Validation("set an hourly rate before adding time")
		}
		key := now.Format(model.DateKey)
		earnings := model.Earnings(minutes, rec.Rate)
		rec.AddEntry(key, model.TimeEntry{
			Source:         model.SourceManual,
			Minutes:        minutes,
			EarningsAtRate: earnings,
			CreatedAt:      now,
		})
		ses := rec.Session(key)
		res = AddResult{
			Minutes:     minutes,
			Earnings:    earnings,
			DayMinutes:  ses.TotalMinutes,
			DayEarnings: ses.TotalEarnings,
		}
		return store.Put(rec)
	})
	return res, err
}

// Flow is the keyed per-user step store.
type Flow struct {
	store *ledger.Store
	now   func() time.Time

	mu    sync.Mutex
	steps map[string]Step
}

// NewFlow returns an empty Flow over the given store.
func NewFlow(store *ledger.Store) *Flow {
	return &Flow{store: store, now: time.Now, steps: map[string]Step{}}
}

// Step returns the input the user currently owes.
func (f *Flow) Step(userID string) Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.steps[userID]
}

func (f *Flow) setStep(userID string, s Step) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s == StepIdle {
		delete(f.steps, userID)
		return
	}
	f.steps[userID] = s
}

// BeginRate parks the user in the rate-entry step.
func (f *Flow) BeginRate(userID string) {
	f.setStep(userID, StepAwaitRate)
}

// BeginTime parks the user in the time-entry step. Requires a rate to be
// set first, so the entry can be priced.
func (f *Flow) BeginTime(userID string) error {
	var rate float64
	err := f.store.Do(userID, func() error {
		rec, err := f.store.GetOrCreate(userID)
		if err != nil {
			return err
		}
		rate = rec.Rate
		return nil
	})
	if err != nil {
		return err
	}
	if rate <= 0 {
		return errs.Validation("set an hourly rate before adding time")
	}
	f.setStep(userID, StepAwaitTime)
	return nil
}

// Cancel puts the user back to idle without applying anything.
func (f *Flow) Cancel(userID string) {
	f.setStep(userID, StepIdle)
}

// Handle feeds a free-form input to the user's pending step. On a
// validation error the step is kept so the user can simply answer again;
// on success the flow returns to idle.
func (f *Flow) Handle(userID, input string) (Reply, error) {
	switch f.Step(userID) {
	case StepAwaitRate:
		rate, err := ParseRate(input)
		if err != nil {
			return Reply{Step: StepAwaitRate}, err
		}
		if err := SetRate(f.store, userID, rate); err != nil {
			return Reply{Step: StepAwaitRate}, err
		}
		f.setStep(userID, StepIdle)
		return Reply{Step: StepIdle, Rate: rate}, nil

	case StepAwaitTime:
		minutes, err := ParseHoursMinutes(input)
		if err != nil {
			return Reply{Step: StepAwaitTime}, err
		}
		res, err := AddTime(f.store, userID, minutes, f.now())
		if err != nil {
			return Reply{Step: StepAwaitTime}, err
		}
		f.setStep(userID, StepIdle)
		return Reply{Step: StepIdle, Add: &res}, nil
	}
	return Reply{}, errs.Validation("no pending question for this user")
}
