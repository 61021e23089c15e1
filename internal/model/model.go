package model

import "time"

// Entry sources.
const (
	SourceManual     = "manual"
	SourceRemoteSync = "remote-sync"
)

// DateKey is the layout of the calendar-date keys in a user's session map.
const DateKey = "2006-01-02"

// TimeEntry is a single immutable unit of tracked time. Corrections are
// modelled as new entries, never in-place edits.
type TimeEntry struct {
	Source         string    `json:"source"`
	RemoteEntryID  string    `json:"remote_entry_id,omitempty"`
	Minutes        int       `json:"minutes"`
	EarningsAtRate float64   `json:"earnings_at_rate"`
	CreatedAt      time.Time `json:"created_at"`
}

// WorkSession accumulates the entries of one calendar date.
type WorkSession struct {
	TotalMinutes  int         `json:"total_minutes"`
	TotalEarnings float64     `json:"total_earnings"`
	Entries       []TimeEntry `json:"entries"`
}

// Credentials hold a user's remote-service access.
type Credentials struct {
	APIToken    string `json:"api_token,omitempty"`
	WorkspaceID string `json:"workspace_id,omitempty"`
}

// TimerShadow is the local record of the user's running remote timer.
// At most one exists per user.
type TimerShadow struct {
	TaskID        string    `json:"task_id"`
	StartedAt     time.Time `json:"started_at"`
	RemoteTimerID string    `json:"remote_timer_id"`
}

// UserRecord is the persisted per-user ledger.
type UserRecord struct {
	UserID      string                  `json:"user_id"`
	Rate        float64                 `json:"rate"`
	Sessions    map[string]*WorkSession `json:"sessions"`
	Credentials *Credentials            `json:"credentials,omitempty"`
	TimerShadow *TimerShadow            `json:"timer_shadow,omitempty"`

	// remoteIDs indexes every non-empty RemoteEntryID across all sessions,
	// so dedup checks during sync avoid scanning the full history.
	remoteIDs map[string]struct{}
}

// NewUserRecord returns an empty record for the given user id.
func NewUserRecord(userID string) *UserRecord {
	return &UserRecord{
		UserID:   userID,
		Sessions: map[string]*WorkSession{},
	}
}

// Earnings returns the pay for minutes of work at an hourly rate.
func Earnings(minutes int, rate float64) float64 {
	return float64(minutes) / 60 * rate
}

func (u *UserRecord) index() map[string]struct{} {
	if u.remoteIDs == nil {
		u.remoteIDs = map[string]struct{}{}
		for _, s := range u.Sessions {
			for _, e := range s.Entries {
				if e.RemoteEntryID != "" {
					u.remoteIDs[e.RemoteEntryID] = struct{}{}
				}
			}
		}
	}
	return u.remoteIDs
}

// HasRemoteEntry reports whether an entry with the given remote id has
// already been merged into any session of this record.
func (u *UserRecord) HasRemoteEntry(id string) bool {
	if id == "" {
		return false
	}
	_, ok := u.index()[id]
	return ok
}

// AddEntry appends e to the session for date (created lazily), updating the
// session totals and the remote-id index. It returns false without changing
// anything when e carries a remote id that is already present, which keeps
// the no-duplicate-ids invariant structural.
func (u *UserRecord) AddEntry(date string, e TimeEntry) bool {
	if u.HasRemoteEntry(e.RemoteEntryID) {
		return false
	}
	if u.Sessions == nil {
		u.Sessions = map[string]*WorkSession{}
	}
	s := u.Sessions[date]
	if s == nil {
		s = &WorkSession{}
		u.Sessions[date] = s
	}
	s.Entries = append(s.Entries, e)
	s.TotalMinutes += e.Minutes
	s.TotalEarnings += e.EarningsAtRate
	if e.RemoteEntryID != "" {
		u.index()[e.RemoteEntryID] = struct{}{}
	}
	return true
}

// Session returns the work session for date, or nil if none exists.
func (u *UserRecord) Session(date string) *WorkSession {
	return u.Sessions[date]
}

// HasCredentials reports whether the record can authenticate against the
// remote service.
func (u *UserRecord) HasCredentials() bool {
	return u.Credentials != nil && u.Credentials.APIToken != "" && u.Credentials.WorkspaceID != ""
}
