package clickup

import (
	"strconv"
	"time"
)

// Space is one space inside the authenticated workspace.
type Space struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Folder groups lists inside a space.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// List holds tasks, either inside a folder or directly under a space.
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskStatus is the status object attached to a task.
type TaskStatus struct {
	Status string `json:"status"`
	Type   string `json:"type"` // "open", "custom", "closed", "done"
}

// Task is a remote task, possibly with assignees and a status.
type Task struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    TaskStatus `json:"status"`
	URL       string     `json:"url"`
	Assignees []struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	} `json:"assignees"`
}

// TimeEntry is a remote time entry. The API encodes epoch-millisecond
// timestamps and the duration as decimal strings.
type TimeEntry struct {
	ID   string `json:"id"`
	Task struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"task"`
	Start      string `json:"start"`
	End        string `json:"end"`
	DurationMS string `json:"duration"`
}

// Minutes converts the entry's duration to whole minutes, rounding to the
// nearest minute. A running entry (negative duration) yields 0.
func (e TimeEntry) Minutes() int {
	ms, err := strconv.ParseInt(e.DurationMS, 10, 64)
	if err != nil || ms < 0 {
		return 0
	}
	return int((ms + 30_000) / 60_000)
}

// Running reports whether the entry is still accumulating time. The API
// reports a running entry with no end timestamp and a negative duration.
func (e TimeEntry) Running() bool {
	if e.End == "" {
		return true
	}
	ms, err := strconv.ParseInt(e.DurationMS, 10, 64)
	return err != nil || ms < 0
}

// StartTime decodes the entry's start timestamp; the zero time on failure.
func (e TimeEntry) StartTime() time.Time {
	ms, err := strconv.ParseInt(e.Start, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Paged and enveloped response shapes.
type (
	spacesResponse  struct{ Spaces []Space `json:"spaces"` }
	foldersResponse struct{ Folders []Folder `json:"folders"` }
	listsResponse   struct{ Lists []List `json:"lists"` }
	tasksResponse   struct {
		Tasks    []Task `json:"tasks"`
		LastPage bool   `json:"last_page"`
	}
	entriesResponse struct{ Data []TimeEntry `json:"data"` }
	entryResponse   struct{ Data TimeEntry `json:"data"` }
	userResponse    struct {
		User struct {
			ID       int    `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
)
