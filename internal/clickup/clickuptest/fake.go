// Package clickuptest provides a configurable in-memory fake of the remote
// API for engine tests.
package clickuptest

import (
	"context"
	"sync"
	"time"

	"github.com/wagetrack/wagetrack/internal/clickup"
	"github.com/wagetrack/wagetrack/internal/errs"
)

// Call records one invocation against the fake.
type Call struct {
	Method string
	Args   []string
}

// Fake implements clickup.API with overridable function fields. Unset
// fields fall back to empty successful responses. Calls are recorded in
// order for assertions; recording is safe under concurrent fetches.
type Fake struct {
	mu    sync.Mutex
	Calls []Call

	ListSpacesFn      func(ctx context.Context) ([]clickup.Space, error)
	ListFoldersFn     func(ctx context.Context, spaceID string) ([]clickup.Folder, error)
	ListListsFn       func(ctx context.Context, spaceID, folderID string) ([]clickup.List, error)
	ListTasksFn       func(ctx context.Context, listID, statusFilter, assignee string) ([]clickup.Task, error)
	GetTaskDetailFn   func(ctx context.Context, taskID string) (*clickup.Task, error)
	StartTimerFn      func(ctx context.Context, taskID string) (*clickup.TimeEntry, error)
	StopTimerFn       func(ctx context.Context) (*clickup.TimeEntry, error)
	ListTimeEntriesFn func(ctx context.Context, from, to time.Time) ([]clickup.TimeEntry, error)
	SetTaskStatusFn   func(ctx context.Context, taskID, status string) error
}

var _ clickup.API = (*Fake)(nil)

func (f *Fake) record(method string, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Method: method, Args: args})
}

// CallsTo returns how many times method was invoked.
func (f *Fake) CallsTo(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *Fake) ListSpaces(ctx context.Context) ([]clickup.Space, error) {
	f.record("ListSpaces")
	if f.ListSpacesFn != nil {
		return f.ListSpacesFn(ctx)
	}
	return nil, nil
}

func (f *Fake) ListFolders(ctx context.Context, spaceID string) ([]clickup.Folder, error) {
	f.record("ListFolders", spaceID)
	if f.ListFoldersFn != nil {
		return f.ListFoldersFn(ctx, spaceID)
	}
	return nil, nil
}

func (f *Fake) ListLists(ctx context.Context, spaceID, folderID string) ([]clickup.List, error) {
	f.record("ListLists", spaceID, folderID)
	if f.ListListsFn != nil {
		return f.ListListsFn(ctx, spaceID, folderID)
	}
	return nil, nil
}

func (f *Fake) ListTasks(ctx context.Context, listID, statusFilter, assignee string) ([]clickup.Task, error) {
	f.record("ListTasks", listID, statusFilter, assignee)
	if f.ListTasksFn != nil {
		return f.ListTasksFn(ctx, listID, statusFilter, assignee)
	}
	return nil, nil
}

func (f *Fake) GetTaskDetail(ctx context.Context, taskID string) (*clickup.Task, error) {
	f.record("GetTaskDetail", taskID)
	if f.GetTaskDetailFn != nil {
		return f.GetTaskDetailFn(ctx, taskID)
	}
	return nil, errs.RemoteNotFound("task", taskID)
}

func (f *Fake) StartTimer(ctx context.Context, taskID string) (*clickup.TimeEntry, error) {
	f.record("StartTimer", taskID)
	if f.StartTimerFn != nil {
		return f.StartTimerFn(ctx, taskID)
	}
	return &clickup.TimeEntry{ID: "timer-" + taskID}, nil
}

func (f *Fake) StopTimer(ctx context.Context) (*clickup.TimeEntry, error) {
	f.record("StopTimer")
	if f.StopTimerFn != nil {
		return f.StopTimerFn(ctx)
	}
	return &clickup.TimeEntry{ID: "stopped"}, nil
}

func (f *Fake) ListTimeEntries(ctx context.Context, from, to time.Time) ([]clickup.TimeEntry, error) {
	f.record("ListTimeEntries", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if f.ListTimeEntriesFn != nil {
		return f.ListTimeEntriesFn(ctx, from, to)
	}
	return nil, nil
}

func (f *Fake) SetTaskStatus(ctx context.Context, taskID, status string) error {
	f.record("SetTaskStatus", taskID, status)
	if f.SetTaskStatusFn != nil {
		return f.SetTaskStatusFn(ctx, taskID, status)
	}
	return nil
}
