// Package nav maintains each user's position in the remote
// workspace hierarchy and produces the menu for the current level.
// State is in-memory only; a process restart puts everyone back at the
// spaces level.
package nav

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wagetrack/wagetrack/internal/clickup"
	"github.com/wagetrack/wagetrack/internal/errs"
)

// Level is the depth in the hierarchy.
type Level int

const (
	LevelSpaces Level = iota
	LevelFolders
	LevelLists
	LevelStatusFilter
	LevelTasks
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case LevelSpaces:
		return "spaces"
	case LevelFolders:
		return "folders"
	case LevelLists:
		return "lists"
	case LevelStatusFilter:
		return "status"
	case LevelTasks:
		return "tasks"
	}
	return "unknown"
}

// ParseLevel maps a level name back to its Level.
func ParseLevel(s string) (Level, error) {
	for _, l := range []Level{LevelSpaces, LevelFolders, LevelLists, LevelStatusFilter, LevelTasks} {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, errs.Validation("unknown navigation level %q", s)
}

// State is a user's position. Fields deeper than Level are zero; moving
// back clears everything more specific than the target level.
type State struct {
	Level        Level
	SpaceID      string
	FolderID     string // empty at LevelLists means folderless lists
	ListID       string
	StatusFilter string
}

// truncate returns a copy of s cut down to the given level.
func (s State) truncate(l Level) State {
	out := s
	out.Level = l
	if l < LevelTasks {
		out.StatusFilter = ""
	}
	if l < LevelStatusFilter {
		out.ListID = ""
	}
	if l < LevelLists {
		out.FolderID = ""
	}
	if l < LevelFolders {
		out.SpaceID = ""
	}
	return out
}

// Item is one selectable menu entry.
type Item struct {
	ID    string
	Label string
}

// Menu is the structured rendering of a level; the conversational layer
// turns it into text.
type Menu struct {
	Level Level
	Items []Item
}

// Machine is the keyed per-user navigation store.
type Machine struct {
	api clickup.API
	log *zap.Logger

	mu     sync.Mutex
	states map[string]State
}

// New returns a Machine backed by the given remote capability.
func New(api clickup.API, log *zap.Logger) *Machine {
	return &Machine{api: api, log: log, states: map[string]State{}}
}

// State returns the user's current position and whether one exists.
func (m *Machine) State(userID string) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[userID]
	return s, ok
}

// Reset discards the user's position.
func (m *Machine) Reset(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
}

func (m *Machine) current(userID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID]
}

// commit replaces the user's state wholesale after a successful fetch.
func (m *Machine) commit(userID string, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = s
}

// Enter (re)starts navigation at the spaces level. Spaces are always
// fetched fresh; a navigation restart must never show stale spaces.
func (m *Machine) Enter(ctx context.Context, userID string) (Menu, error) {
	next := State{Level: LevelSpaces}
	menu, err := m.menuFor(ctx, next)
	if err != nil {
		return Menu{}, err
	}
	m.commit(userID, next)
	return menu, nil
}

// SelectSpace descends from the spaces menu into a space's folders.
func (m *Machine) SelectSpace(ctx context.Context, userID, spaceID string) (Menu, error) {
	cur := m.current(userID)
	if cur.Level != LevelSpaces {
		return Menu{}, errs.Validation("no space menu open, at %s", cur.Level)
	}
	next := State{Level: LevelFolders, SpaceID: spaceID}
	return m.advance(ctx, userID, next)
}

// SelectFolder descends from the folders menu into a folder's lists.
func (m *Machine) SelectFolder(ctx context.Context, userID, folderID string) (Menu, error) {
	cur := m.current(userID)
	if cur.Level != LevelFolders {
		return Menu{}, errs.Validation("no folder menu open, at %s", cur.Level)
	}
	next := State{Level: LevelLists, SpaceID: cur.SpaceID, FolderID: folderID}
	return m.advance(ctx, userID, next)
}

// SkipFolders descends from the folders menu to the space's folderless
// lists.
func (m *Machine) SkipFolders(ctx context.Context, userID string) (Menu, error) {
	cur := m.current(userID)
	if cur.Level != LevelFolders {
		return Menu{}, errs.Validation("no folder menu open, at %s", cur.Level)
	}
	next := State{Level: LevelLists, SpaceID: cur.SpaceID}
	return m.advance(ctx, userID, next)
}

// SelectList descends from the lists menu to the status filter choice.
func (m *Machine) SelectList(ctx context.Context, userID, listID string) (Menu, error) {
	cur := m.current(userID)
	if cur.Level != LevelLists {
		return Menu{}, errs.Validation("no list menu open, at %s", cur.Level)
	}
	next := cur
	next.Level = LevelStatusFilter
	next.ListID = listID
	return m.advance(ctx, userID, next)
}

// SelectStatus applies a status filter and fetches the task menu. Tasks are
// always restricted to the user as assignee; the filter only narrows by
// status.
func (m *Machine) SelectStatus(ctx context.Context, userID, filter string) (Menu, error) {
	cur := m.current(userID)
	if cur.Level != LevelStatusFilter {
		return Menu{}, errs.Validation("no status menu open, at %s", cur.Level)
	}
	next := cur
	next.Level = LevelTasks
	next.StatusFilter = filter
	return m.advance(ctx, userID, next)
}

// Back jumps to a named ancestor level, discarding all deeper state, and
// re-renders that level's menu.
func (m *Machine) Back(ctx context.Context, userID string, target Level) (Menu, error) {
	cur := m.current(userID)
	if target >= cur.Level {
		return Menu{}, errs.Validation("cannot go back from %s to %s", cur.Level, target)
	}
	return m.advance(ctx, userID, cur.truncate(target))
}

// advance fetches the menu for next and commits it only on success, so a
// failed fetch leaves the user where they were.
func (m *Machine) advance(ctx context.Context, userID string, next State) (Menu, error) {
	menu, err := m.menuFor(ctx, next)
	if err != nil {
		if errs.IsRemoteNotFound(err) {
			m.log.Info("stale navigation reference",
				zap.String("user", userID),
				zap.String("level", next.Level.String()))
		}
		return Menu{}, err
	}
	m.commit(userID, next)
	return menu, nil
}

// menuFor renders the menu for the given state.
func (m *Machine) menuFor(ctx context.Context, s State) (Menu, error) {
	menu := Menu{Level: s.Level}
	switch s.Level {
	case LevelSpaces:
		spaces, err := m.api.ListSpaces(ctx)
		if err != nil {
			return Menu{}, err
		}
		for _, sp := range spaces {
			menu.Items = append(menu.Items, Item{ID: sp.ID, Label: sp.Name})
		}
	case LevelFolders:
		folders, err := m.api.ListFolders(ctx, s.SpaceID)
		if err != nil {
			return Menu{}, err
		}
		for _, f := range folders {
			menu.Items = append(menu.Items, Item{ID: f.ID, Label: f.Name})
		}
	case LevelLists:
		lists, err := m.api.ListLists(ctx, s.SpaceID, s.FolderID)
		if err != nil {
			return Menu{}, err
		}
		for _, l := range lists {
			menu.Items = append(menu.Items, Item{ID: l.ID, Label: l.Name})
		}
	case LevelStatusFilter:
		for _, f := range clickup.StatusFilters {
			menu.Items = append(menu.Items, Item{ID: f, Label: f})
		}
	case LevelTasks:
		tasks, err := m.api.ListTasks(ctx, s.ListID, s.StatusFilter, "")
		if err != nil {
			return Menu{}, err
		}
		for _, t := range tasks {
			label := t.Name
			if t.Status.Status != "" {
				label += " [" + t.Status.Status + "]"
			}
			menu.Items = append(menu.Items, Item{ID: t.ID, Label: label})
		}
	}
	return menu, nil
}
