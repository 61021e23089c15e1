package clickup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/wagetrack/wagetrack/internal/errs"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(context.Background(), "pk_test", "9001", WithBaseURL(srv.URL))
}

func TestListSpaces(t *testing.T) {
	var gotPath, gotAuth string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"spaces": []map[string]string{{"id": "sp1", "name": "Engineering"}},
		})
	}))

	spaces, err := c.ListSpaces(context.Background())
	if err != nil {
		t.Fatalf("ListSpaces() error: %v", err)
	}
	if gotPath != "/team/9001/space" {
		t.Errorf("path = %s", gotPath)
	}
	if gotAuth != "Bearer pk_test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(spaces) != 1 || spaces[0].ID != "sp1" || spaces[0].Name != "Engineering" {
		t.Errorf("spaces = %+v", spaces)
	}
}

func TestListListsPathSelection(t *testing.T) {
	var paths []string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"lists": []map[string]string{}})
	}))

	if _, err := c.ListLists(context.Background(), "sp1", "f1"); err != nil {
		t.Fatalf("ListLists(folder) error: %v", err)
	}
	if _, err := c.ListLists(context.Background(), "sp1", ""); err != nil {
		t.Fatalf("ListLists(folderless) error: %v", err)
	}
	if paths[0] != "/folder/f1/list" {
		t.Errorf("folder path = %s", paths[0])
	}
	if paths[1] != "/space/sp1/list" {
		t.Errorf("folderless path = %s", paths[1])
	}
}

func TestListTasksPagingAndAssignee(t *testing.T) {
	var taskQueries []map[string]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user":
			json.NewEncoder(w).Encode(map[string]any{"user": map[string]any{"id": 42, "username": "ada"}})
		case "/list/l1/task":
			q := r.URL.Query()
			taskQueries = append(taskQueries, map[string]string{
				"page":     q.Get("page"),
				"assignee": q.Get("assignees[]"),
			})
			page := q.Get("page")
			if page == "0" {
				json.NewEncoder(w).Encode(map[string]any{
					"tasks":     []map[string]any{{"id": "t1", "name": "First"}},
					"last_page": false,
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"tasks":     []map[string]any{{"id": "t2", "name": "Second"}},
				"last_page": true,
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	tasks, err := c.ListTasks(context.Background(), "l1", FilterOpen, "")
	if err != nil {
		t.Fatalf("ListTasks() error: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "t1" || tasks[1].ID != "t2" {
		t.Errorf("tasks = %+v", tasks)
	}
	if len(taskQueries) != 2 {
		t.Fatalf("made %d task requests, want 2", len(taskQueries))
	}
	for i, q := range taskQueries {
		if q["assignee"] != "42" {
			t.Errorf("request %d assignee = %q, want the token user", i, q["assignee"])
		}
	}
	if taskQueries[0]["page"] != "0" || taskQueries[1]["page"] != "1" {
		t.Errorf("pages = %v", taskQueries)
	}

	// The self-id lookup is cached across calls.
	if _, err := c.ListTasks(context.Background(), "l1", FilterOpen, ""); err != nil {
		t.Fatalf("second ListTasks() error: %v", err)
	}
}

func TestListTasksStatusFilterQuery(t *testing.T) {
	tests := []struct {
		filter       string
		wantIncluded string
		wantStatuses string
	}{
		{FilterOpen, "", ""},
		{FilterAll, "true", ""},
		{FilterClosed, "true", "closed"},
		{"in review", "", "in review"},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			var got map[string]string
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				got = map[string]string{
					"include_closed": q.Get("include_closed"),
					"statuses":       q.Get("statuses[]"),
				}
				json.NewEncoder(w).Encode(map[string]any{"tasks": []map[string]any{}, "last_page": true})
			}))

			if _, err := c.ListTasks(context.Background(), "l1", tt.filter, "42"); err != nil {
				t.Fatalf("ListTasks() error: %v", err)
			}
			if got["include_closed"] != tt.wantIncluded {
				t.Errorf("include_closed = %q, want %q", got["include_closed"], tt.wantIncluded)
			}
			if got["statuses"] != tt.wantStatuses {
				t.Errorf("statuses[] = %q, want %q", got["statuses"], tt.wantStatuses)
			}
		})
	}
}

func TestListTimeEntriesRangeQuery(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 23, 59, 59, 0, time.UTC)

	var gotStart, gotEnd string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.URL.Query().Get("start_date")
		gotEnd = r.URL.Query().Get("end_date")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{
				"id":       "e1",
				"task":     map[string]string{"id": "t1", "name": "First"},
				"start":    "1754028000000",
				"end":      "1754031600000",
				"duration": "3600000",
			}},
		})
	}))

	entries, err := c.ListTimeEntries(context.Background(), from, to)
	if err != nil {
		t.Fatalf("ListTimeEntries() error: %v", err)
	}
	if want := from.UnixMilli(); gotStart != strconv.FormatInt(want, 10) {
		t.Errorf("start_date = %s, want %d", gotStart, want)
	}
	if want := to.UnixMilli(); gotEnd != strconv.FormatInt(want, 10) {
		t.Errorf("end_date = %s, want %d", gotEnd, want)
	}
	if len(entries) != 1 || entries[0].ID != "e1" {
		t.Fatalf("entries = %+v", entries)
	}
	if got := entries[0].Minutes(); got != 60 {
		t.Errorf("Minutes() = %d, want 60", got)
	}
}

func TestTimerEndpoints(t *testing.T) {
	var paths []string
	var startBody map[string]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/team/9001/time_entries/start" {
			json.NewDecoder(r.Body).Decode(&startBody)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "e9"}})
	}))

	started, err := c.StartTimer(context.Background(), "t1")
	if err != nil {
		t.Fatalf("StartTimer() error: %v", err)
	}
	if started.ID != "e9" {
		t.Errorf("started.ID = %s", started.ID)
	}
	if startBody["tid"] != "t1" {
		t.Errorf("start body = %v", startBody)
	}

	if _, err := c.StopTimer(context.Background()); err != nil {
		t.Fatalf("StopTimer() error: %v", err)
	}
	want := []string{"POST /team/9001/time_entries/start", "POST /team/9001/time_entries/stop"}
	for i, w := range want {
		if paths[i] != w {
			t.Errorf("request %d = %s, want %s", i, paths[i], w)
		}
	}
}

func TestSetTaskStatus(t *testing.T) {
	var gotMethod string
	var gotBody map[string]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte("{}"))
	}))

	if err := c.SetTaskStatus(context.Background(), "t1", "done"); err != nil {
		t.Fatalf("SetTaskStatus() error: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotBody["status"] != "done" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, errs.IsRemoteAuth},
		{"forbidden", http.StatusForbidden, errs.IsRemoteAuth},
		{"not found", http.StatusNotFound, errs.IsRemoteNotFound},
		{"server error", http.StatusInternalServerError, errs.IsRemoteUnavailable},
		{"rate limited", http.StatusTooManyRequests, errs.IsRemoteUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"err":"nope","ECODE":"OAUTH_019"}`))
			}))
			_, err := c.ListSpaces(context.Background())
			if !tt.check(err) {
				t.Errorf("ListSpaces() error = %v, wrong category for HTTP %d", err, tt.status)
			}
		})
	}
}

func TestTransportFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	c := NewClient(context.Background(), "pk_test", "9001", WithBaseURL(srv.URL))

	_, err := c.ListSpaces(context.Background())
	if !errs.IsRemoteUnavailable(err) {
		t.Fatalf("error = %v, want remote-unavailable", err)
	}
	if !errs.Retryable(err) {
		t.Error("transport failure not marked retryable")
	}
}

func TestTimeEntryMinutesRounding(t *testing.T) {
	tests := []struct {
		duration string
		want     int
	}{
		{"3600000", 60},  // exactly one hour
		{"3629999", 60},  // 60m29.999s rounds down
		{"3630000", 61},  // 60m30s rounds up
		{"15000", 0},     // 15s rounds to zero
		{"-60000", 0},    // running entries report negative duration
		{"garbage", 0},
	}
	for _, tt := range tests {
		e := TimeEntry{DurationMS: tt.duration}
		if got := e.Minutes(); got != tt.want {
			t.Errorf("Minutes(%q) = %d, want %d", tt.duration, got, tt.want)
		}
	}
}

func TestTimeEntryRunning(t *testing.T) {
	tests := []struct {
		name  string
		entry TimeEntry
		want  bool
	}{
		{"completed", TimeEntry{End: "1755700200000", DurationMS: "3600000"}, false},
		{"no end", TimeEntry{DurationMS: "3600000"}, true},
		{"negative duration", TimeEntry{End: "1755700200000", DurationMS: "-3600000"}, true},
		{"unparseable duration", TimeEntry{End: "1755700200000", DurationMS: "garbage"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Running(); got != tt.want {
				t.Errorf("Running() = %v, want %v", got, tt.want)
			}
		})
	}
}
