package store

import (
	"testing"
)

// seedFilterFixture creates a user with a spread of tasks and pins the clock
// to 2025-06-10.
func seedFilterFixture(t *testing.T, s *Store) int64 {
	t.Helper()
	user := mustCreateUser(t, s, "alice")
	fixNow(t, s, "2025-06-10")

	add := func(title, category, status, deadline, tags string) {
		t.Helper()
		mustAddTask(t, s, user, TaskData{
			Title:       title,
			Category:    category,
			Status:      status,
			Deadline:    deadline,
			Description: "d",
			Tags:        tags,
		})
	}

	add("old report", "Work", StatusToDo, "2025-01-01", "work, urgent")
	add("old but done", "Work", StatusDone, "2025-02-01", "work")
	add("this week", "Work", StatusInProgress, "2025-06-15", "planning")
	add("today", "Home", StatusToDo, "2025-06-10", "")
	add("far future", "Home", StatusToDo, "2030-01-01", "someday")

	return user
}

func titles(tasks []*TaskWithTags) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Title
	}
	return out
}

func assertTitles(t *testing.T, tasks []*TaskWithTags, want ...string) {
	t.Helper()
	got := titles(tasks)
	if len(got) != len(want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("titles = %v, want %v", got, want)
		}
	}
}

func TestGetFilteredTasks_EmptyFilterMatchesGetTasksWithTags(t *testing.T) {
	s := newTestStore(t)
	user := seedFilterFixture(t, s)

	filtered, err := s.GetFilteredTasks(user, Filter{})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	all, err := s.GetTasksWithTags(user)
	if err != nil {
		t.Fatalf("GetTasksWithTags() failed: %v", err)
	}

	if len(filtered) != len(all) {
		t.Fatalf("filtered len = %d, all len = %d", len(filtered), len(all))
	}
	seen := make(map[int64]string)
	for _, task := range all {
		seen[task.ID] = task.Tags
	}
	for _, task := range filtered {
		tags, ok := seen[task.ID]
		if !ok {
			t.Errorf("task %d in filtered but not in all", task.ID)
			continue
		}
		if task.Tags != tags {
			t.Errorf("task %d tags = %q vs %q", task.ID, task.Tags, tags)
		}
	}
}

func TestGetFilteredTasks_Sentinels(t *testing.T) {
	s := newTestStore(t)
	user := seedFilterFixture(t, s)

	tasks, err := s.GetFilteredTasks(user, Filter{
		Category:  AllCategories,
		Status:    AllStatus,
		Timeframe: AnyTime,
	})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	if len(tasks) != 5 {
		t.Errorf("len = %d, want 5 (sentinels place no constraint)", len(tasks))
	}
}

func TestGetFilteredTasks_Status(t *testing.T) {
	s := newTestStore(t)
	user := seedFilterFixture(t, s)

	tasks, err := s.GetFilteredTasks(user, Filter{Status: StatusDone})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	assertTitles(t, tasks, "old but done")
}

func TestGetFilteredTasks_Category(t *testing.T) {
	s := newTestStore(t)
	user := seedFilterFixture(t, s)

	tasks, err := s.GetFilteredTasks(user, Filter{Category: "Home"})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	assertTitles(t, tasks, "today", "far future")
}

func TestGetFilteredTasks_TagSubstring(t *testing.T) {
	s := newTestStore(t)
	user := seedFilterFixture(t, s)

	// Case-insensitive substring over tag names
	tasks, err := s.GetFilteredTasks(user, Filter{Tag: "PLAN"})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	assertTitles(t, tasks, "this week")

	// The rendered tag list stays complete even though only one tag matched
	tasks, err = s.GetFilteredTasks(user, Filter{Tag: "urgent"})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	assertTitles(t, tasks, "old report")
	if tasks[0].Tags != "work, urgent" {
		t.Errorf("Tags = %q, want full list %q", tasks[0].Tags, "work, urgent")
	}
}

func TestGetFilteredTasks_Overdue(t *testing.T) {
	s := newTestStore(t)
	user := seedFilterFixture(t, s)

	// Done tasks are never overdue; a task due today is not yet overdue
	tasks, err := s.GetFilteredTasks(user, Filter{Timeframe: TimeframeOverdue})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	assertTitles(t, tasks, "old report")
}

func TestGetFilteredTasks_DueToday(t *testing.T) {
	s := newTestStore(t)
	user := seedFilterFixture(t, s)

	tasks, err := s.GetFilteredTasks(user, Filter{Timeframe: TimeframeToday})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	assertTitles(t, tasks, "today")
}

func TestGetFilteredTasks_DueToday_WithClock(t *testing.T) {
	s := newTestStore(t)
	user := mustCreateUser(t, s, "alice")
	fixNow(t, s, "2025-06-10")

	data := taskFixture("evening")
	data.Deadline = "2025-06-10 21:00"
	mustAddTask(t, s, user, data)

	tasks, err := s.GetFilteredTasks(user, Filter{Timeframe: TimeframeToday})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	assertTitles(t, tasks, "evening")
}

func TestGetFilteredTasks_NextSevenDays(t *testing.T) {
	s := newTestStore(t)
	user := seedFilterFixture(t, s)

	// Window spans today through end of day +7; "today" and "this week"
	// (2025-06-15) land inside, 2030 does not
	tasks, err := s.GetFilteredTasks(user, Filter{Timeframe: TimeframeNextWeek})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	assertTitles(t, tasks, "today", "this week")
}

func TestGetFilteredTasks_Search(t *testing.T) {
	s := newTestStore(t)
	user := seedFilterFixture(t, s)

	tasks, err := s.GetFilteredTasks(user, Filter{Search: "OLD"})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	assertTitles(t, tasks, "old report", "old but done")
}

func TestGetFilteredTasks_CombinedAnd(t *testing.T) {
	s := newTestStore(t)
	user := seedFilterFixture(t, s)

	tasks, err := s.GetFilteredTasks(user, Filter{
		Category: "Work",
		Status:   StatusToDo,
		Tag:      "work",
	})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	assertTitles(t, tasks, "old report")

	// Tightening further to a non-matching timeframe empties the result
	tasks, err = s.GetFilteredTasks(user, Filter{
		Category:  "Work",
		Status:    StatusToDo,
		Timeframe: TimeframeNextWeek,
	})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("titles = %v, want none", titles(tasks))
	}
}

func TestGetFilteredTasks_ScopedToUser(t *testing.T) {
	s := newTestStore(t)
	user := seedFilterFixture(t, s)
	other := mustCreateUser(t, s, "bobby")
	mustAddTask(t, s, other, taskFixture("not alice's"))

	tasks, err := s.GetFilteredTasks(user, Filter{})
	if err != nil {
		t.Fatalf("GetFilteredTasks() failed: %v", err)
	}
	for _, task := range tasks {
		if task.UserID != user {
			t.Errorf("task %d belongs to user %d", task.ID, task.UserID)
		}
	}
	if len(tasks) != 5 {
		t.Errorf("len = %d, want 5", len(tasks))
	}
}
