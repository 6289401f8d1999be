package store

import (
	"context"
	"fmt"
	"strings"
)

// Sentinel filter values. The UI populates its dropdowns with these, so the
// composer treats them the same as an unset field.
const (
	AllCategories = "All Categories"
	AllStatus     = "All Status"
	AnyTime       = "Any Time"
)

// Timeframe filter values. Any other string places no time constraint.
const (
	TimeframeOverdue  = "Overdue"
	TimeframeToday    = "Due Today"
	TimeframeNextWeek = "Next 7 Days"
)

// Filter is a set of optional, independently-omittable predicates. The zero
// value (and each field's sentinel) matches everything. Active predicates
// combine with AND.
type Filter struct {
	// Category matches exactly; "" or "All Categories" is ignored.
	Category string
	// Status matches exactly; "" or "All Status" is ignored.
	Status string
	// Tag requires at least one associated tag whose name contains this
	// substring, case-insensitively.
	Tag string
	// Timeframe is one of the Timeframe constants; anything else (including
	// "" and "Any Time") places no constraint.
	Timeframe string
	// Search requires the title to contain this substring, case-insensitively.
	Search string
}

// GetFilteredTasks returns a user's tasks matching every active predicate in
// f, one row per task with its comma-joined tag list, ordered by deadline
// ascending. An empty filter behaves like GetTasksWithTags.
//
// The query is composed from parameterized predicate clauses; filter values
// are never formatted into SQL text.
func (s *Store) GetFilteredTasks(userID int64, f Filter) ([]*TaskWithTags, error) {
	return s.GetFilteredTasksContext(context.Background(), userID, f)
}

// GetFilteredTasksContext composes and runs the filter query with context
// support.
func (s *Store) GetFilteredTasksContext(ctx context.Context, userID int64, f Filter) ([]*TaskWithTags, error) {
	conditions := []string{"t.user_id = ?"}
	args := []interface{}{userID}

	if f.Category != "" && f.Category != AllCategories {
		conditions = append(conditions, "t.category = ?")
		args = append(args, f.Category)
	}

	if f.Status != "" && f.Status != AllStatus {
		conditions = append(conditions, "t.status = ?")
		args = append(args, f.Status)
	}

	if f.Tag != "" {
		// EXISTS keeps the rendered tag list complete: joining and filtering
		// on tags.name would drop the task's non-matching tags from the list.
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM task_tags tt
			JOIN tags tg ON tg.id = tt.tag_id
			WHERE tt.task_id = t.id AND tg.name LIKE '%' || ? || '%'
		)`)
		args = append(args, f.Tag)
	}

	// Deadline comparisons are lexicographic on the zero-padded stored text.
	today := s.today()
	switch f.Timeframe {
	case TimeframeOverdue:
		conditions = append(conditions, "t.deadline < ?", "t.status != ?")
		args = append(args, today, StatusDone)
	case TimeframeToday:
		conditions = append(conditions, "t.deadline >= ?", "t.deadline <= ?")
		args = append(args, today, today+" 23:59")
	case TimeframeNextWeek:
		end := s.now().AddDate(0, 0, 7).Format(DeadlineDate)
		conditions = append(conditions, "t.deadline >= ?", "t.deadline <= ?")
		args = append(args, today, end+" 23:59")
	}

	if f.Search != "" {
		conditions = append(conditions, "t.title LIKE '%' || ? || '%'")
		args = append(args, f.Search)
	}

	query := `
	SELECT t.id, t.user_id, t.title, t.category, t.status, t.deadline, t.description, ` + tagListExpr + `
	FROM tasks t
	WHERE ` + strings.Join(conditions, " AND ") + `
	ORDER BY t.deadline, t.id
	`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query filtered tasks: %w", err)
	}
	defer rows.Close()

	return scanTasksWithTags(rows)
}
