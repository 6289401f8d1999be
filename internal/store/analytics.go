package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// StatusCounts buckets a category's tasks by status. Total counts every
// task in the category, including those carrying a status outside the known
// enumeration; such tasks land in no named bucket.
type StatusCounts struct {
	Total      int `json:"total"`
	ToDo       int `json:"To Do"`
	InProgress int `json:"In Progress"`
	Done       int `json:"Done"`
}

// Analytics is the per-user dashboard summary: display name, totals, and a
// category-keyed matrix of status-bucketed counts. Matrix always carries a
// synthetic "All Categories" entry summing every real category's buckets.
type Analytics struct {
	Username     string                  `json:"username"`
	TotalTasks   int                     `json:"total_tasks"`
	OverdueTasks int                     `json:"overdue_tasks"`
	Matrix       map[string]StatusCounts `json:"matrix"`
}

// GetAnalytics computes the dashboard summary for a user.
//
// Overdue means deadline strictly before today's date with status not Done;
// the cutoff shares the date-only grain used by the Overdue timeframe filter
// so the two can never disagree. Returns ErrNotFound for an unknown user.
//
// The synthetic "All Categories" entry is summed from the real buckets
// before it is written into the matrix. A user who literally names a
// category "All Categories" contributes its bucket to the sums and then
// loses the real entry to the synthetic key; the per-category breakdown for
// that name is not recoverable from the matrix.
func (s *Store) GetAnalytics(userID int64) (*Analytics, error) {
	return s.GetAnalyticsContext(context.Background(), userID)
}

// GetAnalyticsContext computes the dashboard summary with context support.
func (s *Store) GetAnalyticsContext(ctx context.Context, userID int64) (*Analytics, error) {
	a := &Analytics{Matrix: make(map[string]StatusCounts)}

	err := s.conn.QueryRowContext(ctx,
		`SELECT username FROM users WHERE id = ?`, userID).Scan(&a.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, `
	SELECT category, status, COUNT(*)
	FROM tasks
	WHERE user_id = ?
	GROUP BY category, status
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category, status string
		var count int
		if err := rows.Scan(&category, &status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}

		counts := a.Matrix[category]
		counts.Total += count
		switch status {
		case StatusToDo:
			counts.ToDo += count
		case StatusInProgress:
			counts.InProgress += count
		case StatusDone:
			counts.Done += count
		}
		a.Matrix[category] = counts
		a.TotalTasks += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}

	err = s.conn.QueryRowContext(ctx, `
	SELECT COUNT(*)
	FROM tasks
	WHERE user_id = ? AND deadline < ? AND status != ?
	`, userID, s.today(), StatusDone).Scan(&a.OverdueTasks)
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %w", err)
	}

	var all StatusCounts
	for _, counts := range a.Matrix {
		all.Total += counts.Total
		all.ToDo += counts.ToDo
		all.InProgress += counts.InProgress
		all.Done += counts.Done
	}
	a.Matrix[AllCategories] = all

	return a, nil
}
