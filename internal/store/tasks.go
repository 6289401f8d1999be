package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Task statuses form a closed three-value enumeration. The storage layer
// itself does not enforce it (UpdateStatus accepts any string); the filter
// composer and analytics treat unknown values as matching no known bucket.
const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

// Deadline string layouts. Both are zero-padded and ISO-ordered so that
// plain lexicographic comparison orders deadlines correctly; the timeframe
// filter depends on that.
const (
	DeadlineDate     = "2006-01-02"
	DeadlineDateTime = "2006-01-02 15:04"
)

// Task is a stored unit of work owned by one user.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Category    string
	Status      string
	Deadline    string
	Description string
}

// TaskWithTags annotates a task with its comma-joined tag list.
// Tags is empty when the task has none; order is tag insertion order,
// i.e. first-occurrence order of the most recently supplied tag string.
type TaskWithTags struct {
	Task
	Tags string
}

// TaskData carries the writable fields of a task. Tags is the raw
// comma-separated tag string; it is optional, every other field is required.
type TaskData struct {
	Title       string
	Category    string
	Status      string
	Deadline    string
	Description string
	Tags        string
}

// ValidDeadline reports whether s is a canonical deadline string.
func ValidDeadline(s string) bool {
	if _, err := time.Parse(DeadlineDate, s); err == nil {
		return true
	}
	if _, err := time.Parse(DeadlineDateTime, s); err == nil {
		return true
	}
	return false
}

// validateTask rejects empty required fields and malformed deadlines before
// any write happens.
func validateTask(data TaskData) error {
	for _, f := range []struct{ name, value string }{
		{"title", data.Title},
		{"category", data.Category},
		{"status", data.Status},
		{"deadline", data.Deadline},
		{"description", data.Description},
	} {
		if f.value == "" {
			return &ValidationError{Field: f.name, Reason: "is required"}
		}
	}
	if !ValidDeadline(data.Deadline) {
		return &ValidationError{Field: "deadline", Reason: "must be YYYY-MM-DD or YYYY-MM-DD HH:MM"}
	}
	return nil
}

// tagListExpr renders a task's comma-joined tag list inline. The nested
// subquery pins the order to task_tags insertion order before aggregation.
const tagListExpr = `COALESCE((
	SELECT group_concat(name, ', ')
	FROM (
		SELECT tg.name AS name
		FROM task_tags tt
		JOIN tags tg ON tg.id = tt.tag_id
		WHERE tt.task_id = t.id
		ORDER BY tt.rowid
	)
), '')`

// AddTask inserts a task for a user and normalizes its tag set, both in one
// transaction. A failure in tag processing rolls the task insert back.
func (s *Store) AddTask(userID int64, data TaskData) error {
	return s.AddTaskContext(context.Background(), userID, data)
}

// AddTaskContext inserts a task with context support.
func (s *Store) AddTaskContext(ctx context.Context, userID int64, data TaskData) error {
	if err := validateTask(data); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO tasks (user_id, title, category, status, deadline, description)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := tx.ExecContext(ctx, query,
		userID, data.Title, data.Category, data.Status, data.Deadline, data.Description)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	taskID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read task id: %w", err)
	}

	if err := setTaskTags(ctx, tx, taskID, data.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateTask overwrites every writable field of a task and re-normalizes its
// tag set in the same transaction. Returns ErrNotFound when taskID does not
// reference an existing task; ownership is the caller's to check.
func (s *Store) UpdateTask(taskID int64, data TaskData) error {
	return s.UpdateTaskContext(context.Background(), taskID, data)
}

// UpdateTaskContext overwrites a task with context support.
func (s *Store) UpdateTaskContext(ctx context.Context, taskID int64, data TaskData) error {
	if err := validateTask(data); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	UPDATE tasks
	SET title = ?, category = ?, status = ?, deadline = ?, description = ?
	WHERE id = ?
	`
	res, err := tx.ExecContext(ctx, query,
		data.Title, data.Category, data.Status, data.Deadline, data.Description, taskID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}

	if err := setTaskTags(ctx, tx, taskID, data.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus sets a task's status column and nothing else. Tags are left
// untouched. The status string is not validated against the enumeration;
// callers are expected to pass one of the three known values.
func (s *Store) UpdateStatus(taskID int64, status string) error {
	return s.UpdateStatusContext(context.Background(), taskID, status)
}

// UpdateStatusContext sets a task's status with context support.
func (s *Store) UpdateStatusContext(ctx context.Context, taskID int64, status string) error {
	res, err := s.conn.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ?`, status, taskID)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	return nil
}

// DeleteTask removes a task; its tag associations cascade away with it.
func (s *Store) DeleteTask(taskID int64) error {
	return s.DeleteTaskContext(context.Background(), taskID)
}

// DeleteTaskContext removes a task with context support.
func (s *Store) DeleteTaskContext(ctx context.Context, taskID int64) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	return nil
}

// GetTask retrieves a single task by id, tag list included.
func (s *Store) GetTask(taskID int64) (*TaskWithTags, error) {
	return s.GetTaskContext(context.Background(), taskID)
}

// GetTaskContext retrieves a single task with context support.
func (s *Store) GetTaskContext(ctx context.Context, taskID int64) (*TaskWithTags, error) {
	query := `
	SELECT t.id, t.user_id, t.title, t.category, t.status, t.deadline, t.description, ` + tagListExpr + `
	FROM tasks t
	WHERE t.id = ?
	`

	var task TaskWithTags
	err := s.conn.QueryRowContext(ctx, query, taskID).Scan(
		&task.ID, &task.UserID, &task.Title, &task.Category,
		&task.Status, &task.Deadline, &task.Description, &task.Tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return &task, nil
}

// GetAllTasks returns every task for a user ordered by id.
func (s *Store) GetAllTasks(userID int64) ([]*Task, error) {
	return s.GetAllTasksContext(context.Background(), userID)
}

// GetAllTasksContext returns a user's tasks with context support.
func (s *Store) GetAllTasksContext(ctx context.Context, userID int64) ([]*Task, error) {
	query := `
	SELECT id, user_id, title, category, status, deadline, description
	FROM tasks
	WHERE user_id = ?
	ORDER BY id
	`

	rows, err := s.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		var task Task
		if err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.Category,
			&task.Status, &task.Deadline, &task.Description); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// GetTasksWithTags returns every task for a user ordered by deadline, each
// annotated with its comma-joined tag list.
func (s *Store) GetTasksWithTags(userID int64) ([]*TaskWithTags, error) {
	return s.GetTasksWithTagsContext(context.Background(), userID)
}

// GetTasksWithTagsContext returns annotated tasks with context support.
func (s *Store) GetTasksWithTagsContext(ctx context.Context, userID int64) ([]*TaskWithTags, error) {
	query := `
	SELECT t.id, t.user_id, t.title, t.category, t.status, t.deadline, t.description, ` + tagListExpr + `
	FROM tasks t
	WHERE t.user_id = ?
	ORDER BY t.deadline, t.id
	`

	rows, err := s.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	return scanTasksWithTags(rows)
}

// SearchTasks returns a user's tasks whose title, category, or description
// contains text as a case-insensitive substring. Any of the three fields
// matching qualifies.
func (s *Store) SearchTasks(userID int64, text string) ([]*Task, error) {
	return s.SearchTasksContext(context.Background(), userID, text)
}

// SearchTasksContext searches tasks with context support.
func (s *Store) SearchTasksContext(ctx context.Context, userID int64, text string) ([]*Task, error) {
	query := `
	SELECT id, user_id, title, category, status, deadline, description
	FROM tasks
	WHERE user_id = ?
	  AND (title LIKE '%' || ? || '%'
	    OR category LIKE '%' || ? || '%'
	    OR description LIKE '%' || ? || '%')
	ORDER BY id
	`

	rows, err := s.conn.QueryContext(ctx, query, userID, text, text, text)
	if err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		var task Task
		if err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.Category,
			&task.Status, &task.Deadline, &task.Description); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// GetAllCategories returns the distinct categories a user's tasks actually
// use, sorted. Categories are a user-defined taxonomy; they exist only as
// the values present on tasks.
func (s *Store) GetAllCategories(userID int64) ([]string, error) {
	return s.GetAllCategoriesContext(context.Background(), userID)
}

// GetAllCategoriesContext returns a user's categories with context support.
func (s *Store) GetAllCategoriesContext(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT DISTINCT category FROM tasks WHERE user_id = ? ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// scanTasksWithTags is a helper to scan annotated task rows.
func scanTasksWithTags(rows *sql.Rows) ([]*TaskWithTags, error) {
	var tasks []*TaskWithTags
	for rows.Next() {
		var task TaskWithTags
		if err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.Category,
			&task.Status, &task.Deadline, &task.Description, &task.Tags); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}
