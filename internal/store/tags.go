package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// splitTags turns a raw comma-separated tag string into the canonical tag
// set: segments trimmed of surrounding whitespace, blanks dropped,
// duplicates collapsed keeping first occurrence. Names are case-sensitive
// exact strings.
func splitTags(tagString string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, seg := range strings.Split(tagString, ",") {
		name := strings.TrimSpace(seg)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// setTaskTags makes the stored tag set for a task exactly match tagString.
//
// It runs inside the caller's transaction so a failure here rolls back the
// task mutation that triggered it; no partial tag state is ever committed.
// All existing associations are removed first, then one row is inserted per
// canonical tag name, creating tag rows lazily on first use. Insertion order
// preserves first-occurrence order of the input, which is the order the
// rendered tag list comes back in.
func setTaskTags(ctx context.Context, tx *sql.Tx, taskID int64, tagString string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("failed to clear task tags: %w", err)
	}

	for _, name := range splitTags(tagString) {
		var tagID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&tagID)
		if errors.Is(err, sql.ErrNoRows) {
			res, err := tx.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?)`, name)
			if err != nil {
				return fmt.Errorf("failed to create tag %q: %w", name, err)
			}
			tagID, err = res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to read tag id: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to look up tag %q: %w", name, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_tags (task_id, tag_id) VALUES (?, ?)`, taskID, tagID); err != nil {
			return fmt.Errorf("failed to link tag %q: %w", name, err)
		}
	}

	return nil
}

// SetTaskTags replaces the tag set of an existing task in its own
// transaction. Task mutations that carry a tag string normalize tags as part
// of their own transaction instead; this entry point serves callers that
// edit tags alone.
func (s *Store) SetTaskTags(taskID int64, tagString string) error {
	return s.SetTaskTagsContext(context.Background(), taskID, tagString)
}

// SetTaskTagsContext replaces a task's tag set with context support.
func (s *Store) SetTaskTagsContext(ctx context.Context, taskID int64, tagString string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?`, taskID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up task: %w", err)
	}

	if err := setTaskTags(ctx, tx, taskID, tagString); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTaskTags returns a task's tag names in insertion order.
func (s *Store) GetTaskTags(taskID int64) ([]string, error) {
	return s.GetTaskTagsContext(context.Background(), taskID)
}

// GetTaskTagsContext returns a task's tag names with context support.
func (s *Store) GetTaskTagsContext(ctx context.Context, taskID int64) ([]string, error) {
	query := `
	SELECT tg.name
	FROM task_tags tt
	JOIN tags tg ON tg.id = tt.tag_id
	WHERE tt.task_id = ?
	ORDER BY tt.rowid
	`

	rows, err := s.conn.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return names, nil
}
