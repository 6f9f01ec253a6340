package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hawlion/ai-planner/internal/db"
	"github.com/hawlion/ai-planner/internal/domain"
)

// taskColumns is the canonical SELECT column list for tasks.
const taskColumns = `id, title, description, status, priority, due, effort_min,
	project_id, origin, source_ref, version, created_at, updated_at`

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn}
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority),
		nullableTimeToString(t.Due, time.RFC3339), t.EffortMin,
		t.ProjectID, string(t.Origin), t.SourceRef, t.Version,
		t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?,
		due = ?, effort_min = ?, project_id = ?, origin = ?, source_ref = ?,
		version = version + 1, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		t.Title, t.Description, string(t.Status), string(t.Priority),
		nullableTimeToString(t.Due, time.RFC3339), t.EffortMin,
		t.ProjectID, string(t.Origin), t.SourceRef,
		t.UpdatedAt.Format(time.RFC3339), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	t.Version++
	return nil
}

func (r *SQLiteTaskRepo) Get(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanTask(row)
}

func (r *SQLiteTaskRepo) ListByStatus(ctx context.Context, statuses []domain.TaskStatus) ([]domain.Task, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE status IN (` +
		strings.Join(placeholders, ",") + `) ORDER BY due IS NULL, due, created_at`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks by status: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *SQLiteTaskRepo) RecentForContext(ctx context.Context, limit int) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY updated_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}

func scanTaskRow(s rowScanner) (domain.Task, error) {
	var t domain.Task
	var statusStr, priorityStr, originStr string
	var dueStr sql.NullString
	var createdAtStr, updatedAtStr string

	err := s.Scan(
		&t.ID, &t.Title, &t.Description, &statusStr, &priorityStr, &dueStr, &t.EffortMin,
		&t.ProjectID, &originStr, &t.SourceRef, &t.Version, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return domain.Task{}, err
	}
	t.Status = domain.TaskStatus(statusStr)
	t.Priority = domain.Priority(priorityStr)
	t.Origin = domain.TaskOrigin(originStr)
	t.Due = parseNullableTime(dueStr, time.RFC3339)

	t.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return domain.Task{}, fmt.Errorf("parsing created_at: %w", err)
	}
	t.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return domain.Task{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return t, nil
}

func scanTask(row *sql.Row) (*domain.Task, error) {
	t, err := scanTaskRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]domain.Task, error) {
	var out []domain.Task
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return out, nil
}
