package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hawlion/ai-planner/internal/db"
	"github.com/hawlion/ai-planner/internal/domain"
)

const calendarBlockColumns = `id, type, title, start, end, task_id, locked, source,
	external_event_id, version`

// SQLiteCalendarBlockRepo implements CalendarBlockRepo using a SQLite
// database. It also satisfies scheduler.ApplierStore directly.
type SQLiteCalendarBlockRepo struct {
	db db.DBTX
}

// NewSQLiteCalendarBlockRepo creates a new SQLiteCalendarBlockRepo.
func NewSQLiteCalendarBlockRepo(conn db.DBTX) *SQLiteCalendarBlockRepo {
	return &SQLiteCalendarBlockRepo{db: conn}
}

func (r *SQLiteCalendarBlockRepo) CreateBlock(ctx context.Context, block domain.CalendarBlock) error {
	query := `INSERT INTO calendar_blocks (` + calendarBlockColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		block.ID, string(block.Type), block.Title,
		block.Start.Format(time.RFC3339), block.End.Format(time.RFC3339),
		block.TaskID, boolToInt(block.Locked), string(block.Source),
		block.ExternalEventID, block.Version,
	)
	if err != nil {
		return fmt.Errorf("inserting calendar block: %w", err)
	}
	return nil
}

// UpdateBlock persists a block's mutable fields (title/start/end/task_id/
// external_event_id) and writes block.Version exactly as the caller set it;
// the repo does not increment it. Used by move_event/update_event.
func (r *SQLiteCalendarBlockRepo) UpdateBlock(ctx context.Context, block domain.CalendarBlock) error {
	query := `UPDATE calendar_blocks SET title = ?, start = ?, end = ?, task_id = ?,
		external_event_id = ?, version = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		block.Title, block.Start.Format(time.RFC3339), block.End.Format(time.RFC3339),
		block.TaskID, block.ExternalEventID, block.Version, block.ID,
	)
	if err != nil {
		return fmt.Errorf("updating calendar block: %w", err)
	}
	return nil
}

func (r *SQLiteCalendarBlockRepo) BlocksIntersectingHorizon(ctx context.Context, start, end time.Time) ([]domain.CalendarBlock, error) {
	query := `SELECT ` + calendarBlockColumns + ` FROM calendar_blocks
		WHERE start < ? AND end > ? ORDER BY start`
	rows, err := r.db.QueryContext(ctx, query, end.Format(time.RFC3339), start.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("listing blocks intersecting horizon: %w", err)
	}
	defer rows.Close()
	return scanCalendarBlocks(rows)
}

func (r *SQLiteCalendarBlockRepo) ActiveNonExternalAfter(ctx context.Context, after time.Time) ([]domain.CalendarBlock, error) {
	query := `SELECT ` + calendarBlockColumns + ` FROM calendar_blocks
		WHERE source != 'external' AND end > ? ORDER BY start`
	rows, err := r.db.QueryContext(ctx, query, after.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("listing active non-external blocks: %w", err)
	}
	defer rows.Close()
	return scanCalendarBlocks(rows)
}

func (r *SQLiteCalendarBlockRepo) MarkApplied(ctx context.Context, proposalID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE scheduling_proposals SET status = 'applied' WHERE id = ?`, proposalID)
	if err != nil {
		return fmt.Errorf("marking proposal applied: %w", err)
	}
	return nil
}

func (r *SQLiteCalendarBlockRepo) Delete(ctx context.Context, blockID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM calendar_blocks WHERE id = ?`, blockID)
	if err != nil {
		return fmt.Errorf("deleting calendar block: %w", err)
	}
	return nil
}

// DetachTask clears task_id on every block owned by taskID (setting it to
// NULL rather than reassigning it), used by delete_task so the task's
// calendar history survives as unlinked blocks instead of being deleted.
func (r *SQLiteCalendarBlockRepo) DetachTask(ctx context.Context, taskID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE calendar_blocks SET task_id = NULL, version = version + 1 WHERE task_id = ?`, taskID)
	if err != nil {
		return 0, fmt.Errorf("detaching calendar blocks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting detached blocks: %w", err)
	}
	return int(n), nil
}

func (r *SQLiteCalendarBlockRepo) ReassignTask(ctx context.Context, fromTaskID, toTaskID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE calendar_blocks SET task_id = ?, version = version + 1 WHERE task_id = ?`,
		toTaskID, fromTaskID)
	if err != nil {
		return 0, fmt.Errorf("reassigning calendar blocks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting reassigned blocks: %w", err)
	}
	return int(n), nil
}

func scanCalendarBlockRow(s rowScanner) (domain.CalendarBlock, error) {
	var b domain.CalendarBlock
	var typeStr, sourceStr string
	var startStr, endStr string
	var lockedInt int

	err := s.Scan(
		&b.ID, &typeStr, &b.Title, &startStr, &endStr,
		&b.TaskID, &lockedInt, &sourceStr, &b.ExternalEventID, &b.Version,
	)
	if err != nil {
		return domain.CalendarBlock{}, err
	}
	b.Type = domain.BlockType(typeStr)
	b.Source = domain.BlockSource(sourceStr)
	b.Locked = intToBool(lockedInt)

	b.Start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		return domain.CalendarBlock{}, fmt.Errorf("parsing start: %w", err)
	}
	b.End, err = time.Parse(time.RFC3339, endStr)
	if err != nil {
		return domain.CalendarBlock{}, fmt.Errorf("parsing end: %w", err)
	}
	return b, nil
}

func scanCalendarBlocks(rows *sql.Rows) ([]domain.CalendarBlock, error) {
	var out []domain.CalendarBlock
	for rows.Next() {
		b, err := scanCalendarBlockRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning calendar block row: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating calendar blocks: %w", err)
	}
	return out, nil
}
