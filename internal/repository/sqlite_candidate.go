package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hawlion/ai-planner/internal/db"
	"github.com/hawlion/ai-planner/internal/domain"
)

const candidateColumns = `id, meeting_id, title, assignee_name, due, effort_min,
	confidence, rationale, status, linked_task_id`

// SQLiteActionItemCandidateRepo implements ActionItemCandidateRepo using a
// SQLite database.
type SQLiteActionItemCandidateRepo struct {
	db db.DBTX
}

// NewSQLiteActionItemCandidateRepo creates a new SQLiteActionItemCandidateRepo.
func NewSQLiteActionItemCandidateRepo(conn db.DBTX) *SQLiteActionItemCandidateRepo {
	return &SQLiteActionItemCandidateRepo{db: conn}
}

func (r *SQLiteActionItemCandidateRepo) Create(ctx context.Context, c *domain.ActionItemCandidate) error {
	query := `INSERT INTO action_item_candidates (` + candidateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.MeetingID, c.Title, c.AssigneeName,
		nullableTimeToString(c.Due, time.RFC3339), c.EffortMin,
		c.Confidence, c.Rationale, string(c.Status), c.LinkedTaskID,
	)
	if err != nil {
		return fmt.Errorf("inserting action item candidate: %w", err)
	}
	return nil
}

func (r *SQLiteActionItemCandidateRepo) Get(ctx context.Context, id string) (*domain.ActionItemCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM action_item_candidates WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	c, err := scanCandidateRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("action item candidate: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning action item candidate: %w", err)
	}
	return &c, nil
}

func (r *SQLiteActionItemCandidateRepo) ListByMeeting(ctx context.Context, meetingID string) ([]domain.ActionItemCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM action_item_candidates WHERE meeting_id = ?`
	rows, err := r.db.QueryContext(ctx, query, meetingID)
	if err != nil {
		return nil, fmt.Errorf("listing candidates by meeting: %w", err)
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func (r *SQLiteActionItemCandidateRepo) ListPending(ctx context.Context) ([]domain.ActionItemCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM action_item_candidates WHERE status = 'pending'`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing pending candidates: %w", err)
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func (r *SQLiteActionItemCandidateRepo) UpdateStatus(ctx context.Context, id string, status domain.CandidateStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE action_item_candidates SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("updating candidate status: %w", err)
	}
	return nil
}

func (r *SQLiteActionItemCandidateRepo) LinkTask(ctx context.Context, candidateID, taskID string) error {
	query := `UPDATE action_item_candidates SET status = 'approved', linked_task_id = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, taskID, candidateID)
	if err != nil {
		return fmt.Errorf("linking candidate to task: %w", err)
	}
	return nil
}

func scanCandidateRow(s rowScanner) (domain.ActionItemCandidate, error) {
	var c domain.ActionItemCandidate
	var dueStr sql.NullString
	var statusStr string

	err := s.Scan(
		&c.ID, &c.MeetingID, &c.Title, &c.AssigneeName, &dueStr, &c.EffortMin,
		&c.Confidence, &c.Rationale, &statusStr, &c.LinkedTaskID,
	)
	if err != nil {
		return domain.ActionItemCandidate{}, err
	}
	c.Status = domain.CandidateStatus(statusStr)
	c.Due = parseNullableTime(dueStr, time.RFC3339)
	return c, nil
}

func scanCandidates(rows *sql.Rows) ([]domain.ActionItemCandidate, error) {
	var out []domain.ActionItemCandidate
	for rows.Next() {
		c, err := scanCandidateRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning candidate row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}
	return out, nil
}
