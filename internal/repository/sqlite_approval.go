package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hawlion/ai-planner/internal/db"
	"github.com/hawlion/ai-planner/internal/domain"
)

const approvalColumns = `id, type, status, payload, reason, created_at, resolved_at`

// SQLiteApprovalRequestRepo implements ApprovalRequestRepo using a SQLite
// database.
type SQLiteApprovalRequestRepo struct {
	db db.DBTX
}

// NewSQLiteApprovalRequestRepo creates a new SQLiteApprovalRequestRepo.
func NewSQLiteApprovalRequestRepo(conn db.DBTX) *SQLiteApprovalRequestRepo {
	return &SQLiteApprovalRequestRepo{db: conn}
}

func (r *SQLiteApprovalRequestRepo) Create(ctx context.Context, req *domain.ApprovalRequest) error {
	query := `INSERT INTO approval_requests (` + approvalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		req.ID, string(req.Type), string(req.Status),
		marshalJSON(req.Payload, "{}"), req.Reason,
		req.CreatedAt.Format(time.RFC3339), nullableTimeToString(req.ResolvedAt, time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting approval request: %w", err)
	}
	return nil
}

func (r *SQLiteApprovalRequestRepo) Get(ctx context.Context, id string) (*domain.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	a, err := scanApprovalRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("approval request: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning approval request: %w", err)
	}
	return &a, nil
}

func (r *SQLiteApprovalRequestRepo) ListPending(ctx context.Context) ([]domain.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE status = 'pending' ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing pending approvals: %w", err)
	}
	defer rows.Close()
	return scanApprovals(rows)
}

// LatestPending returns the most recently created pending request of the
// given type, or ErrNotFound if none exists; satisfies approval.Store.
func (r *SQLiteApprovalRequestRepo) LatestPending(ctx context.Context, t domain.ApprovalType) (*domain.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests
		WHERE status = 'pending' AND type = ? ORDER BY created_at DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, string(t))
	a, err := scanApprovalRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("approval request: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning latest pending approval: %w", err)
	}
	return &a, nil
}

func (r *SQLiteApprovalRequestRepo) Resolve(ctx context.Context, id string, status domain.ApprovalStatus, resolvedAt time.Time) error {
	query := `UPDATE approval_requests SET status = ?, resolved_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, string(status), resolvedAt.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("resolving approval request: %w", err)
	}
	return nil
}

// Update persists req's mutable fields (status, reason, resolved_at);
// satisfies approval.Store for the state machine's resolve() path.
func (r *SQLiteApprovalRequestRepo) Update(ctx context.Context, req *domain.ApprovalRequest) error {
	query := `UPDATE approval_requests SET status = ?, reason = ?, resolved_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		string(req.Status), req.Reason, nullableTimeToString(req.ResolvedAt, time.RFC3339), req.ID,
	)
	if err != nil {
		return fmt.Errorf("updating approval request: %w", err)
	}
	return nil
}

func scanApprovalRow(s rowScanner) (domain.ApprovalRequest, error) {
	var a domain.ApprovalRequest
	var typeStr, statusStr, payloadJSON string
	var createdAtStr string
	var resolvedAtStr sql.NullString

	err := s.Scan(&a.ID, &typeStr, &statusStr, &payloadJSON, &a.Reason, &createdAtStr, &resolvedAtStr)
	if err != nil {
		return domain.ApprovalRequest{}, err
	}
	a.Type = domain.ApprovalType(typeStr)
	a.Status = domain.ApprovalStatus(statusStr)
	a.ResolvedAt = parseNullableTime(resolvedAtStr, time.RFC3339)
	if err := unmarshalJSON(payloadJSON, &a.Payload); err != nil {
		return domain.ApprovalRequest{}, err
	}
	a.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return domain.ApprovalRequest{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return a, nil
}

func scanApprovals(rows *sql.Rows) ([]domain.ApprovalRequest, error) {
	var out []domain.ApprovalRequest
	for rows.Next() {
		a, err := scanApprovalRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning approval row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating approvals: %w", err)
	}
	return out, nil
}
