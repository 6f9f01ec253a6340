package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/hawlion/ai-planner/internal/db"
	"github.com/hawlion/ai-planner/internal/domain"
)

// SQLiteAuditRepo implements AuditRepo using a SQLite database.
type SQLiteAuditRepo struct {
	db db.DBTX
}

// NewSQLiteAuditRepo creates a new SQLiteAuditRepo.
func NewSQLiteAuditRepo(conn db.DBTX) *SQLiteAuditRepo {
	return &SQLiteAuditRepo{db: conn}
}

func (r *SQLiteAuditRepo) Append(ctx context.Context, e domain.AuditEntry) error {
	query := `INSERT INTO audit_entries (id, action, actor, object_ref, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Action, e.Actor, e.ObjectRef, marshalJSON(e.Meta, "{}"), e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

func (r *SQLiteAuditRepo) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	query := `SELECT id, action, actor, object_ref, meta, created_at
		FROM audit_entries ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent audit entries: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var metaJSON, createdAtStr string
		if err := rows.Scan(&e.ID, &e.Action, &e.Actor, &e.ObjectRef, &metaJSON, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if err := unmarshalJSON(metaJSON, &e.Meta); err != nil {
			return nil, err
		}
		e.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}
	return out, nil
}
