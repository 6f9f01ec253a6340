package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hawlion/ai-planner/internal/db"
	"github.com/hawlion/ai-planner/internal/domain"
)

// SQLiteSyncStatusRepo implements SyncStatusRepo using a SQLite database.
type SQLiteSyncStatusRepo struct {
	db db.DBTX
}

// NewSQLiteSyncStatusRepo creates a new SQLiteSyncStatusRepo.
func NewSQLiteSyncStatusRepo(conn db.DBTX) *SQLiteSyncStatusRepo {
	return &SQLiteSyncStatusRepo{db: conn}
}

func (r *SQLiteSyncStatusRepo) Get(ctx context.Context) (*domain.SyncStatus, error) {
	query := `SELECT id, connected, last_success_at, last_throttle_at, recent_throttle_count
		FROM sync_status WHERE id = 'default'`
	row := r.db.QueryRowContext(ctx, query)

	var s domain.SyncStatus
	var connectedInt int
	var lastSuccessStr, lastThrottleStr sql.NullString

	err := row.Scan(&s.ID, &connectedInt, &lastSuccessStr, &lastThrottleStr, &s.RecentThrottleCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("sync status: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning sync status: %w", err)
	}
	s.Connected = intToBool(connectedInt)
	s.LastSuccessAt = parseNullableTime(lastSuccessStr, time.RFC3339)
	s.LastThrottleAt = parseNullableTime(lastThrottleStr, time.RFC3339)
	return &s, nil
}

func (r *SQLiteSyncStatusRepo) Upsert(ctx context.Context, s *domain.SyncStatus) error {
	query := `INSERT INTO sync_status (id, connected, last_success_at, last_throttle_at, recent_throttle_count)
		VALUES ('default', ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			connected = excluded.connected,
			last_success_at = excluded.last_success_at,
			last_throttle_at = excluded.last_throttle_at,
			recent_throttle_count = excluded.recent_throttle_count`
	_, err := r.db.ExecContext(ctx, query,
		boolToInt(s.Connected),
		nullableTimeToString(s.LastSuccessAt, time.RFC3339),
		nullableTimeToString(s.LastThrottleAt, time.RFC3339),
		s.RecentThrottleCount,
	)
	if err != nil {
		return fmt.Errorf("upserting sync status: %w", err)
	}
	return nil
}
