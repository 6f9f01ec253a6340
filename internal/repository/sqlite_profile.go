package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hawlion/ai-planner/internal/db"
	"github.com/hawlion/ai-planner/internal/domain"
)

// SQLiteProfileRepo implements ProfileRepo using a SQLite database.
type SQLiteProfileRepo struct {
	db db.DBTX
}

// NewSQLiteProfileRepo creates a new SQLiteProfileRepo.
func NewSQLiteProfileRepo(conn db.DBTX) *SQLiteProfileRepo {
	return &SQLiteProfileRepo{db: conn}
}

func (r *SQLiteProfileRepo) Get(ctx context.Context) (*domain.Profile, error) {
	query := `SELECT id, timezone, autonomy, work_windows, lunch, deep_work, version
		FROM profile WHERE id = 'default'`
	row := r.db.QueryRowContext(ctx, query)

	var p domain.Profile
	var autonomyStr, workWindowsJSON, lunchJSON, deepWorkJSON string

	err := row.Scan(&p.ID, &p.Timezone, &autonomyStr, &workWindowsJSON, &lunchJSON, &deepWorkJSON, &p.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("profile: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	p.Autonomy = domain.AutonomyLevel(autonomyStr)
	if err := unmarshalJSON(workWindowsJSON, &p.WorkWindows); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(lunchJSON, &p.Lunch); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(deepWorkJSON, &p.DeepWork); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLiteProfileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	query := `INSERT INTO profile (id, timezone, autonomy, work_windows, lunch, deep_work, version)
		VALUES ('default', ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			timezone = excluded.timezone,
			autonomy = excluded.autonomy,
			work_windows = excluded.work_windows,
			lunch = excluded.lunch,
			deep_work = excluded.deep_work,
			version = profile.version + 1`
	_, err := r.db.ExecContext(ctx, query,
		p.Timezone, string(p.Autonomy),
		marshalJSON(p.WorkWindows, "[]"), marshalJSON(p.Lunch, "[]"), marshalJSON(p.DeepWork, "[]"),
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	p.Version++
	return nil
}
