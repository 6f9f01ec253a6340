package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hawlion/ai-planner/internal/db"
	"github.com/hawlion/ai-planner/internal/domain"
)

const meetingColumns = `id, title, started_at, ended_at, summary, transcript, extraction_status`

// SQLiteMeetingRepo implements MeetingRepo using a SQLite database.
type SQLiteMeetingRepo struct {
	db db.DBTX
}

// NewSQLiteMeetingRepo creates a new SQLiteMeetingRepo.
func NewSQLiteMeetingRepo(conn db.DBTX) *SQLiteMeetingRepo {
	return &SQLiteMeetingRepo{db: conn}
}

func (r *SQLiteMeetingRepo) Create(ctx context.Context, m *domain.Meeting) error {
	query := `INSERT INTO meetings (` + meetingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Title, m.StartedAt.Format(time.RFC3339),
		nullableTimeToString(m.EndedAt, time.RFC3339), m.Summary,
		marshalJSON(m.Transcript, "[]"), string(m.ExtractionStatus),
	)
	if err != nil {
		return fmt.Errorf("inserting meeting: %w", err)
	}
	return nil
}

func (r *SQLiteMeetingRepo) Get(ctx context.Context, id string) (*domain.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var m domain.Meeting
	var startedAtStr string
	var endedAtStr sql.NullString
	var statusStr, transcriptJSON string

	err := row.Scan(&m.ID, &m.Title, &startedAtStr, &endedAtStr, &m.Summary, &transcriptJSON, &statusStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("meeting: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning meeting: %w", err)
	}
	m.ExtractionStatus = domain.MeetingExtractionStatus(statusStr)
	m.EndedAt = parseNullableTime(endedAtStr, time.RFC3339)
	if err := unmarshalJSON(transcriptJSON, &m.Transcript); err != nil {
		return nil, err
	}
	m.StartedAt, err = time.Parse(time.RFC3339, startedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	return &m, nil
}

func (r *SQLiteMeetingRepo) UpdateExtractionStatus(ctx context.Context, id string, status domain.MeetingExtractionStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE meetings SET extraction_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("updating meeting extraction status: %w", err)
	}
	return nil
}
