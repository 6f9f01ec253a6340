package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hawlion/ai-planner/internal/db"
	"github.com/hawlion/ai-planner/internal/domain"
)

const proposalColumns = `id, strategy, status, horizon_start, horizon_end, explanation,
	lateness_minutes, deep_work_minutes, changes_count, objective_value, created_at`

const changeColumns = `id, proposal_id, kind, block_type, title, start, end, task_id`

// SQLiteSchedulingProposalRepo implements SchedulingProposalRepo using a
// SQLite database; satisfies executor.ProposalStore.
type SQLiteSchedulingProposalRepo struct {
	db db.DBTX
}

// NewSQLiteSchedulingProposalRepo creates a new SQLiteSchedulingProposalRepo.
func NewSQLiteSchedulingProposalRepo(conn db.DBTX) *SQLiteSchedulingProposalRepo {
	return &SQLiteSchedulingProposalRepo{db: conn}
}

func (r *SQLiteSchedulingProposalRepo) Create(ctx context.Context, p *domain.SchedulingProposal) error {
	query := `INSERT INTO scheduling_proposals (` + proposalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, string(p.Strategy), string(p.Status),
		p.HorizonStart.Format(time.RFC3339), p.HorizonEnd.Format(time.RFC3339),
		p.Explanation, p.LatenessMinutes, p.DeepWorkMinutes, p.ChangesCount,
		p.ObjectiveValue, p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting scheduling proposal: %w", err)
	}
	for _, c := range p.Changes {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO scheduling_changes (`+changeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, p.ID, string(c.Kind), string(c.BlockType), c.Title,
			c.Start.Format(time.RFC3339), c.End.Format(time.RFC3339), c.TaskID,
		); err != nil {
			return fmt.Errorf("inserting scheduling change: %w", err)
		}
	}
	return nil
}

func (r *SQLiteSchedulingProposalRepo) Get(ctx context.Context, id string) (*domain.SchedulingProposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM scheduling_proposals WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var p domain.SchedulingProposal
	var strategyStr, statusStr string
	var horizonStartStr, horizonEndStr, createdAtStr string

	err := row.Scan(&p.ID, &strategyStr, &statusStr, &horizonStartStr, &horizonEndStr,
		&p.Explanation, &p.LatenessMinutes, &p.DeepWorkMinutes, &p.ChangesCount,
		&p.ObjectiveValue, &createdAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("scheduling proposal: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning scheduling proposal: %w", err)
	}
	p.Strategy = domain.Strategy(strategyStr)
	p.Status = domain.ProposalStatus(statusStr)
	p.HorizonStart, err = time.Parse(time.RFC3339, horizonStartStr)
	if err != nil {
		return nil, fmt.Errorf("parsing horizon_start: %w", err)
	}
	p.HorizonEnd, err = time.Parse(time.RFC3339, horizonEndStr)
	if err != nil {
		return nil, fmt.Errorf("parsing horizon_end: %w", err)
	}
	p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	changeRows, err := r.db.QueryContext(ctx,
		`SELECT `+changeColumns+` FROM scheduling_changes WHERE proposal_id = ? ORDER BY start`, id)
	if err != nil {
		return nil, fmt.Errorf("listing scheduling changes: %w", err)
	}
	defer changeRows.Close()
	for changeRows.Next() {
		var c domain.SchedulingChange
		var kindStr, blockTypeStr, startStr, endStr string
		if err := changeRows.Scan(&c.ID, &c.ProposalID, &kindStr, &blockTypeStr, &c.Title, &startStr, &endStr, &c.TaskID); err != nil {
			return nil, fmt.Errorf("scanning scheduling change: %w", err)
		}
		c.Kind = domain.ChangeKind(kindStr)
		c.BlockType = domain.BlockType(blockTypeStr)
		c.Start, err = time.Parse(time.RFC3339, startStr)
		if err != nil {
			return nil, fmt.Errorf("parsing change start: %w", err)
		}
		c.End, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			return nil, fmt.Errorf("parsing change end: %w", err)
		}
		p.Changes = append(p.Changes, c)
	}
	if err := changeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scheduling changes: %w", err)
	}
	return &p, nil
}

func (r *SQLiteSchedulingProposalRepo) MarkApplied(ctx context.Context, proposalID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE scheduling_proposals SET status = 'applied' WHERE id = ?`, proposalID)
	if err != nil {
		return fmt.Errorf("marking proposal applied: %w", err)
	}
	return nil
}
