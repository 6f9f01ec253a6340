package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS profile (
		id          TEXT PRIMARY KEY DEFAULT 'default',
		timezone    TEXT NOT NULL DEFAULT 'UTC',
		autonomy    TEXT NOT NULL DEFAULT 'L1'
		            CHECK(autonomy IN ('L0','L1','L2','L3','L4')),
		work_windows TEXT NOT NULL DEFAULT '[]',
		lunch        TEXT NOT NULL DEFAULT '[]',
		deep_work    TEXT NOT NULL DEFAULT '[]',
		version      INTEGER NOT NULL DEFAULT 1
	)`,

	`INSERT OR IGNORE INTO profile (id) VALUES ('default')`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'todo'
		            CHECK(status IN ('todo','in_progress','done','blocked','canceled')),
		priority    TEXT NOT NULL DEFAULT 'medium'
		            CHECK(priority IN ('low','medium','high','critical')),
		due         TEXT,
		effort_min  INTEGER NOT NULL DEFAULT 30,
		project_id  TEXT,
		origin      TEXT NOT NULL DEFAULT 'manual'
		            CHECK(origin IN ('manual','meeting','chat','external')),
		source_ref  TEXT,
		version     INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due)`,

	`CREATE TABLE IF NOT EXISTS calendar_blocks (
		id                TEXT PRIMARY KEY,
		type              TEXT NOT NULL
		                  CHECK(type IN ('task_block','focus_block','buffer','personal','other')),
		title             TEXT NOT NULL DEFAULT '',
		start             TEXT NOT NULL,
		end               TEXT NOT NULL,
		task_id           TEXT REFERENCES tasks(id) ON DELETE SET NULL,
		locked            INTEGER NOT NULL DEFAULT 0,
		source            TEXT NOT NULL DEFAULT 'aawo'
		                  CHECK(source IN ('aawo','external')),
		external_event_id TEXT,
		version           INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE INDEX IF NOT EXISTS idx_blocks_start_end ON calendar_blocks(start, end)`,
	`CREATE INDEX IF NOT EXISTS idx_blocks_task ON calendar_blocks(task_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_blocks_external_event
		ON calendar_blocks(external_event_id) WHERE external_event_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS meetings (
		id                TEXT PRIMARY KEY,
		title             TEXT NOT NULL,
		started_at        TEXT NOT NULL,
		ended_at          TEXT,
		summary           TEXT NOT NULL DEFAULT '',
		transcript        TEXT NOT NULL DEFAULT '[]',
		extraction_status TEXT NOT NULL DEFAULT 'pending'
		                  CHECK(extraction_status IN ('pending','completed','failed'))
	)`,

	`CREATE TABLE IF NOT EXISTS action_item_candidates (
		id             TEXT PRIMARY KEY,
		meeting_id     TEXT NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
		title          TEXT NOT NULL,
		assignee_name  TEXT,
		due            TEXT,
		effort_min     INTEGER NOT NULL DEFAULT 30,
		confidence     REAL NOT NULL DEFAULT 0,
		rationale      TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'pending'
		               CHECK(status IN ('pending','approved','rejected')),
		linked_task_id TEXT REFERENCES tasks(id) ON DELETE SET NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_candidates_meeting ON action_item_candidates(meeting_id)`,

	`CREATE TABLE IF NOT EXISTS approval_requests (
		id          TEXT PRIMARY KEY,
		type        TEXT NOT NULL
		            CHECK(type IN ('action_item','reschedule','chat_pending_action','chat_clarification','other')),
		status      TEXT NOT NULL DEFAULT 'pending'
		            CHECK(status IN ('pending','approved','rejected')),
		payload     TEXT NOT NULL DEFAULT '{}',
		reason      TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		resolved_at TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_approvals_status ON approval_requests(status)`,

	`CREATE TABLE IF NOT EXISTS scheduling_proposals (
		id                TEXT PRIMARY KEY,
		strategy          TEXT NOT NULL
		                  CHECK(strategy IN ('stable','urgent','focus')),
		status            TEXT NOT NULL DEFAULT 'draft'
		                  CHECK(status IN ('draft','applied','rejected')),
		horizon_start     TEXT NOT NULL,
		horizon_end       TEXT NOT NULL,
		explanation       TEXT NOT NULL DEFAULT '',
		lateness_minutes  REAL NOT NULL DEFAULT 0,
		deep_work_minutes REAL NOT NULL DEFAULT 0,
		changes_count     INTEGER NOT NULL DEFAULT 0,
		objective_value   REAL NOT NULL DEFAULT 0,
		created_at        TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS scheduling_changes (
		id          TEXT PRIMARY KEY,
		proposal_id TEXT NOT NULL REFERENCES scheduling_proposals(id) ON DELETE CASCADE,
		kind        TEXT NOT NULL DEFAULT 'create_block',
		block_type  TEXT NOT NULL
		            CHECK(block_type IN ('task_block','focus_block','buffer','personal','other')),
		title       TEXT NOT NULL DEFAULT '',
		start       TEXT NOT NULL,
		end         TEXT NOT NULL,
		task_id     TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_changes_proposal ON scheduling_changes(proposal_id)`,

	`CREATE TABLE IF NOT EXISTS sync_status (
		id                    TEXT PRIMARY KEY DEFAULT 'default',
		connected             INTEGER NOT NULL DEFAULT 0,
		last_success_at       TEXT,
		last_throttle_at      TEXT,
		recent_throttle_count INTEGER NOT NULL DEFAULT 0
	)`,

	`INSERT OR IGNORE INTO sync_status (id) VALUES ('default')`,

	`CREATE TABLE IF NOT EXISTS audit_entries (
		id         TEXT PRIMARY KEY,
		action     TEXT NOT NULL,
		actor      TEXT NOT NULL DEFAULT 'assistant',
		object_ref TEXT NOT NULL DEFAULT '',
		meta       TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_entries(created_at)`,
}
