package migration

import (
	"context"

	"goethos/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the survey schema. Every step is idempotent.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createSurveySessionsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create survey_sessions table")
	}

	if err := r.createSurveyResponsesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create survey_responses table")
	}

	if err := r.addResponseTimingColumns(ctx, db); err != nil {
		return errors.Wrap(err, "failed to add survey_responses timing columns")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createSurveySessionsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS survey_sessions (
			id UUID PRIMARY KEY,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createSurveyResponsesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS survey_responses (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES survey_sessions(id) ON DELETE CASCADE,
			dilemma_id VARCHAR(255) NOT NULL DEFAULT '',
			chosen_option VARCHAR(32) NOT NULL,
			reasoning TEXT NOT NULL DEFAULT '',
			domain VARCHAR(100) NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

// Difficulty and latency were collected after the first survey release
func (r *MigrationRunner) addResponseTimingColumns(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'survey_responses' AND column_name = 'perceived_difficulty'
			) THEN
				ALTER TABLE survey_responses ADD COLUMN perceived_difficulty INTEGER NOT NULL DEFAULT 0
					CHECK (perceived_difficulty BETWEEN 0 AND 10);
			END IF;

			IF NOT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'survey_responses' AND column_name = 'response_time_ms'
			) THEN
				ALTER TABLE survey_responses ADD COLUMN response_time_ms BIGINT NOT NULL DEFAULT 0
					CHECK (response_time_ms >= 0);
			END IF;
		END $$;
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_survey_responses_session ON survey_responses(session_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_survey_responses_domain ON survey_responses(session_id, domain)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
