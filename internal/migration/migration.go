package migration

import (
	"context"
	"fmt"

	"github.com/potencialpi/sentiment-cx/adapters/postgres"
	"github.com/potencialpi/sentiment-cx/internal/errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) (int, error)
	Version() int
}

// step is one schema change. Steps are applied in order and never edited once released.
type step struct {
	version int
	name    string
	sql     string
}

var steps = []step{
	{1, "create survey_responses", postgres.Schema},
	{2, "index responses by creation time",
		`CREATE INDEX IF NOT EXISTS idx_survey_responses_created_at ON survey_responses (survey_id, created_at)`},
}

const createVersionsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL
)`

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	logger *zap.Logger
}

var _ Migrator = (*MigrationRunner)(nil)

// NewRunner creates a new migration runner; a nil logger disables logging
func NewRunner(logger *zap.Logger) *MigrationRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationRunner{logger: logger}
}

// Version returns the schema version reached after Run
func (r *MigrationRunner) Version() int {
	return steps[len(steps)-1].version
}

// Run applies every pending step, each in its own transaction, and reports how many ran
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) (int, error) {
	if _, err := db.ExecContext(ctx, createVersionsTable); err != nil {
		return 0, errors.DatabaseError(err, "create schema_migrations")
	}

	current, err := r.Applied(ctx, db)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, s := range steps {
		if s.version <= current {
			continue
		}
		if err := r.apply(ctx, db, s); err != nil {
			return applied, errors.Wrap(err, fmt.Sprintf("migration %d (%s) failed", s.version, s.name))
		}
		applied++
		r.logger.Info("migration applied", zap.Int("version", s.version), zap.String("name", s.name))
	}
	return applied, nil
}

// Applied returns the highest applied version, 0 on a fresh database
func (r *MigrationRunner) Applied(ctx context.Context, db *sqlx.DB) (int, error) {
	var version int
	err := db.GetContext(ctx, &version, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err != nil {
		return 0, errors.DatabaseError(err, "read schema version")
	}
	return version, nil
}

func (r *MigrationRunner) apply(ctx context.Context, db *sqlx.DB, s step) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.sql); err != nil {
		return errors.DatabaseError(err, "exec")
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, CURRENT_TIMESTAMP)`),
		s.version, s.name)
	if err != nil {
		return errors.DatabaseError(err, "record version")
	}
	if err := tx.Commit(); err != nil {
		return errors.DatabaseError(err, "commit")
	}
	return nil
}
