// Package database manages the SQLite connection, schema migrations and the
// entity stores built on top of them.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // register the pure-Go sqlite driver

	"github.com/custodia-app/custodia/internal/logging"
)

//go:embed migrations
var migrationsFS embed.FS

// DB manages the database connection
type DB struct {
	conn   *sql.DB
	logger zerolog.Logger
	dbPath string
}

// New creates a new database connection using the provided options. URI-level
// parameters travel in the connection string; PRAGMA-backed settings are
// applied explicitly once the connection is established.
func New(opts SQLiteOptions) (*DB, error) {
	connStr := opts.buildConnectionString()
	logger := logging.GetLogger("database").With().Str("db_path", opts.Path).Logger()
	logger.Info().Str("connection_string", connStr).Msg("Opening database connection")
	conn, err := sql.Open("sqlite", connStr)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open database")
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = applyPragmas(conn, opts, logger); err != nil {
		conn.Close()
		return nil, err
	}

	// Ping to ensure the connection and PRAGMAs are valid
	if err = conn.Ping(); err != nil {
		logger.Error().Err(err).Msg("Failed to ping database after open and applying PRAGMAs")
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info().Msg("Database connection opened and configured successfully")

	return &DB{conn: conn, logger: logger, dbPath: opts.Path}, nil
}

// pragma is one PRAGMA to apply at connection time. An empty value means the
// option was left at its default and is skipped.
type pragma struct {
	name  string
	value string
}

// applyPragmas executes PRAGMA commands based on SQLiteOptions after the
// connection is opened. It attempts every configured PRAGMA and returns a
// combined error if one or more fail.
func applyPragmas(conn *sql.DB, opts SQLiteOptions, logger zerolog.Logger) error {
	boolValue := func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	}
	syncValue := func(mode SynchronousMode) string {
		switch mode {
		case SynchronousOff:
			return "0"
		case SynchronousNormal:
			return "1"
		case SynchronousFull:
			return "2"
		case SynchronousExtra:
			return "3"
		default:
			return ""
		}
	}
	intValue := func(n int) string {
		if n == 0 {
			return ""
		}
		return fmt.Sprintf("%d", n)
	}

	pragmas := []pragma{
		{"journal_mode", string(opts.Journal)},
		{"busy_timeout", fmt.Sprintf("%d", opts.BusyTimeout)}, // always set
		{"foreign_keys", boolValue(opts.ForeignKeys)},         // always set
		{"synchronous", syncValue(opts.Synchronous)},
		{"cache_size", intValue(opts.CacheSize)},
		{"locking_mode", string(opts.LockingMode)},
		{"auto_vacuum", opts.AutoVacuum},
		{"case_sensitive_like", boolValue(opts.CaseSensitiveLike)},
		{"defer_foreign_keys", boolValue(opts.DeferForeignKeys)},
		{"query_only", boolValue(opts.QueryOnly)},
		{"recursive_triggers", boolValue(opts.RecursiveTriggers)},
		{"secure_delete", opts.SecureDelete},
	}
	// Bool pragmas that default to off don't need an explicit "0".
	skippableOff := map[string]bool{
		"case_sensitive_like": !opts.CaseSensitiveLike,
		"defer_foreign_keys":  !opts.DeferForeignKeys,
		"query_only":          !opts.QueryOnly,
		"recursive_triggers":  !opts.RecursiveTriggers,
	}

	var errs []error
	for _, p := range pragmas {
		if p.value == "" || skippableOff[p.name] {
			continue
		}
		query := fmt.Sprintf("PRAGMA %s = %s;", p.name, p.value)
		logger.Debug().Str("pragma", p.name).Str("value", p.value).Msg("Applying PRAGMA")
		if _, err := conn.Exec(query); err != nil {
			logger.Error().Err(err).Str("pragma", p.name).Str("attempted_value", p.value).Msg("Failed to apply PRAGMA")
			errs = append(errs, fmt.Errorf("failed to apply PRAGMA %s=%s: %w", p.name, p.value, err))
		}
	}
	return errors.Join(errs...)
}

// Conn returns the underlying database connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// beginTx starts a new database transaction with the given options
func (db *DB) beginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	db.logger.Debug().Msg("Starting database transaction")
	tx, err := db.conn.BeginTx(ctx, opts)
	if err != nil {
		db.logger.Error().Err(err).Msg("Failed to start database transaction")
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

// WithTransaction executes a function within a database transaction.
// If the function returns an error, the transaction is rolled back;
// otherwise it is committed. Every overlap-check-then-write sequence in the
// service layer runs through here so two concurrent requests can't both pass
// a guard before either commits.
func (db *DB) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.beginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			db.logger.Error().Interface("panic", p).Msg("Panic occurred during transaction, rolling back")
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				db.logger.Error().Err(rollbackErr).Msg("Failed to rollback transaction during panic recovery")
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		db.logger.Debug().Err(err).Msg("Transaction function returned error, rolling back")
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			db.logger.Error().Err(rollbackErr).Msg("Failed to rollback transaction")
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rollbackErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		db.logger.Error().Err(err).Msg("Failed to commit transaction")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	db.logger.Info().Msg("Closing database connection")
	if err := db.conn.Close(); err != nil {
		db.logger.Error().Err(err).Msg("Failed to close database connection")
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// MigrateDatabase applies all pending schema migrations
func (db *DB) MigrateDatabase() error {
	db.logger.Info().Msg("Starting database migration")
	driver, err := sqlitemigrate.WithInstance(db.conn, &sqlitemigrate.Config{})
	if err != nil {
		db.logger.Error().Err(err).Msg("Failed to create database driver for migration")
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	subFS, err := fs.Sub(migrationsFS, "migrations/sqlite")
	if err != nil {
		db.logger.Error().Err(err).Msg("Failed to create sub-filesystem for migrations")
		return fmt.Errorf("failed to create sub-filesystem: %w", err)
	}

	sourceInstance, err := iofs.New(subFS, ".")
	if err != nil {
		db.logger.Error().Err(err).Msg("Failed to create embedded file source for migration")
		return fmt.Errorf("failed to create embedded file source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceInstance, "sqlite", driver)
	if err != nil {
		db.logger.Error().Err(err).Msg("Failed to create migrator instance")
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		db.logger.Error().Err(err).Msg("Failed to get current migration version")
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	db.logger.Info().Uint("current_version", currentVersion).Bool("dirty", dirty).Msg("Current database migration version")

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		db.logger.Error().Err(upErr).Msg("Failed to apply migrations")
		return fmt.Errorf("failed to run migrations: %w", upErr)
	}

	newVersion, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		db.logger.Error().Err(err).Msg("Failed to get migration version after applying migrations")
		// Migration might have partially succeeded, don't fail here
	}

	if upErr == migrate.ErrNoChange {
		db.logger.Info().Msg("No new migrations to apply")
	} else {
		db.logger.Info().Uint("previous_version", currentVersion).Uint("new_version", newVersion).Bool("dirty", dirty).Msg("Migrations applied successfully")
	}

	return nil
}
