package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/lawnchairsociety/worldgen/internal/config"
	"github.com/lawnchairsociety/worldgen/internal/field"
)

// SQLStore keeps artifacts in an artifacts table of a SQLite or PostgreSQL
// database.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// OpenSQLite opens or creates the SQLite database at path.
func OpenSQLite(path string) (*SQLStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return openSQL(NewDialect(DialectSQLite), path)
}

// OpenPostgres connects to the PostgreSQL database described by cfg.
func OpenPostgres(cfg config.PostgresConfig) (*SQLStore, error) {
	s, err := openSQL(NewDialect(DialectPostgres), PostgresDSN(cfg))
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		s.db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		s.db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		s.db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	return s, nil
}

// PostgresDSN builds a lib/pq connection string.
func PostgresDSN(cfg config.PostgresConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)
}

func openSQL(dialect Dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}

	s := &SQLStore{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// migrate creates the schema if it doesn't exist.
func (s *SQLStore) migrate() error {
	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS artifacts (
			stage TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			data %s NOT NULL,
			created_at BIGINT NOT NULL,
			PRIMARY KEY (stage, fingerprint)
		)`, s.dialect.BlobType()),
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the artifact for key.
func (s *SQLStore) Load(ctx context.Context, key Key) (*field.ScalarField, error) {
	var width, height int
	var data []byte
	err := s.db.QueryRowContext(ctx,
		s.qb.Build(`SELECT width, height, data FROM artifacts WHERE stage = ? AND fingerprint = ?`),
		key.Stage, key.Fingerprint,
	).Scan(&width, &height, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	f, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if f.Width != width || f.Height != height {
		return nil, fmt.Errorf("load %s: stored as %dx%d, decoded %dx%d", key, width, height, f.Width, f.Height)
	}
	return f, nil
}

// Save upserts the artifact inside a transaction.
func (s *SQLStore) Save(ctx context.Context, key Key, f *field.ScalarField) error {
	data, err := encode(f)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.qb.Build(`
		INSERT INTO artifacts (stage, fingerprint, width, height, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (stage, fingerprint) DO UPDATE SET
			width = excluded.width,
			height = excluded.height,
			data = excluded.data,
			created_at = excluded.created_at
	`), key.Stage, key.Fingerprint, f.Width, f.Height, data, time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return tx.Commit()
}

// List returns every stored artifact ordered by stage, then fingerprint.
func (s *SQLStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, fingerprint, width, height, created_at FROM artifacts ORDER BY stage, fingerprint`)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.Stage, &e.Fingerprint, &e.Width, &e.Height, &created); err != nil {
			return nil, fmt.Errorf("list artifacts: %w", err)
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
