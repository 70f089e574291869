package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shaurya-crypto/aanya-link/internal/domain"
	_ "modernc.org/sqlite"
)

// Fixed row names: the store keeps one record per concern, mirroring the
// single storage slots the browser client used.
const (
	slotRemoteKey = "aanya_remote_key"
	slotAuthToken = "token"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS credentials (
		slot TEXT PRIMARY KEY,
		key TEXT NOT NULL,
		expires_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS secrets (
		slot TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetCredential retrieves the stored pairing credential.
func (s *SQLiteStore) GetCredential(ctx context.Context) (*domain.PairingCredential, error) {
	query := `SELECT key, expires_at FROM credentials WHERE slot = ?`

	row := s.db.QueryRowContext(ctx, query, slotRemoteKey)

	var cred domain.PairingCredential
	var expiresAt int64

	err := row.Scan(&cred.Key, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan credential row: %w", err)
	}

	// Expiry is stored as epoch milliseconds, matching the record shape
	// the browser client persisted.
	cred.ExpiresAt = time.UnixMilli(expiresAt)
	return &cred, nil
}

// SaveCredential stores the pairing credential, replacing any previous one.
func (s *SQLiteStore) SaveCredential(ctx context.Context, cred *domain.PairingCredential) error {
	query := `
	INSERT INTO credentials (slot, key, expires_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(slot) DO UPDATE SET
		key = excluded.key,
		expires_at = excluded.expires_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		slotRemoteKey, cred.Key, cred.ExpiresAt.UnixMilli(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// DeleteCredential removes the stored pairing credential.
func (s *SQLiteStore) DeleteCredential(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE slot = ?`, slotRemoteKey); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// GetToken retrieves the backend auth token.
func (s *SQLiteStore) GetToken(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM secrets WHERE slot = ?`, slotAuthToken)

	var value string
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("scan token row: %w", err)
	}
	return value, nil
}

// SaveToken stores the backend auth token, replacing any previous one.
func (s *SQLiteStore) SaveToken(ctx context.Context, token string) error {
	query := `
	INSERT INTO secrets (slot, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(slot) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, slotAuthToken, token, time.Now().Unix()); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// DeleteToken removes the stored auth token.
func (s *SQLiteStore) DeleteToken(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM secrets WHERE slot = ?`, slotAuthToken); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
