// Package sqlite implements the SQLite storage backend for the timeline.
// Blocks, entries and the category registry live in one database file under
// DataDir; every mutation runs in a single immediate transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

// DatabaseFile is the name of the database inside DataDir.
const DatabaseFile = "appendable.db"

var _ types.Timeline = (*Backend)(nil)

// Backend implements types.Timeline on top of SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	logger   *slog.Logger

	blocks     *blocksTable
	entries    *entriesTable
	categories *categoriesTable
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for engine events.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.blocks = &blocksTable{backend: b}
	b.entries = &entriesTable{backend: b}
	b.categories = &categoriesTable{backend: b}
	return b
}

// querier is the subset of *sql.DB and *sql.Tx used by the row helpers, so
// the same read-back query serves both transactional and plain reads.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Attach opens the database in config.DataDir, applies pending migrations
// and seeds the color palette on first run. Existing data is kept.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", dataSourceName(dbPath, config.SQLiteConfig))
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.GetOperationTimeout())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("connecting to %s: %w", dbPath, err)
	}
	if err := applyMigrations(ctx, db, migrationFS, migrationRoot); err != nil {
		db.Close()
		return fmt.Errorf("migrating schema: %w", err)
	}
	seeded, err := seedColors(ctx, db)
	if err != nil {
		db.Close()
		return fmt.Errorf("seeding colors: %w", err)
	}

	b.db = db
	b.config = config
	b.attached = true

	b.logger.Info("timeline attached",
		slog.String("path", dbPath),
		slog.Int("seeded_colors", seeded),
	)
	return nil
}

// Detach releases all resources held by the backend. After Detach every
// operation fails with ErrTimelineDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		if err != nil {
			return err
		}
	}
	b.logger.Info("timeline detached")
	return nil
}

// Blocks returns the block timeline.
func (b *Backend) Blocks() types.BlockTable { return b.blocks }

// Entries returns the entry tree.
func (b *Backend) Entries() types.EntryTable { return b.entries }

// Categories returns the project, color and tag registry.
func (b *Backend) Categories() types.CategoryTable { return b.categories }

// Ping checks that the backend is attached and the database answers.
func (b *Backend) Ping(ctx context.Context) error {
	return b.withDB(ctx, "ping", func(ctx context.Context, q querier) error {
		var one int
		return q.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	})
}

// withTx runs fn in one immediate transaction bounded by the operation
// timeout. Any error is classified into the engine taxonomy exactly once.
func (b *Backend) withTx(ctx context.Context, op string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return detachedError(op)
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.GetOperationTimeout())
	defer cancel()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return classify(op, err)
	}
	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	return nil
}

// withDB runs a read outside any explicit transaction.
func (b *Backend) withDB(ctx context.Context, op string, fn func(ctx context.Context, q querier) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return detachedError(op)
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.GetOperationTimeout())
	defer cancel()

	if err := fn(ctx, b.db); err != nil {
		return classify(op, err)
	}
	return nil
}

// dataSourceName builds the driver DSN. Transactions take the write lock at
// BEGIN so read-modify-write sequences never interleave.
func dataSourceName(dbPath string, cfg *types.SQLiteConfig) string {
	return fmt.Sprintf(
		"file:%s?_txlock=immediate&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(%s)",
		dbPath, cfg.GetBusyTimeout().Milliseconds(), cfg.GetJournalMode(),
	)
}

// generateUUID generates a new UUID v7 for entity IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// formatOptional renders a nullable timestamp column value.
func formatOptional(t *time.Time) any {
	if t == nil {
		return nil
	}
	return types.FormatTimestamp(*t)
}

// parseOptional decodes a nullable timestamp column.
func parseOptional(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := types.ParseTimestamp(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
