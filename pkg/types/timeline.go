package types

import (
	"context"
	"time"
)

// Timeline defines the backend-agnostic entry point to the interval store.
// Callers attach to a backend, use the typed tables, and detach when done.
type Timeline interface {
	// Attach connects the Timeline to the backend described by config.
	// Creates the DataDir if it does not exist and applies pending schema
	// migrations. Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	Detach() error

	Blocks() BlockTable
	Entries() EntryTable
	Categories() CategoryTable
}

// BlockTable is the top-level interval timeline. Insert closes the open
// block with the new block's start; no other operation auto-closes.
type BlockTable interface {
	Insert(ctx context.Context, in BlockInput) (*Block, error)
	Update(ctx context.Context, id string, in BlockInput) (*Block, error)
	// Delete hard-deletes the block and reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (*Block, error)
	// List returns blocks whose start lies strictly inside r, ascending.
	List(ctx context.Context, r TimeRange) ([]*Block, error)
	// NearestBefore returns the latest start strictly before t, or
	// ErrNotFound when nothing starts earlier.
	NearestBefore(ctx context.Context, t time.Time) (time.Time, error)
}

// EntryTable is the nested interval tree addressed by materialized paths.
type EntryTable interface {
	Insert(ctx context.Context, in EntryInput) (*Entry, error)
	Update(ctx context.Context, id string, in EntryInput) (*Entry, error)
	// Delete removes the entry, and its whole subtree when withChildren is
	// set. It reports whether the target entry existed.
	Delete(ctx context.Context, id string, withChildren bool) (bool, error)
	Get(ctx context.Context, id string) (*Entry, error)
	// List returns entries whose start lies strictly inside r, depth first.
	List(ctx context.Context, r TimeRange) ([]*Entry, error)
	NearestBefore(ctx context.Context, t time.Time) (time.Time, error)
}

// CategoryTable holds the flat reference tables: projects, colors, tags.
type CategoryTable interface {
	ListProjects(ctx context.Context) ([]*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	InsertProject(ctx context.Context, p Project) (*Project, error)
	UpdateProject(ctx context.Context, id string, p Project) (*Project, error)

	ListColors(ctx context.Context) ([]*Color, error)

	ListTags(ctx context.Context) ([]*Tag, error)
	InsertTag(ctx context.Context, t Tag) (*Tag, error)
	UpdateTag(ctx context.Context, id string, t Tag) (*Tag, error)
}

// TableCounts reports a per-table record count.
type TableCounts map[string]int

// Archiver dumps and restores every table as one JSONL file per table.
type Archiver interface {
	// Export writes <table>.jsonl files into dir.
	Export(ctx context.Context, dir string) (TableCounts, error)
	// Import replaces the stored data with the JSONL files found in dir.
	// Malformed lines are skipped; any other failure leaves the data as it was.
	Import(ctx context.Context, dir string) (TableCounts, error)
}
