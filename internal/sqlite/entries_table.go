// This file implements the entry tree: materialized paths fixed at creation,
// stack-discipline closing by nesting, and prefix-scan subtree deletes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

var _ types.EntryTable = (*entriesTable)(nil)

type entriesTable struct {
	backend *Backend
}

// Insert opens a new entry under its parent. Every open entry at the same or
// a deeper nesting level is closed at the new entry's start.
func (et *entriesTable) Insert(ctx context.Context, in types.EntryInput) (*types.Entry, error) {
	if err := in.ValidateInsert(); err != nil {
		return nil, err
	}
	start := types.NormalizeTime(in.StartTimestamp)
	id := generateUUID()

	var (
		entry  *types.Entry
		closed int
	)
	err := et.backend.withTx(ctx, "inserting entry", func(ctx context.Context, tx *sql.Tx) error {
		var parent *types.Entry
		if in.Parent != nil {
			p, err := selectEntry(ctx, tx, *in.Parent)
			if errors.Is(err, sql.ErrNoRows) {
				return types.Invalid("parent entry " + *in.Parent + " does not exist")
			}
			if err != nil {
				return err
			}
			parent = p
		}
		path, nesting := types.ChildPosition(parent)

		var err error
		closed, err = closeOpenEntries(ctx, tx, nesting, start)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entries (entry_id, parent, path, nesting, start_timestamp, end_timestamp,
			text, show_todo, is_done, estimated_duration) VALUES (?, ?, ?, ?, ?, NULL, ?, ?, ?, ?)`,
			id, nullableID(in.Parent), path, nesting, types.FormatTimestamp(start),
			in.Text, boolInt(in.ShowTodo), boolInt(in.IsDone), in.EstimatedDuration,
		); err != nil {
			return fmt.Errorf("inserting entry %s: %w", id, err)
		}
		if err := entryTags.replaceTags(ctx, tx, id, in.TagIDs); err != nil {
			return err
		}

		entry, err = selectEntry(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	et.backend.logger.Info("entry inserted",
		slog.String("entry_id", id),
		slog.Int("nesting", entry.Nesting),
		slog.Int("closed", closed),
	)
	return entry, nil
}

// closeOpenEntries ends every open entry with nesting >= level at start.
// An open entry that starts after start makes the insert out of order.
func closeOpenEntries(ctx context.Context, tx *sql.Tx, level int, start time.Time) (int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT entry_id, start_timestamp FROM entries WHERE end_timestamp IS NULL AND nesting >= ?`, level)
	if err != nil {
		return 0, fmt.Errorf("querying open entries: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return 0, err
		}
		opened, err := types.ParseTimestamp(raw)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("entry %s start: %w", id, err)
		}
		if opened.After(start) {
			rows.Close()
			return 0, types.Invalid(fmt.Sprintf(
				"entry start %s precedes the open entry %s started at %s",
				types.FormatTimestamp(start), id, raw))
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE entries SET end_timestamp = ? WHERE entry_id = ?`,
			types.FormatTimestamp(start), id,
		); err != nil {
			return 0, fmt.Errorf("closing entry %s: %w", id, err)
		}
	}
	return len(ids), nil
}

// Update replaces the mutable fields of an entry. The parent is fixed at
// creation; path and nesting are never recomputed.
func (et *entriesTable) Update(ctx context.Context, id string, in types.EntryInput) (*types.Entry, error) {
	if err := in.ValidateUpdate(id); err != nil {
		return nil, err
	}
	start := types.NormalizeTime(in.StartTimestamp)
	var end *time.Time
	if in.EndTimestamp != nil {
		e := types.NormalizeTime(*in.EndTimestamp)
		end = &e
	}

	var entry *types.Entry
	err := et.backend.withTx(ctx, "updating entry", func(ctx context.Context, tx *sql.Tx) error {
		var (
			stored  sql.NullString
			nesting int
		)
		err := tx.QueryRowContext(ctx,
			"SELECT parent, nesting FROM entries WHERE entry_id = ?", id,
		).Scan(&stored, &nesting)
		if err != nil {
			return notFound("entry", id, err)
		}
		if !in.SameParent(nullString(stored)) {
			return types.Invalid("entry parent cannot be changed")
		}
		if end == nil {
			var others int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM entries
				WHERE end_timestamp IS NULL AND nesting >= ? AND entry_id != ?`, nesting, id,
			).Scan(&others); err != nil {
				return fmt.Errorf("counting open entries: %w", err)
			}
			if others > 0 {
				return types.Invalid(fmt.Sprintf(
					"cannot leave entry open while another entry at nesting %d or deeper is open", nesting))
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE entries SET text = ?, show_todo = ?, is_done = ?, start_timestamp = ?,
			end_timestamp = ?, estimated_duration = ? WHERE entry_id = ?`,
			in.Text, boolInt(in.ShowTodo), boolInt(in.IsDone), types.FormatTimestamp(start),
			formatOptional(end), in.EstimatedDuration, id,
		); err != nil {
			return fmt.Errorf("updating entry %s: %w", id, err)
		}
		if err := entryTags.replaceTags(ctx, tx, id, in.TagIDs); err != nil {
			return err
		}

		entry, err = selectEntry(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	et.backend.logger.Info("entry updated", slog.String("entry_id", id))
	return entry, nil
}

// Delete removes an entry. With withChildren every descendant found by the
// path prefix goes too; otherwise descendants stay behind as orphans.
func (et *entriesTable) Delete(ctx context.Context, id string, withChildren bool) (bool, error) {
	var (
		existed     bool
		descendants int64
	)
	err := et.backend.withTx(ctx, "deleting entry", func(ctx context.Context, tx *sql.Tx) error {
		var path string
		err := tx.QueryRowContext(ctx, "SELECT path FROM entries WHERE entry_id = ?", id).Scan(&path)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true

		if withChildren {
			prefix := types.ChildPath(path, id)
			res, err := tx.ExecContext(ctx,
				`DELETE FROM entries WHERE substr(path, 1, length(?)) = ?`, prefix, prefix)
			if err != nil {
				return fmt.Errorf("deleting descendants of %s: %w", id, err)
			}
			if descendants, err = res.RowsAffected(); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE entry_id = ?", id); err != nil {
			return fmt.Errorf("deleting entry %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if existed {
		et.backend.logger.Info("entry deleted",
			slog.String("entry_id", id),
			slog.Bool("with_children", withChildren),
			slog.Int64("descendants", descendants),
		)
	}
	return existed, nil
}

// Get retrieves an entry by ID.
func (et *entriesTable) Get(ctx context.Context, id string) (*types.Entry, error) {
	var entry *types.Entry
	err := et.backend.withDB(ctx, "getting entry", func(ctx context.Context, q querier) error {
		var err error
		entry, err = selectEntry(ctx, q, id)
		return notFound("entry", id, err)
	})
	return entry, err
}

// List returns the entries starting strictly inside r in depth-first order:
// each entry directly follows its ancestors.
func (et *entriesTable) List(ctx context.Context, r types.TimeRange) ([]*types.Entry, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	entries := []*types.Entry{}
	err := et.backend.withDB(ctx, "listing entries", func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx,
			selectEntrySQL+` WHERE e.start_timestamp > ? AND e.start_timestamp < ?
			GROUP BY e.entry_id ORDER BY e.path || e.entry_id || '/'`,
			types.FormatTimestamp(r.Start), types.FormatUpperBound(r.End),
		)
		if err != nil {
			return fmt.Errorf("querying entries: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// NearestBefore returns the latest entry start strictly before t.
func (et *entriesTable) NearestBefore(ctx context.Context, t time.Time) (time.Time, error) {
	return nearestBefore(ctx, et.backend, "finding previous entry",
		`SELECT start_timestamp FROM entries WHERE start_timestamp < ? ORDER BY start_timestamp DESC LIMIT 1`, t)
}

func selectEntry(ctx context.Context, q querier, id string) (*types.Entry, error) {
	row := q.QueryRowContext(ctx, selectEntrySQL+` WHERE e.entry_id = ? GROUP BY e.entry_id`, id)
	return scanEntry(row)
}
