// This file implements the block timeline: at most one open block, closed by
// its successor's start.
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

var _ types.BlockTable = (*blocksTable)(nil)

type blocksTable struct {
	backend *Backend
}

// openBlock is an open block as seen by the close-by-successor step.
type openBlock struct {
	id    string
	start time.Time
}

// Insert closes every open block at the new block's start and inserts the
// new block open, in one transaction.
func (bt *blocksTable) Insert(ctx context.Context, in types.BlockInput) (*types.Block, error) {
	if err := in.ValidateInsert(); err != nil {
		return nil, err
	}
	start := types.NormalizeTime(in.Start)
	id := generateUUID()

	var (
		block  *types.Block
		closed []openBlock
	)
	err := bt.backend.withTx(ctx, "inserting block", func(ctx context.Context, tx *sql.Tx) error {
		open, err := listOpenBlocks(ctx, tx)
		if err != nil {
			return err
		}
		for _, ob := range open {
			if ob.start.After(start) {
				return types.Invalid(fmt.Sprintf(
					"block start %s precedes the open block %s started at %s",
					types.FormatTimestamp(start), ob.id, types.FormatTimestamp(ob.start)))
			}
		}
		for _, ob := range open {
			if _, err := tx.ExecContext(ctx,
				`UPDATE blocks SET "end" = ?, duration = ? WHERE block_id = ?`,
				types.FormatTimestamp(start), types.DurationSeconds(ob.start, &start), ob.id,
			); err != nil {
				return fmt.Errorf("closing block %s: %w", ob.id, err)
			}
		}
		closed = open

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blocks (block_id, text, project, start, "end", duration) VALUES (?, ?, ?, ?, NULL, 0)`,
			id, in.Text, nullableID(in.Project), types.FormatTimestamp(start),
		); err != nil {
			return fmt.Errorf("inserting block %s: %w", id, err)
		}
		if err := blockTags.replaceTags(ctx, tx, id, in.TagIDs); err != nil {
			return err
		}

		block, err = selectBlock(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, ob := range closed {
		bt.backend.logger.Debug("block closed by successor",
			slog.String("block_id", ob.id), slog.String("successor", id))
	}
	bt.backend.logger.Info("block inserted", slog.String("block_id", id))
	return block, nil
}

// Update replaces the mutable fields of an existing block. It recomputes the
// duration and never closes other blocks. The new interval may touch but not
// overlap a neighbour; an open interval extends without bound.
func (bt *blocksTable) Update(ctx context.Context, id string, in types.BlockInput) (*types.Block, error) {
	if err := in.ValidateUpdate(id); err != nil {
		return nil, err
	}
	start := types.NormalizeTime(in.Start)
	var end *time.Time
	if in.End != nil {
		e := types.NormalizeTime(*in.End)
		end = &e
	}

	var block *types.Block
	err := bt.backend.withTx(ctx, "updating block", func(ctx context.Context, tx *sql.Tx) error {
		if err := requireRow(ctx, tx, "SELECT 1 FROM blocks WHERE block_id = ?", id); err != nil {
			return notFound("block", id, err)
		}
		if end == nil {
			var others int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM blocks WHERE "end" IS NULL AND block_id != ?`, id,
			).Scan(&others); err != nil {
				return fmt.Errorf("counting open blocks: %w", err)
			}
			if others > 0 {
				return types.Invalid("cannot leave block open while another block is open")
			}
		}
		var overlapping int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM blocks
			WHERE block_id != ? AND ("end" IS NULL OR "end" > ?) AND (? IS NULL OR start < ?)`,
			id, types.FormatTimestamp(start), formatOptional(end), formatOptional(end),
		).Scan(&overlapping); err != nil {
			return fmt.Errorf("checking overlapping blocks: %w", err)
		}
		if overlapping > 0 {
			return types.Invalid("block would overlap a neighbouring block")
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE blocks SET text = ?, project = ?, start = ?, "end" = ?, duration = ? WHERE block_id = ?`,
			in.Text, nullableID(in.Project), types.FormatTimestamp(start), formatOptional(end),
			types.DurationSeconds(start, end), id,
		); err != nil {
			return fmt.Errorf("updating block %s: %w", id, err)
		}
		if err := blockTags.replaceTags(ctx, tx, id, in.TagIDs); err != nil {
			return err
		}

		var err error
		block, err = selectBlock(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	bt.backend.logger.Info("block updated", slog.String("block_id", id))
	return block, nil
}

// Delete hard-deletes a block. Its tag associations cascade; entries are not
// touched.
func (bt *blocksTable) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := bt.backend.withTx(ctx, "deleting block", func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM blocks WHERE block_id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting block %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		bt.backend.logger.Info("block deleted", slog.String("block_id", id))
	}
	return removed, nil
}

// Get retrieves a block by ID.
func (bt *blocksTable) Get(ctx context.Context, id string) (*types.Block, error) {
	var block *types.Block
	err := bt.backend.withDB(ctx, "getting block", func(ctx context.Context, q querier) error {
		var err error
		block, err = selectBlock(ctx, q, id)
		return notFound("block", id, err)
	})
	return block, err
}

// List returns the blocks starting strictly inside r, ascending by start.
func (bt *blocksTable) List(ctx context.Context, r types.TimeRange) ([]*types.Block, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	blocks := []*types.Block{}
	err := bt.backend.withDB(ctx, "listing blocks", func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx,
			selectBlockSQL+` WHERE b.start > ? AND b.start < ? GROUP BY b.block_id ORDER BY b.start, b.block_id`,
			types.FormatTimestamp(r.Start), types.FormatUpperBound(r.End),
		)
		if err != nil {
			return fmt.Errorf("querying blocks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			b, err := scanBlock(rows)
			if err != nil {
				return err
			}
			blocks = append(blocks, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// NearestBefore returns the latest block start strictly before t.
func (bt *blocksTable) NearestBefore(ctx context.Context, t time.Time) (time.Time, error) {
	return nearestBefore(ctx, bt.backend, "finding previous block",
		`SELECT start FROM blocks WHERE start < ? ORDER BY start DESC LIMIT 1`, t)
}

func selectBlock(ctx context.Context, q querier, id string) (*types.Block, error) {
	row := q.QueryRowContext(ctx, selectBlockSQL+` WHERE b.block_id = ? GROUP BY b.block_id`, id)
	return scanBlock(row)
}

func listOpenBlocks(ctx context.Context, q querier) ([]openBlock, error) {
	rows, err := q.QueryContext(ctx, `SELECT block_id, start FROM blocks WHERE "end" IS NULL ORDER BY start`)
	if err != nil {
		return nil, fmt.Errorf("querying open blocks: %w", err)
	}
	defer rows.Close()

	var open []openBlock
	for rows.Next() {
		var (
			ob    openBlock
			start string
		)
		if err := rows.Scan(&ob.id, &start); err != nil {
			return nil, err
		}
		if ob.start, err = types.ParseTimestamp(start); err != nil {
			return nil, fmt.Errorf("block %s start: %w", ob.id, err)
		}
		open = append(open, ob)
	}
	return open, rows.Err()
}

// nearestBefore runs a single-column cursor query and maps an empty result
// to NotFound.
func nearestBefore(ctx context.Context, b *Backend, op, query string, t time.Time) (time.Time, error) {
	var found time.Time
	err := b.withDB(ctx, op, func(ctx context.Context, q querier) error {
		var raw string
		err := q.QueryRowContext(ctx, query, types.FormatUpperBound(t)).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return types.NewError(types.CodeNotFound,
				"nothing starts before "+t.UTC().Format(time.RFC3339Nano))
		}
		if err != nil {
			return err
		}
		found, err = types.ParseTimestamp(raw)
		return err
	})
	return found, err
}

// requireRow returns sql.ErrNoRows when query matches nothing.
func requireRow(ctx context.Context, q querier, query string, args ...any) error {
	var one int
	return q.QueryRowContext(ctx, query, args...).Scan(&one)
}

// notFound turns sql.ErrNoRows into a NotFound error naming the entity.
func notFound(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return types.WrapError(types.CodeNotFound, kind+" "+id+" not found", err)
	}
	return err
}
