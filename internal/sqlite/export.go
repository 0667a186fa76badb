// This file implements JSONL export and import of every table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

var _ types.Archiver = (*Backend)(nil)

// tableColumns maps each table to its persisted columns, in
// types.StandardTableNames order so that loading never references a
// missing row.
var tableColumns = []struct {
	table   string
	orderBy string
	columns []string
}{
	{types.TableColors, "color_id", []string{"color_id", "hex_value"}},
	{types.TableProjects, "project_id", []string{"project_id", "name", "archived", "color"}},
	{types.TableTags, "tag_id", []string{"tag_id", "name", "archived"}},
	{types.TableBlocks, "start, block_id", []string{"block_id", "text", "project", "start", "end", "duration"}},
	{types.TableEntries, "nesting, start_timestamp, entry_id", []string{"entry_id", "parent", "path", "nesting",
		"start_timestamp", "end_timestamp", "text", "show_todo", "is_done", "estimated_duration"}},
	{types.TableTaggedBlocks, "block_id, tag_id", []string{"block_id", "tag_id"}},
	{types.TableTaggedEntries, "entry_id, tag_id", []string{"entry_id", "tag_id"}},
}

func jsonlFile(dir, table string) string {
	return filepath.Join(dir, table+".jsonl")
}

// Export writes one JSONL file per table into dir. Each file is replaced
// atomically. The read runs in a single transaction so the files describe one
// consistent state.
func (b *Backend) Export(ctx context.Context, dir string) (types.TableCounts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}

	counts := types.TableCounts{}
	dumps := make(map[string][]json.RawMessage, len(tableColumns))
	err := b.withTx(ctx, "exporting tables", func(ctx context.Context, tx *sql.Tx) error {
		for _, tc := range tableColumns {
			records, err := dumpTable(ctx, tx, tc.table, tc.orderBy, tc.columns)
			if err != nil {
				return fmt.Errorf("dumping %s: %w", tc.table, err)
			}
			dumps[tc.table] = records
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, tc := range tableColumns {
		records := dumps[tc.table]
		if err := writeJSONL(jsonlFile(dir, tc.table), records); err != nil {
			return nil, fmt.Errorf("writing %s: %w", tc.table, err)
		}
		counts[tc.table] = len(records)
	}

	b.logger.Info("tables exported", slog.String("dir", dir), slog.Any("counts", counts))
	return counts, nil
}

// Import clears every table and loads the JSONL files found in dir, all in
// one transaction. Missing files load as empty tables.
func (b *Backend) Import(ctx context.Context, dir string) (types.TableCounts, error) {
	loaded := make(map[string][]json.RawMessage, len(tableColumns))
	skipped := 0
	for _, tc := range tableColumns {
		records, bad, err := readJSONL(jsonlFile(dir, tc.table))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", tc.table, err)
		}
		loaded[tc.table] = records
		skipped += bad
	}

	counts := types.TableCounts{}
	err := b.withTx(ctx, "importing tables", func(ctx context.Context, tx *sql.Tx) error {
		for i := len(tableColumns) - 1; i >= 0; i-- {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+tableColumns[i].table); err != nil {
				return fmt.Errorf("clearing %s: %w", tableColumns[i].table, err)
			}
		}
		for _, tc := range tableColumns {
			n, err := insertRecords(ctx, tx, tc.table, tc.columns, loaded[tc.table])
			if err != nil {
				return fmt.Errorf("loading %s: %w", tc.table, err)
			}
			counts[tc.table] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.logger.Info("tables imported",
		slog.String("dir", dir),
		slog.Any("counts", counts),
		slog.Int("malformed_lines", skipped),
	)
	return counts, nil
}

// dumpTable renders every row of table as a JSON object keyed by column.
func dumpTable(ctx context.Context, q querier, table, orderBy string, columns []string) ([]json.RawMessage, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		quoteColumns(columns), table, orderBy))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []json.RawMessage{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(map[string]any, len(columns))
		for i, col := range columns {
			if raw, ok := values[i].([]byte); ok {
				rec[col] = string(raw)
				continue
			}
			rec[col] = values[i]
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s row: %w", table, err)
		}
		records = append(records, data)
	}
	return records, rows.Err()
}

// insertRecords inserts parsed JSONL records into a table. Unknown fields are
// ignored and absent columns load as NULL.
func insertRecords(ctx context.Context, tx *sql.Tx, table string, columns []string, records []json.RawMessage) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", table, quoteColumns(columns), placeholders))
	if err != nil {
		return 0, fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for i, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
		args := make([]any, len(columns))
		for j, col := range columns {
			args[j] = obj[col]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return len(records), nil
}

// quoteColumns joins column names with commas, quoting each so that
// keywords such as "end" are safe.
func quoteColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + c + `"`
	}
	return strings.Join(quoted, ", ")
}
