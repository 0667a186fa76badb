// This file seeds the color palette on first attach.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// builtInColors is the palette offered to projects. Order is preserved
// because ids are time-ordered.
var builtInColors = []string{
	"#e6194b",
	"#3cb44b",
	"#ffe119",
	"#4363d8",
	"#f58231",
	"#911eb4",
	"#42d4f4",
	"#f032e6",
	"#bfef45",
	"#469990",
	"#9a6324",
	"#808080",
}

// seedColors inserts the built-in palette when the colors table is empty and
// returns how many colors were added. Later attaches leave the table alone,
// so user edits survive.
func seedColors(ctx context.Context, db *sql.DB) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM colors").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting colors: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, hex := range builtInColors {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO colors (color_id, hex_value) VALUES (?, ?)",
			generateUUID(), hex,
		); err != nil {
			return 0, fmt.Errorf("seeding color %s: %w", hex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing seed transaction: %w", err)
	}
	return len(builtInColors), nil
}
