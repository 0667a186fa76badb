package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedColors(t *testing.T) {
	tests := []struct {
		name       string
		preexist   int
		wantSeeded int
		wantTotal  int
	}{
		{name: "empty table gets the palette", preexist: 0, wantSeeded: len(builtInColors), wantTotal: len(builtInColors)},
		{name: "existing colors are left alone", preexist: 1, wantSeeded: 0, wantTotal: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := openTestDB(t)
			require.NoError(t, applyMigrations(ctx, db, migrationFS, migrationRoot))
			for i := 0; i < tt.preexist; i++ {
				_, err := db.Exec("INSERT INTO colors (color_id, hex_value) VALUES (?, '#000000')", generateUUID())
				require.NoError(t, err)
			}

			seeded, err := seedColors(ctx, db)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSeeded, seeded)

			var total int
			require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM colors").Scan(&total))
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestSeedColorsOrder(t *testing.T) {
	b := setupBackend(t)

	colors, err := b.Categories().ListColors(context.Background())
	require.NoError(t, err)
	require.Len(t, colors, len(builtInColors))
	for i, c := range colors {
		assert.Equal(t, builtInColors[i], c.HexValue)
	}
}
