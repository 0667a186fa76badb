package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/appendable/pkg/sqlite"
	"github.com/mesh-intelligence/appendable/pkg/types"
)

var (
	_ types.Timeline = (*sqlite.Backend)(nil)
	_ types.Archiver = (*sqlite.Backend)(nil)
)

func TestNewBackendAttachAndInsert(t *testing.T) {
	backend := sqlite.NewBackend()
	require.NoError(t, backend.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer func() { _ = backend.Detach() }()

	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	block, err := backend.Blocks().Insert(context.Background(), types.BlockInput{Text: "public", Start: start})
	require.NoError(t, err)
	assert.True(t, block.IsOpen())
	assert.True(t, block.Start.Equal(start))
}
