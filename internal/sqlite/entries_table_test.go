package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

func insertEntry(t *testing.T, b *Backend, parent *types.Entry, in types.EntryInput) *types.Entry {
	t.Helper()
	if parent != nil {
		in.Parent = &parent.EntryID
	}
	e, err := b.Entries().Insert(context.Background(), in)
	require.NoError(t, err)
	return e
}

func TestEntries_PathAndNesting(t *testing.T) {
	b := setupBackend(t)

	root := insertEntry(t, b, nil, types.EntryInput{Text: "root", StartTimestamp: at(9, 0)})
	child := insertEntry(t, b, root, types.EntryInput{Text: "child", StartTimestamp: at(9, 10)})
	grandchild := insertEntry(t, b, child, types.EntryInput{Text: "grandchild", StartTimestamp: at(9, 20)})

	tests := []struct {
		name        string
		entry       *types.Entry
		wantPath    string
		wantNesting int
	}{
		{"root", root, "/", 0},
		{"child", child, "/" + root.EntryID + "/", 1},
		{"grandchild", grandchild, "/" + root.EntryID + "/" + child.EntryID + "/", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantPath, tt.entry.Path)
			assert.Equal(t, tt.wantNesting, tt.entry.Nesting)
		})
	}
	require.NotNil(t, grandchild.Parent)
	assert.Equal(t, child.EntryID, *grandchild.Parent)
	assert.Nil(t, root.Parent)
}

func TestEntries_StackDiscipline(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	t0, t1, t2 := at(9, 0), at(9, 15), at(10, 0)

	e1 := insertEntry(t, b, nil, types.EntryInput{Text: "E1", StartTimestamp: t0})
	e2 := insertEntry(t, b, e1, types.EntryInput{Text: "E2", StartTimestamp: t1})

	e1, err := b.Entries().Get(ctx, e1.EntryID)
	require.NoError(t, err)
	assert.True(t, e1.IsOpen(), "a deeper insert leaves shallower entries open")
	assert.Equal(t, 1, e2.Nesting)

	e3 := insertEntry(t, b, nil, types.EntryInput{Text: "E3", StartTimestamp: t2})
	assert.True(t, e3.IsOpen())

	for _, id := range []string{e1.EntryID, e2.EntryID} {
		got, err := b.Entries().Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got.EndTimestamp, id)
		assert.True(t, got.EndTimestamp.Equal(t2))
	}
}

func TestEntries_SiblingClosesOnlySameDepth(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	root := insertEntry(t, b, nil, types.EntryInput{StartTimestamp: at(9, 0)})
	first := insertEntry(t, b, root, types.EntryInput{StartTimestamp: at(9, 5)})
	deep := insertEntry(t, b, first, types.EntryInput{StartTimestamp: at(9, 6)})
	second := insertEntry(t, b, root, types.EntryInput{StartTimestamp: at(9, 30)})

	tests := []struct {
		entry    *types.Entry
		wantOpen bool
	}{
		{root, true},
		{first, false},
		{deep, false},
		{second, true},
	}
	for _, tt := range tests {
		got, err := b.Entries().Get(ctx, tt.entry.EntryID)
		require.NoError(t, err)
		assert.Equal(t, tt.wantOpen, got.IsOpen(), "nesting %d", got.Nesting)
	}
}

func TestEntries_InsertValidation(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	missing := "missing"
	_, err := b.Entries().Insert(ctx, types.EntryInput{StartTimestamp: at(9, 0), Parent: &missing})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = b.Entries().Insert(ctx, types.EntryInput{Text: "no start"})
	assert.ErrorIs(t, err, types.ErrValidation)

	insertEntry(t, b, nil, types.EntryInput{StartTimestamp: at(10, 0)})
	_, err = b.Entries().Insert(ctx, types.EntryInput{StartTimestamp: at(9, 0)})
	assert.ErrorIs(t, err, types.ErrValidation, "out-of-order insert")
	assert.Equal(t, 1, countRows(t, b, "SELECT COUNT(*) FROM entries"))
}

func TestEntries_Update(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	tag, err := b.Categories().InsertTag(ctx, types.Tag{Name: "errand"})
	require.NoError(t, err)
	root := insertEntry(t, b, nil, types.EntryInput{StartTimestamp: at(9, 0)})
	other := insertEntry(t, b, nil, types.EntryInput{StartTimestamp: at(9, 1)})
	child := insertEntry(t, b, root, types.EntryInput{StartTimestamp: at(9, 5), Text: "buy milk"})

	estimate := int64(600)
	end := at(9, 20)
	got, err := b.Entries().Update(ctx, child.EntryID, types.EntryInput{
		EntryID:           child.EntryID,
		Parent:            &root.EntryID,
		StartTimestamp:    at(9, 5),
		EndTimestamp:      &end,
		Text:              "buy oat milk",
		ShowTodo:          true,
		IsDone:            true,
		EstimatedDuration: &estimate,
		TagIDs:            []string{tag.TagID},
	})
	require.NoError(t, err)
	assert.Equal(t, "buy oat milk", got.Text)
	assert.True(t, got.ShowTodo)
	assert.True(t, got.IsDone)
	require.NotNil(t, got.EstimatedDuration)
	assert.Equal(t, estimate, *got.EstimatedDuration)
	assert.Equal(t, []string{"errand"}, got.Tags)
	assert.Equal(t, child.Path, got.Path)
	assert.Equal(t, child.Nesting, got.Nesting)

	base := types.EntryInput{Parent: &root.EntryID, StartTimestamp: at(9, 5)}
	tests := []struct {
		name     string
		id       string
		in       types.EntryInput
		wantCode types.Code
	}{
		{"id mismatch", child.EntryID, func() types.EntryInput { in := base; in.EntryID = other.EntryID; return in }(), types.CodeBadRequest},
		{"missing entry", "missing", base, types.CodeNotFound},
		{"reparent", child.EntryID, func() types.EntryInput { in := base; in.Parent = &other.EntryID; return in }(), types.CodeValidation},
		{"drop parent", child.EntryID, func() types.EntryInput { in := base; in.Parent = nil; return in }(), types.CodeValidation},
		{"end before start", child.EntryID, func() types.EntryInput {
			in := base
			early := at(8, 0)
			in.EndTimestamp = &early
			return in
		}(), types.CodeValidation},
		{"reopening while a sibling is open", root.EntryID, types.EntryInput{StartTimestamp: at(9, 0)}, types.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Entries().Update(ctx, tt.id, tt.in)
			assert.Equal(t, tt.wantCode, types.CodeOf(err))
		})
	}
}

func TestEntries_UpdateReopenRespectsDepth(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	first := insertEntry(t, b, nil, types.EntryInput{StartTimestamp: at(9, 0)})
	child := insertEntry(t, b, first, types.EntryInput{StartTimestamp: at(9, 5)})
	second := insertEntry(t, b, nil, types.EntryInput{StartTimestamp: at(9, 30)})

	_, err := b.Entries().Update(ctx, first.EntryID, types.EntryInput{StartTimestamp: at(9, 0)})
	assert.ErrorIs(t, err, types.ErrValidation)

	end := at(9, 45)
	_, err = b.Entries().Update(ctx, second.EntryID, types.EntryInput{StartTimestamp: at(9, 30), EndTimestamp: &end})
	require.NoError(t, err)

	got, err := b.Entries().Update(ctx, child.EntryID, types.EntryInput{Parent: &first.EntryID, StartTimestamp: at(9, 5)})
	require.NoError(t, err)
	assert.Nil(t, got.EndTimestamp)
	assert.Equal(t, 1, countRows(t, b, "SELECT COUNT(*) FROM entries WHERE end_timestamp IS NULL"))
}

func TestEntries_Delete(t *testing.T) {
	tests := []struct {
		name         string
		withChildren bool
		wantLeft     int
	}{
		{"cascade removes the subtree", true, 1},
		{"plain delete orphans descendants", false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := setupBackend(t)
			ctx := context.Background()

			target := insertEntry(t, b, nil, types.EntryInput{StartTimestamp: at(9, 0)})
			child := insertEntry(t, b, target, types.EntryInput{StartTimestamp: at(9, 5)})
			insertEntry(t, b, child, types.EntryInput{StartTimestamp: at(9, 6)})
			insertEntry(t, b, nil, types.EntryInput{StartTimestamp: at(9, 30)})

			existed, err := b.Entries().Delete(ctx, target.EntryID, tt.withChildren)
			require.NoError(t, err)
			assert.True(t, existed)
			assert.Equal(t, tt.wantLeft, countRows(t, b, "SELECT COUNT(*) FROM entries"))

			_, err = b.Entries().Get(ctx, target.EntryID)
			assert.ErrorIs(t, err, types.ErrNotFound)

			if !tt.withChildren {
				orphan, err := b.Entries().Get(ctx, child.EntryID)
				require.NoError(t, err)
				assert.Equal(t, target.EntryID, *orphan.Parent)
			}

			existed, err = b.Entries().Delete(ctx, target.EntryID, tt.withChildren)
			require.NoError(t, err)
			assert.False(t, existed)
		})
	}
}

func TestEntries_DeleteRemovesTagLinks(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	tag, err := b.Categories().InsertTag(ctx, types.Tag{Name: "x"})
	require.NoError(t, err)
	root := insertEntry(t, b, nil, types.EntryInput{StartTimestamp: at(9, 0), TagIDs: []string{tag.TagID}})
	insertEntry(t, b, root, types.EntryInput{StartTimestamp: at(9, 1), TagIDs: []string{tag.TagID}})

	_, err = b.Entries().Delete(ctx, root.EntryID, true)
	require.NoError(t, err)
	assert.Zero(t, countRows(t, b, "SELECT COUNT(*) FROM tagged_entries"))
}

func TestEntries_ListDepthFirst(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	r1 := insertEntry(t, b, nil, types.EntryInput{Text: "r1", StartTimestamp: at(9, 0)})
	c1 := insertEntry(t, b, r1, types.EntryInput{Text: "c1", StartTimestamp: at(9, 1)})
	insertEntry(t, b, c1, types.EntryInput{Text: "g1", StartTimestamp: at(9, 2)})
	insertEntry(t, b, r1, types.EntryInput{Text: "c2", StartTimestamp: at(9, 3)})
	r2 := insertEntry(t, b, nil, types.EntryInput{Text: "r2", StartTimestamp: at(9, 4)})
	insertEntry(t, b, r2, types.EntryInput{Text: "c3", StartTimestamp: at(9, 5)})

	entries, err := b.Entries().List(ctx, wholeDay)
	require.NoError(t, err)

	var texts []string
	for _, e := range entries {
		texts = append(texts, e.Text)
		assert.NotNil(t, e.Tags)
	}
	assert.Equal(t, []string{"r1", "c1", "g1", "c2", "r2", "c3"}, texts)

	prev, err := b.Entries().NearestBefore(ctx, at(9, 4))
	require.NoError(t, err)
	assert.True(t, prev.Equal(at(9, 3)))

	_, err = b.Entries().NearestBefore(ctx, at(9, 0))
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestEntries_SubSecondBounds(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	insertEntry(t, b, nil, types.EntryInput{StartTimestamp: at(10, 0)})
	half := at(10, 0).Add(500 * time.Millisecond)

	prev, err := b.Entries().NearestBefore(ctx, half)
	require.NoError(t, err)
	assert.True(t, prev.Equal(at(10, 0)))

	tests := []struct {
		name string
		r    types.TimeRange
		want int
	}{
		{"fractional end after start", types.TimeRange{Start: at(9, 0), End: half}, 1},
		{"fractional end before start", types.TimeRange{Start: at(9, 0), End: at(10, 0).Add(-500 * time.Millisecond)}, 0},
		{"fractional start before start", types.TimeRange{Start: at(10, 0).Add(-500 * time.Millisecond), End: at(11, 0)}, 1},
		{"fractional start after start", types.TimeRange{Start: half, End: at(11, 0)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Entries().List(ctx, tt.r)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}
