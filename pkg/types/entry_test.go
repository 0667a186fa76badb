package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChildPosition(t *testing.T) {
	root := &Entry{EntryID: "a", Path: RootPath, Nesting: 0}
	child := &Entry{EntryID: "b", Path: "/a/", Nesting: 1}

	tests := []struct {
		name        string
		parent      *Entry
		wantPath    string
		wantNesting int
	}{
		{name: "no parent is a root", parent: nil, wantPath: "/", wantNesting: 0},
		{name: "child of root", parent: root, wantPath: "/a/", wantNesting: 1},
		{name: "grandchild", parent: child, wantPath: "/a/b/", wantNesting: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, nesting := ChildPosition(tt.parent)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantNesting, nesting)
		})
	}
}

func TestIsDescendantPath(t *testing.T) {
	e := &Entry{EntryID: "a", Path: RootPath}
	prefix := e.SubtreePrefix()

	assert.True(t, IsDescendantPath("/a/", prefix))
	assert.True(t, IsDescendantPath("/a/b/c/", prefix))
	assert.False(t, IsDescendantPath("/", prefix))
	assert.False(t, IsDescendantPath("/ab/", prefix), "sibling with shared id prefix is not a descendant")
}

func TestEntryInputValidate(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)
	empty := ""
	negative := int64(-5)

	tests := []struct {
		name     string
		in       EntryInput
		id       string
		update   bool
		wantCode Code
	}{
		{name: "insert without start", in: EntryInput{Text: "x"}, wantCode: CodeValidation},
		{name: "insert with empty parent", in: EntryInput{StartTimestamp: now, Parent: &empty}, wantCode: CodeValidation},
		{name: "insert with negative estimate", in: EntryInput{StartTimestamp: now, EstimatedDuration: &negative}, wantCode: CodeValidation},
		{name: "valid insert", in: EntryInput{StartTimestamp: now}},
		{name: "update id mismatch", in: EntryInput{EntryID: "b", StartTimestamp: now}, id: "a", update: true, wantCode: CodeBadRequest},
		{name: "update end before start", in: EntryInput{StartTimestamp: now, EndTimestamp: &earlier}, id: "a", update: true, wantCode: CodeValidation},
		{name: "update without body id", in: EntryInput{StartTimestamp: now}, id: "a", update: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.update {
				err = tt.in.ValidateUpdate(tt.id)
			} else {
				err = tt.in.ValidateInsert()
			}
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantCode, CodeOf(err))
		})
	}
}

func TestEntryInputSameParent(t *testing.T) {
	a, b := "a", "b"

	assert.True(t, (&EntryInput{}).SameParent(nil))
	assert.True(t, (&EntryInput{Parent: &a}).SameParent(&a))
	assert.False(t, (&EntryInput{Parent: &a}).SameParent(&b))
	assert.False(t, (&EntryInput{Parent: &a}).SameParent(nil))
	assert.False(t, (&EntryInput{}).SameParent(&a))
}
