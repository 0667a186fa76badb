package types

import (
	"strings"
	"time"
)

// Materialized path constants. A root entry has path "/"; a child's path is
// its parent's path followed by the parent id and a separator.
const (
	PathSeparator = "/"
	RootPath      = PathSeparator
)

// Entry is a node in the nested interval tree. Path and Nesting are derived
// once, at creation, from the parent and never change afterwards.
type Entry struct {
	EntryID           string     `json:"entry_id"`
	Parent            *string    `json:"parent"`
	Path              string     `json:"path"`
	Nesting           int        `json:"nesting"`
	StartTimestamp    time.Time  `json:"start_timestamp"`
	EndTimestamp      *time.Time `json:"end_timestamp"`
	Text              string     `json:"text"`
	ShowTodo          bool       `json:"show_todo"`
	IsDone            bool       `json:"is_done"`
	EstimatedDuration *int64     `json:"estimated_duration"` // seconds
	Tags              []string   `json:"tags"`
}

// IsOpen reports whether the entry has not been closed yet.
func (e *Entry) IsOpen() bool {
	return e.EndTimestamp == nil
}

// SubtreePrefix is the path prefix shared by every descendant of e.
func (e *Entry) SubtreePrefix() string {
	return ChildPath(e.Path, e.EntryID)
}

// ChildPath returns the materialized path of a child of the entry with the
// given path and id.
func ChildPath(parentPath, parentID string) string {
	return parentPath + parentID + PathSeparator
}

// ChildPosition returns the path and nesting of a new entry under parent; a
// nil parent yields the root position.
func ChildPosition(parent *Entry) (string, int) {
	if parent == nil {
		return RootPath, 0
	}
	return parent.SubtreePrefix(), parent.Nesting + 1
}

// IsDescendantPath reports whether path lies in the subtree rooted at the
// entry whose SubtreePrefix is prefix.
func IsDescendantPath(path, prefix string) bool {
	return strings.HasPrefix(path, prefix)
}

// EntryInput is the caller-supplied payload for entry writes. Path and
// Nesting are never accepted from callers.
type EntryInput struct {
	EntryID           string     `json:"entry_id,omitempty"`
	Parent            *string    `json:"parent"`
	StartTimestamp    time.Time  `json:"start_timestamp"`
	EndTimestamp      *time.Time `json:"end_timestamp"`
	Text              string     `json:"text"`
	ShowTodo          bool       `json:"show_todo"`
	IsDone            bool       `json:"is_done"`
	EstimatedDuration *int64     `json:"estimated_duration"`
	TagIDs            []string   `json:"tag_ids"`
}

// ValidateInsert checks the fields required to open a new entry.
func (in *EntryInput) ValidateInsert() error {
	if in.StartTimestamp.IsZero() {
		return Invalid("entry start_timestamp is required")
	}
	if in.Parent != nil && *in.Parent == "" {
		return Invalid("entry parent must not be empty when set")
	}
	if in.EstimatedDuration != nil && *in.EstimatedDuration < 0 {
		return Invalid("estimated_duration must not be negative")
	}
	return nil
}

// ValidateUpdate checks a full-replacement update addressed to id.
func (in *EntryInput) ValidateUpdate(id string) error {
	if id == "" {
		return Invalid("entry id is required")
	}
	if in.EntryID != "" && in.EntryID != id {
		return NewError(CodeBadRequest, "entry_id in the body does not match the addressed entry")
	}
	if in.StartTimestamp.IsZero() {
		return Invalid("entry start_timestamp is required")
	}
	if in.EndTimestamp != nil && in.EndTimestamp.Before(in.StartTimestamp) {
		return Invalid("entry end_timestamp must not precede its start_timestamp")
	}
	if in.EstimatedDuration != nil && *in.EstimatedDuration < 0 {
		return Invalid("estimated_duration must not be negative")
	}
	return nil
}

// SameParent reports whether the input keeps the stored parent unchanged.
func (in *EntryInput) SameParent(stored *string) bool {
	switch {
	case in.Parent == nil && stored == nil:
		return true
	case in.Parent == nil || stored == nil:
		return false
	default:
		return *in.Parent == *stored
	}
}
