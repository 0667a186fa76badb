package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const selectBlockSQL = `SELECT b.block_id, b.text, b.project, p.name, b.start, b."end", b.duration, ` + tagNamesExpr + `
FROM blocks b
LEFT JOIN projects p ON p.project_id = b.project
LEFT JOIN tagged_blocks tb ON tb.block_id = b.block_id
LEFT JOIN tags t ON t.tag_id = tb.tag_id`

const selectEntrySQL = `SELECT e.entry_id, e.parent, e.path, e.nesting, e.start_timestamp, e.end_timestamp,
       e.text, e.show_todo, e.is_done, e.estimated_duration, ` + tagNamesExpr + `
FROM entries e
LEFT JOIN tagged_entries te ON te.entry_id = e.entry_id
LEFT JOIN tags t ON t.tag_id = te.tag_id`

// scanBlock hydrates a Block from a selectBlockSQL row.
func scanBlock(row rowScanner) (*types.Block, error) {
	var (
		b           types.Block
		project     sql.NullString
		projectName sql.NullString
		start       string
		end         sql.NullString
		tags        string
	)
	if err := row.Scan(&b.BlockID, &b.Text, &project, &projectName, &start, &end, &b.Duration, &tags); err != nil {
		return nil, err
	}

	var err error
	if b.Start, err = types.ParseTimestamp(start); err != nil {
		return nil, fmt.Errorf("block %s start: %w", b.BlockID, err)
	}
	if b.End, err = parseOptional(end); err != nil {
		return nil, fmt.Errorf("block %s end: %w", b.BlockID, err)
	}
	if b.Tags, err = decodeTags(tags); err != nil {
		return nil, fmt.Errorf("block %s: %w", b.BlockID, err)
	}
	b.Project = nullString(project)
	b.ProjectName = nullString(projectName)
	return &b, nil
}

// scanEntry hydrates an Entry from a selectEntrySQL row.
func scanEntry(row rowScanner) (*types.Entry, error) {
	var (
		e         types.Entry
		parent    sql.NullString
		start     string
		end       sql.NullString
		showTodo  int
		isDone    int
		estimated sql.NullInt64
		tags      string
	)
	if err := row.Scan(&e.EntryID, &parent, &e.Path, &e.Nesting, &start, &end,
		&e.Text, &showTodo, &isDone, &estimated, &tags); err != nil {
		return nil, err
	}

	var err error
	if e.StartTimestamp, err = types.ParseTimestamp(start); err != nil {
		return nil, fmt.Errorf("entry %s start: %w", e.EntryID, err)
	}
	if e.EndTimestamp, err = parseOptional(end); err != nil {
		return nil, fmt.Errorf("entry %s end: %w", e.EntryID, err)
	}
	if e.Tags, err = decodeTags(tags); err != nil {
		return nil, fmt.Errorf("entry %s: %w", e.EntryID, err)
	}
	e.Parent = nullString(parent)
	e.ShowTodo = showTodo != 0
	e.IsDone = isDone != 0
	if estimated.Valid {
		v := estimated.Int64
		e.EstimatedDuration = &v
	}
	return &e, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// nullableID treats a nil or blank reference as NULL.
func nullableID(id *string) any {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	return *id
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
