package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// tagNamesExpr aggregates the distinct tag names joined as alias t into a
// JSON array. Names may contain any character, so no delimiter splitting.
const tagNamesExpr = `CASE WHEN COUNT(t.tag_id) = 0 THEN '[]' ELSE json_group_array(DISTINCT t.name) END`

// tagLink names a join table between an interval table and tags.
type tagLink struct {
	table  string
	column string
}

var (
	blockTags = tagLink{table: "tagged_blocks", column: "block_id"}
	entryTags = tagLink{table: "tagged_entries", column: "entry_id"}
)

// replaceTags swaps the full tag set of owner for tagIDs. Unknown tag ids
// fail the foreign key and surface as validation errors.
func (l tagLink) replaceTags(ctx context.Context, q querier, owner string, tagIDs []string) error {
	if _, err := q.ExecContext(ctx,
		"DELETE FROM "+l.table+" WHERE "+l.column+" = ?", owner,
	); err != nil {
		return fmt.Errorf("clearing tags: %w", err)
	}

	seen := make(map[string]bool, len(tagIDs))
	for _, tagID := range tagIDs {
		if seen[tagID] {
			continue
		}
		seen[tagID] = true
		if _, err := q.ExecContext(ctx,
			"INSERT INTO "+l.table+" ("+l.column+", tag_id) VALUES (?, ?)", owner, tagID,
		); err != nil {
			return fmt.Errorf("attaching tag %s: %w", tagID, err)
		}
	}
	return nil
}

// decodeTags parses an aggregated tag column. The result is sorted and never
// nil.
func decodeTags(raw string) ([]string, error) {
	tags := []string{}
	if raw == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	sort.Strings(tags)
	return tags, nil
}
