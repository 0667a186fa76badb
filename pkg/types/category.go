package types

import "strings"

// Project groups blocks under a named, colored heading.
type Project struct {
	ProjectID string  `json:"project_id"`
	Name      string  `json:"name"`
	Archived  bool    `json:"archived"`
	Color     *string `json:"color"`
}

// Validate checks the fields required to persist a project.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Invalid("project name is required")
	}
	return nil
}

// Color is a seeded palette entry referenced by projects.
type Color struct {
	ColorID  string `json:"color_id"`
	HexValue string `json:"hex_value"`
}

// Tag labels blocks and entries. Archived tags stay attached to history but
// are hidden from pickers.
type Tag struct {
	TagID    string `json:"tag_id"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

// Validate checks the fields required to persist a tag.
func (t *Tag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return Invalid("tag name is required")
	}
	return nil
}
