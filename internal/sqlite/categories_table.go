// This file implements the category registry: projects, the seeded color
// palette, and tags.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

var _ types.CategoryTable = (*categoriesTable)(nil)

type categoriesTable struct {
	backend *Backend
}

const selectProjectSQL = `SELECT project_id, name, archived, color FROM projects`

// ListProjects returns every project ordered by name.
func (ct *categoriesTable) ListProjects(ctx context.Context) ([]*types.Project, error) {
	projects := []*types.Project{}
	err := ct.backend.withDB(ctx, "listing projects", func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, selectProjectSQL+" ORDER BY name, project_id")
		if err != nil {
			return fmt.Errorf("querying projects: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := hydrateProject(rows)
			if err != nil {
				return err
			}
			projects = append(projects, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject retrieves a project by ID.
func (ct *categoriesTable) GetProject(ctx context.Context, id string) (*types.Project, error) {
	var project *types.Project
	err := ct.backend.withDB(ctx, "getting project", func(ctx context.Context, q querier) error {
		var err error
		project, err = selectProject(ctx, q, id)
		return notFound("project", id, err)
	})
	return project, err
}

// InsertProject creates a project with a generated ID. A color that does not
// exist fails the foreign key.
func (ct *categoriesTable) InsertProject(ctx context.Context, p types.Project) (*types.Project, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	id := generateUUID()

	var project *types.Project
	err := ct.backend.withTx(ctx, "inserting project", func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO projects (project_id, name, archived, color) VALUES (?, ?, ?, ?)",
			id, p.Name, boolInt(p.Archived), nullableID(p.Color),
		); err != nil {
			return fmt.Errorf("inserting project: %w", err)
		}
		var err error
		project, err = selectProject(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	ct.backend.logger.Info("project inserted", slog.String("project_id", id))
	return project, nil
}

// UpdateProject replaces the name, archived flag and color of a project.
func (ct *categoriesTable) UpdateProject(ctx context.Context, id string, p types.Project) (*types.Project, error) {
	if p.ProjectID != "" && p.ProjectID != id {
		return nil, types.NewError(types.CodeBadRequest, "project_id in the body does not match the addressed project")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var project *types.Project
	err := ct.backend.withTx(ctx, "updating project", func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE projects SET name = ?, archived = ?, color = ? WHERE project_id = ?",
			p.Name, boolInt(p.Archived), nullableID(p.Color), id,
		)
		if err != nil {
			return fmt.Errorf("updating project %s: %w", id, err)
		}
		if err := requireAffected(res, "project", id); err != nil {
			return err
		}
		project, err = selectProject(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	ct.backend.logger.Info("project updated", slog.String("project_id", id))
	return project, nil
}

// ListColors returns the color palette.
func (ct *categoriesTable) ListColors(ctx context.Context) ([]*types.Color, error) {
	colors := []*types.Color{}
	err := ct.backend.withDB(ctx, "listing colors", func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, "SELECT color_id, hex_value FROM colors ORDER BY color_id")
		if err != nil {
			return fmt.Errorf("querying colors: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c types.Color
			if err := rows.Scan(&c.ColorID, &c.HexValue); err != nil {
				return err
			}
			colors = append(colors, &c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return colors, nil
}

// ListTags returns every tag, archived ones included, ordered by name.
func (ct *categoriesTable) ListTags(ctx context.Context) ([]*types.Tag, error) {
	tags := []*types.Tag{}
	err := ct.backend.withDB(ctx, "listing tags", func(ctx context.Context, q querier) error {
		rows, err := q.QueryContext(ctx, "SELECT tag_id, name, archived FROM tags ORDER BY name")
		if err != nil {
			return fmt.Errorf("querying tags: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			t, err := hydrateTag(rows)
			if err != nil {
				return err
			}
			tags = append(tags, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// InsertTag creates a tag. Tag names are unique.
func (ct *categoriesTable) InsertTag(ctx context.Context, t types.Tag) (*types.Tag, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	id := generateUUID()

	var tag *types.Tag
	err := ct.backend.withTx(ctx, "inserting tag", func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tags (tag_id, name, archived) VALUES (?, ?, ?)",
			id, t.Name, boolInt(t.Archived),
		); err != nil {
			return fmt.Errorf("inserting tag %q: %w", t.Name, err)
		}
		var err error
		tag, err = selectTag(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	ct.backend.logger.Info("tag inserted", slog.String("tag_id", id), slog.String("name", t.Name))
	return tag, nil
}

// UpdateTag renames or archives a tag.
func (ct *categoriesTable) UpdateTag(ctx context.Context, id string, t types.Tag) (*types.Tag, error) {
	if t.TagID != "" && t.TagID != id {
		return nil, types.NewError(types.CodeBadRequest, "tag_id in the body does not match the addressed tag")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var tag *types.Tag
	err := ct.backend.withTx(ctx, "updating tag", func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE tags SET name = ?, archived = ? WHERE tag_id = ?",
			t.Name, boolInt(t.Archived), id,
		)
		if err != nil {
			return fmt.Errorf("updating tag %s: %w", id, err)
		}
		if err := requireAffected(res, "tag", id); err != nil {
			return err
		}
		tag, err = selectTag(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	ct.backend.logger.Info("tag updated", slog.String("tag_id", id))
	return tag, nil
}

func selectProject(ctx context.Context, q querier, id string) (*types.Project, error) {
	return hydrateProject(q.QueryRowContext(ctx, selectProjectSQL+" WHERE project_id = ?", id))
}

func selectTag(ctx context.Context, q querier, id string) (*types.Tag, error) {
	return hydrateTag(q.QueryRowContext(ctx, "SELECT tag_id, name, archived FROM tags WHERE tag_id = ?", id))
}

func hydrateProject(row rowScanner) (*types.Project, error) {
	var (
		p        types.Project
		archived int
		color    sql.NullString
	)
	if err := row.Scan(&p.ProjectID, &p.Name, &archived, &color); err != nil {
		return nil, err
	}
	p.Archived = archived != 0
	p.Color = nullString(color)
	return &p, nil
}

func hydrateTag(row rowScanner) (*types.Tag, error) {
	var (
		t        types.Tag
		archived int
	)
	if err := row.Scan(&t.TagID, &t.Name, &archived); err != nil {
		return nil, err
	}
	t.Archived = archived != 0
	return &t, nil
}

// requireAffected reports NotFound when an update matched no row.
func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.NewError(types.CodeNotFound, kind+" "+id+" not found")
	}
	return nil
}
