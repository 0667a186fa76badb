package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

// printer renders command results as JSON or as aligned tables.
type printer struct {
	out  io.Writer
	json bool
}

func newPrinter(out io.Writer, jsonMode bool) *printer {
	return &printer{out: out, json: jsonMode}
}

var (
	headerStyle = color.New(color.Bold, color.Underline)
	faintStyle  = color.New(color.Faint)
	openStyle   = color.New(color.FgGreen)
)

// JSON writes v as indented JSON.
func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Message prints a confirmation line, or {"message": msg} in JSON mode.
func (p *printer) Message(msg string) error {
	if p.json {
		return p.JSON(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(p.out, msg)
	return err
}

func (p *printer) table(headers ...any) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	cols := make([]any, len(headers))
	for i, h := range headers {
		cols[i] = headerStyle.Sprint(h)
	}
	tbl.AddRow(cols...)
	return tbl
}

func (p *printer) flush(tbl *uitable.Table, rows int) error {
	if rows == 0 {
		_, err := faintStyle.Fprintln(p.out, "none")
		return err
	}
	_, err := fmt.Fprintln(p.out, tbl)
	return err
}

// Blocks prints blocks in timeline order.
func (p *printer) Blocks(blocks []*types.Block) error {
	if p.json {
		return p.JSON(blocks)
	}
	tbl := p.table("ID", "START", "END", "DURATION", "PROJECT", "TEXT", "TAGS")
	for _, b := range blocks {
		tbl.AddRow(b.BlockID, clock(b.Start), endCell(b.End), elapsed(b.Duration, b.End),
			deref(b.ProjectName), b.Text, strings.Join(b.Tags, ","))
	}
	return p.flush(tbl, len(blocks))
}

// Block prints a single block.
func (p *printer) Block(b *types.Block) error {
	return p.Blocks([]*types.Block{b})
}

// Entries prints entries depth first, indenting each by its nesting.
func (p *printer) Entries(entries []*types.Entry) error {
	if p.json {
		return p.JSON(entries)
	}
	tbl := p.table("ID", "START", "END", "TEXT", "TAGS")
	for _, e := range entries {
		text := strings.Repeat("  ", e.Nesting) + todoMark(e) + e.Text
		tbl.AddRow(e.EntryID, clock(e.StartTimestamp), endCell(e.EndTimestamp), text, strings.Join(e.Tags, ","))
	}
	return p.flush(tbl, len(entries))
}

// Entry prints a single entry.
func (p *printer) Entry(e *types.Entry) error {
	return p.Entries([]*types.Entry{e})
}

// Projects prints the project registry.
func (p *printer) Projects(projects []*types.Project) error {
	if p.json {
		return p.JSON(projects)
	}
	tbl := p.table("ID", "NAME", "COLOR", "ARCHIVED")
	for _, pr := range projects {
		tbl.AddRow(pr.ProjectID, pr.Name, deref(pr.Color), pr.Archived)
	}
	return p.flush(tbl, len(projects))
}

// Counts prints per-table record counts in table order.
func (p *printer) Counts(verb string, counts types.TableCounts) error {
	if p.json {
		return p.JSON(counts)
	}
	tbl := p.table("TABLE", strings.ToUpper(verb))
	for _, name := range types.StandardTableNames {
		tbl.AddRow(name, counts[name])
	}
	return p.flush(tbl, len(counts))
}

func clock(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func endCell(t *time.Time) string {
	if t == nil {
		return openStyle.Sprint("open")
	}
	return clock(*t)
}

func elapsed(seconds int64, end *time.Time) string {
	if end == nil {
		return "-"
	}
	return (time.Duration(seconds) * time.Second).String()
}

func todoMark(e *types.Entry) string {
	switch {
	case !e.ShowTodo:
		return ""
	case e.IsDone:
		return "[x] "
	default:
		return "[ ] "
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
