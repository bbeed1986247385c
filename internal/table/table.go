// Package table renders prompt listings.
package table

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/muesli/reflow/truncate"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/tessro/elgato-prompter-text/internal/prompt"
)

// Column names.
const (
	ColIndex         = "index"
	ColFriendlyName  = "friendlyName"
	ColGUID          = "GUID"
	ColChaptersCount = "chaptersCount"
	ColFile          = "file"
	ColSlug          = "slug"
	ColChapters      = "chapters"
)

// Columns lists every known column.
var Columns = []string{ColIndex, ColFriendlyName, ColGUID, ColChaptersCount, ColFile, ColSlug, ColChapters}

// DefaultColumns are shown when none are requested.
var DefaultColumns = []string{ColIndex, ColFriendlyName, ColGUID, ColChaptersCount, ColFile}

// Format selects the output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatPlain Format = "plain"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatTable, FormatPlain, FormatJSON, FormatYAML}

// EmptyMessage is printed by text formats when there is nothing to list.
const EmptyMessage = "No prompts found."

// chapterSeparator joins chapters in text formats.
const chapterSeparator = " | "

// DefaultChapterWidth caps the chapters cell in table output.
const DefaultChapterWidth = 60

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrUnknownFormat = errors.New("unknown format")
)

// Options controls selection and rendering.
type Options struct {
	Columns      []string
	Sort         string
	Reverse      bool
	Limit        int // negative means no limit
	ShowChapters bool
	Format       Format
	ChapterWidth int
}

// Row is one prompt's listing data.
type Row struct {
	Index         int
	FriendlyName  string
	GUID          string
	ChaptersCount int
	File          string
	Slug          string
	Chapters      []string
}

// Rows builds listing rows from store entries.
func Rows(entries []prompt.Entry) []Row {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{
			Index:         e.Prompt.Index,
			FriendlyName:  e.Prompt.FriendlyName,
			GUID:          strings.ToUpper(e.Prompt.GUID),
			ChaptersCount: len(e.Prompt.Chapters),
			File:          e.File(),
			Slug:          prompt.Slugify(e.Prompt.FriendlyName, prompt.DefaultSlugLength),
			Chapters:      e.Prompt.Chapters,
		})
	}
	return rows
}

// value returns the column's value for structured output.
func (r Row) value(col string) any {
	switch col {
	case ColIndex:
		return r.Index
	case ColFriendlyName:
		return r.FriendlyName
	case ColGUID:
		return r.GUID
	case ColChaptersCount:
		return r.ChaptersCount
	case ColFile:
		return r.File
	case ColSlug:
		return r.Slug
	case ColChapters:
		if r.Chapters == nil {
			return []string{}
		}
		return r.Chapters
	}
	return nil
}

// cell returns the column's value as text.
func (r Row) cell(col string) string {
	switch v := r.value(col).(type) {
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	case []string:
		return strings.Join(v, chapterSeparator)
	}
	return ""
}

func isColumn(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}
	return false
}

func numeric(col string) bool {
	return col == ColIndex || col == ColChaptersCount
}

// ResolveColumns validates the requested columns and applies defaults.
// ShowChapters appends the chapters column when it is not already present.
func ResolveColumns(opts Options) ([]string, error) {
	var missing []string
	for _, c := range opts.Columns {
		if !isColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w(s): %s", ErrUnknownColumn, strings.Join(missing, ", "))
	}

	cols := append([]string(nil), opts.Columns...)
	if len(cols) == 0 {
		cols = append(cols, DefaultColumns...)
	}
	if opts.ShowChapters {
		found := false
		for _, c := range cols {
			found = found || c == ColChapters
		}
		if !found {
			cols = append(cols, ColChapters)
		}
	}
	return cols, nil
}

// Select sorts and limits rows. Sorting is stable; index and chaptersCount
// compare numerically, other columns as text.
func Select(rows []Row, opts Options) ([]Row, error) {
	out := append([]Row(nil), rows...)

	if opts.Sort != "" {
		if !isColumn(opts.Sort) {
			return nil, fmt.Errorf("%w: sort by %s", ErrUnknownColumn, opts.Sort)
		}
		less := func(a, b Row) bool { return a.cell(opts.Sort) < b.cell(opts.Sort) }
		if numeric(opts.Sort) {
			less = func(a, b Row) bool { return a.value(opts.Sort).(int) < b.value(opts.Sort).(int) }
		}
		sort.SliceStable(out, func(i, j int) bool {
			if opts.Reverse {
				return less(out[j], out[i])
			}
			return less(out[i], out[j])
		})
	}

	if opts.Limit >= 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Render writes rows in the requested format after selecting columns,
// sorting and limiting.
func Render(w io.Writer, rows []Row, opts Options) error {
	format := opts.Format
	if format == "" {
		format = FormatTable
	}
	cols, err := ResolveColumns(opts)
	if err != nil {
		return err
	}
	rows, err = Select(rows, opts)
	if err != nil {
		return err
	}

	switch format {
	case FormatTable:
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, EmptyMessage)
			return err
		}
		width := opts.ChapterWidth
		if width <= 0 {
			width = DefaultChapterWidth
		}
		return renderTable(w, cols, rows, width)
	case FormatPlain:
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, EmptyMessage)
			return err
		}
		return renderPlain(w, cols, rows)
	case FormatJSON:
		return renderJSON(w, cols, rows)
	case FormatYAML:
		return renderYAML(w, cols, rows)
	}
	return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

func renderTable(w io.Writer, cols []string, rows []Row, chapterWidth int) error {
	t := tablewriter.NewWriter(w)
	t.SetHeader(cols)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)

	for _, r := range rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			line[i] = r.cell(c)
			if c == ColChapters {
				line[i] = truncate.StringWithTail(line[i], uint(chapterWidth), "…")
			}
		}
		t.Append(line)
	}
	t.Render()
	return nil
}

func renderPlain(w io.Writer, cols []string, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len([]rune(c))
		for _, r := range rows {
			if n := len([]rune(r.cell(c))); n > widths[i] {
				widths[i] = n
			}
		}
	}

	dashes := make([]string, len(cols))
	for i := range cols {
		dashes[i] = strings.Repeat("-", widths[i])
	}
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = r.cell(c)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// record is a row restricted to the selected columns, in order.
type record struct {
	cols []string
	row  Row
}

func (rec record) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, c := range rec.cols {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, err := marshalNoEscape(c)
		if err != nil {
			return nil, err
		}
		val, err := marshalNoEscape(rec.row.value(c))
		if err != nil {
			return nil, err
		}
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(val)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (rec record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range rec.cols {
		var key, val yaml.Node
		if err := key.Encode(c); err != nil {
			return nil, err
		}
		if err := val.Encode(rec.row.value(c)); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &key, &val)
	}
	return node, nil
}

func records(cols []string, rows []Row) []record {
	out := make([]record, 0, len(rows))
	for _, r := range rows {
		out = append(out, record{cols: cols, row: r})
	}
	return out
}

func renderJSON(w io.Writer, cols []string, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(records(cols, rows))
}

func renderYAML(w io.Writer, cols []string, rows []Row) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records(cols, rows)); err != nil {
		return err
	}
	return enc.Close()
}
