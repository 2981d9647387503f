package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fatih/color"

	"gridhost/internal/engine"
)

// Text prints the grid to a writer every time it is attached.
type Text struct {
	mu       sync.Mutex
	w        io.Writer
	header   *color.Color
	detached *color.Color
}

func NewText(w io.Writer) *Text {
	return &Text{
		w:        w,
		header:   color.New(color.FgCyan, color.Bold),
		detached: color.New(color.FgYellow),
	}
}

// NoColor turns off escape codes, for writers that are not terminals.
func (t *Text) NoColor() *Text {
	t.header.DisableColor()
	t.detached.DisableColor()
	return t
}

func (t *Text) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detached.Fprintln(t.w, "-- grid detached --")
}

func (t *Text) Attach(s engine.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "grid %s generation=%d rows=%d columns=%d\n", s.ID, s.Generation, len(s.Rows), len(s.Columns))
	WriteTable(t.w, s.Table(), t.header)
}

// WriteTable writes tbl as space-aligned columns. Missing cells are blank.
// Padding is computed before coloring so escape codes do not skew widths.
func WriteTable(w io.Writer, tbl engine.Table, header *color.Color) {
	widths := make([]int, len(tbl.Header))
	for i, h := range tbl.Header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range tbl.Rows {
		for i, c := range row {
			if n := utf8.RuneCountInString(c.Text); n > widths[i] {
				widths[i] = n
			}
		}
	}

	cells := make([]string, len(tbl.Header))
	for i, h := range tbl.Header {
		cell := pad(h, widths[i])
		if header != nil {
			cell = header.Sprint(cell)
		}
		cells[i] = cell
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))

	for _, row := range tbl.Rows {
		for i, c := range row {
			cells[i] = pad(c.Text, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells[:len(row)], "  "), " "))
	}
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
