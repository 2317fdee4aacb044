// Package grid defines the decoded cell matrix handed to the menu parser.
//
// Container decoding (xlsx/xls/csv) happens in internal/sheet; everything
// downstream of it pattern-matches the small closed set of cell kinds defined
// here instead of coercing interface{} values ad hoc.
package grid

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies the scalar type of a cell.
type Kind int

const (
	Blank Kind = iota
	Text
	Number
	Date
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Text:
		return "text"
	case Number:
		return "number"
	case Date:
		return "date"
	default:
		return "unknown"
	}
}

// Cell is one decoded spreadsheet cell.
// Exactly one of Text/Number/Time carries a value, selected by Kind.
type Cell struct {
	Kind   Kind
	Text   string    // Kind == Text
	Number float64   // Kind == Number
	Time   time.Time // Kind == Date
}

// BlankCell is the zero cell.
var BlankCell = Cell{Kind: Blank}

// TextCell returns a text cell, collapsing whitespace-only input to blank.
func TextCell(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return BlankCell
	}
	return Cell{Kind: Text, Text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(v float64) Cell {
	return Cell{Kind: Number, Number: v}
}

// DateCell returns a date cell.
func DateCell(t time.Time) Cell {
	return Cell{Kind: Date, Time: t}
}

// IsBlank reports whether the cell holds no value.
func (c Cell) IsBlank() bool {
	return c.Kind == Blank
}

// String returns the cell's text rendering.
// Numbers render without a trailing ".000000" when integral; dates render as
// YYYY-MM-DD. Used by heuristics that score raw cell content.
func (c Cell) String() string {
	switch c.Kind {
	case Text:
		return c.Text
	case Number:
		return formatNumber(c.Number)
	case Date:
		return c.Time.Format("2006-01-02")
	default:
		return ""
	}
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Grid is the rows x columns cell matrix for one document.
// Rows may be ragged; Cell() bounds-checks so callers can treat it as
// rectangular.
type Grid struct {
	rows [][]Cell
}

// New builds a Grid from decoded rows.
func New(rows [][]Cell) *Grid {
	return &Grid{rows: rows}
}

// Rows returns the number of rows.
func (g *Grid) Rows() int {
	return len(g.rows)
}

// Cols returns the widest row's column count.
func (g *Grid) Cols() int {
	max := 0
	for _, r := range g.rows {
		if len(r) > max {
			max = len(r)
		}
	}
	return max
}

// Cell returns the cell at (row, col), or a blank cell when out of range.
func (g *Grid) Cell(row, col int) Cell {
	if row < 0 || row >= len(g.rows) {
		return BlankCell
	}
	r := g.rows[row]
	if col < 0 || col >= len(r) {
		return BlankCell
	}
	return r[col]
}

// Row returns the raw cells of one row (may be shorter than Cols()).
func (g *Grid) Row(row int) []Cell {
	if row < 0 || row >= len(g.rows) {
		return nil
	}
	return g.rows[row]
}

// RowBlank reports whether every cell in the row is blank.
func (g *Grid) RowBlank(row int) bool {
	for _, c := range g.Row(row) {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// RowBlankRatio returns the fraction of blank cells in the row, measured
// against the grid's full width.
func (g *Grid) RowBlankRatio(row int) float64 {
	cols := g.Cols()
	if cols == 0 {
		return 1
	}
	blank := 0
	for col := 0; col < cols; col++ {
		if g.Cell(row, col).IsBlank() {
			blank++
		}
	}
	return float64(blank) / float64(cols)
}

// Trim returns a copy of the grid with fully blank leading/trailing rows and
// fully blank trailing columns removed. Interior blank rows are preserved:
// the segment identifier treats them as separators.
func (g *Grid) Trim() *Grid {
	start, end := 0, len(g.rows)
	for start < end && g.RowBlank(start) {
		start++
	}
	for end > start && g.RowBlank(end-1) {
		end--
	}

	width := 0
	for row := start; row < end; row++ {
		for col := len(g.rows[row]); col > width; col-- {
			if !g.rows[row][col-1].IsBlank() {
				width = col
				break
			}
		}
	}

	trimmed := make([][]Cell, 0, end-start)
	for row := start; row < end; row++ {
		src := g.rows[row]
		if len(src) > width {
			src = src[:width]
		}
		dst := make([]Cell, len(src))
		copy(dst, src)
		trimmed = append(trimmed, dst)
	}
	return &Grid{rows: trimmed}
}
