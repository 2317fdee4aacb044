// Package sheet decodes spreadsheet containers into cell grids.
//
// Three container formats are supported: xlsx (including xlsm), the legacy
// xls binary format, and csv. Decoding normalizes everything into the
// internal/grid cell model; no menu semantics live here.
package sheet

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/canteen-works/mensa/internal/grid"
)

// UnsupportedFormatError carries the offending extension.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format %q", e.Ext)
}

// Extensions lists the file extensions the decoder accepts, lowercased with
// the leading dot.
var Extensions = []string{".xlsx", ".xlsm", ".xls", ".csv"}

// Supported reports whether the path's extension is decodable.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Decode reads the file at path and returns its cell grid. The format is
// chosen by extension.
func Decode(path string) (*grid.Grid, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return decodeXLSX(path)
	case ".xls":
		return decodeXLS(path)
	case ".csv":
		return decodeCSV(path)
	default:
		return nil, &UnsupportedFormatError{Ext: ext}
	}
}

// DecodeBytes decodes an in-memory document, using name only for its
// extension. Used by the upload path where no file exists yet.
func DecodeBytes(data []byte, name string) (*grid.Grid, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		return decodeXLSXBytes(data)
	case ".xls":
		return decodeXLSBytes(data)
	case ".csv":
		return decodeCSVBytes(data)
	default:
		return nil, &UnsupportedFormatError{Ext: ext}
	}
}

// toCell converts one decoded string value into a typed cell. Pure numeric
// strings become number cells so downstream price handling sees them typed;
// everything else stays text. Date recognition happens on tokens downstream.
func toCell(value string) grid.Cell {
	value = strings.TrimSpace(value)
	if value == "" {
		return grid.BlankCell
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return grid.NumberCell(n)
	}
	return grid.TextCell(value)
}

func rowsToGrid(rows [][]string) *grid.Grid {
	cells := make([][]grid.Cell, len(rows))
	for i, row := range rows {
		cells[i] = make([]grid.Cell, len(row))
		for j, v := range row {
			cells[i][j] = toCell(v)
		}
	}
	return grid.New(cells)
}
