package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/canteen-works/mensa/internal/grid"
)

func decodeCSV(path string) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return csvGrid(f)
}

func decodeCSVBytes(data []byte) (*grid.Grid, error) {
	return csvGrid(bytes.NewReader(data))
}

// utf8BOM is stripped before parsing; spreadsheet exports routinely
// prepend it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func csvGrid(r io.Reader) (*grid.Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rowsToGrid(rows), nil
}
