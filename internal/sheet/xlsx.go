package sheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/canteen-works/mensa/internal/grid"
)

func decodeXLSX(path string) (*grid.Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()
	return xlsxGrid(f)
}

func decodeXLSXBytes(data []byte) (*grid.Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()
	return xlsxGrid(f)
}

// xlsxGrid extracts the first sheet that has any rows. Menu documents put
// the table on one sheet; trailing empty sheets are common and skipped.
//
// Formatted values are read (not raw), so date-styled cells come back as
// date strings the token parser understands, and merged cells leave blanks
// the category-continuation rule fills in.
func xlsxGrid(f *excelize.File) (*grid.Grid, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}
		return rowsToGrid(rows), nil
	}
	return nil, fmt.Errorf("xlsx has no populated sheets")
}
