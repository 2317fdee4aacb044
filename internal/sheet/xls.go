package sheet

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"

	"github.com/canteen-works/mensa/internal/grid"
)

func decodeXLS(path string) (*grid.Grid, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	return xlsGrid(wb)
}

func decodeXLSBytes(data []byte) (*grid.Grid, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	return xlsGrid(wb)
}

// xlsGrid extracts the first populated worksheet of a legacy binary
// workbook. Cell values arrive pre-rendered as strings.
func xlsGrid(wb *xls.WorkBook) (*grid.Grid, error) {
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("xls has no sheets")
	}
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil || ws.MaxRow == 0 {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol()+1)
			for c := row.FirstCol(); c <= row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			rows = append(rows, cells)
		}
		return rowsToGrid(rows), nil
	}
	return nil, fmt.Errorf("xls has no populated sheets")
}
