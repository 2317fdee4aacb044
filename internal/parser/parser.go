// Package parser turns decoded spreadsheet grids into normalized daily
// menus.
//
// The pipeline is fixed: layout detection picks a structural family, column
// or segment identification maps grid positions to meaning, date and period
// resolution anchors rows on the calendar, and the record builder assembles
// ordered dishes. Row-local problems are recorded and skipped; only layout
// and mandatory-column failures abort a document.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/canteen-works/mensa/internal/grid"
	"github.com/canteen-works/mensa/internal/menu"
)

// Parse extracts daily menus from one document grid. The reference date
// anchors year inference for month-day tokens and weekday-only headers;
// times overrides the default serving times (nil keeps the built-ins).
//
// The returned report is never nil; it carries the detected layout and every
// recorded issue. A nil error with a non-empty issue list means some rows
// were skipped but the rest of the document parsed.
func Parse(g *grid.Grid, ref time.Time, times MealTimes) ([]menu.DailyMenu, *Report, error) {
	rep := NewReporter()
	g = g.Trim()

	det, err := DetectLayout(g, ref)
	if err != nil {
		rep.Fatalf("%v", err)
		return nil, rep.Summary(), err
	}
	rep.SetLayout(det.Layout)

	b := NewBuilder(times)
	switch det.Layout {
	case LayoutHorizontalWeekly:
		err = parseWeekly(g, det, ref, rep, b)
	default:
		err = parseColumnar(g, det, ref, rep, b)
	}
	if err != nil {
		return nil, rep.Summary(), err
	}

	return b.Build(), rep.Summary(), nil
}

// parseColumnar handles both the columnar and the minimal layout: one record
// per row, roles resolved per column. Minimal grids enter with no header row
// and rely entirely on content-shape identification.
func parseColumnar(g *grid.Grid, det Detection, ref time.Time, rep *Reporter, b *Builder) error {
	cols := IdentifyColumns(g, det.HeaderRow, det.DataStart, ref)

	for _, role := range []Role{RoleDate, RoleDishName} {
		if !cols.Has(role) {
			rep.Fatalf("no column identified for %s", role)
			return fmt.Errorf("%w: %s", ErrMandatoryColumn, role)
		}
	}

	var (
		lastDates  []time.Time
		lastPeriod = menu.Lunch
		havePeriod bool
	)

	for row := det.DataStart; row < g.Rows(); row++ {
		if g.RowBlank(row) {
			continue
		}

		dates := lastDates
		dateCell := g.Cell(row, cols[RoleDate])
		if !dateCell.IsBlank() {
			var err error
			dates, err = CellDate(dateCell, ref)
			if err != nil {
				rep.Rowf(row, cols[RoleDate], "%v", err)
				continue
			}
			lastDates = dates
		}
		if len(dates) == 0 {
			rep.Rowf(row, cols[RoleDate], "no date for row")
			continue
		}

		period := lastPeriod
		if col, ok := cols[RoleMealPeriod]; ok {
			if text := g.Cell(row, col).String(); text != "" {
				p, ok := menu.ParsePeriod(text)
				if !ok {
					rep.Rowf(row, col, "unrecognized meal period %q", text)
					continue
				}
				period = p
				lastPeriod = p
				havePeriod = true
			}
		}

		var mealTime string
		if col, ok := cols[RoleTime]; ok {
			mealTime = strings.TrimSpace(g.Cell(row, col).String())
			// Without a meal-period column the serving time decides the
			// period.
			if !havePeriod && mealTime != "" {
				if p, ok := periodFromTime(mealTime); ok {
					period = p
					lastPeriod = p
				}
			}
		}

		name := strings.TrimSpace(g.Cell(row, cols[RoleDishName]).String())
		if name == "" {
			rep.Rowf(row, cols[RoleDishName], "missing dish name")
			continue
		}

		in := DishInput{Name: name}
		if col, ok := cols[RoleDescription]; ok {
			in.Description = g.Cell(row, col).String()
		}
		if col, ok := cols[RoleCategory]; ok {
			in.Category = g.Cell(row, col).String()
		}
		if col, ok := cols[RolePrice]; ok {
			price, err := parsePrice(g.Cell(row, col))
			if err != nil {
				rep.Rowf(row, col, "%v", err)
				continue
			}
			in.Price = price
		}

		for _, date := range dates {
			b.AddDish(date, period, in)
			if mealTime != "" {
				b.SetMealTime(date, period, mealTime)
			}
		}
	}
	return nil
}

// parseWeekly handles the horizontal weekly layout: weekday columns, meal
// segments stacked vertically, the leading column carrying categories.
func parseWeekly(g *grid.Grid, det Detection, ref time.Time, rep *Reporter, b *Builder) error {
	colDates := weeklyDates(g, det.HeaderRow, ref, rep)
	if len(colDates) == 0 {
		rep.Fatalf("no weekday column resolved to a date")
		return fmt.Errorf("%w: date", ErrMandatoryColumn)
	}

	segments := IdentifySegments(g, det.HeaderRow)
	if len(segments) == 0 {
		rep.Fatalf("no meal segments found below weekday header")
		return ErrEmptyDocument
	}

	for _, seg := range segments {
		for row := seg.StartRow; row <= seg.EndRow; row++ {
			category := strings.TrimSpace(g.Cell(row, 0).String())
			for col, date := range colDates {
				cell := g.Cell(row, col)
				if cell.IsBlank() {
					continue
				}
				name := strings.TrimSpace(cell.String())
				if name == "" {
					continue
				}
				b.AddDish(date, seg.Period, DishInput{Name: name, Category: category})
			}
		}
	}
	return nil
}

// embeddedDateRe finds a month-day token inside a larger header cell, e.g.
// the date half of "星期一 12月8日".
var embeddedDateRe = regexp.MustCompile(`\d{1,4}[-/.年月]\d{1,2}(?:[-/.月]\d{1,2})?日?`)

// weeklyDates maps weekday column indices to calendar dates.
//
// Resolution order: a date embedded in the weekday header cell itself wins;
// columns without one are filled by weekday arithmetic from an anchored
// column; if no header carries a date, a date-range token above the header
// anchors the week; as a last resort the week containing the reference date
// is assumed.
func weeklyDates(g *grid.Grid, headerRow int, ref time.Time, rep *Reporter) map[int]time.Time {
	type weekdayCol struct {
		col     int
		weekday int
	}
	var wdCols []weekdayCol
	dates := map[int]time.Time{}

	for col := 0; col < g.Cols(); col++ {
		text := g.Cell(headerRow, col).String()
		wd, ok := weekdayIndex(text)
		if !ok {
			continue
		}
		wdCols = append(wdCols, weekdayCol{col: col, weekday: wd})

		if token := embeddedDateRe.FindString(text); token != "" {
			if d, err := ParseDate(token, ref); err == nil {
				dates[col] = d
			} else {
				rep.Rowf(headerRow, col, "%v", err)
			}
		}
	}
	if len(wdCols) == 0 {
		return nil
	}

	// Anchor: an explicitly dated column, then a range token above the
	// header, then the reference week's Monday.
	var anchor time.Time
	anchorWd := -1
	for _, wc := range wdCols {
		if d, ok := dates[wc.col]; ok {
			anchor, anchorWd = d, wc.weekday
			break
		}
	}
	if anchorWd < 0 {
		if d, ok := rangeAbove(g, headerRow, ref); ok {
			anchor, anchorWd = d, wdCols[0].weekday
		}
	}
	if anchorWd < 0 {
		monday := ref.AddDate(0, 0, -((int(ref.Weekday()) + 6) % 7))
		anchor, anchorWd = monday, 0
	}

	for _, wc := range wdCols {
		if _, ok := dates[wc.col]; ok {
			continue
		}
		dates[wc.col] = anchor.AddDate(0, 0, wc.weekday-anchorWd)
	}
	return dates
}

// rangeAbove scans the rows above the weekday header for a date token and
// returns its first day.
func rangeAbove(g *grid.Grid, headerRow int, ref time.Time) (time.Time, bool) {
	for row := 0; row < headerRow; row++ {
		for col := 0; col < g.Cols(); col++ {
			text := g.Cell(row, col).String()
			if text == "" {
				continue
			}
			if token := embeddedDateRe.FindString(text); token != "" {
				// The token may itself be a range; its first day anchors the
				// week either way.
				if ds, err := ExpandDates(token, ref); err == nil && len(ds) > 0 {
					return ds[0], true
				}
			}
		}
	}
	return time.Time{}, false
}

// weekdayIndices maps weekday labels to Monday-based indices.
var weekdayIndices = map[string]int{
	"星期一": 0, "周一": 0, "monday": 0, "mon": 0,
	"星期二": 1, "周二": 1, "tuesday": 1, "tue": 1,
	"星期三": 2, "周三": 2, "wednesday": 2, "wed": 2,
	"星期四": 3, "周四": 3, "thursday": 3, "thu": 3,
	"星期五": 4, "周五": 4, "friday": 4, "fri": 4,
	"星期六": 5, "周六": 5, "saturday": 5, "sat": 5,
	"星期日": 6, "星期天": 6, "周日": 6, "sunday": 6, "sun": 6,
}

// weekdayIndex resolves a header cell to a Monday-based weekday index.
// Longer labels are probed first so 星期天 is not shadowed by a shorter
// match inside the same text.
func weekdayIndex(text string) (int, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0, false
	}
	best, bestLen := -1, 0
	for label, wd := range weekdayIndices {
		if strings.Contains(text, label) && len(label) > bestLen {
			best, bestLen = wd, len(label)
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// periodBoundaries: serving times before 10:30 read as breakfast, before
// 16:00 as lunch, later as dinner.
func periodFromTime(t string) (menu.Period, bool) {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	min, err2 := strconv.Atoi(strings.TrimSpace(parts[1][:min(len(parts[1]), 2)]))
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, false
	}
	total := hour*60 + min
	switch {
	case total < 10*60+30:
		return menu.Breakfast, true
	case total < 16*60:
		return menu.Lunch, true
	default:
		return menu.Dinner, true
	}
}

// priceValueRe extracts the numeric part of a price cell, tolerating
// currency markers like ￥12 or 12元.
var priceValueRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

func parsePrice(c grid.Cell) (*float64, error) {
	switch c.Kind {
	case grid.Blank:
		return nil, nil
	case grid.Number:
		if c.Number < 0 {
			return nil, fmt.Errorf("negative price %v", c.Number)
		}
		v := c.Number
		return &v, nil
	case grid.Text:
		s := priceValueRe.FindString(c.Text)
		if s == "" {
			return nil, fmt.Errorf("unparseable price %q", c.Text)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("unparseable price %q", c.Text)
		}
		return &v, nil
	default:
		return nil, fmt.Errorf("unparseable price cell")
	}
}
