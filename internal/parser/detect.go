package parser

import (
	"strings"
	"time"

	"github.com/canteen-works/mensa/internal/grid"
)

// Layout is the structural family a document belongs to. Detection picks
// exactly one; every later stage branches on it.
type Layout int

const (
	LayoutUnknown Layout = iota

	// LayoutColumnar has a header row naming per-column roles and one record
	// per data row.
	LayoutColumnar

	// LayoutHorizontalWeekly has weekday columns and meal-segment rows; each
	// populated cell is one dish on one day.
	LayoutHorizontalWeekly

	// LayoutMinimal has no header: a date-shaped column plus a free-text
	// column, everything else inferred.
	LayoutMinimal
)

func (l Layout) String() string {
	switch l {
	case LayoutColumnar:
		return "columnar"
	case LayoutHorizontalWeekly:
		return "horizontal_weekly"
	case LayoutMinimal:
		return "minimal"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the layout as its string form.
func (l Layout) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// detectProbeRows bounds how deep detection scans for a header or weekday
// row. Real documents put these within the first few lines.
const detectProbeRows = 5

// minWeekdayTokens is how many weekday labels one row must carry before the
// grid counts as a horizontal weekly layout. Five covers a workweek header
// while one stray 周一 in a dish cell stays harmless.
const minWeekdayTokens = 5

// Detection is the outcome of layout detection: the family plus the anchor
// rows the downstream stages start from.
type Detection struct {
	Layout Layout

	// HeaderRow is the role-naming header row for columnar layouts and the
	// weekday row for weekly layouts; -1 for minimal layouts.
	HeaderRow int

	// DataStart is the first row holding dish data.
	DataStart int
}

// DetectLayout classifies the grid into one layout family.
//
// Probe order is most-specific first: a role-naming header row wins, then a
// weekday row, then the minimal date-plus-text shape. A grid matching none
// of the three fails with ErrUnrecognizedLayout; an empty grid fails with
// ErrEmptyDocument. Both are file-fatal.
func DetectLayout(g *grid.Grid, ref time.Time) (Detection, error) {
	if g.Rows() == 0 {
		return Detection{}, ErrEmptyDocument
	}

	if row, ok := findHeaderRow(g); ok {
		return Detection{Layout: LayoutColumnar, HeaderRow: row, DataStart: row + 1}, nil
	}

	if row, ok := findWeekdayRow(g); ok {
		return Detection{Layout: LayoutHorizontalWeekly, HeaderRow: row, DataStart: row + 1}, nil
	}

	if hasMinimalShape(g, ref) {
		return Detection{Layout: LayoutMinimal, HeaderRow: -1, DataStart: 0}, nil
	}

	return Detection{}, ErrUnrecognizedLayout
}

// findHeaderRow scans the top of the grid for a row whose cells name at
// least two distinct column roles.
func findHeaderRow(g *grid.Grid) (int, bool) {
	limit := g.Rows()
	if limit > detectProbeRows {
		limit = detectProbeRows
	}
	for row := 0; row < limit; row++ {
		roles := map[Role]bool{}
		for col := 0; col < g.Cols(); col++ {
			c := g.Cell(row, col)
			if c.Kind != grid.Text {
				continue
			}
			header := strings.ToLower(strings.TrimSpace(c.Text))
			if header == "" {
				continue
			}
			if role := matchHeaderRole(header); role != RoleUnassigned {
				roles[role] = true
			}
		}
		if len(roles) >= 2 {
			return row, true
		}
	}
	return -1, false
}

// findWeekdayRow scans the top of the grid for a row carrying enough weekday
// labels to be a weekly header.
func findWeekdayRow(g *grid.Grid) (int, bool) {
	limit := g.Rows()
	if limit > detectProbeRows {
		limit = detectProbeRows
	}
	for row := 0; row < limit; row++ {
		count := 0
		for col := 0; col < g.Cols(); col++ {
			if isWeekdayToken(g.Cell(row, col).String()) {
				count++
			}
		}
		if count >= minWeekdayTokens {
			return row, true
		}
	}
	return -1, false
}

// isWeekdayToken reports whether the cell text is (or contains) a weekday
// label. Containment handles combined headers like "星期一 12月8日".
func isWeekdayToken(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}
	for _, token := range weekdayTokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}

// hasMinimalShape reports whether the headerless grid still has the two
// ingredients a minimal layout needs: a column of date-shaped values and a
// separate column of free text.
func hasMinimalShape(g *grid.Grid, ref time.Time) bool {
	dateCol := -1
	for col := 0; col < g.Cols(); col++ {
		sample := sampleColumn(g, col, 0)
		if len(sample) > 0 && looksLikeDates(sample, ref) {
			dateCol = col
			break
		}
	}
	if dateCol < 0 {
		return false
	}
	for col := 0; col < g.Cols(); col++ {
		if col == dateCol {
			continue
		}
		sample := sampleColumn(g, col, 0)
		if len(sample) > 0 && looksLikeFreeText(sample) {
			return true
		}
	}
	return false
}
