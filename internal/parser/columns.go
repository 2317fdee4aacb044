package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/canteen-works/mensa/internal/grid"
	"github.com/canteen-works/mensa/internal/menu"
)

// Role is the semantic meaning assigned to a column.
type Role int

const (
	RoleUnassigned Role = iota
	RoleDate
	RoleMealPeriod
	RoleTime
	RoleDishName
	RoleDescription
	RoleCategory
	RolePrice
)

func (r Role) String() string {
	switch r {
	case RoleDate:
		return "date"
	case RoleMealPeriod:
		return "meal_period"
	case RoleTime:
		return "time"
	case RoleDishName:
		return "dish_name"
	case RoleDescription:
		return "description"
	case RoleCategory:
		return "category"
	case RolePrice:
		return "price"
	default:
		return "unassigned"
	}
}

// Columns maps each role to its column index. Absent roles are unassigned.
type Columns map[Role]int

// Has reports whether the role resolved to a column.
func (c Columns) Has(role Role) bool {
	_, ok := c[role]
	return ok
}

// contentSampleRows bounds the content-shape fallback: only the first few
// data rows are sampled per column.
const contentSampleRows = 10

var timeShapeRe = regexp.MustCompile(`^\d{1,2}:\d{2}`)

// IdentifyColumns assigns semantic roles to columns.
//
// Stage one matches header text against per-role name patterns (multiple
// scripts). Stage two samples the first data rows of still-unassigned
// columns and scores them against role shape predicates. Within a stage the
// first-scanned column wins a role; a role with no convincing column stays
// unassigned and the caller applies layout defaults or fails if the role is
// mandatory.
func IdentifyColumns(g *grid.Grid, headerRow, dataStart int, ref time.Time) Columns {
	cols := Columns{}
	assigned := make(map[int]bool)

	if headerRow >= 0 {
		for col := 0; col < g.Cols(); col++ {
			header := strings.ToLower(strings.TrimSpace(g.Cell(headerRow, col).String()))
			if header == "" {
				continue
			}
			role := matchHeaderRole(header)
			if role == RoleUnassigned || cols.Has(role) || assigned[col] {
				continue
			}
			cols[role] = col
			assigned[col] = true
		}
	}

	// Content-shape fallback for whatever the header pass left open.
	for col := 0; col < g.Cols(); col++ {
		if assigned[col] {
			continue
		}
		sample := sampleColumn(g, col, dataStart)
		if len(sample) == 0 {
			continue
		}

		role := inferColumnRole(sample, cols, ref)
		if role == RoleUnassigned || cols.Has(role) {
			continue
		}
		cols[role] = col
		assigned[col] = true
	}

	return cols
}

// matchHeaderRole resolves a lowercased header text to a role by pattern
// containment. Date patterns win over bare time patterns ("日期" before
// "时间") because rolePatterns is probed in a fixed role order.
func matchHeaderRole(header string) Role {
	for _, role := range []Role{RoleDate, RoleMealPeriod, RoleDishName, RoleCategory, RoleDescription, RolePrice, RoleTime} {
		for _, pattern := range rolePatterns[role] {
			if strings.Contains(header, pattern) {
				return role
			}
		}
	}
	return RoleUnassigned
}

// sampleColumn collects up to contentSampleRows non-blank cells from the
// column, starting at dataStart.
func sampleColumn(g *grid.Grid, col, dataStart int) []grid.Cell {
	var sample []grid.Cell
	for row := dataStart; row < g.Rows() && len(sample) < contentSampleRows; row++ {
		c := g.Cell(row, col)
		if !c.IsBlank() {
			sample = append(sample, c)
		}
	}
	return sample
}

// inferColumnRole scores a column sample against role shape predicates.
// Predicate order encodes specificity: dates before times before meal labels
// before prices; free text falls through to dish name or description.
func inferColumnRole(sample []grid.Cell, already Columns, ref time.Time) Role {
	switch {
	case !already.Has(RoleDate) && looksLikeDates(sample, ref):
		return RoleDate
	case !already.Has(RoleTime) && looksLikeTimes(sample):
		return RoleTime
	case !already.Has(RoleMealPeriod) && looksLikePeriods(sample):
		return RoleMealPeriod
	case !already.Has(RolePrice) && looksLikePrices(sample):
		return RolePrice
	case !already.Has(RoleDishName) && looksLikeFreeText(sample):
		return RoleDishName
	case !already.Has(RoleDescription) && looksLikeFreeText(sample):
		return RoleDescription
	default:
		return RoleUnassigned
	}
}

func looksLikeDates(sample []grid.Cell, ref time.Time) bool {
	for _, c := range sample {
		if c.Kind == grid.Date {
			return true
		}
		if c.Kind == grid.Text {
			if _, err := ExpandDates(c.Text, ref); err == nil {
				return true
			}
		}
	}
	return false
}

func looksLikeTimes(sample []grid.Cell) bool {
	for _, c := range sample {
		if c.Kind == grid.Text && timeShapeRe.MatchString(strings.TrimSpace(c.Text)) {
			return true
		}
	}
	return false
}

func looksLikePeriods(sample []grid.Cell) bool {
	for _, c := range sample {
		if c.Kind != grid.Text {
			continue
		}
		if _, ok := menu.ParsePeriod(c.Text); ok {
			return true
		}
	}
	return false
}

func looksLikePrices(sample []grid.Cell) bool {
	numeric := 0
	for _, c := range sample {
		switch c.Kind {
		case grid.Number:
			if c.Number < 0 {
				return false
			}
			numeric++
		case grid.Text, grid.Date:
			return false
		}
	}
	return numeric > 0
}

// looksLikeFreeText accepts columns of varied, non-trivial text - the shape
// of dish names and descriptions.
func looksLikeFreeText(sample []grid.Cell) bool {
	lengths := make(map[int]bool)
	total := 0
	for _, c := range sample {
		if c.Kind != grid.Text {
			return false
		}
		n := len([]rune(c.Text))
		lengths[n] = true
		total += n
	}
	if len(sample) == 0 {
		return false
	}
	avg := float64(total) / float64(len(sample))
	return avg > 2 && (len(lengths) > 1 || len(sample) == 1)
}
