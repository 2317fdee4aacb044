package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
	"unicode"

	"github.com/canteen-works/mensa/internal/grid"
)

// DateParseError reports a token that could not be resolved to a date.
// It is always row-local: the caller records it and skips the row.
type DateParseError struct {
	Token string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unparseable date token %q", e.Token)
}

// maxFutureMonths bounds year inference: source documents are retrospective
// or near-term schedules, never far-future ones, so a candidate year that
// would place the date more than this many months ahead of the reference
// date is rejected. Exactly six months either way resolves to the past.
const maxFutureMonths = 6

var (
	fullDateRe = regexp.MustCompile(`^(\d{4})[-/.年](\d{1,2})[-/.月](\d{1,2})日?$`)
	dmyDateRe  = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})$`)

	// Excel's default short date format renders serial dates as m-d-yy.
	shortMdyRe = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{2})$`)
	monthDayRe = regexp.MustCompile(`^(\d{1,2})[-/.月](\d{1,2})日?$`)

	// Day ranges within one token: "12月8-12日" and "12月29-1月2日".
	sameMonthRangeRe  = regexp.MustCompile(`^(\d{1,2})月(\d{1,2})日?\s*[-–~]\s*(\d{1,2})日?$`)
	crossMonthRangeRe = regexp.MustCompile(`^(\d{1,2})月(\d{1,2})日?\s*[-–~]\s*(\d{1,2})月(\d{1,2})日?$`)
	slashRangeRe      = regexp.MustCompile(`^(\d{1,2})[/.](\d{1,2})\s*[-–~]\s*(\d{1,2})[/.](\d{1,2})$`)
)

// ParseDate resolves one date token to a calendar date.
//
// Fully qualified forms (ISO, slashed, dotted, 年月日) are taken as written.
// Month-day forms have their year inferred from the reference date: among
// candidate years {ref-1, ref, ref+1} the one minimizing absolute month
// distance wins, candidates beyond maxFutureMonths in the future are
// excluded, and ties resolve toward the past. The result is deterministic
// for a given (token, ref) pair.
func ParseDate(token string, ref time.Time) (time.Time, error) {
	token = normalizeToken(token)
	if token == "" {
		return time.Time{}, &DateParseError{Token: token}
	}

	if m := fullDateRe.FindStringSubmatch(token); m != nil {
		return makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), token, ref)
	}

	if m := dmyDateRe.FindStringSubmatch(token); m != nil {
		first, second, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
		// Day-first when plausible, matching the source documents; fall back
		// to month-first for forms like 12/15/2023.
		if second <= 12 {
			return makeDate(year, second, first, token, ref)
		}
		return makeDate(year, first, second, token, ref)
	}

	if m := shortMdyRe.FindStringSubmatch(token); m != nil {
		return makeDate(2000+atoi(m[3]), atoi(m[1]), atoi(m[2]), token, ref)
	}

	if m := monthDayRe.FindStringSubmatch(token); m != nil {
		month, day := atoi(m[1]), atoi(m[2])
		year, err := inferYear(month, ref)
		if err != nil {
			return time.Time{}, &DateParseError{Token: token}
		}
		return makeDate(year, month, day, token, ref)
	}

	return time.Time{}, &DateParseError{Token: token}
}

// ExpandDates resolves a token to one or more calendar dates. Day-range
// tokens expand to one date per day; a cross-year range (end month
// numerically before start month, e.g. "12月29-1月2日") rolls the year over
// once at the month boundary.
func ExpandDates(token string, ref time.Time) ([]time.Time, error) {
	token = normalizeToken(token)

	var startMonth, startDay, endMonth, endDay int
	switch {
	case crossMonthRangeRe.MatchString(token):
		m := crossMonthRangeRe.FindStringSubmatch(token)
		startMonth, startDay, endMonth, endDay = atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4])
	case sameMonthRangeRe.MatchString(token):
		m := sameMonthRangeRe.FindStringSubmatch(token)
		startMonth, startDay, endDay = atoi(m[1]), atoi(m[2]), atoi(m[3])
		endMonth = startMonth
	case slashRangeRe.MatchString(token):
		m := slashRangeRe.FindStringSubmatch(token)
		startMonth, startDay, endMonth, endDay = atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4])
	default:
		d, err := ParseDate(token, ref)
		if err != nil {
			return nil, err
		}
		return []time.Time{d}, nil
	}

	startYear, err := inferYear(startMonth, ref)
	if err != nil {
		return nil, &DateParseError{Token: token}
	}
	endYear := startYear
	if endMonth < startMonth {
		endYear++
	}

	start, err := makeDate(startYear, startMonth, startDay, token, ref)
	if err != nil {
		return nil, err
	}
	end, err := makeDate(endYear, endMonth, endDay, token, ref)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, &DateParseError{Token: token}
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// CellDate resolves a grid cell to dates: typed date cells pass through,
// text cells go through token parsing, numeric cells are rejected (excel
// serial dates are resolved at the decoding boundary).
func CellDate(c grid.Cell, ref time.Time) ([]time.Time, error) {
	switch c.Kind {
	case grid.Date:
		t := c.Time
		return []time.Time{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, ref.Location())}, nil
	case grid.Text:
		return ExpandDates(c.Text, ref)
	default:
		return nil, &DateParseError{Token: c.String()}
	}
}

// inferYear picks the year for a bare month under the distance-minimizing
// window documented on ParseDate.
func inferYear(month int, ref time.Time) (int, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("month %d out of range", month)
	}
	refMonths := ref.Year()*12 + int(ref.Month()) - 1

	best := 0
	bestDist := -1
	for year := ref.Year() - 1; year <= ref.Year()+1; year++ {
		diff := year*12 + month - 1 - refMonths
		if diff > maxFutureMonths {
			continue
		}
		dist := diff
		if dist < 0 {
			dist = -dist
		}
		// Strict comparison keeps the earlier year on exact ties.
		if bestDist < 0 || dist < bestDist {
			best, bestDist = year, dist
		}
	}
	if bestDist < 0 {
		return 0, fmt.Errorf("no candidate year for month %d", month)
	}
	return best, nil
}

// makeDate validates the calendar triple and builds the date in the
// reference location.
func makeDate(year, month, day int, token string, ref time.Time) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, &DateParseError{Token: token}
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, ref.Location())
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject such tokens.
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, &DateParseError{Token: token}
	}
	return d, nil
}

func normalizeToken(token string) string {
	out := make([]rune, 0, len(token))
	for _, r := range token {
		switch {
		case unicode.IsSpace(r):
			continue
		case r == '\uFF0D' || r == '\u2014' || r == '\u2015':
			out = append(out, '-')
		case r == '\uFF0F':
			out = append(out, '/')
		case r == '\uFF0E' || r == '\u3002':
			out = append(out, '.')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
