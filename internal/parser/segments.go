package parser

import (
	"strings"

	"github.com/canteen-works/mensa/internal/grid"
	"github.com/canteen-works/mensa/internal/menu"
)

// Segment is a contiguous row range within a weekly grid inferred to hold
// one meal period's dishes.
type Segment struct {
	StartRow int
	EndRow   int // inclusive
	Period   menu.Period

	// explicit records that the period came from a labeled separator rather
	// than content scoring; explicit labels survive the normalization pass.
	explicit bool
}

// blankSeparatorRatio is the blank-cell fraction above which a row counts as
// a blank separator line.
const blankSeparatorRatio = 0.8

// IdentifySegments partitions the rows below the weekday header of a
// horizontal weekly grid into meal segments.
//
// A row separates segments when its leading cell is a bare meal-period
// label, equals the category-divider marker, or the row is (almost) blank.
// Unlabeled segments are classified by vocabulary scoring with position
// hints, then the segment count is normalized: one segment is lunch, two are
// breakfast and lunch, three or more are breakfast, lunch and dinner with
// the surplus merged into dinner. The two-segment mapping is a fixed policy
// carried over from the source behavior; it does not attempt to distinguish
// a lunch-plus-dinner document.
func IdentifySegments(g *grid.Grid, weekdayRow int) []Segment {
	var segments []Segment

	segStart := weekdayRow + 1
	var pending *menu.Period

	closeSegment := func(endBefore int) {
		if segStart >= endBefore {
			return
		}
		seg := Segment{StartRow: segStart, EndRow: endBefore - 1}
		if pending != nil {
			seg.Period = *pending
			seg.explicit = true
		} else {
			seg.Period = classifySegment(g, seg.StartRow, seg.EndRow)
		}
		segments = append(segments, seg)
	}

	for row := weekdayRow + 1; row < g.Rows(); row++ {
		label, isSep := separatorPeriod(g, row)
		if !isSep {
			continue
		}
		closeSegment(row)
		segStart = row + 1
		pending = label
	}
	closeSegment(g.Rows())

	return normalizeSegments(g, segments)
}

// separatorPeriod reports whether the row is a segment separator and, when
// the separator itself names a meal period, which one.
func separatorPeriod(g *grid.Grid, row int) (*menu.Period, bool) {
	leading := strings.TrimSpace(g.Cell(row, 0).String())

	if p, ok := menu.IsPeriodLabel(leading); ok {
		return &p, true
	}
	if leading == CategoryDivider {
		return nil, true
	}
	if leading == "" && g.RowBlankRatio(row) > blankSeparatorRatio {
		return nil, true
	}
	return nil, false
}

// classifySegment scores the segment's aggregated text against the
// per-period vocabularies and returns the winner, defaulting to lunch on a
// zero-score tie.
func classifySegment(g *grid.Grid, startRow, endRow int) menu.Period {
	var sb strings.Builder
	for row := startRow; row <= endRow; row++ {
		for col := 0; col < g.Cols(); col++ {
			if text := g.Cell(row, col).String(); text != "" {
				sb.WriteString(text)
				sb.WriteByte(' ')
			}
		}
	}
	period, _ := scorePeriods(sb.String(), "")
	return period
}

// scorePeriods runs the weighted vocabulary match. positionHint is "first",
// "middle", "last" or empty; it nudges the score toward the period that
// position usually holds.
func scorePeriods(content, positionHint string) (menu.Period, float64) {
	scores := map[menu.Period]float64{}

	for _, period := range []menu.Period{menu.Breakfast, menu.Lunch, menu.Dinner} {
		vocab := periodVocabularies[period]
		for _, category := range vocab.categories {
			if strings.Contains(content, category) {
				scores[period] += 5
			}
		}
		for _, keyword := range vocab.keywords {
			scores[period] += 2 * float64(strings.Count(content, keyword))
		}
	}

	switch positionHint {
	case "first":
		scores[menu.Breakfast] += 2
	case "middle":
		scores[menu.Lunch] += 2
	case "last":
		scores[menu.Dinner] += 2
	}

	// Porridge next to meat dishes reads as lunch, not breakfast; a 清淡 or
	// 小菜 section reads as dinner.
	if strings.Contains(content, "粥") &&
		(strings.Contains(content, "肉") || strings.Contains(content, "鸡") || strings.Contains(content, "鱼")) {
		scores[menu.Breakfast] *= 0.7
		scores[menu.Lunch]++
	}
	for _, light := range []string{"清淡", "小菜", "清炒"} {
		if strings.Contains(content, light) {
			scores[menu.Dinner] += 3
			break
		}
	}

	best, bestScore := menu.Lunch, 0.0
	// Fixed iteration order makes the zero-score default deterministic.
	for _, period := range []menu.Period{menu.Breakfast, menu.Lunch, menu.Dinner} {
		if scores[period] > bestScore {
			best, bestScore = period, scores[period]
		}
	}
	if bestScore == 0 {
		return menu.Lunch, 0
	}

	total := scores[menu.Breakfast] + scores[menu.Lunch] + scores[menu.Dinner]
	return best, bestScore / total
}

// defaultAssignment is the fixed segment-count-to-period table.
func defaultAssignment(count int) []menu.Period {
	switch count {
	case 1:
		return []menu.Period{menu.Lunch}
	case 2:
		return []menu.Period{menu.Breakfast, menu.Lunch}
	default:
		periods := []menu.Period{menu.Breakfast, menu.Lunch, menu.Dinner}
		for i := 3; i < count; i++ {
			periods = append(periods, menu.Dinner)
		}
		return periods
	}
}

// normalizeSegments reconciles scored periods with the fixed assignment
// table and collapses surplus segments into dinner.
func normalizeSegments(g *grid.Grid, segments []Segment) []Segment {
	if len(segments) == 0 {
		return segments
	}

	defaults := defaultAssignment(len(segments))
	for i := range segments {
		if segments[i].explicit {
			continue
		}

		hint := ""
		if len(segments) > 1 {
			switch i {
			case 0:
				hint = "first"
			case len(segments) - 1:
				hint = "last"
			default:
				hint = "middle"
			}
		}

		var sb strings.Builder
		for row := segments[i].StartRow; row <= segments[i].EndRow; row++ {
			for col := 0; col < g.Cols(); col++ {
				if text := g.Cell(row, col).String(); text != "" {
					sb.WriteString(text)
					sb.WriteByte(' ')
				}
			}
		}
		inferred, confidence := scorePeriods(sb.String(), hint)

		switch {
		case confidence > 0.5 && inferred == defaults[i]:
			segments[i].Period = inferred
		case confidence > 0.8:
			// High-confidence content evidence overrides the position table.
			segments[i].Period = inferred
		default:
			segments[i].Period = defaults[i]
		}
	}

	if len(segments) > 3 {
		segments[2].EndRow = segments[len(segments)-1].EndRow
		segments = segments[:3]
	}
	return segments
}
