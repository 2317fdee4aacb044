package menu

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Period is a meal period within one day.
type Period int

const (
	Breakfast Period = iota
	Lunch
	Dinner
)

// periodNames is the canonical wire form, matching the original API contract.
var periodNames = map[Period]string{
	Breakfast: "breakfast",
	Lunch:     "lunch",
	Dinner:    "dinner",
}

// periodSynonyms maps source-document labels (multiple scripts) to periods.
// Matching is substring-based and case-insensitive, see ParsePeriod.
var periodSynonyms = map[Period][]string{
	Breakfast: {"breakfast", "早餐", "早饭", "早点", "morning"},
	Lunch:     {"lunch", "午餐", "午饭", "中餐", "noon", "midday"},
	Dinner:    {"dinner", "晚餐", "晚饭", "晚点", "evening", "supper"},
}

// DefaultTime returns the canonical serving time used when the source
// document carries no time column.
func (p Period) DefaultTime() string {
	switch p {
	case Breakfast:
		return "07:30"
	case Dinner:
		return "18:00"
	default:
		return "12:00"
	}
}

func (p Period) String() string {
	if name, ok := periodNames[p]; ok {
		return name
	}
	return fmt.Sprintf("period(%d)", int(p))
}

// Valid reports whether p is one of the three known periods.
func (p Period) Valid() bool {
	_, ok := periodNames[p]
	return ok
}

// MarshalJSON encodes the period as its canonical name.
func (p Period) MarshalJSON() ([]byte, error) {
	name, ok := periodNames[p]
	if !ok {
		return nil, fmt.Errorf("invalid meal period %d", int(p))
	}
	return json.Marshal(name)
}

// UnmarshalJSON decodes a canonical period name.
func (p *Period) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for period, name := range periodNames {
		if name == s {
			*p = period
			return nil
		}
	}
	return fmt.Errorf("unknown meal period %q", s)
}

// ParsePeriod resolves a source-document label to a meal period.
// The label matches when any known synonym appears as a substring,
// so "午餐 12:00" still resolves to lunch.
func ParsePeriod(label string) (Period, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return 0, false
	}
	for _, period := range []Period{Breakfast, Lunch, Dinner} {
		for _, syn := range periodSynonyms[period] {
			if strings.Contains(label, syn) {
				return period, true
			}
		}
	}
	return 0, false
}

// IsPeriodLabel reports whether the label exactly names a meal period
// (exact synonym match, not substring). Used for separator detection, where
// only a bare label like "早餐" marks a section boundary.
func IsPeriodLabel(label string) (Period, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, period := range []Period{Breakfast, Lunch, Dinner} {
		for _, syn := range periodSynonyms[period] {
			if label == syn {
				return period, true
			}
		}
	}
	return 0, false
}
