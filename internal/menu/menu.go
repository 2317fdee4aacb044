// Package menu defines the normalized menu records produced by the parser
// and served by the API: one DailyMenu per calendar date, holding ordered
// meals, holding ordered dishes.
package menu

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// DateFormat is the wire format for menu dates.
const DateFormat = "2006-01-02"

// OtherCategory is the sentinel assigned to dishes whose source row carries
// no category cell.
const OtherCategory = "其他"

var timeRe = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// Dish is a single food item within a meal.
//
// Order is the dish's encounter position within its meal; CategoryOrder is
// the encounter position of the dish's category among the categories first
// seen in the meal. All dishes sharing a category share a CategoryOrder.
type Dish struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Category      string   `json:"category,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Order         int      `json:"order"`
	CategoryOrder int      `json:"category_order"`
}

// Validate checks dish invariants.
func (d Dish) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("dish name is empty")
	}
	if d.Price != nil && *d.Price < 0 {
		return fmt.Errorf("dish %q has negative price %v", d.Name, *d.Price)
	}
	return nil
}

// Meal is one meal period of a day with its dishes.
type Meal struct {
	Period Period `json:"type"`
	Time   string `json:"time"`
	Items  []Dish `json:"items"`
}

// Validate checks meal invariants.
func (m Meal) Validate() error {
	if !m.Period.Valid() {
		return fmt.Errorf("invalid meal period %d", int(m.Period))
	}
	if !timeRe.MatchString(m.Time) {
		return fmt.Errorf("%s meal has malformed time %q", m.Period, m.Time)
	}
	for _, item := range m.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("%s meal: %w", m.Period, err)
		}
	}
	return nil
}

// SortItems orders dishes by (CategoryOrder, Order), the presentation order
// consumers expect: category blocks in encounter order, dishes in encounter
// order within each block.
func (m *Meal) SortItems() {
	sort.SliceStable(m.Items, func(i, j int) bool {
		a, b := m.Items[i], m.Items[j]
		if a.CategoryOrder != b.CategoryOrder {
			return a.CategoryOrder < b.CategoryOrder
		}
		return a.Order < b.Order
	})
}

// DailyMenu is the full menu for one calendar date.
type DailyMenu struct {
	Date  string `json:"date"`
	Meals []Meal `json:"meals"`
}

// Validate checks menu invariants: a parseable date, valid meals, and at
// most one meal per period.
func (dm DailyMenu) Validate() error {
	if _, err := time.Parse(DateFormat, dm.Date); err != nil {
		return fmt.Errorf("malformed menu date %q", dm.Date)
	}
	seen := map[Period]bool{}
	for _, meal := range dm.Meals {
		if err := meal.Validate(); err != nil {
			return fmt.Errorf("menu %s: %w", dm.Date, err)
		}
		if seen[meal.Period] {
			return fmt.Errorf("menu %s has duplicate %s meal", dm.Date, meal.Period)
		}
		seen[meal.Period] = true
	}
	return nil
}

// Meal returns the meal for the given period, or nil.
func (dm *DailyMenu) Meal(p Period) *Meal {
	for i := range dm.Meals {
		if dm.Meals[i].Period == p {
			return &dm.Meals[i]
		}
	}
	return nil
}

// Normalize sorts meals breakfast→lunch→dinner (ties broken by time of day)
// and dish lists into presentation order. Called once at construction;
// records are immutable afterwards.
func (dm *DailyMenu) Normalize() {
	sort.SliceStable(dm.Meals, func(i, j int) bool {
		a, b := dm.Meals[i], dm.Meals[j]
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		return a.Time < b.Time
	})
	for i := range dm.Meals {
		dm.Meals[i].SortItems()
	}
}

// SortMenus orders menus by ascending date.
func SortMenus(menus []DailyMenu) {
	sort.Slice(menus, func(i, j int) bool {
		return menus[i].Date < menus[j].Date
	})
}
