package parser

import (
	"strings"
	"time"

	"github.com/canteen-works/mensa/internal/menu"
)

// dishDelimiters are the characters a single cell may use to pack several
// dish names together. Both halfwidth and fullwidth forms occur in source
// documents.
const dishDelimiters = ",，、;；/｜|／"

// SplitDishNames breaks a cell's text into individual dish names. Empty
// fragments left by doubled or trailing delimiters are dropped.
func SplitDishNames(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(dishDelimiters, r)
	})
	names := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			names = append(names, f)
		}
	}
	return names
}

// DishInput is one extracted dish cell before normalization. Name may pack
// several delimited dish names; Category may be blank and inherit the
// previous row's category.
type DishInput struct {
	Name        string
	Description string
	Category    string
	Price       *float64
}

// MealTimes maps periods to configured serving times. Entries override the
// built-in defaults for meals whose documents carry no explicit time; an
// explicit time column still wins.
type MealTimes map[menu.Period]string

// Builder accumulates extracted dishes into normalized daily menus.
//
// It owns the encounter-order bookkeeping: within a meal every dish gets a
// strictly increasing order index, and every distinct category gets a
// category order index the first time it appears. Blank categories inherit
// the meal's most recent category, or fall back to the catch-all category
// when none has been seen yet. Feeding the same (date, period) pair twice
// merges into one meal.
type Builder struct {
	days  map[string]*dayRecord
	times MealTimes
}

type dayRecord struct {
	meals map[menu.Period]*mealRecord
}

type mealRecord struct {
	time         string
	items        []menu.Dish
	nextOrder    int
	categories   map[string]int
	nextCategory int
	lastCategory string
}

// NewBuilder returns an empty builder. times may be nil; periods it does not
// cover use the built-in default serving times.
func NewBuilder(times MealTimes) *Builder {
	return &Builder{days: map[string]*dayRecord{}, times: times}
}

// AddDish records one extracted cell under the given date and period,
// splitting packed names into separate dishes that share the cell's
// description, category and price.
func (b *Builder) AddDish(date time.Time, period menu.Period, in DishInput) {
	names := SplitDishNames(in.Name)
	if len(names) == 0 {
		return
	}

	m := b.meal(date, period)
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = m.lastCategory
	}
	if category == "" {
		category = menu.OtherCategory
	}
	m.lastCategory = category

	catOrder, ok := m.categories[category]
	if !ok {
		catOrder = m.nextCategory
		m.categories[category] = catOrder
		m.nextCategory++
	}

	for _, name := range names {
		m.items = append(m.items, menu.Dish{
			Name:          name,
			Description:   strings.TrimSpace(in.Description),
			Category:      category,
			Price:         in.Price,
			Order:         m.nextOrder,
			CategoryOrder: catOrder,
		})
		m.nextOrder++
	}
}

// SetMealTime overrides the default serving time for the given date and
// period. The value is taken as-is; validation happens on the built menus.
func (b *Builder) SetMealTime(date time.Time, period menu.Period, t string) {
	if t = strings.TrimSpace(t); t != "" {
		b.meal(date, period).time = t
	}
}

func (b *Builder) meal(date time.Time, period menu.Period) *mealRecord {
	key := date.Format(menu.DateFormat)
	day, ok := b.days[key]
	if !ok {
		day = &dayRecord{meals: map[menu.Period]*mealRecord{}}
		b.days[key] = day
	}
	m, ok := day.meals[period]
	if !ok {
		m = &mealRecord{time: b.defaultTime(period), categories: map[string]int{}}
		day.meals[period] = m
	}
	return m
}

func (b *Builder) defaultTime(period menu.Period) string {
	if t, ok := b.times[period]; ok && t != "" {
		return t
	}
	return period.DefaultTime()
}

// Build assembles the accumulated state into normalized daily menus sorted
// by date. Days whose meals all ended up empty are dropped.
func (b *Builder) Build() []menu.DailyMenu {
	menus := make([]menu.DailyMenu, 0, len(b.days))
	for date, day := range b.days {
		dm := menu.DailyMenu{Date: date}
		for period, m := range day.meals {
			if len(m.items) == 0 {
				continue
			}
			dm.Meals = append(dm.Meals, menu.Meal{
				Period: period,
				Time:   m.time,
				Items:  m.items,
			})
		}
		if len(dm.Meals) == 0 {
			continue
		}
		dm.Normalize()
		menus = append(menus, dm)
	}
	menu.SortMenus(menus)
	return menus
}
