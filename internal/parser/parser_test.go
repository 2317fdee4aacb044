package parser

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/canteen-works/mensa/internal/menu"
)

func TestParse_columnar(t *testing.T) {
	ref := date(2025, time.December, 10)
	g := textGrid(
		[]string{"日期", "餐次", "菜名", "类别", "价格"},
		[]string{"12月8日", "早餐", "小米粥", "粥品", "3"},
		[]string{"12月8日", "午餐", "红烧肉", "荤菜", "12"},
		[]string{"12月8日", "午餐", "清炒时蔬", "素菜", "6"},
		[]string{"12月9日", "午餐", "清蒸鱼", "荤菜", "15"},
	)

	menus, rep, err := Parse(g, ref, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rep.Layout != LayoutColumnar {
		t.Errorf("Layout = %v, want columnar", rep.Layout)
	}
	if len(rep.Issues) != 0 {
		t.Errorf("Issues = %v, want none", rep.Issues)
	}
	if len(menus) != 2 {
		t.Fatalf("Parse() produced %d menus, want 2", len(menus))
	}
	if menus[0].Date != "2025-12-08" || menus[1].Date != "2025-12-09" {
		t.Errorf("dates = %q, %q, want 2025-12-08, 2025-12-09", menus[0].Date, menus[1].Date)
	}

	day := menus[0]
	if len(day.Meals) != 2 {
		t.Fatalf("day one has %d meals, want 2", len(day.Meals))
	}
	breakfast, lunch := day.Meals[0], day.Meals[1]
	if breakfast.Period != menu.Breakfast || lunch.Period != menu.Lunch {
		t.Fatalf("meal periods = %v, %v, want breakfast, lunch", breakfast.Period, lunch.Period)
	}
	if breakfast.Time != "07:30" || lunch.Time != "12:00" {
		t.Errorf("meal times = %q, %q, want defaults 07:30, 12:00", breakfast.Time, lunch.Time)
	}
	if len(lunch.Items) != 2 {
		t.Fatalf("lunch has %d items, want 2", len(lunch.Items))
	}
	if lunch.Items[0].Name != "红烧肉" || lunch.Items[0].Category != "荤菜" {
		t.Errorf("first lunch item = %+v", lunch.Items[0])
	}
	if lunch.Items[0].Price == nil || *lunch.Items[0].Price != 12 {
		t.Errorf("price = %v, want 12", lunch.Items[0].Price)
	}
	if lunch.Items[0].CategoryOrder != 0 || lunch.Items[1].CategoryOrder != 1 {
		t.Errorf("category orders = %d, %d, want 0, 1",
			lunch.Items[0].CategoryOrder, lunch.Items[1].CategoryOrder)
	}
}

func TestParse_rowLocalFailureIsolation(t *testing.T) {
	ref := date(2025, time.December, 10)
	rows := [][]string{
		{"日期", "菜名"},
	}
	for i := 0; i < 9; i++ {
		rows = append(rows, []string{"12月8日", "菜品A"})
	}
	rows = append(rows, []string{"not-a-date", "菜品B"})

	menus, rep, err := Parse(textGrid(rows...), ref, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v, want row-local recovery", err)
	}
	if got := len(rep.Issues); got != 1 {
		t.Fatalf("Issues = %d, want 1", got)
	}
	if rep.Issues[0].Severity != SeverityRow {
		t.Errorf("Severity = %v, want row", rep.Issues[0].Severity)
	}
	if len(menus) != 1 {
		t.Fatalf("Parse() produced %d menus, want 1", len(menus))
	}
	total := 0
	for _, m := range menus[0].Meals {
		total += len(m.Items)
	}
	if total != 9 {
		t.Errorf("dish count = %d, want 9", total)
	}
}

func TestParse_categoryContinuation(t *testing.T) {
	ref := date(2025, time.December, 10)
	g := textGrid(
		[]string{"日期", "菜名", "类别"},
		[]string{"12月8日", "小米粥", "粥品"},
		[]string{"12月8日", "大米粥", ""},
		[]string{"12月8日", "南瓜粥", ""},
	)

	menus, _, err := Parse(g, ref, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(menus) != 1 || len(menus[0].Meals) != 1 {
		t.Fatalf("unexpected shape: %+v", menus)
	}
	items := menus[0].Meals[0].Items
	if len(items) != 3 {
		t.Fatalf("dish count = %d, want 3", len(items))
	}
	for i, item := range items {
		if item.Category != "粥品" {
			t.Errorf("item[%d].Category = %q, want 粥品", i, item.Category)
		}
		if item.CategoryOrder != items[0].CategoryOrder {
			t.Errorf("item[%d].CategoryOrder = %d, want %d", i, item.CategoryOrder, items[0].CategoryOrder)
		}
	}
}

func TestParse_dateRangeFanOut(t *testing.T) {
	ref := date(2025, time.December, 10)
	g := textGrid(
		[]string{"日期", "菜名"},
		[]string{"12月8-10日", "红烧肉"},
	)

	menus, _, err := Parse(g, ref, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(menus) != 3 {
		t.Fatalf("Parse() produced %d menus, want 3", len(menus))
	}
	for i, want := range []string{"2025-12-08", "2025-12-09", "2025-12-10"} {
		if menus[i].Date != want {
			t.Errorf("menus[%d].Date = %q, want %q", i, menus[i].Date, want)
		}
	}
}

func TestParse_weekly(t *testing.T) {
	ref := date(2025, time.December, 10)
	g := textGrid(
		[]string{"第二食堂菜单 12月8-12日"},
		[]string{"", "周一", "周二", "周三", "周四", "周五"},
		[]string{"早餐", "", "", "", "", ""},
		[]string{"粥品", "小米粥", "大米粥", "南瓜粥", "黑米粥", "绿豆粥"},
		[]string{"包点", "肉包", "菜包", "馒头", "花卷", "烧麦"},
		[]string{"午餐", "", "", "", "", ""},
		[]string{"荤菜", "红烧肉", "清蒸鱼", "宫保鸡丁", "回锅肉", "糖醋排骨"},
	)

	menus, rep, err := Parse(g, ref, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rep.Layout != LayoutHorizontalWeekly {
		t.Errorf("Layout = %v, want horizontal_weekly", rep.Layout)
	}
	if len(menus) != 5 {
		t.Fatalf("Parse() produced %d menus, want 5", len(menus))
	}
	if menus[0].Date != "2025-12-08" || menus[4].Date != "2025-12-12" {
		t.Errorf("date span = %q..%q, want 2025-12-08..2025-12-12", menus[0].Date, menus[4].Date)
	}

	monday := menus[0]
	if len(monday.Meals) != 2 {
		t.Fatalf("monday has %d meals, want 2", len(monday.Meals))
	}
	if monday.Meals[0].Period != menu.Breakfast || monday.Meals[1].Period != menu.Lunch {
		t.Errorf("monday periods = %v, %v", monday.Meals[0].Period, monday.Meals[1].Period)
	}
	wantBreakfast := []string{"小米粥", "肉包"}
	var gotBreakfast []string
	for _, item := range monday.Meals[0].Items {
		gotBreakfast = append(gotBreakfast, item.Name)
	}
	if !reflect.DeepEqual(gotBreakfast, wantBreakfast) {
		t.Errorf("monday breakfast = %v, want %v", gotBreakfast, wantBreakfast)
	}
	if monday.Meals[0].Items[0].Category != "粥品" || monday.Meals[0].Items[1].Category != "包点" {
		t.Errorf("breakfast categories = %q, %q",
			monday.Meals[0].Items[0].Category, monday.Meals[0].Items[1].Category)
	}
}

func TestParse_weeklyFallsBackToReferenceWeek(t *testing.T) {
	// Wednesday 2025-12-10; the week's Monday is 2025-12-08.
	ref := date(2025, time.December, 10)
	g := textGrid(
		[]string{"", "周一", "周二", "周三", "周四", "周五"},
		[]string{"荤菜", "红烧肉", "清蒸鱼", "宫保鸡丁", "回锅肉", "糖醋排骨"},
	)

	menus, _, err := Parse(g, ref, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(menus) != 5 {
		t.Fatalf("Parse() produced %d menus, want 5", len(menus))
	}
	if menus[0].Date != "2025-12-08" {
		t.Errorf("menus[0].Date = %q, want 2025-12-08", menus[0].Date)
	}
}

func TestParse_minimal(t *testing.T) {
	ref := date(2025, time.December, 10)
	g := textGrid(
		[]string{"12月8日", "红烧肉, 清炒时蔬"},
		[]string{"12月9日", "清蒸鱼"},
	)

	menus, rep, err := Parse(g, ref, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rep.Layout != LayoutMinimal {
		t.Errorf("Layout = %v, want minimal", rep.Layout)
	}
	if len(menus) != 2 {
		t.Fatalf("Parse() produced %d menus, want 2", len(menus))
	}
	// Without meal evidence everything lands on lunch.
	if menus[0].Meals[0].Period != menu.Lunch {
		t.Errorf("Period = %v, want lunch", menus[0].Meals[0].Period)
	}
	if got := len(menus[0].Meals[0].Items); got != 2 {
		t.Errorf("delimited cell produced %d dishes, want 2", got)
	}
}

func TestParse_unrecognizedLayoutIsFatal(t *testing.T) {
	g := textGrid(
		[]string{"hello", "world"},
		[]string{"x", "y"},
	)
	_, rep, err := Parse(g, date(2025, time.December, 10), nil)
	if !errors.Is(err, ErrUnrecognizedLayout) {
		t.Fatalf("Parse() error = %v, want ErrUnrecognizedLayout", err)
	}
	if len(rep.Issues) != 1 || rep.Issues[0].Severity != SeverityFatal {
		t.Errorf("Issues = %v, want one fatal issue", rep.Issues)
	}
}

func TestSplitDishNames(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"红烧肉", []string{"红烧肉"}},
		{"红烧肉, 清蒸鱼", []string{"红烧肉", "清蒸鱼"}},
		{"红烧肉、清蒸鱼、宫保鸡丁", []string{"红烧肉", "清蒸鱼", "宫保鸡丁"}},
		{"米饭／馒头", []string{"米饭", "馒头"}},
		{"a;b|c", []string{"a", "b", "c"}},
		{"红烧肉,,清蒸鱼,", []string{"红烧肉", "清蒸鱼"}},
		{"  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SplitDishNames(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitDishNames(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuilder_mergesDuplicatePeriods(t *testing.T) {
	b := NewBuilder(nil)
	d := date(2025, time.December, 8)
	b.AddDish(d, menu.Lunch, DishInput{Name: "红烧肉", Category: "荤菜"})
	b.AddDish(d, menu.Lunch, DishInput{Name: "清炒时蔬", Category: "素菜"})

	menus := b.Build()
	if len(menus) != 1 || len(menus[0].Meals) != 1 {
		t.Fatalf("unexpected shape: %+v", menus)
	}
	m := menus[0].Meals[0]
	if len(m.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(m.Items))
	}
	if m.Items[0].Order != 0 || m.Items[1].Order != 1 {
		t.Errorf("orders = %d, %d, want 0, 1", m.Items[0].Order, m.Items[1].Order)
	}
}

func TestBuilder_blankCategoryBeforeAnySeen(t *testing.T) {
	b := NewBuilder(nil)
	b.AddDish(date(2025, time.December, 8), menu.Lunch, DishInput{Name: "红烧肉"})

	menus := b.Build()
	if got := menus[0].Meals[0].Items[0].Category; got != menu.OtherCategory {
		t.Errorf("Category = %q, want %q", got, menu.OtherCategory)
	}
}

func TestParse_configuredMealTimes(t *testing.T) {
	ref := date(2025, time.December, 10)

	t.Run("override_applies_without_time_column", func(t *testing.T) {
		g := textGrid(
			[]string{"日期", "菜名"},
			[]string{"2025-12-08", "红烧肉"},
		)
		menus, _, err := Parse(g, ref, MealTimes{menu.Lunch: "11:30"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if len(menus) != 1 || len(menus[0].Meals) != 1 {
			t.Fatalf("Parse() produced %v, want one menu with one meal", menus)
		}
		if got := menus[0].Meals[0].Time; got != "11:30" {
			t.Errorf("meal time = %q, want %q", got, "11:30")
		}
	})

	t.Run("explicit_time_column_wins", func(t *testing.T) {
		g := textGrid(
			[]string{"日期", "时间", "菜名"},
			[]string{"2025-12-08", "12:30", "红烧肉"},
		)
		menus, _, err := Parse(g, ref, MealTimes{menu.Lunch: "11:30"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got := menus[0].Meals[0].Time; got != "12:30" {
			t.Errorf("meal time = %q, want %q", got, "12:30")
		}
	})

	t.Run("uncovered_period_keeps_default", func(t *testing.T) {
		g := textGrid(
			[]string{"日期", "餐次", "菜名"},
			[]string{"2025-12-08", "晚餐", "清炒时蔬"},
		)
		menus, _, err := Parse(g, ref, MealTimes{menu.Lunch: "11:30"})
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got := menus[0].Meals[0].Time; got != "18:00" {
			t.Errorf("meal time = %q, want %q", got, "18:00")
		}
	})
}
