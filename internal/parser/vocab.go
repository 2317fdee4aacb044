package parser

import "github.com/canteen-works/mensa/internal/menu"

// CategoryDivider is the literal marker canteens put between meal sections
// in weekly-grid documents. A row whose leading cell equals it separates two
// meal segments without naming either.
const CategoryDivider = "类别"

// periodVocabulary holds the per-period classification vocabulary used when a
// segment carries no explicit meal label. Category names weigh more than
// loose keywords: a 粥品 heading is stronger evidence than one 粥 somewhere
// in a dish name.
type periodVocabulary struct {
	categories []string
	keywords   []string
}

var periodVocabularies = map[menu.Period]periodVocabulary{
	menu.Breakfast: {
		categories: []string{"粥品", "包点", "豆浆", "油条", "煎蛋", "早点", "粥类", "包子", "馒头"},
		keywords:   []string{"粥", "包", "豆浆", "油条", "蛋", "饼", "馒头", "豆腐脑", "小米", "大米"},
	},
	menu.Lunch: {
		categories: []string{"荤菜", "素菜", "汤品", "主食", "米饭", "荤类", "素类", "肉类"},
		keywords:   []string{"肉", "鱼", "鸡", "猪", "牛", "菜", "汤", "炒", "烧", "炖", "蒸"},
	},
	menu.Dinner: {
		categories: []string{"清淡", "小菜", "汤品", "粥品", "清炒", "蒸菜"},
		keywords:   []string{"清", "淡", "小菜", "汤", "粥", "蒸", "炒时蔬", "青菜"},
	},
}

// weekdayTokens are the labels a horizontal weekly grid uses as its column
// header row.
var weekdayTokens = []string{
	"星期一", "星期二", "星期三", "星期四", "星期五", "星期六", "星期日", "星期天",
	"周一", "周二", "周三", "周四", "周五", "周六", "周日",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"mon", "tue", "wed", "thu", "fri", "sat", "sun",
}

// rolePatterns maps each column role to its header name patterns, covering
// the scripts seen in source documents. Matching is substring-based on the
// lowercased header text.
var rolePatterns = map[Role][]string{
	RoleDate:        {"date", "日期"},
	RoleMealPeriod:  {"meal", "餐次", "餐别", "类型"},
	RoleTime:        {"time", "时间", "hour"},
	RoleDishName:    {"food", "name", "菜名", "食物", "菜品", "dish"},
	RoleDescription: {"desc", "描述", "说明", "detail", "备注"},
	RoleCategory:    {"category", "类别", "分类", "cat"},
	RolePrice:       {"price", "价格", "单价", "cost"},
}
