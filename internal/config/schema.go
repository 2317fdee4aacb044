package config

import (
	"fmt"
	"regexp"

	"github.com/canteen-works/mensa/internal/clock"
	"github.com/canteen-works/mensa/internal/menu"
	"github.com/canteen-works/mensa/internal/parser"
)

// Config holds mensa configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server ServerCfg `mapstructure:"server" yaml:"server"`
	Menu   MenuCfg   `mapstructure:"menu" yaml:"menu"`
	Meals  MealsCfg  `mapstructure:"meals" yaml:"meals"`
}

// ServerCfg configures the HTTP API.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// MaxUploadMB caps the size of uploaded menu documents.
	MaxUploadMB int `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// MenuCfg configures document ingestion.
type MenuCfg struct {
	// Dir is the directory scanned for menu documents. Empty means
	// {home}/menus.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Timezone names the canteen's zone; empty falls back to TZ then to
	// Asia/Shanghai.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
	// Watch keeps ingesting as documents change while the server runs.
	Watch bool `mapstructure:"watch" yaml:"watch"`
	// Snapshot persists the store across restarts.
	Snapshot bool `mapstructure:"snapshot" yaml:"snapshot"`
}

// MealsCfg overrides the serving times reported for meals whose documents
// carry no explicit time.
type MealsCfg struct {
	BreakfastTime string `mapstructure:"breakfast_time" yaml:"breakfast_time"`
	LunchTime     string `mapstructure:"lunch_time" yaml:"lunch_time"`
	DinnerTime    string `mapstructure:"dinner_time" yaml:"dinner_time"`
}

// Times returns the configured overrides keyed by period. Blank entries are
// omitted so the parser's built-in defaults apply.
func (m MealsCfg) Times() parser.MealTimes {
	times := parser.MealTimes{}
	for period, t := range map[menu.Period]string{
		menu.Breakfast: m.BreakfastTime,
		menu.Lunch:     m.LunchTime,
		menu.Dinner:    m.DinnerTime,
	} {
		if t != "" {
			times[period] = t
		}
	}
	return times
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:        "0.0.0.0",
			Port:        8160,
			MaxUploadMB: 10,
		},
		Menu: MenuCfg{
			Timezone: clock.DefaultTimezone,
			Watch:    true,
			Snapshot: true,
		},
		Meals: MealsCfg{
			BreakfastTime: "07:30",
			LunchTime:     "12:00",
			DinnerTime:    "18:00",
		},
	}
}

var mealTimeRe = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// Validate checks the configuration for values that would fail later in
// confusing places.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1, got %d", c.Server.MaxUploadMB)
	}
	for key, t := range map[string]string{
		"meals.breakfast_time": c.Meals.BreakfastTime,
		"meals.lunch_time":     c.Meals.LunchTime,
		"meals.dinner_time":    c.Meals.DinnerTime,
	} {
		if t != "" && !mealTimeRe.MatchString(t) {
			return fmt.Errorf("%s %q is not HH:MM", key, t)
		}
	}
	return nil
}
