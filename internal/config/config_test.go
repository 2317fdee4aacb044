package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/viper"

	"github.com/canteen-works/mensa/internal/menu"
	"github.com/canteen-works/mensa/internal/parser"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8160 {
		t.Errorf("default port = %d, want 8160", cfg.Server.Port)
	}
	if cfg.Menu.Timezone != "Asia/Shanghai" {
		t.Errorf("default timezone = %q, want Asia/Shanghai", cfg.Menu.Timezone)
	}
	if cfg.Meals.LunchTime != "12:00" {
		t.Errorf("default lunch time = %q, want 12:00", cfg.Meals.LunchTime)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfig_validate(t *testing.T) {
	t.Run("rejects bad port", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.Port = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for port 0")
		}
	})

	t.Run("rejects malformed meal time", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Meals.DinnerTime = "6pm"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for malformed dinner time")
		}
	})

	t.Run("accepts empty meal time", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Meals.BreakfastTime = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("empty meal time rejected: %v", err)
		}
	})
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		resetViper(t)
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")

		configContent := `
server:
  port: 9000
menu:
  dir: /srv/menus
  watch: false
`
		if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
			t.Fatal(err)
		}

		cm, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}

		cfg := cm.Get()
		if cfg.Server.Port != 9000 {
			t.Errorf("port = %d, want 9000", cfg.Server.Port)
		}
		if cfg.Menu.Dir != "/srv/menus" {
			t.Errorf("menu dir = %q, want /srv/menus", cfg.Menu.Dir)
		}
		if cfg.Menu.Watch {
			t.Error("watch should be overridden to false")
		}
		// Unset keys keep their defaults.
		if cfg.Meals.LunchTime != "12:00" {
			t.Errorf("lunch time = %q, want default 12:00", cfg.Meals.LunchTime)
		}
	})

	t.Run("works without config file", func(t *testing.T) {
		resetViper(t)
		cm, err := NewManager("")
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		if cm.Get().Server.Port != 8160 {
			t.Errorf("port = %d, want default 8160", cm.Get().Server.Port)
		}
	})

	t.Run("rejects invalid config file", func(t *testing.T) {
		resetViper(t)
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configFile, []byte("server:\n  port: 99999\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewManager(configFile); err == nil {
			t.Error("NewManager() accepted an out-of-range port")
		}
	})
}

func TestWriteDefault(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() on written default error = %v", err)
	}
	if cm.Get().Server.Port != DefaultConfig().Server.Port {
		t.Errorf("round trip changed port: %d", cm.Get().Server.Port)
	}
}

func TestMealsCfg_times(t *testing.T) {
	t.Run("defaults_cover_all_periods", func(t *testing.T) {
		times := DefaultConfig().Meals.Times()
		want := parser.MealTimes{
			menu.Breakfast: "07:30",
			menu.Lunch:     "12:00",
			menu.Dinner:    "18:00",
		}
		if !reflect.DeepEqual(times, want) {
			t.Errorf("Times() = %v, want %v", times, want)
		}
	})

	t.Run("blank_entries_omitted", func(t *testing.T) {
		times := MealsCfg{LunchTime: "11:30"}.Times()
		if len(times) != 1 || times[menu.Lunch] != "11:30" {
			t.Errorf("Times() = %v, want lunch 11:30 only", times)
		}
	})
}
