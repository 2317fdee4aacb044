package main

import (
	"github.com/spf13/cobra"

	"github.com/canteen-works/mensa/internal/api"
	"github.com/canteen-works/mensa/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "mensa",
	Short: "Canteen menu extraction and lookup service",
	Long: `Mensa extracts structured daily menus from loosely formatted canteen
spreadsheets (xlsx, xls, csv) and serves them over an HTTP API.

Documents are picked up from a watched directory, normalized into
per-day menus with breakfast, lunch and dinner sections, and queried
by date. Layouts are detected automatically:
  - one row per dish with date and meal columns
  - weekday-per-column weekly grids
  - minimal date-plus-text sheets`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.mensa/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "mensa home directory (default: ~/.mensa)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
