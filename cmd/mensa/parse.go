package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/canteen-works/mensa/internal/api"
	"github.com/canteen-works/mensa/internal/clock"
	"github.com/canteen-works/mensa/internal/menu"
	"github.com/canteen-works/mensa/internal/parser"
	"github.com/canteen-works/mensa/internal/sheet"
)

var parseDate string

// parseResult is what the parse command prints for one document.
type parseResult struct {
	File   string           `json:"file"`
	Layout string           `json:"layout,omitempty"`
	Menus  []menu.DailyMenu `json:"menus,omitempty"`
	Issues []parser.Issue   `json:"issues,omitempty"`
	Error  string           `json:"error,omitempty"`
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>...",
	Short: "Parse menu documents locally without a server",
	Long: `Parse menu documents (xlsx, xls or csv) and print the extracted
menus. Useful for checking how a document will be read before dropping
it into the menu directory.

The reference date anchors year inference for dates like "12月8日";
it defaults to today and can be pinned with --date.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clk, err := clock.New("")
		if err != nil {
			return err
		}
		if parseDate != "" {
			t, err := time.ParseInLocation("2006-01-02", parseDate, clk.Location())
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", parseDate, err)
			}
			clk = clock.NewFixed(t)
		}

		results := make([]parseResult, 0, len(args))
		failed := 0
		for _, path := range args {
			res := parseResult{File: path}
			if g, err := sheet.Decode(path); err != nil {
				res.Error = err.Error()
				failed++
			} else if menus, report, err := parser.Parse(g, clk.Reference(), nil); err != nil {
				res.Error = err.Error()
				res.Layout = report.Layout.String()
				failed++
			} else {
				res.Layout = report.Layout.String()
				res.Menus = menus
				res.Issues = report.Issues
			}
			results = append(results, res)
		}

		if err := api.Output(results); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed to parse", failed, len(args))
		}
		return nil
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseDate, "date", "", "reference date for year inference (YYYY-MM-DD, default today)")

	rootCmd.AddCommand(parseCmd)
}
