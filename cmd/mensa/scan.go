package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/canteen-works/mensa/internal/api"
	"github.com/canteen-works/mensa/internal/clock"
	"github.com/canteen-works/mensa/internal/home"
	"github.com/canteen-works/mensa/internal/scanner"
	"github.com/canteen-works/mensa/internal/store"
)

var scanVerbose bool

// scanSummary is what the scan command prints.
type scanSummary struct {
	Dir      string               `json:"dir"`
	Ingested int                  `json:"ingested"`
	Dates    []string             `json:"dates"`
	Sources  []store.SourceRecord `json:"sources"`
}

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Scan a directory of menu documents locally",
	Long: `Scan a directory of menu documents without a running server and
print what would be ingested. The directory defaults to the home menu
directory (~/.mensa/menus).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		} else {
			h, err := home.New(homeDir)
			if err != nil {
				return err
			}
			dir = h.MenusPath()
		}

		clk, err := clock.New("")
		if err != nil {
			return err
		}

		logOut := io.Writer(io.Discard)
		if scanVerbose {
			logOut = os.Stderr
		}
		logger := slog.New(slog.NewTextHandler(logOut, nil))

		st := store.New()
		sc, err := scanner.New(dir, st, clk, logger)
		if err != nil {
			return err
		}

		ingested, err := sc.Scan(cmd.Context())
		if err != nil {
			return err
		}

		return api.Output(scanSummary{
			Dir:      dir,
			Ingested: ingested,
			Dates:    st.Dates(),
			Sources:  st.Sources(),
		})
	},
}

func init() {
	scanCmd.Flags().BoolVarP(&scanVerbose, "verbose", "v", false, "log per-document progress to stderr")

	rootCmd.AddCommand(scanCmd)
}
