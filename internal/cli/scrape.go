// internal/cli/scrape.go
package cli

import (
	"fmt"
	"strings"

	"github.com/law-makers/lotwatch/internal/app"
	"github.com/spf13/cobra"
)

var saveAdHoc bool

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <search-id|query>",
	Short: "Run one search now",
	Long: `Runs a single search: collects every result page, filters titles, visits
each new lot in parallel browser sessions and saves what it finds.

The argument is the id of a saved search. Anything else is treated as an
ad-hoc query with no term filters.`,
	Example: `  # Run a saved search
  lotwatch scrape 3f1c9a3e-0d4b-4c8e-9a57-1a2b3c4d5e6f

  # Ad-hoc query, saved for later runs
  lotwatch scrape "solar panel" --save

  # More detail sessions and a SQLite store
  lotwatch scrape "generator" --pool-size=6 --store=sqlite://lots.db`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().BoolVar(&saveAdHoc, "save", false, "Store an ad-hoc query as a saved search")
}

func runScrape(cmd *cobra.Command, args []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	ctx := cmd.Context()

	search, err := a.ResolveSearch(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if saveAdHoc {
		if err := a.Store.SaveSearch(ctx, search); err != nil {
			return fmt.Errorf("save search: %w", err)
		}
	}

	known, err := a.LoadKnown(ctx)
	if err != nil {
		return err
	}

	hooks, done := progressHooks(cmd)
	report := a.RunSearch(ctx, search, known, hooks)
	done()

	jsonOut, quiet := outputMode(cmd)
	if err := printReports(cmd.OutOrStdout(), jsonOut, quiet, []app.Report{report}); err != nil {
		return err
	}
	return report.Err
}
