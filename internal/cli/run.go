// internal/cli/run.go
package cli

import (
	"fmt"
	"slices"

	"github.com/law-makers/lotwatch/internal/app"
	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/spf13/cobra"
)

var runSearchIDs []string

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every saved search",
	Long: `Runs the saved searches one after another, ordered by name. Lots found by an
earlier search count as known for the later ones. A failing search is reported
and the remaining searches still run.`,
	Example: `  # Run everything
  lotwatch run

  # Only two searches, JSON summary
  lotwatch run --search solar --search generators --json`,
	Args: cobra.NoArgs,
	RunE: runAll,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVarP(&runSearchIDs, "search", "s", nil, "Only run these search ids (repeatable)")
}

func runAll(cmd *cobra.Command, args []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	ctx := cmd.Context()

	searches, err := a.Store.ListSearches(ctx)
	if err != nil {
		return err
	}
	searches, err = selectSearches(searches, runSearchIDs)
	if err != nil {
		return err
	}
	if len(searches) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No saved searches. Add one with: lotwatch search add <query>")
		return nil
	}

	hooks, done := progressHooks(cmd)
	reports, runErr := a.RunSearches(ctx, searches, hooks)
	done()

	jsonOut, quiet := outputMode(cmd)
	if err := printReports(cmd.OutOrStdout(), jsonOut, quiet, reports); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	return app.FailedReports(reports)
}

// selectSearches keeps the searches named in ids, in their stored order.
func selectSearches(searches []models.Search, ids []string) ([]models.Search, error) {
	if len(ids) == 0 {
		return searches, nil
	}
	var out []models.Search
	for _, s := range searches {
		if slices.Contains(ids, s.ID) {
			out = append(out, s)
		}
	}
	for _, id := range ids {
		if !slices.ContainsFunc(out, func(s models.Search) bool { return s.ID == id }) {
			return nil, fmt.Errorf("unknown search %q", id)
		}
	}
	return out, nil
}
