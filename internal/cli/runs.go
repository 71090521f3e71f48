// internal/cli/runs.go
package cli

import (
	"fmt"
	"time"

	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/spf13/cobra"
)

var runsSearch string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the search run history",
}

var runsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recorded search runs, oldest first",
	Args:    cobra.NoArgs,
	RunE:    runRunsList,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)

	runsListCmd.Flags().StringVarP(&runsSearch, "search", "s", "", "Only runs of this search id")
}

func runRunsList(cmd *cobra.Command, args []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	runs, err := a.Store.ListRuns(cmd.Context(), runsSearch)
	if err != nil {
		return err
	}
	if jsonOut, _ := outputMode(cmd); jsonOut {
		if runs == nil {
			runs = []models.SearchRun{}
		}
		return printJSON(cmd.OutOrStdout(), runs)
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "DATE\tSEARCH\tINITIAL\tNEW\tKNOWN\tIGNORED\tMISSING\tERRORS\tTIME\tRUN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.Date, r.SearchID, r.InitialLotCount, r.NewLotCount, r.AlreadyKnown,
			r.Ignored, r.MissingRequirements, r.Errors,
			(time.Duration(r.ExecutionTimeMs) * time.Millisecond).String(), r.ID)
	}
	return tw.Flush()
}
