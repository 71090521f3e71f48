// internal/cli/lots.go
package cli

import (
	"fmt"
	"time"

	"github.com/law-makers/lotwatch/internal/store"
	"github.com/law-makers/lotwatch/internal/ui"
	"github.com/law-makers/lotwatch/internal/utils/output"
	"github.com/spf13/cobra"
)

var (
	lotsSearch   string
	lotsLocation string
	lotsLimit    int
	exportFormat string
	exportOutput string
)

var lotsCmd = &cobra.Command{
	Use:   "lots",
	Short: "Inspect and export stored lots",
}

var lotsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored lots",
	Args:    cobra.NoArgs,
	RunE:    runLotsList,
}

var lotsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored lots as JSON, CSV, Markdown or HTML",
	Example: `  # CSV of one search's lots
  lotwatch lots export --search solar --output solar.csv

  # HTML report to stdout
  lotwatch lots export --format html > lots.html`,
	Args: cobra.NoArgs,
	RunE: runLotsExport,
}

func init() {
	rootCmd.AddCommand(lotsCmd)
	lotsCmd.AddCommand(lotsListCmd, lotsExportCmd)

	for _, c := range []*cobra.Command{lotsListCmd, lotsExportCmd} {
		c.Flags().StringVarP(&lotsSearch, "search", "s", "", "Only lots found by this search id")
		c.Flags().StringVar(&lotsLocation, "location", "", "Only lots at this location")
		c.Flags().IntVarP(&lotsLimit, "limit", "n", 0, "Maximum number of lots (0 = all)")
	}
	lotsExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "json, csv, markdown or html (default: from --output extension, else json)")
	lotsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "File to write (default: stdout)")
}

func lotFilter() store.LotFilter {
	return store.LotFilter{SearchID: lotsSearch, Location: lotsLocation, Limit: lotsLimit}
}

func runLotsList(cmd *cobra.Command, args []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	lots, err := a.Store.ListLots(cmd.Context(), lotFilter())
	if err != nil {
		return err
	}
	if jsonOut, _ := outputMode(cmd); jsonOut {
		return output.WriteJSON(cmd.OutOrStdout(), lots)
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "LOT\tNUMBER\tTITLE\tLOCATION\tENDS\tIMAGES")
	for _, lot := range lots {
		ends := "-"
		if lot.Timestamp > 0 {
			ends = lot.EndsAt().Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", lot.LotID, lot.LotNumber, lot.Title, lot.Location, ends, len(lot.ImageFilenames))
	}
	return tw.Flush()
}

func runLotsExport(cmd *cobra.Command, args []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	format := output.FormatFromPath(exportOutput)
	if exportFormat != "" {
		f, err := output.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		format = f
	}

	lots, err := a.Store.ListLots(cmd.Context(), lotFilter())
	if err != nil {
		return err
	}
	report := output.Report{
		Title:   exportTitle(cmd),
		BaseURL: a.Config.BaseURL,
		Lots:    lots,
	}

	if exportOutput == "" {
		return output.Write(cmd.OutOrStdout(), format, report)
	}
	if err := output.Save(exportOutput, format, report); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, quiet := outputMode(cmd); !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s Exported %d lots to %s\n", ui.Success("✓"), len(lots), exportOutput)
	}
	return nil
}

func exportTitle(cmd *cobra.Command) string {
	if lotsSearch == "" {
		return "Lots"
	}
	if a := GetApp(); a != nil {
		if s, err := a.Store.GetSearch(cmd.Context(), lotsSearch); err == nil {
			return "Lots: " + s.DisplayName()
		}
	}
	return "Lots: " + lotsSearch
}
