// internal/cli/search.go
package cli

import (
	"fmt"
	"strings"

	"github.com/law-makers/lotwatch/internal/app"
	"github.com/law-makers/lotwatch/internal/ui"
	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/spf13/cobra"
)

var (
	searchID           string
	searchName         string
	searchRequireTitle []string
	searchIgnoreTitle  []string
	searchRequireDesc  []string
	searchIgnoreDesc   []string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Manage saved searches",
}

var searchAddCmd = &cobra.Command{
	Use:   "add <query>",
	Short: "Save a search",
	Long: `Saves a search. Term flags are case-insensitive substrings and can be
repeated. When any required term is set for a field, ignored terms for that
field are not consulted.`,
	Example: `  # Panels, but not broken ones
  lotwatch search add "solar panel" --name "Solar" --ignore-title broken

  # Descriptions must mention watts; skip parts-only lots
  lotwatch search add generator --require-desc watts --ignore-desc "parts only"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchAdd,
}

var searchListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved searches",
	Args:    cobra.NoArgs,
	RunE:    runSearchList,
}

var searchRemoveCmd = &cobra.Command{
	Use:     "remove <id>...",
	Aliases: []string{"rm"},
	Short:   "Delete saved searches",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runSearchRemove,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.AddCommand(searchAddCmd, searchListCmd, searchRemoveCmd)

	searchAddCmd.Flags().StringVar(&searchID, "id", "", "Search id (default: random UUID)")
	searchAddCmd.Flags().StringVar(&searchName, "name", "", "Display name")
	searchAddCmd.Flags().StringArrayVar(&searchRequireTitle, "require-title", nil, "Term every title must contain (repeatable)")
	searchAddCmd.Flags().StringArrayVar(&searchIgnoreTitle, "ignore-title", nil, "Skip lots whose title contains this term (repeatable)")
	searchAddCmd.Flags().StringArrayVar(&searchRequireDesc, "require-desc", nil, "Term every description must contain (repeatable)")
	searchAddCmd.Flags().StringArrayVar(&searchIgnoreDesc, "ignore-desc", nil, "Skip lots whose description contains this term (repeatable)")
}

func runSearchAdd(cmd *cobra.Command, args []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	search, err := app.NewSearch(models.Search{
		ID:                 searchID,
		Query:              strings.Join(args, " "),
		Name:               searchName,
		RequiredTitleTerms: searchRequireTitle,
		IgnoredTitleTerms:  searchIgnoreTitle,
		RequiredDescTerms:  searchRequireDesc,
		IgnoredDescTerms:   searchIgnoreDesc,
	})
	if err != nil {
		return err
	}
	if err := a.Store.SaveSearch(cmd.Context(), search); err != nil {
		return err
	}

	if jsonOut, _ := outputMode(cmd); jsonOut {
		return printJSON(cmd.OutOrStdout(), search)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Saved search %s (%s)\n", ui.Success("✓"), ui.Bold(search.DisplayName()), search.ID)
	return nil
}

func runSearchList(cmd *cobra.Command, args []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	searches, err := a.Store.ListSearches(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOut, _ := outputMode(cmd); jsonOut {
		if searches == nil {
			searches = []models.Search{}
		}
		return printJSON(cmd.OutOrStdout(), searches)
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "ID\tNAME\tQUERY\tREQUIRED\tIGNORED")
	for _, s := range searches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.DisplayName(), s.Query,
			termSummary(s.RequiredTitleTerms, s.RequiredDescTerms),
			termSummary(s.IgnoredTitleTerms, s.IgnoredDescTerms))
	}
	return tw.Flush()
}

func termSummary(title, desc []string) string {
	var parts []string
	if len(title) > 0 {
		parts = append(parts, "title: "+strings.Join(title, ", "))
	}
	if len(desc) > 0 {
		parts = append(parts, "desc: "+strings.Join(desc, ", "))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "; ")
}

func runSearchRemove(cmd *cobra.Command, args []string) error {
	a := GetApp()
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	for _, id := range args {
		if err := a.Store.DeleteSearch(cmd.Context(), id); err != nil {
			return fmt.Errorf("remove %s: %w", id, err)
		}
		if _, quiet := outputMode(cmd); !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s Removed search %s\n", ui.Success("✓"), id)
		}
	}
	return nil
}
