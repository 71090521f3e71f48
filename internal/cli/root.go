// internal/cli/root.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/lotwatch/internal/app"
	"github.com/law-makers/lotwatch/internal/config"
	"github.com/law-makers/lotwatch/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lotwatch",
	Short: "Watch an auction site for lots matching saved searches",
	Long: `Lotwatch searches the auction site for each saved search, filters the results
by title and description terms, visits every new lot with a pool of headless
browser sessions, saves its images and records what it found.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It returns the process exit code.
func Execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRun is skipped when a command fails.
	if a := GetApp(); a != nil {
		_ = a.Close(context.Background())
		SetApp(rootCmd, nil)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("Interrupted")
		}
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.Error("Error:"), err)
		return 1
	}
	return 0
}

func init() {
	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetApp() != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		appCtx, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, appCtx)
		return nil
	}

	// Ensure app is closed after command runs
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		appCtx := GetApp()
		if appCtx == nil {
			return
		}
		_ = appCtx.Close(context.Background())
		SetApp(cmd, nil)
	}
}

func init() {
	// Register centralized flags
	config.RegisterFlags(rootCmd)

	// Customize help and version flag descriptions
	rootCmd.Flags().BoolP("help", "h", false, "Help for lotwatch")
	rootCmd.Flags().Bool("version", false, "Version for lotwatch")
}

// outputMode reports how command results should be printed.
func outputMode(cmd *cobra.Command) (jsonOut, quiet bool) {
	jsonOut, _ = cmd.Flags().GetBool("json")
	quiet, _ = cmd.Flags().GetBool("quiet")
	return jsonOut, quiet
}

func init() {
	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		writeHelp(cmd.OutOrStdout(), cmd)
	})
	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		writeUsage(cmd.ErrOrStderr(), cmd)
		return nil
	})
}
