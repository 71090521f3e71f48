// Package cli provides the command-line interface for lotwatch.
package cli

import (
	"github.com/law-makers/lotwatch/internal/app"
	"github.com/spf13/cobra"
)

// SetApp makes a available to the running command.
func SetApp(cmd *cobra.Command, a *app.Application) {
	if cmd == nil {
		return
	}
	globalApp = a
}

// GetApp retrieves the Application built in PersistentPreRunE.
func GetApp() *app.Application {
	return globalApp
}

// Commands run one at a time, so a single process-wide reference is enough.
var globalApp *app.Application
