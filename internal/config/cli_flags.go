package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format only")
	cmd.PersistentFlags().String("config", "", "Path to a TOML configuration file (optional)")
	cmd.PersistentFlags().String("store", "", "Store DSN: a data directory, a .db file, sqlite://path or postgres://...")
	cmd.PersistentFlags().String("images-dir", "", "Directory lot images are saved to")
	cmd.PersistentFlags().String("chrome-path", "", "Path to the Chrome/Chromium executable")
	cmd.PersistentFlags().Bool("headless", DefaultHeadless, "Run the browser headless")
	cmd.PersistentFlags().StringSlice("proxy", nil, "HTTP/SOCKS5 proxy for browser sessions (repeatable)")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().StringArrayP("header", "H", nil, "Extra request header as 'Key: Value' (repeatable)")
	cmd.PersistentFlags().Int("pool-size", 0, "Extra browser sessions used for detail pages (-1 = size from CPUs and memory)")
	cmd.PersistentFlags().Int("page-size", 0, "Results per listing page")
	cmd.PersistentFlags().Int("max-pages", 0, "Stop after this many listing pages (0 = all)")
	cmd.PersistentFlags().String("timeout", "", "How long to wait for a page element (e.g. 30s)")
	cmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this file on exit")
}
