package cmd

import (
	"fmt"
	"os"
	"time"

	cfgpkg "github.com/KaramelBytes/codeloom/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags (wired to config at load time)
	cfgFile string
	debug   bool
	// HTTP/politeness flags (override config if set)
	flagHTTPTimeoutSec int
	flagFetchDelayMs   int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "codeloom",
	Short: "codeloom: rename coded table headers and decode categorical cells",
	Long: `codeloom rewrites delimited exports whose headers are cryptic
field-instance.array identifiers: headers become readable semantic names
derived from a documentation page, and coded cell values are decoded through
remote coding tables with a persistent local cache.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.codeloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP request timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagFetchDelayMs, "fetch-delay-ms", 0, "delay between coding fetches in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{
			Endpoints:      cfgpkg.DefaultEndpoints,
			CodingPath:     "coding.cgi",
			PlainFlag:      "nl=1",
			HTTPTimeoutSec: 20,
			FetchDelayMs:   300,
			Style:          "snake",
		}
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("fetch-delay-ms") && flagFetchDelayMs >= 0 {
		cfg.FetchDelayMs = flagFetchDelayMs
	}
}

func httpTimeout(c *cfgpkg.Global) time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

func fetchDelay(c *cfgpkg.Global) time.Duration {
	return time.Duration(c.FetchDelayMs) * time.Millisecond
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "⚠ Warning: "+format+"\n", args...)
}

func debugf(format string, args ...any) {
	if debug {
		fmt.Fprintf(os.Stderr, "· "+format+"\n", args...)
	}
}
