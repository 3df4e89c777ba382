package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/circuitwire/pkg/wiring"
)

var (
	// Global flags
	verbose       bool
	routeWait     time.Duration
	maxExpansions int
)

var rootCmd = &cobra.Command{
	Use:   "wirectl",
	Short: "wirectl - circuit wiring topology tools",
	Long: `wirectl drives the wiring engine from board scripts:
  - run a script and report the resulting nets
  - route a single wire path on an empty or scripted board

Examples:
  wirectl run board.wire                 # Print nets
  wirectl run board.wire --json          # Export the netlist as JSON
  wirectl route 0 0 6 4 --script board.wire`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().DurationVar(&routeWait, "route-wait", wiring.DefaultRouteWait,
		"how long a drag waits for its routing task")
	rootCmd.PersistentFlags().IntVar(&maxExpansions, "max-expansions", 0,
		"A* expansion cap per routed path (0 = default)")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// boardConfig builds the wiring configuration from the global flags.
func boardConfig(cmd *cobra.Command) (*wiring.Config, error) {
	cfg := wiring.DefaultConfig()
	cfg.Logger = newLogger(cmd)
	cfg.MaxExpansions = maxExpansions
	cfg.RouteWait = routeWait

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}
