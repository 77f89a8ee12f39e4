package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "argos",
	Short: "Argos - cross-sectional equity scoring and backtesting",
	Long: `Argos scores a ticker universe on technical indicators, ranks it
cross-sectionally into quintiles, and backtests the ranking point-in-time
against realized forward returns.

Usage:
  go run ./cmd/argos [command]

Examples:
  go run ./cmd/argos rank --date 2024-06-28
  go run ./cmd/argos backtest run --from 2023-01-01 --to 2024-06-30
  go run ./cmd/argos snapshot capture
  go run ./cmd/argos api
  go run ./cmd/argos scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default from STRATEGY_FILE)")
}
