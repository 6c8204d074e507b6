package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rater",
	Short: "kpiComp - sector-relative stock value rater",
	Long: `kpiComp Unified CLI

종목의 재무 KPI를 섹터 피어 중앙값과 비교해 1-10 가치 등급을 산출합니다.

Usage:
  go run ./cmd/rater [command]

Examples:
  go run ./cmd/rater api
  go run ./cmd/rater analyze AAPL
  go run ./cmd/rater analyze MSFT --json
  go run ./cmd/rater universe refresh
  go run ./cmd/rater kpis`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// flags win over .env; config.Load reads the environment
		if cmd.Flags().Changed("env") {
			_ = os.Setenv("ENV", env)
		}
		if verbose {
			_ = os.Setenv("LOG_LEVEL", "debug")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
