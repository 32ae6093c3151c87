// Command clickseed fills a table with synthetic ad clicks at a fixed pace.
package main

import (
	"fmt"
	"os"

	"clickseed/internal/config"
	"clickseed/internal/observability"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "clickseed",
	Short: "Seed a database table with synthetic click events",
	Long: `clickseed inserts synthetic ad clicks into a PostgreSQL table one row at a
time, committing each row and pausing between inserts to simulate real-time
arrival. Running without a subcommand is the same as "clickseed run".`,
	SilenceUsage: true,
	RunE:         runSeed,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Int("rows", 1000, "Number of clicks to insert")
	flags.Duration("interval", 0, "Pause after each committed row (default 1s)")
	flags.String("table", "", "Target table (default public.clicks)")
	flags.Int64("seed", 0, "Random seed for costs and conversions (0 = random)")
	flags.Bool("migrate", false, "Create the target table if it does not exist")
	flags.String("status-addr", "", "Serve health, progress and metrics on this address")

	bindFlag("SEED_ROWS", "rows")
	bindFlag("SEED_INTERVAL", "interval")
	bindFlag("SEED_TABLE", "table")
	bindFlag("SEED_RANDOM_SEED", "seed")
	bindFlag("SEED_AUTO_MIGRATE", "migrate")
	bindFlag("STATUS_ADDR", "status-addr")

	rootCmd.AddCommand(runCmd, countCmd, migrateCmd, watchCmd)
}

// bindFlag lets an explicitly set flag override the environment and config file.
func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// loadConfig reads configuration and installs the configured logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	observability.SetLogger(observability.NewLogger(cfg.Env, cfg.LogLevel, os.Stderr))
	return cfg, nil
}
