/*
main.go - Application entry point

PURPOSE:
  CLI for the consortium attribution engine. Two modes:

    consortium run    Batch: read one period's CSV tables, run the
                      pipeline, write reports and persist the run
    consortium serve  Start the HTTP API over the result store

CONFIGURATION:
  Defaults < YAML file (--config or CONSORTIUM_CONFIG) < CONSORTIUM_*
  environment variables. See config package for keys.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/consortium-engine/config"
	"github.com/warp/consortium-engine/logger"
)

var (
	configPath string

	cfg *config.Config
	log logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "consortium",
	Short: "Weekly attribution, synergy, and team optimization engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = os.Getenv(config.EnvPrefix + "CONFIG")
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log = logger.New(cfg.LogLevel, os.Stderr)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
