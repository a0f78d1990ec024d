package main

import (
	"fmt"
	"os"

	"go-jobpilot-automation/internal/config"
	"go-jobpilot-automation/internal/stats"
	"go-jobpilot-automation/internal/store"

	"github.com/spf13/cobra"
)

var statsCommand = &cobra.Command{
	Use:   "stats",
	Short: "Report application statistics from the store",
	RunE:  showStats,
}

var statsConfigPath string

func init() {
	statsCommand.Flags().StringVar(&statsConfigPath, "config", "config.yaml", "Path to YAML config file")

	rootCmd.AddCommand(statsCommand)
}

func showStats(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(statsConfigPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(cmd.Context()); err != nil {
		return err
	}

	sum, err := stats.NewReporter(st).Report(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, stats.Format(sum))
	return nil
}
