// Package main is the jobpilot CLI: a run command that executes one full
// application cycle and a stats command that reports over the store.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobpilot",
	Short: "Automated job application pipeline",
	Long:  "JobPilot scrapes job boards, filters and deduplicates postings, and submits applications with daily quota, pacing and retry handling.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
