package main

import (
	"fmt"
	"os"

	"github.com/cuemby/tablemapper/pkg/tlog"
	"github.com/spf13/cobra"
)

// Version is overridden via ldflags at build time.
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "tablemapper",
	Short:   "tablemapper - a schema-driven object-to-record mapper CLI",
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("db", "./data", "bbolt data directory for the reference store")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(batchLoadCmd)
	rootCmd.AddCommand(serveMetricsCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("log-json")

	tlog.Init(tlog.Config{
		Level:      tlog.Level(level),
		JSONOutput: jsonOutput,
	})
}
