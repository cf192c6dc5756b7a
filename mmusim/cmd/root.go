// Package cmd provides the command-line interface of mmusim.
package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var logger = log.New(os.Stderr, "[mmusim] ", log.LstdFlags)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mmusim",
	Short: "mmusim simulates address translation through a TLB and a page table.",
	Long: `mmusim simulates address translation through a TLB and a page ` +
		`table with LRU or Clock (second chance) page replacement. It runs ` +
		`traces, generates synthetic traces and serves the simulator over HTTP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("trace-dir", "",
		"Directory of the trace files (env MMUSIM_TRACE_DIR).")
	rootCmd.PersistentFlags().String("env-file", ".env",
		"File to load environment variables from, if it exists.")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
