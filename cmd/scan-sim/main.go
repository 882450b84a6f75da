// scan-sim exercises the scan engine from a terminal: a keyboard-driven
// grid simulator plus small inspection commands against the engine
// database. Useful for tuning scan timing without switch hardware.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dbFileFlag string

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan-sim",
		Short: "Terminal simulator for the switch-scanning engine",
		Long: `scan-sim runs the scanning engine against a keyboard instead of
physical switches. Use it to try out scan speeds, modes and grid sizes
before handing a configuration to a user.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&dbFileFlag, "db-file", "data/scan-engine.db", "path to the engine SQLite database")
	return cmd
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
