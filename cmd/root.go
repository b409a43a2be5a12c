// Package cmd is the CLI command tree (SPEC_FULL.md §10.6), generalizing
// the teacher's cobra root/subcommand wiring (cmd/root.go) from the
// microservice runner's commands to mqttwarn's run/config/funcs/plugin
// surface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mqttwarn",
	Short: "Subscribe to MQTT topics and route messages to pluggable notification services",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runService("")
	},
}

// Execute runs the CLI, exiting with status 2 on a fatal/config error
// (§6's exit code contract).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(funcsCmd)
	rootCmd.AddCommand(pluginCmd)
	rootCmd.AddCommand(versionCmd)
}
