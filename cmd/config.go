package cmd

import (
	"fmt"

	"github.com/rskv-p/mqttwarn/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration file helpers",
}

var configSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print a documented sample configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print(config.Sample)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSampleCmd)
}
