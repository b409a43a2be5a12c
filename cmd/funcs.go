package cmd

import (
	"fmt"

	"github.com/rskv-p/mqttwarn/hooks/sample"
	"github.com/spf13/cobra"
)

var funcsCmd = &cobra.Command{
	Use:   "funcs",
	Short: "Hook module helpers",
}

var funcsSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the built-in sample hook module's source",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print(sample.Source)
		return nil
	},
}

func init() {
	funcsCmd.AddCommand(funcsSampleCmd)
}
