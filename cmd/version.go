package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version 构建时通过 -ldflags 注入
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "praxis", version)
	},
}
