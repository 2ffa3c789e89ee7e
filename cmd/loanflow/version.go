package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/loanflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of loanflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "loanflow version %s\n", strings.TrimSpace(loanflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
