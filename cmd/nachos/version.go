package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nachos/internal/version"
)

var versionCmd = &cobra.Command{
	Use:                   "version",
	Short:                 "Print version information and exit",
	Args:                  cobra.NoArgs,
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Get().String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
