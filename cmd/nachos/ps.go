package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var psCmd = &cobra.Command{
	Use:                   "ps",
	Short:                 "List currently ready and terminated kernel threads",
	Args:                  cobra.NoArgs,
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKernel()
		if err != nil {
			return err
		}
		defer k.Close()

		ready, terminated := k.Scheduler().Snapshot()
		fmt.Printf("ready:      %v\n", ready)
		fmt.Printf("terminated: %v\n", terminated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(psCmd)
}
