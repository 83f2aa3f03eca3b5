package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:                   "events",
	Short:                 "Print recent kernel lifecycle events (fork/exit)",
	Args:                  cobra.NoArgs,
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKernel()
		if err != nil {
			return err
		}
		defer k.Close()

		for _, e := range k.Events(eventsLimit) {
			fmt.Printf("#%-4d t=%-4d %-5s thread=%-3d %s\n", e.ID, e.TimeUnixMs, e.Kind, e.ThreadID, e.Detail)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 0, "only print the N most recent events (0 means all buffered)")
	rootCmd.AddCommand(eventsCmd)
}
