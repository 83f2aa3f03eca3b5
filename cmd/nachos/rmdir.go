package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rmdirCmd = &cobra.Command{
	Use:                   "rmdir PATH",
	Short:                 "Remove a directory and everything under it",
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !strings.HasSuffix(path, "/") {
			path += "/"
		}
		k, err := openKernel()
		if err != nil {
			return err
		}
		defer k.Close()
		if err := k.FS().Remove(path); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmdirCmd)
}
