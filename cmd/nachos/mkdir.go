package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var mkdirCmd = &cobra.Command{
	Use:                   "mkdir PATH",
	Short:                 "Create a directory, auto-creating missing parents",
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
		if err := k.FS().Mkdir(path); err != nil {
			return err
		}
		fmt.Printf("created %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mkdirCmd)
}
