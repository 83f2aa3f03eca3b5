package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:                   "ls",
	Short:                 "List every live path in the namespace",
	Args:                  cobra.NoArgs,
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKernel()
		if err != nil {
			return err
		}
		defer k.Close()
		for _, e := range k.FS().List() {
			kind := "file"
			if e.IsDir {
				kind = "dir "
			}
			fmt.Printf("%s  sector=%-4d %s\n", kind, e.Sector, e.Path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
