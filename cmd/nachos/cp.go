package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkg/errors"
)

var cpCmd = &cobra.Command{
	Use:                   "cp HOST_FILE NACHOS_PATH",
	Short:                 "Copy a host file into the namespace",
	Long:                  `Copies HOST_FILE from the local filesystem into the emulated disk at NACHOS_PATH, creating it and any missing parent directories. Fails if NACHOS_PATH already exists.`,
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "cp: reading host file")
		}
		k, err := openKernel()
		if err != nil {
			return err
		}
		defer k.Close()

		if err := k.FS().Create(args[1], 0); err != nil {
			return err
		}
		if len(data) > 0 {
			if err := k.FS().Append(args[1], data, false); err != nil {
				return err
			}
		}
		fmt.Printf("copied %d bytes to %s\n", len(data), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cpCmd)
}
