package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nachos/internal/kernel"
)

var formatCmd = &cobra.Command{
	Use:                   "format",
	Short:                 "Create a fresh, empty file system on the disk image",
	Args:                  cobra.NoArgs,
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		k, err := kernel.New(kernel.Config{
			DiskPath:         cfg.DiskPath,
			Format:           true,
			NumPhysPages:     cfg.NumPhysPages,
			EventLogCapacity: cfg.EventLogCapacity,
		})
		if err != nil {
			return err
		}
		defer k.Close()
		fmt.Printf("formatted %s\n", cfg.DiskPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatCmd)
}
