package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fsckVerbose bool

var fsckCmd = &cobra.Command{
	Use:                   "fsck",
	Short:                 "Check that the free-sector bitmap and live file headers agree",
	Args:                  cobra.NoArgs,
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKernel()
		if err != nil {
			return err
		}
		defer k.Close()

		if fsckVerbose {
			for _, e := range k.FS().List() {
				kind := "file"
				if e.IsDir {
					kind = "dir "
				}
				fmt.Printf("%s  sector=%-4d %s\n", kind, e.Sector, e.Path)
			}
		}

		report, err := k.FS().Fsck()
		if err != nil {
			return err
		}
		fmt.Printf("total sectors:     %d\n", report.TotalSectors)
		fmt.Printf("reserved sectors:  %d\n", report.ReservedSectors)
		fmt.Printf("free sectors:      %d\n", report.FreeSectors)
		fmt.Printf("allocated by files:%d\n", report.AllocatedByFiles)
		if report.Consistent {
			fmt.Println("OK: bitmap and file headers agree")
			return nil
		}
		return fmt.Errorf("INCONSISTENT: %d + %d + %d != %d",
			report.FreeSectors, report.AllocatedByFiles, report.ReservedSectors, report.TotalSectors)
	},
}

func init() {
	fsckCmd.Flags().BoolVarP(&fsckVerbose, "verbose", "v", false, "list every live file/directory entry before the summary")
	rootCmd.AddCommand(fsckCmd)
}
