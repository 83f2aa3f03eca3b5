package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var catHexDump bool

var catCmd = &cobra.Command{
	Use:                   "cat PATH",
	Short:                 "Print a file's contents to stdout",
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKernel()
		if err != nil {
			return err
		}
		defer k.Close()

		f, err := k.FS().Open(args[0])
		if err != nil {
			return err
		}
		buf := make([]byte, f.Length())
		if _, err := f.ReadAt(buf, 0); err != nil {
			return err
		}
		if catHexDump {
			hexDump(buf)
			return nil
		}
		_, err = os.Stdout.Write(buf)
		return err
	},
}

// hexDump prints buf the way filehdr.cc's Print() walks a file's sector
// chain: 16 bytes per line, offset prefix, hex then printable ASCII.
func hexDump(buf []byte) {
	for off := 0; off < len(buf); off += 16 {
		end := off + 16
		if end > len(buf) {
			end = len(buf)
		}
		line := buf[off:end]
		fmt.Printf("%08x  ", off)
		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Printf("%02x ", line[i])
			} else {
				fmt.Print("   ")
			}
		}
		fmt.Print(" ")
		for _, b := range line {
			if b >= 0x20 && b < 0x7f {
				fmt.Printf("%c", b)
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println()
	}
}

func init() {
	catCmd.Flags().BoolVarP(&catHexDump, "hex", "x", false, "dump the file's bytes as hex + printable ASCII instead of raw text")
	rootCmd.AddCommand(catCmd)
}
