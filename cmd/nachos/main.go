// Command nachos is the command-line front end for the emulator: it formats
// disk images, manipulates the file system namespace directly, and loads
// user executables into a kernel instance. The instruction set itself is not
// interpreted (see the kernel package's Program type), and this command
// registers no Program, so a process started by `run` exits with code 0 as
// soon as its address space is built.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"nachos/internal/config"
	"nachos/internal/kernel"
)

var (
	flagDiskPath string
	flagConfig   string
)

var rootCmd = &cobra.Command{
	Use:   "nachos",
	Short: "A pedagogical file system and user-process emulator",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDiskPath, "disk", "", "path to the disk image (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a JSON config file")
}

// loadConfig merges the --config file with the --disk override, --disk
// always winning since it was given directly on this invocation's command
// line.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDiskPath != "" {
		cfg.DiskPath = flagDiskPath
	}
	return cfg, nil
}

// openKernel mounts an existing disk image for commands that operate on a
// file system that `format` has already created.
func openKernel() (*kernel.Kernel, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return kernel.New(kernel.Config{
		DiskPath:         cfg.DiskPath,
		Format:           false,
		NumPhysPages:     cfg.NumPhysPages,
		EventLogCapacity: cfg.EventLogCapacity,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("FATAL: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
