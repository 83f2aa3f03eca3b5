package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nachos/internal/kernel"
)

var runCmd = &cobra.Command{
	Use:                   "run EXECUTABLE",
	Short:                 "Exec an executable as the first user process and wait for it to finish",
	Long:                  `Loads EXECUTABLE as a fresh address space, forks its kernel thread, and blocks until it exits, printing its exit code.`,
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		k, err := kernel.New(kernel.Config{
			DiskPath:         cfg.DiskPath,
			Format:           false,
			NumPhysPages:     cfg.NumPhysPages,
			EventLogCapacity: cfg.EventLogCapacity,
		})
		if err != nil {
			return err
		}
		defer k.Close()

		path, err := resolveExecutable(k, cfg.ExecutablePath, args[0])
		if err != nil {
			return err
		}

		spaceID, err := k.StartProcess(path)
		if err != nil {
			return err
		}
		if spaceID < 0 {
			return fmt.Errorf("run: %s failed to start (missing file, bad format, or out of memory)", path)
		}
		code, ok := k.Scheduler().Join(spaceID)
		if !ok {
			return fmt.Errorf("run: lost track of pid %d", spaceID)
		}
		fmt.Printf("%s (pid %d) exited with code %d\n", path, spaceID, code)
		return nil
	},
}

// resolveExecutable implements the executable_path search config.go
// documents: a bare name (no leading '/') is tried under each configured
// directory in order before falling back to /root/<name>.
func resolveExecutable(k *kernel.Kernel, searchPath []string, name string) (string, error) {
	if strings.HasPrefix(name, "/") {
		return name, nil
	}
	for _, dir := range searchPath {
		candidate := strings.TrimSuffix(dir, "/") + "/" + name
		if _, err := k.FS().Open(candidate); err == nil {
			return candidate, nil
		}
	}
	if fallback := "/root/" + name; fallback != name {
		if _, err := k.FS().Open(fallback); err == nil {
			return fallback, nil
		}
	}
	return "", fmt.Errorf("run: %q not found on executable_path %v", name, searchPath)
}

func init() {
	rootCmd.AddCommand(runCmd)
}
