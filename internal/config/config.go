// Package config loads the JSON settings file that parameterizes one
// kernel instance: where its disk image lives, how much physical memory it
// simulates, and where `nachos run` looks for bare executable names. Shaped
// after the teacher's own Default/Load/Validate pattern.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Config controls one kernel instance's resources.
type Config struct {
	// DiskPath is the backing file for the simulated disk image.
	DiskPath string `json:"disk_path"`
	// NumPhysPages is the number of physical memory pages (frames)
	// available to user address spaces. There is no swap: an exec whose
	// address space needs more frames than are free is not asserted
	// against; it fails and reports addrspace.InvalidSpaceID.
	NumPhysPages int `json:"num_phys_pages"`
	// ExecutablePath lists on-disk directories searched, in order, when
	// `nachos run` is given a bare executable name instead of a full path.
	ExecutablePath []string `json:"executable_path,omitempty"`
	// EventLogCapacity bounds the kernel's in-memory scheduling/syscall
	// event ring buffer.
	EventLogCapacity int `json:"event_log_capacity"`
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	return Config{
		DiskPath:         "nachos.disk",
		NumPhysPages:     64,
		EventLogCapacity: 256,
	}
}

// Load reads and validates the config file at path. An empty path returns
// the default configuration unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate fills in zero-value defaults and rejects settings that could
// never produce a working kernel.
func (c *Config) Validate() error {
	c.DiskPath = strings.TrimSpace(c.DiskPath)
	if c.DiskPath == "" {
		c.DiskPath = "nachos.disk"
	}
	if c.NumPhysPages == 0 {
		c.NumPhysPages = 64
	}
	if c.NumPhysPages < 0 {
		return fmt.Errorf("num_phys_pages must be positive, got %d", c.NumPhysPages)
	}
	if c.EventLogCapacity <= 0 {
		c.EventLogCapacity = 256
	}
	for _, dir := range c.ExecutablePath {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("executable_path entries must not be blank")
		}
	}
	return nil
}
