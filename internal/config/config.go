// Package config loads the kernel's boot configuration, per SPEC_FULL.md
// section 10.3: biscuit has no such file (its boot parameters are
// compiled constants), so this is grounded instead on
// tinyrange-cc/cmd/ccapp/site_config.go's yaml.v3-decoded config struct
// with defaults applied when the file is absent or a field is zero.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Boot is the decoded contents of boot.yaml, consumed by cmd/kernel
// (which memory size and image path to boot with) and cmd/mkfs (so the
// image builder and kernel agree on layout constants without duplicating
// them), per SPEC_FULL.md section 10.3.
type Boot struct {
	// MemorySizeBytes is the amount of physical RAM internal/frame bumps
	// frames out of, beyond the kernel's own image.
	MemorySizeBytes uint64 `yaml:"memory_size_bytes"`
	// DiskImagePath is the host path of the Easy-FS disk image
	// internal/drivers/virtioblk serves blocks from.
	DiskImagePath string `yaml:"disk_image_path"`
	// InitProcPath is the Easy-FS path of the first user program, per
	// spec.md section 6's boot sequence ("the init process loaded from
	// /initproc").
	InitProcPath string `yaml:"init_proc_path"`
	// LogLevel is one of "error", "warn", "info", "debug", consumed by
	// internal/klog.ParseLevel; the Go-native equivalent of
	// original_source/os/src/logger.rs reading the LOG environment
	// variable (SPEC_FULL.md section 12).
	LogLevel string `yaml:"log_level"`
	// TickHz overrides spec.md section 6's 100 Hz scheduling tick, 0
	// meaning "use the default".
	TickHz int `yaml:"tick_hz"`
}

// DefaultTickHz is spec.md section 6's timer tick frequency.
const DefaultTickHz = 100

// defaults returns the configuration cmd/kernel boots with when boot.yaml
// is absent, matching the constants biscuit compiles in.
func defaults() Boot {
	return Boot{
		MemorySizeBytes: 64 << 20,
		DiskImagePath:   "fs.img",
		InitProcPath:    "/initproc",
		LogLevel:        "info",
		TickHz:          DefaultTickHz,
	}
}

// Load reads and decodes path, falling back to defaults() for any field
// left zero in the file and for the file being entirely absent.
func Load(path string) (Boot, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Boot{}, err
	}
	var overlay Boot
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Boot{}, err
	}
	if overlay.MemorySizeBytes != 0 {
		cfg.MemorySizeBytes = overlay.MemorySizeBytes
	}
	if overlay.DiskImagePath != "" {
		cfg.DiskImagePath = overlay.DiskImagePath
	}
	if overlay.InitProcPath != "" {
		cfg.InitProcPath = overlay.InitProcPath
	}
	if overlay.LogLevel != "" {
		cfg.LogLevel = overlay.LogLevel
	}
	if overlay.TickHz != 0 {
		cfg.TickHz = overlay.TickHz
	}
	return cfg, nil
}
