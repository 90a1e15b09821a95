// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"

	"github.com/stratastor/netpanel/pkg/errors"
)

var (
	configDir string // Directory for configuration files
	runDir    string // Directory for the PID file
)

func init() {
	if os.Geteuid() == 0 {
		configDir = "/etc/netpanel"
		runDir = "/run/netpanel"
		return
	}

	// Otherwise, use user config directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(errors.Wrap(err, errors.ConfigHomeDirectoryError))
	}

	configDir = filepath.Join(homeDir, ".netpanel")
	runDir = configDir
}

// GetConfigDir returns the appropriate configuration directory
// If running as root, it returns the system config directory
// Otherwise, it returns the user config directory
func GetConfigDir() string {
	return configDir
}

// GetPIDFilePath returns where the serving process records its PID
func GetPIDFilePath() string {
	return filepath.Join(runDir, "netpanel.pid")
}

// EnsureDirectories creates necessary directories if they do not exist
func EnsureDirectories() error {
	for _, dir := range []string{configDir, runDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, errors.ConfigDirectoryError).WithMetadata("path", dir)
		}
	}

	return nil
}
