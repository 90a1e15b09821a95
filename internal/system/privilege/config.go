// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package privilege

// Config contains configuration for the privilege operations module
type Config struct {
	// AllowedPaths defines paths that can be accessed with sudo
	AllowedPaths []string `yaml:"allowed_paths" json:"allowed_paths"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		AllowedPaths: []string{
			"/etc/resolv.conf",
			"/etc/systemd/resolved.conf.d",
			"/etc/systemd/timesyncd.conf.d",
		},
	}
}

// WithPaths returns a copy of c that additionally allows paths
func (c *Config) WithPaths(paths ...string) *Config {
	out := &Config{AllowedPaths: append([]string{}, c.AllowedPaths...)}
	for _, p := range paths {
		if p != "" {
			out.AllowedPaths = append(out.AllowedPaths, p)
		}
	}
	return out
}
