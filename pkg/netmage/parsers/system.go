// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"strings"

	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// ParseTimedatectl parses the key=value output of `timedatectl show` and
// `timedatectl show-timesync`
func ParseTimedatectl(out string) map[string]string {
	props := map[string]string{}
	for _, line := range lines(out) {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok || key == "" {
			continue
		}
		props[key] = value
	}
	return props
}

// ParseHostnamectl parses `hostnamectl status`
func ParseHostnamectl(out string) types.HostnameInfo {
	var info types.HostnameInfo
	for _, line := range lines(out) {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Static hostname":
			info.Static = value
		case "Transient hostname":
			info.Transient = value
		case "Pretty hostname":
			info.Pretty = value
		case "Icon name":
			info.IconName = value
		case "Chassis":
			info.Chassis = value
		case "Machine ID":
			info.MachineID = value
		case "Boot ID":
			info.BootID = value
		case "Operating System":
			info.OperatingSystem = value
		case "Kernel":
			info.Kernel = value
		}
	}
	return info
}
