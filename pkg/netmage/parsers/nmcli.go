// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// Placeholder nmcli prints for an empty field
const nmcliEmpty = "--"

var indexedKey = regexp.MustCompile(`^(.+)\[\d+\]$`)

// SplitTerse splits one line of `nmcli -t` output on unescaped colons.
// nmcli escapes ':' and '\' inside values with a backslash, so a MAC
// address arrives as B8\:69\:F4\:98\:93\:B1.
func SplitTerse(line string) []string {
	var (
		fields []string
		cur    strings.Builder
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, cur.String())
}

func unescapeTerse(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func field(s string) string {
	s = strings.TrimSpace(s)
	if s == nmcliEmpty {
		return ""
	}
	return s
}

func lines(out string) []string {
	return strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
}

// NormalizeKind maps the many spellings of a device or connection type
// onto InterfaceKind. Matching is by case-insensitive substring and the
// order of checks matters: "macvlan" must not be read as a VLAN and
// "veth" must not be read as ethernet.
func NormalizeKind(s string) types.InterfaceKind {
	s = strings.ToLower(strings.TrimSpace(s))
	has := func(subs ...string) bool {
		for _, sub := range subs {
			if strings.Contains(s, sub) {
				return true
			}
		}
		return false
	}
	switch {
	case s == "":
		return types.KindUnknown
	case has("loopback") || s == "lo":
		return types.KindLoopback
	case has("wifi", "wireless", "802-11", "wlan"):
		return types.KindWifi
	case has("bridge"):
		return types.KindBridge
	case has("bond"):
		return types.KindBond
	case has("veth", "dummy", "virtual", "macvlan", "ipvlan", "macvtap", "tap"):
		return types.KindVirtual
	case has("vlan"):
		return types.KindVLAN
	case has("tun", "wireguard", "vpn", "gre", "ipip", "sit", "vxlan"):
		return types.KindTunnel
	case has("ethernet", "802-3", "ether"):
		return types.KindEthernet
	}
	return types.KindUnknown
}

// NormalizeState maps nmcli device states and ip operstates onto
// AdminState.
func NormalizeState(s string) types.AdminState {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return types.StateUnknown
	case strings.Contains(s, "unmanaged"):
		return types.StateUnmanaged
	case strings.Contains(s, "unavailable"):
		return types.StateUnavailable
	case strings.Contains(s, "deactivating"), strings.Contains(s, "disconnect"):
		return types.StateDown
	case strings.Contains(s, "connecting"), strings.Contains(s, "activating"),
		strings.Contains(s, "prepare"), strings.Contains(s, "config"),
		strings.Contains(s, "need-auth"), strings.Contains(s, "secondaries"):
		return types.StateActivating
	case strings.Contains(s, "connected"), s == "up", s == "activated":
		return types.StateUp
	case s == "down", s == "lowerlayerdown", s == "dormant", s == "notpresent":
		return types.StateDown
	}
	return types.StateUnknown
}

// ParseDeviceStatus parses `nmcli -t -f DEVICE,TYPE,STATE,CONNECTION device status`
func ParseDeviceStatus(out string) []types.DeviceStatus {
	var devices []types.DeviceStatus
	for _, line := range lines(out) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		f := SplitTerse(line)
		if len(f) < 4 {
			continue
		}
		devices = append(devices, types.DeviceStatus{
			Device:     field(f[0]),
			Type:       field(f[1]),
			Kind:       NormalizeKind(f[1]),
			State:      NormalizeState(f[2]),
			RawState:   field(f[2]),
			Connection: field(f[3]),
		})
	}
	return devices
}

// ParseConnections parses
// `nmcli -t -f NAME,UUID,TYPE,DEVICE,ACTIVE,TIMESTAMP connection show`
func ParseConnections(out string) []types.ConnectionProfile {
	var profiles []types.ConnectionProfile
	for _, line := range lines(out) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		f := SplitTerse(line)
		if len(f) < 6 {
			continue
		}
		ts, _ := strconv.ParseInt(field(f[5]), 10, 64)
		profiles = append(profiles, types.ConnectionProfile{
			Name:      f[0],
			UUID:      field(f[1]),
			Type:      field(f[2]),
			Kind:      NormalizeKind(f[2]),
			Device:    field(f[3]),
			Active:    strings.EqualFold(field(f[4]), "yes"),
			Timestamp: ts,
		})
	}
	return profiles
}

// KeyValues holds `nmcli -t -f ...` multi-line output. Indexed keys such
// as IP4.ADDRESS[1] and IP4.ADDRESS[2] collect under IP4.ADDRESS.
type KeyValues map[string][]string

// Get returns the first value of key, or "" when absent
func (kv KeyValues) Get(key string) string {
	if v := kv[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// ParseKeyValues parses nmcli multi-line terse output. Empty values and
// the "--" placeholder are dropped so absence reads as a missing key.
func ParseKeyValues(out string) KeyValues {
	kv := KeyValues{}
	for _, line := range lines(out) {
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		if value == "" {
			continue
		}
		kv[key] = append(kv[key], value)
	}
	return kv
}

// ParseKeyValueBlocks parses multi-device output such as
// `nmcli -t -f GENERAL.DEVICE,IP4.DNS device show`. A block starts at each
// GENERAL.DEVICE key or after a blank line.
func ParseKeyValueBlocks(out string) []KeyValues {
	var (
		blocks []KeyValues
		cur    KeyValues
	)
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, cur)
		}
		cur = nil
	}
	for _, line := range lines(out) {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		if key == "GENERAL.DEVICE" {
			flush()
		}
		if cur == nil {
			cur = KeyValues{}
		}
		if value != "" {
			cur[key] = append(cur[key], value)
		}
	}
	flush()
	return blocks
}

func splitKeyValue(line string) (string, string, bool) {
	line = strings.TrimRight(line, "\r")
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:idx])
	if m := indexedKey.FindStringSubmatch(key); m != nil {
		key = m[1]
	}
	return key, field(unescapeTerse(line[idx+1:])), true
}

// SplitList splits nmcli list values, which use commas or spaces
// depending on the property and the nmcli version.
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// ParseWifiList parses `nmcli -t -f ACTIVE,SSID,SIGNAL,SECURITY device wifi list`.
// Hidden networks are dropped, duplicates (one per BSSID) merge into the
// strongest entry, and the result is ordered by signal.
func ParseWifiList(out string) []types.WifiNetwork {
	seen := map[string]int{}
	var networks []types.WifiNetwork
	for _, line := range lines(out) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		f := SplitTerse(line)
		if len(f) < 4 {
			continue
		}
		ssid := field(f[1])
		if ssid == "" {
			continue
		}
		signal, _ := strconv.Atoi(field(f[2]))
		active := strings.EqualFold(field(f[0]), "yes")
		if i, ok := seen[ssid]; ok {
			if signal > networks[i].Signal {
				networks[i].Signal = signal
			}
			networks[i].Active = networks[i].Active || active
			continue
		}
		seen[ssid] = len(networks)
		networks = append(networks, types.WifiNetwork{
			SSID:     ssid,
			Signal:   signal,
			Security: field(f[3]),
			Active:   active,
		})
	}
	sort.SliceStable(networks, func(i, j int) bool {
		return networks[i].Signal > networks[j].Signal
	})
	return networks
}
