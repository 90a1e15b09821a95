// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"encoding/json"
	"strings"

	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// IPAddrInfo is one entry of addr_info in `ip -j addr show`
type IPAddrInfo struct {
	Family    string `json:"family"`
	Local     string `json:"local"`
	PrefixLen int    `json:"prefixlen"`
	Scope     string `json:"scope"`
	Dynamic   bool   `json:"dynamic"`
	Label     string `json:"label"`
}

// IPLinkInfo is the linkinfo object printed with `ip -d`
type IPLinkInfo struct {
	InfoKind string `json:"info_kind"`
}

// IPLink is one device of `ip -j [-d] addr show`
type IPLink struct {
	IfIndex   int          `json:"ifindex"`
	IfName    string       `json:"ifname"`
	Flags     []string     `json:"flags"`
	MTU       int          `json:"mtu"`
	OperState string       `json:"operstate"`
	LinkType  string       `json:"link_type"`
	Address   string       `json:"address"`
	LinkInfo  *IPLinkInfo  `json:"linkinfo,omitempty"`
	AddrInfo  []IPAddrInfo `json:"addr_info"`
}

// ParseIPAddrJSON parses `ip -j addr show`. Empty output is an empty list.
func ParseIPAddrJSON(out string) ([]IPLink, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	var links []IPLink
	if err := json.Unmarshal([]byte(out), &links); err != nil {
		return nil, errors.Wrap(err, errors.IPJSONParseError).
			WithMetadata("command", "ip -j addr show")
	}
	// ip emits an empty object for links that vanished mid-dump
	valid := links[:0]
	for _, l := range links {
		if l.IfName != "" {
			valid = append(valid, l)
		}
	}
	return valid, nil
}

// IPv4 returns the first global IPv4 address of the link, falling back to
// any IPv4 address.
func (l IPLink) IPv4() (IPAddrInfo, bool) {
	var fallback *IPAddrInfo
	for i := range l.AddrInfo {
		a := l.AddrInfo[i]
		if a.Family != "inet" {
			continue
		}
		if a.Scope == "global" {
			return a, true
		}
		if fallback == nil {
			fallback = &l.AddrInfo[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return IPAddrInfo{}, false
}

// Kind classifies the link from its link type and, when printed, the
// driver kind. Wireless devices are reported by ip as plain ether links,
// so the kernel naming scheme for WLAN devices is the only hint left.
func (l IPLink) Kind() types.InterfaceKind {
	switch {
	case l.LinkType == "loopback":
		return types.KindLoopback
	case l.LinkInfo != nil && l.LinkInfo.InfoKind != "":
		if k := NormalizeKind(l.LinkInfo.InfoKind); k != types.KindUnknown {
			return k
		}
	case l.LinkType == "none":
		return types.KindTunnel
	}
	if strings.HasPrefix(l.IfName, "wl") {
		return types.KindWifi
	}
	if l.LinkType == "ether" {
		return types.KindEthernet
	}
	return NormalizeKind(l.LinkType)
}

// State maps operstate and the UP flag onto AdminState
func (l IPLink) State() types.AdminState {
	if s := NormalizeState(l.OperState); s != types.StateUnknown {
		return s
	}
	for _, f := range l.Flags {
		if f == "UP" {
			return types.StateUp
		}
	}
	return types.StateDown
}
