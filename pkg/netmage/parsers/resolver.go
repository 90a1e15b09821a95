// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"regexp"
	"strings"

	"github.com/stratastor/netpanel/pkg/netmage/types"
)

var (
	resolvectlKey  = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z .]*?):\s*(.*)$`)
	resolvectlLink = regexp.MustCompile(`^Link \d+ \(([^)]+)\)`)
)

// Sources reported in DNSSettings.Source
const (
	SourceResolvectl = "resolvectl"
	SourceNmcli      = "nmcli"
	SourceResolvConf = "resolv.conf"
)

// NewDNSSettings returns settings with non-nil collections
func NewDNSSettings(source string) *types.DNSSettings {
	return &types.DNSSettings{
		SearchDomains: []string{},
		Interfaces:    map[string]types.DNSServerPair{},
		Source:        source,
	}
}

// Pair returns the first two entries of servers
func Pair(servers []string) types.DNSServerPair {
	var p types.DNSServerPair
	if len(servers) > 0 {
		p.Primary = servers[0]
	}
	if len(servers) > 1 {
		p.Secondary = servers[1]
	}
	return p
}

// ParseResolvectlStatus parses `resolvectl status`. The Global section
// gives the global servers and search domains, each Link section the
// per-interface servers. Server lists may wrap onto continuation lines.
func ParseResolvectlStatus(out string) *types.DNSSettings {
	settings := NewDNSSettings(SourceResolvectl)

	var (
		section   string // "" before any header, "global", or a link name
		lastKey   string
		global    []string
		perLink   = map[string][]string{}
		linkOrder []string
	)
	add := func(servers ...string) {
		for i, s := range servers {
			servers[i], _, _ = strings.Cut(s, "#")
		}
		switch section {
		case "":
		case "global":
			global = append(global, servers...)
		default:
			perLink[section] = append(perLink[section], servers...)
		}
	}

	for _, line := range lines(out) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			lastKey = ""
			continue
		}
		if trimmed == "Global" {
			section, lastKey = "global", ""
			continue
		}
		if m := resolvectlLink.FindStringSubmatch(trimmed); m != nil {
			section, lastKey = m[1], ""
			linkOrder = append(linkOrder, section)
			continue
		}
		m := resolvectlKey.FindStringSubmatch(line)
		if m == nil {
			if lastKey == "DNS Servers" {
				add(strings.Fields(trimmed)...)
			}
			continue
		}
		lastKey = m[1]
		switch m[1] {
		case "DNS Servers":
			add(strings.Fields(m[2])...)
		case "DNS Domain":
			if section == "global" {
				for _, d := range strings.Fields(m[2]) {
					if d != "~." {
						settings.SearchDomains = append(settings.SearchDomains, d)
					}
				}
			}
		}
	}

	g := Pair(global)
	settings.Primary, settings.Secondary = g.Primary, g.Secondary
	for _, link := range linkOrder {
		if servers := perLink[link]; len(servers) > 0 {
			settings.Interfaces[link] = Pair(servers)
		}
	}
	return settings
}

// ParseResolvConf parses nameserver, search and domain lines of a
// resolv.conf file
func ParseResolvConf(out string) *types.DNSSettings {
	settings := NewDNSSettings(SourceResolvConf)
	var servers []string
	for _, line := range lines(out) {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		f := strings.Fields(line)
		if len(f) < 2 {
			continue
		}
		switch f[0] {
		case "nameserver":
			servers = append(servers, f[1])
		case "search", "domain":
			settings.SearchDomains = append(settings.SearchDomains, f[1:]...)
		}
	}
	p := Pair(servers)
	settings.Primary, settings.Secondary = p.Primary, p.Secondary
	return settings
}

// ParseDeviceDNS builds settings from
// `nmcli -t -f GENERAL.DEVICE,IP4.DNS,IP4.DOMAIN device show`. The first
// device with servers supplies the global pair.
func ParseDeviceDNS(out string) *types.DNSSettings {
	settings := NewDNSSettings(SourceNmcli)
	for _, block := range ParseKeyValueBlocks(out) {
		dev := block.Get("GENERAL.DEVICE")
		servers := block["IP4.DNS"]
		if dev == "" || len(servers) == 0 {
			continue
		}
		p := Pair(servers)
		settings.Interfaces[dev] = p
		if settings.Primary == "" {
			settings.Primary, settings.Secondary = p.Primary, p.Secondary
		}
		for _, d := range block["IP4.DOMAIN"] {
			if !contains(settings.SearchDomains, d) {
				settings.SearchDomains = append(settings.SearchDomains, d)
			}
		}
	}
	return settings
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
