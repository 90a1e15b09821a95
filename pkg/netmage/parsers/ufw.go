// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/stratastor/netpanel/pkg/netmage/types"
)

var (
	ufwRule = regexp.MustCompile(
		`^\[\s*(\d+)\]\s+(.+?)\s+(ALLOW|DENY|REJECT|LIMIT)(?:\s+(IN|OUT|FWD))?\s+(.+?)\s*(?:#\s*(.*))?$`)
	ufwDefault = regexp.MustCompile(`(\w+) \((incoming|outgoing|routed)\)`)
	ufwPort    = regexp.MustCompile(`^([\d:,]+)(?:/(tcp|udp))?$`)
)

const v6Suffix = "(v6)"

// ParseUfwStatus parses `ufw status numbered`
func ParseUfwStatus(out string) (bool, []types.FirewallRule) {
	active := false
	var rules []types.FirewallRule
	for _, line := range lines(out) {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "Status:"); ok {
			active = strings.TrimSpace(v) == "active"
			continue
		}
		m := ufwRule.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		rule := types.FirewallRule{
			Number:    num,
			To:        strings.TrimSpace(m[2]),
			Action:    strings.ToLower(m[3]),
			Direction: "in",
			From:      strings.TrimSpace(m[5]),
			Comment:   strings.TrimSpace(m[6]),
		}
		if m[4] != "" {
			rule.Direction = strings.ToLower(m[4])
		}
		if from, ok := strings.CutSuffix(rule.From, "(out)"); ok {
			rule.From = strings.TrimSpace(from)
			rule.Direction = "out"
		}
		if strings.HasSuffix(rule.To, v6Suffix) || strings.HasSuffix(rule.From, v6Suffix) {
			rule.IPv6 = true
		}
		target := strings.TrimSpace(strings.TrimSuffix(rule.To, v6Suffix))
		if pm := ufwPort.FindStringSubmatch(target); pm != nil {
			rule.Port = pm[1]
			rule.Protocol = pm[2]
		} else if target != "Anywhere" && !strings.Contains(target, " on ") && !looksLikeAddress(target) {
			rule.Service = target
		}
		rules = append(rules, rule)
	}
	return active, rules
}

func looksLikeAddress(s string) bool {
	first := strings.Fields(s)
	if len(first) == 0 {
		return false
	}
	c := first[0][0]
	return (c >= '0' && c <= '9') || strings.Contains(first[0], ":")
}

// ParseUfwVerbose extracts the logging level and default policies from
// `ufw status verbose`
func ParseUfwVerbose(out string) (string, types.FirewallDefaults) {
	var (
		logging  string
		defaults types.FirewallDefaults
	)
	for _, line := range lines(out) {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "Logging:"); ok {
			logging = strings.TrimSpace(v)
			continue
		}
		v, ok := strings.CutPrefix(line, "Default:")
		if !ok {
			continue
		}
		for _, m := range ufwDefault.FindAllStringSubmatch(v, -1) {
			switch m[2] {
			case "incoming":
				defaults.Incoming = m[1]
			case "outgoing":
				defaults.Outgoing = m[1]
			case "routed":
				defaults.Routed = m[1]
			}
		}
	}
	return logging, defaults
}
