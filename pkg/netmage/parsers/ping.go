// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/stratastor/netpanel/pkg/netmage/types"
)

var (
	pingHeader  = regexp.MustCompile(`^PING\s+(\S+)\s+\(([^)]+)\)`)
	pingCounts  = regexp.MustCompile(`(\d+) packets transmitted, (\d+) (?:packets )?received`)
	pingLoss    = regexp.MustCompile(`([\d.]+)% packet loss`)
	pingRTT     = regexp.MustCompile(`(?:rtt|round-trip) min/avg/max/(?:mdev|stddev) = ([\d.]+)/([\d.]+)/([\d.]+)/([\d.]+) ms`)
	traceHeader = regexp.MustCompile(`^traceroute to (\S+) \(([^)]+)\), (\d+) hops max`)
	traceHop    = regexp.MustCompile(`^\s*(\d+)\s+(.*)$`)
)

// ParsePing parses iputils or busybox ping output. A missing summary line
// leaves the corresponding fields zero.
func ParsePing(out string) types.PingResult {
	var r types.PingResult
	for _, line := range lines(out) {
		line = strings.TrimSpace(line)
		if m := pingHeader.FindStringSubmatch(line); m != nil {
			r.Target = m[1]
			r.Address = m[2]
			continue
		}
		if m := pingCounts.FindStringSubmatch(line); m != nil {
			r.Transmitted, _ = strconv.Atoi(m[1])
			r.Received, _ = strconv.Atoi(m[2])
		}
		if m := pingLoss.FindStringSubmatch(line); m != nil {
			r.PacketLoss, _ = strconv.ParseFloat(m[1], 64)
		}
		if m := pingRTT.FindStringSubmatch(line); m != nil {
			r.MinRTT, _ = strconv.ParseFloat(m[1], 64)
			r.AvgRTT, _ = strconv.ParseFloat(m[2], 64)
			r.MaxRTT, _ = strconv.ParseFloat(m[3], 64)
			r.MdevRTT, _ = strconv.ParseFloat(m[4], 64)
		}
	}
	return r
}

// ParseTraceroute parses `traceroute -n` output into hops. Hosts printed
// as "name (addr)" are reduced to the address.
func ParseTraceroute(out string) types.TracerouteResult {
	var r types.TracerouteResult
	for _, line := range lines(out) {
		if m := traceHeader.FindStringSubmatch(line); m != nil {
			r.Target = m[1]
			r.Address = m[2]
			r.MaxHops, _ = strconv.Atoi(m[3])
			continue
		}
		m := traceHop.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		hop := types.TracerouteHop{RTTs: []float64{}}
		hop.Hop, _ = strconv.Atoi(m[1])
		tokens := strings.Fields(m[2])
		for i := 0; i < len(tokens); i++ {
			tok := tokens[i]
			switch {
			case tok == "*":
				hop.Timeouts++
			case i+1 < len(tokens) && tokens[i+1] == "ms":
				if v, err := strconv.ParseFloat(tok, 64); err == nil {
					hop.RTTs = append(hop.RTTs, v)
				}
				i++
			default:
				addr := strings.Trim(tok, "()")
				if hop.Address == "" && net.ParseIP(addr) != nil {
					hop.Address = addr
				}
			}
		}
		r.Hops = append(r.Hops, hop)
	}
	return r
}
