// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"strconv"
	"strings"

	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// ParseProcNetDev parses /proc/net/dev. Each device line holds eight
// receive counters followed by eight transmit counters.
func ParseProcNetDev(out string) []types.InterfaceCounters {
	var counters []types.InterfaceCounters
	for _, line := range lines(out) {
		if strings.Contains(line, "|") {
			continue
		}
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		f := strings.Fields(rest)
		if len(f) < 16 {
			continue
		}
		n := make([]uint64, 16)
		for i := 0; i < 16; i++ {
			n[i], _ = strconv.ParseUint(f[i], 10, 64)
		}
		counters = append(counters, types.InterfaceCounters{
			Interface: strings.TrimSpace(name),
			RxBytes:   n[0],
			RxPackets: n[1],
			RxErrors:  n[2],
			RxDropped: n[3],
			TxBytes:   n[8],
			TxPackets: n[9],
			TxErrors:  n[10],
			TxDropped: n[11],
		})
	}
	return counters
}

// ParseSockets parses `ss -tuna` or `ss -tuln`. The Netid column is
// present because both tcp and udp are requested.
func ParseSockets(out string) []types.Socket {
	var sockets []types.Socket
	for _, line := range lines(out) {
		f := strings.Fields(line)
		if len(f) < 6 || f[0] == "Netid" {
			continue
		}
		recvQ, err := strconv.Atoi(f[2])
		if err != nil {
			continue
		}
		sendQ, _ := strconv.Atoi(f[3])
		sockets = append(sockets, types.Socket{
			Netid: f[0],
			State: f[1],
			RecvQ: recvQ,
			SendQ: sendQ,
			Local: f[4],
			Peer:  f[5],
		})
	}
	return sockets
}

// CountSockets summarises sockets by protocol and TCP state
func CountSockets(sockets []types.Socket) types.ConnectionCounts {
	var c types.ConnectionCounts
	for _, s := range sockets {
		switch {
		case strings.HasPrefix(s.Netid, "tcp"):
			switch s.State {
			case "ESTAB":
				c.TCPEstablished++
			case "LISTEN":
				c.TCPListening++
			default:
				c.TCPOther++
			}
		case strings.HasPrefix(s.Netid, "udp"):
			c.UDP++
		default:
			continue
		}
		c.Total++
	}
	return c
}
