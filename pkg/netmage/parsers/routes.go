// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// DefaultDestination is how a default route is stored
const DefaultDestination = "0.0.0.0/0"

var routeTypes = map[string]bool{
	"unicast":     true,
	"unreachable": true,
	"blackhole":   true,
	"prohibit":    true,
	"local":       true,
	"broadcast":   true,
	"throw":       true,
	"nat":         true,
	"anycast":     true,
	"multicast":   true,
}

// RouteID derives the synthetic route identifier. The kernel has no
// stable handle, so listing and deletion must both derive it from the
// same fields. Routes that differ only in metric share an id.
func RouteID(destination, gateway, iface string) string {
	sum := sha1.Sum([]byte(destination + "|" + gateway + "|" + iface))
	return "r" + hex.EncodeToString(sum[:])[:12]
}

// ParseRoutes parses `ip route show`. Fields are located by keyword
// because their count and position vary with the route type.
func ParseRoutes(out string) []types.Route {
	var routes []types.Route
	for _, line := range lines(out) {
		tokens := strings.Fields(line)
		if len(tokens) == 0 || tokens[0] == "nexthop" {
			continue
		}
		r := types.Route{}
		if routeTypes[tokens[0]] {
			r.Type = tokens[0]
			tokens = tokens[1:]
			if len(tokens) == 0 {
				continue
			}
		}
		r.Destination = tokens[0]
		if r.Destination == "default" {
			r.Destination = DefaultDestination
		}
		for i := 1; i < len(tokens); i++ {
			if i+1 >= len(tokens) {
				break
			}
			val := tokens[i+1]
			switch tokens[i] {
			case "via":
				if val == "inet" || val == "inet6" {
					if i+2 < len(tokens) {
						i++
						val = tokens[i+1]
					}
				}
				r.Gateway = val
			case "dev":
				r.Interface = val
			case "metric":
				r.Metric, _ = strconv.Atoi(val)
			case "proto":
				r.Protocol = val
			case "scope":
				r.Scope = val
			case "src":
				r.Source = val
			case "table":
				r.Table = val
			default:
				continue
			}
			i++
		}
		r.ID = RouteID(r.Destination, r.Gateway, r.Interface)
		routes = append(routes, r)
	}
	return routes
}

// RenderDestination is the inverse of the default-route normalisation
// applied by ParseRoutes, for passing a destination back to ip.
func RenderDestination(dest string) string {
	if dest == DefaultDestination {
		return "default"
	}
	return dest
}
