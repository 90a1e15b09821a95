// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"strconv"

	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/vishvananda/netlink"
)

// netlinkDefaultRouteDevice asks the kernel which link carries the IPv4
// default route with the lowest metric
func netlinkDefaultRouteDevice() (string, error) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return "", errors.Wrap(err, errors.IPRouteOperationFailed).
			WithMetadata("operation", "netlink route list")
	}

	var best *netlink.Route
	for i := range routes {
		r := &routes[i]
		if r.Dst != nil {
			if ones, _ := r.Dst.Mask.Size(); ones != 0 {
				continue
			}
		}
		if r.LinkIndex == 0 {
			continue
		}
		if best == nil || r.Priority < best.Priority {
			best = r
		}
	}
	if best == nil {
		return "", errors.New(errors.NetworkRouteNotFound, "no default route")
	}

	link, err := netlink.LinkByIndex(best.LinkIndex)
	if err != nil {
		return "", errors.Wrap(err, errors.IPLinkOperationFailed).
			WithMetadata("ifindex", strconv.Itoa(best.LinkIndex))
	}
	return link.Attrs().Name, nil
}
