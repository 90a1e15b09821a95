// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"fmt"
	"math/bits"
	"net"
	"strconv"
	"strings"

	"github.com/stratastor/netpanel/pkg/errors"
)

// NetmaskToPrefix converts a dotted IPv4 netmask to its prefix length.
// Non-contiguous masks such as 255.0.255.0 are rejected.
func NetmaskToPrefix(mask string) (int, error) {
	ip := net.ParseIP(strings.TrimSpace(mask)).To4()
	if ip == nil {
		return 0, errors.New(errors.NetworkNetmaskInvalid, fmt.Sprintf("invalid netmask %q", mask))
	}
	v := uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
	ones := bits.LeadingZeros32(^v)
	if v<<ones != 0 {
		return 0, errors.New(errors.NetworkNetmaskInvalid, fmt.Sprintf("non-contiguous netmask %q", mask))
	}
	return ones, nil
}

// PrefixToNetmask converts a prefix length between 0 and 32 to a dotted
// IPv4 netmask.
func PrefixToNetmask(prefix int) (string, error) {
	if prefix < 0 || prefix > 32 {
		return "", errors.New(errors.NetworkPrefixLengthInvalid, fmt.Sprintf("prefix length %d out of range", prefix))
	}
	return net.IP(net.CIDRMask(prefix, 32)).String(), nil
}

// ParseNetmask accepts a dotted netmask or a bare prefix ("24" or "/24")
// and returns the prefix length.
func ParseNetmask(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New(errors.NetworkNetmaskInvalid, "netmask is empty")
	}
	if strings.Contains(s, ".") {
		return NetmaskToPrefix(s)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "/"))
	if err != nil || n < 0 || n > 32 {
		return 0, errors.New(errors.NetworkNetmaskInvalid, fmt.Sprintf("invalid netmask %q", s))
	}
	return n, nil
}

// isIPv4 reports whether s is a dotted IPv4 address
func isIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil && !strings.Contains(s, ":")
}
