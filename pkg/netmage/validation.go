// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/parsers"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

var (
	hostnamePattern      = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)
	interfaceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.:@-]{1,15}$`)
	servicePattern       = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 _.+-]{0,63}$`)
	portPattern          = regexp.MustCompile(`^\d{1,5}(:\d{1,5})?$`)
)

// validateNoComma rejects list separators in single-valued address
// fields. A comma would otherwise be read as a second value by nmcli.
func validateNoComma(field, value string) error {
	if strings.Contains(value, ",") {
		return errors.New(errors.NetworkFieldContainsComma,
			fmt.Sprintf("%s must be a single value without commas", field)).
			WithMetadata("field", field)
	}
	return nil
}

// validateIPv4Address validates a dotted IPv4 address
func validateIPv4Address(field, address string, code errors.ErrorCode) error {
	if err := validateNoComma(field, address); err != nil {
		return err
	}
	if !isIPv4(address) {
		return errors.New(code, fmt.Sprintf("%s %q is not a valid IPv4 address", field, address)).
			WithMetadata("field", field)
	}
	return nil
}

// validateIPAddressFormat validates IP address format (supports both single IP and CIDR)
func validateIPAddressFormat(field, address string) error {
	if err := validateNoComma(field, address); err != nil {
		return err
	}
	if address == "" {
		return errors.New(errors.NetworkIPAddressInvalid, field+" cannot be empty")
	}
	if strings.Contains(address, "/") {
		if _, _, err := net.ParseCIDR(address); err != nil {
			return errors.New(errors.NetworkCIDRInvalid, fmt.Sprintf("invalid CIDR notation %q", address))
		}
		return nil
	}
	if net.ParseIP(address) == nil {
		return errors.New(errors.NetworkIPAddressInvalid, fmt.Sprintf("invalid IP address %q", address))
	}
	return nil
}

// validateHostnameFormat validates hostname format
func validateHostnameFormat(hostname string) error {
	if hostname == "" {
		return errors.New(errors.NetworkHostnameInvalid, "hostname cannot be empty")
	}
	if len(hostname) > 253 {
		return errors.New(errors.NetworkHostnameInvalid, "hostname too long (max 253 characters)")
	}
	if !hostnamePattern.MatchString(hostname) {
		return errors.New(errors.NetworkHostnameInvalid, fmt.Sprintf("invalid hostname %q", hostname))
	}
	return nil
}

// validateInterfaceName validates a kernel interface name
func validateInterfaceName(name string) error {
	if !interfaceNamePattern.MatchString(name) || strings.Contains(name, "..") {
		return errors.New(errors.NetworkInterfaceNameInvalid, fmt.Sprintf("invalid interface name %q", name))
	}
	return nil
}

// validateRouteMetric validates route metric
func validateRouteMetric(metric int) error {
	if metric < 0 || metric > 4294967295 {
		return errors.New(errors.NetworkMetricInvalid,
			fmt.Sprintf("invalid route metric: %d (must be between 0 and 4294967295)", metric))
	}
	return nil
}

// validatePortSpec validates a ufw port or port range
func validatePortSpec(port string) error {
	if !portPattern.MatchString(port) {
		return errors.New(errors.NetworkPortInvalid, fmt.Sprintf("invalid port %q", port))
	}
	for _, part := range strings.Split(port, ":") {
		n, _ := strconv.Atoi(part)
		if n < 1 || n > 65535 {
			return errors.New(errors.NetworkPortInvalid,
				fmt.Sprintf("invalid port number: %d (must be between 1 and 65535)", n))
		}
	}
	return nil
}

// validateTarget accepts an IP address or a hostname. A leading dash
// would be read as an option by ping and traceroute.
func validateTarget(target string) error {
	target = strings.TrimSpace(target)
	if target == "" || strings.HasPrefix(target, "-") {
		return errors.New(errors.DiagnosticTargetInvalid, fmt.Sprintf("invalid target %q", target))
	}
	if net.ParseIP(target) != nil {
		return nil
	}
	if err := validateHostnameFormat(target); err != nil {
		return errors.New(errors.DiagnosticTargetInvalid, fmt.Sprintf("invalid target %q", target))
	}
	return nil
}

// ipv4Config is a validated interface configuration request
type ipv4Config struct {
	method  types.ConfigMethod
	address string
	prefix  int
	gateway string
	dns     []string
}

func (c ipv4Config) cidr() string {
	return c.address + "/" + strconv.Itoa(c.prefix)
}

// validateInterfaceConfig turns a request into an ipv4Config. An empty
// address selects DHCP; a static address needs a netmask, given either
// separately or as a CIDR suffix.
func validateInterfaceConfig(req types.InterfaceConfigRequest) (ipv4Config, error) {
	fields := []struct{ name, value string }{
		{"address", req.Address},
		{"netmask", req.Netmask},
		{"gateway", req.Gateway},
		{"dns1", req.DNS1},
		{"dns2", req.DNS2},
	}
	for _, f := range fields {
		if err := validateNoComma(f.name, f.value); err != nil {
			return ipv4Config{}, err
		}
	}

	cfg := ipv4Config{method: types.MethodDHCP}
	for _, d := range []struct{ name, value string }{{"dns1", req.DNS1}, {"dns2", req.DNS2}} {
		v := strings.TrimSpace(d.value)
		if v == "" {
			continue
		}
		if !isIPv4(v) {
			return ipv4Config{}, errors.New(errors.NetworkDNSServerInvalid,
				fmt.Sprintf("%s %q is not a valid IPv4 address", d.name, v)).
				WithMetadata("field", d.name)
		}
		cfg.dns = append(cfg.dns, v)
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		return cfg, nil
	}

	cfg.method = types.MethodStatic
	netmask := strings.TrimSpace(req.Netmask)
	if addr, prefix, ok := strings.Cut(address, "/"); ok {
		address = addr
		if netmask == "" {
			netmask = prefix
		}
	}
	if err := validateIPv4Address("address", address, errors.NetworkIPAddressInvalid); err != nil {
		return ipv4Config{}, err
	}
	if netmask == "" {
		return ipv4Config{}, errors.New(errors.NetworkNetmaskInvalid, "netmask is required with a static address")
	}
	prefix, err := ParseNetmask(netmask)
	if err != nil {
		return ipv4Config{}, err
	}
	cfg.address, cfg.prefix = address, prefix

	if gw := strings.TrimSpace(req.Gateway); gw != "" {
		if err := validateIPv4Address("gateway", gw, errors.NetworkGatewayInvalid); err != nil {
			return ipv4Config{}, err
		}
		cfg.gateway = gw
	}
	return cfg, nil
}

// validateRouteRequest normalises the destination and checks every field
func validateRouteRequest(req types.RouteRequest) (types.RouteRequest, error) {
	for _, f := range []struct{ name, value string }{
		{"destination", req.Destination},
		{"interface", req.Interface},
		{"gateway", req.Gateway},
	} {
		if err := validateNoComma(f.name, f.value); err != nil {
			return req, err
		}
	}

	req.Destination = strings.TrimSpace(req.Destination)
	switch {
	case req.Destination == "":
		return req, errors.New(errors.ServerRequestValidation, "destination is required")
	case req.Destination == "default" || req.Destination == parsers.DefaultDestination:
		req.Destination = parsers.DefaultDestination
	case strings.Contains(req.Destination, "/"):
		ip, n, err := net.ParseCIDR(req.Destination)
		if err != nil || ip.To4() == nil {
			return req, errors.New(errors.NetworkCIDRInvalid, fmt.Sprintf("invalid destination %q", req.Destination))
		}
		// ip prints the network address; store it the same way so the
		// synthetic id of the new route matches the listed one
		ones, _ := n.Mask.Size()
		if ones == 32 {
			req.Destination = n.IP.String()
		} else {
			req.Destination = n.String()
		}
	default:
		if !isIPv4(req.Destination) {
			return req, errors.New(errors.NetworkIPAddressInvalid, fmt.Sprintf("invalid destination %q", req.Destination))
		}
	}

	if strings.TrimSpace(req.Interface) == "" {
		return req, errors.New(errors.ServerRequestValidation, "interface is required")
	}
	if err := validateInterfaceName(req.Interface); err != nil {
		return req, err
	}
	if req.Gateway != "" {
		if err := validateIPv4Address("gateway", req.Gateway, errors.NetworkGatewayInvalid); err != nil {
			return req, err
		}
	}
	if req.Metric != nil {
		if err := validateRouteMetric(*req.Metric); err != nil {
			return req, err
		}
	}
	return req, nil
}
