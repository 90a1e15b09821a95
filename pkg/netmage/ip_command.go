// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stratastor/netpanel/internal/command"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/parsers"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// IPCommand wraps the Linux ip command for network interface management
type IPCommand struct {
	runner command.Runner
}

// NewIPCommand creates a new IP command wrapper
func NewIPCommand(runner command.Runner) *IPCommand {
	return &IPCommand{runner: runner}
}

// Links retrieves every link with its addresses
func (ip *IPCommand) Links(ctx context.Context) ([]parsers.IPLink, error) {
	res, err := ip.runner.Run(ctx, "ip", "-j", "-d", "addr", "show")
	if err != nil {
		return nil, errors.Wrap(err, errors.IPCommandFailed).
			WithMetadata("operation", "addr show")
	}
	return parsers.ParseIPAddrJSON(res.Stdout)
}

// FlushAddresses removes every IPv4 address from an interface
func (ip *IPCommand) FlushAddresses(ctx context.Context, ifaceName string) error {
	if _, err := ip.runner.Run(ctx, "ip", "-4", "addr", "flush", "dev", ifaceName); err != nil {
		return errors.Wrap(err, errors.IPAddressOperationFailed).
			WithMetadata("interface", ifaceName)
	}
	return nil
}

// AddAddress adds an IP address in CIDR form to an interface
func (ip *IPCommand) AddAddress(ctx context.Context, ifaceName, address string) error {
	if _, err := ip.runner.Run(ctx, "ip", "addr", "add", address, "dev", ifaceName); err != nil {
		return errors.Wrap(err, errors.IPAddressOperationFailed).
			WithMetadata("interface", ifaceName).
			WithMetadata("address", address)
	}
	return nil
}

// SetLinkState brings an interface up or down
func (ip *IPCommand) SetLinkState(ctx context.Context, ifaceName string, up bool) error {
	state := "down"
	if up {
		state = "up"
	}
	if _, err := ip.runner.Run(ctx, "ip", "link", "set", "dev", ifaceName, state); err != nil {
		return errors.Wrap(err, errors.IPLinkOperationFailed).
			WithMetadata("interface", ifaceName).
			WithMetadata("state", state)
	}
	return nil
}

// Routes retrieves the main IPv4 routing table
func (ip *IPCommand) Routes(ctx context.Context) ([]types.Route, error) {
	res, err := ip.runner.Run(ctx, "ip", "route", "show")
	if err != nil {
		return nil, errors.Wrap(err, errors.IPRouteOperationFailed).
			WithMetadata("operation", "route show")
	}
	return parsers.ParseRoutes(res.Stdout), nil
}

// DefaultRoutes retrieves only the default routes
func (ip *IPCommand) DefaultRoutes(ctx context.Context) ([]types.Route, error) {
	res, err := ip.runner.Run(ctx, "ip", "route", "show", "default")
	if err != nil {
		return nil, errors.Wrap(err, errors.IPRouteOperationFailed).
			WithMetadata("operation", "route show default")
	}
	return parsers.ParseRoutes(res.Stdout), nil
}

// AddRoute adds a network route
func (ip *IPCommand) AddRoute(ctx context.Context, dest, gateway, dev string, metric *int) error {
	args := []string{"route", "add", parsers.RenderDestination(dest)}
	if gateway != "" {
		args = append(args, "via", gateway)
	}
	args = append(args, "dev", dev)
	if metric != nil {
		args = append(args, "metric", strconv.Itoa(*metric))
	}
	if _, err := ip.runner.Run(ctx, "ip", args...); err != nil {
		return errors.Wrap(err, errors.IPRouteOperationFailed).
			WithMetadata("destination", dest).
			WithMetadata("interface", dev)
	}
	return nil
}

// ReplaceDefaultRoute points the default route at gateway through dev
func (ip *IPCommand) ReplaceDefaultRoute(ctx context.Context, gateway, dev string) error {
	if _, err := ip.runner.Run(ctx, "ip", "route", "replace", "default", "via", gateway, "dev", dev); err != nil {
		return errors.Wrap(err, errors.IPRouteOperationFailed).
			WithMetadata("gateway", gateway).
			WithMetadata("interface", dev)
	}
	return nil
}

// DeleteRoute runs `ip route del` with the given selector. Qualifiers left
// empty are omitted.
func (ip *IPCommand) DeleteRoute(ctx context.Context, dest, gateway, dev string) error {
	args := []string{"route", "del", parsers.RenderDestination(dest)}
	if gateway != "" {
		args = append(args, "via", gateway)
	}
	if dev != "" {
		args = append(args, "dev", dev)
	}
	if _, err := ip.runner.Run(ctx, "ip", args...); err != nil {
		return errors.Wrap(err, errors.IPRouteOperationFailed).
			WithMetadata("selector", fmt.Sprintf("%s|%s|%s", dest, gateway, dev))
	}
	return nil
}
