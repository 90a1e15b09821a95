// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"fmt"

	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

const (
	actionConnect    = "connect"
	actionDisconnect = "disconnect"
)

// ToggleInterface disconnects a connected device and connects any other.
// A wifi device without a usable profile is not connected; the visible
// networks are returned instead so the caller can pick one.
func (m *manager) ToggleInterface(ctx context.Context, name string) (*types.ToggleResult, error) {
	if err := validateInterfaceName(name); err != nil {
		return nil, err
	}
	if !m.useNM() {
		return m.toggleIP(ctx, name)
	}

	dev, err := m.findDevice(ctx, name)
	if err != nil {
		return nil, err
	}
	if dev.State == types.StateUnmanaged {
		return nil, errors.New(errors.NetworkDeviceUnmanaged, name)
	}

	if dev.State == types.StateUp || dev.State == types.StateActivating {
		if _, err := m.nmcli(ctx, "device", "disconnect", name); err != nil {
			return nil, errors.Wrap(err, errors.NetworkDeviceToggleFailed).
				WithMetadata("device", name).
				WithMetadata("action", actionDisconnect)
		}
		m.logger.Info("Device disconnected", "device", name)
		return &types.ToggleResult{
			Success: true,
			Message: fmt.Sprintf("%s disconnected", name),
			Action:  actionDisconnect,
		}, nil
	}

	strategies := []Strategy[*types.ToggleResult]{}
	if dev.Kind == types.KindWifi {
		strategies = append(strategies,
			Strategy[*types.ToggleResult]{Name: "recent-profile", Run: m.connectRecentProfile(name)},
			Strategy[*types.ToggleResult]{Name: "network-picker", Run: m.offerNetworks(name)},
		)
	}
	strategies = append(strategies,
		Strategy[*types.ToggleResult]{Name: "device-connect", Run: m.deviceConnect(name)})

	result, out, err := RunStrategies(ctx, m.logger, "toggle_connect", strategies)
	if err != nil {
		return nil, errors.Wrap(err, errors.NetworkDeviceToggleFailed).
			WithMetadata("device", name).
			WithMetadata("action", actionConnect)
	}
	result.Action = actionConnect
	result.Strategy = out.Strategy
	m.logger.Info("Device toggled",
		"device", name,
		"strategy", out.Strategy,
		"needs_selection", result.NeedsNetworkSelection)
	return result, nil
}

// connectRecentProfile activates the most recently used wifi profile that
// may run on the device
func (m *manager) connectRecentProfile(name string) func(context.Context) (*types.ToggleResult, error) {
	return func(ctx context.Context) (*types.ToggleResult, error) {
		profiles, err := m.listConnections(ctx)
		if err != nil {
			return nil, err
		}
		var recent *types.ConnectionProfile
		for i := range profiles {
			p := &profiles[i]
			if p.Kind != types.KindWifi || p.Timestamp <= 0 {
				continue
			}
			if recent != nil && p.Timestamp <= recent.Timestamp {
				continue
			}
			if err := m.loadProfile(ctx, p); err != nil {
				continue
			}
			if p.BoundTo != "" && p.BoundTo != name {
				continue
			}
			recent = p
		}
		if recent == nil {
			return nil, errors.New(errors.NetworkConnectionNotFound, "no recently used wifi profile").
				WithMetadata("device", name)
		}
		if err := m.activateConnection(ctx, recent.UUID, name); err != nil {
			return nil, err
		}
		return &types.ToggleResult{
			Success: true,
			Message: fmt.Sprintf("%s connected to %s", name, recent.Name),
		}, nil
	}
}

// offerNetworks scans for networks. Finding some ends the chain without
// connecting; the caller chooses one.
func (m *manager) offerNetworks(name string) func(context.Context) (*types.ToggleResult, error) {
	return func(ctx context.Context) (*types.ToggleResult, error) {
		networks, err := m.scanWifi(ctx, name, true)
		if err != nil {
			return nil, err
		}
		if len(networks) == 0 {
			return nil, errors.New(errors.NetworkWifiAssociationMissing, "no wifi networks visible").
				WithMetadata("device", name)
		}
		return &types.ToggleResult{
			Success:               false,
			Message:               fmt.Sprintf("Select a network for %s", name),
			NeedsNetworkSelection: true,
			Networks:              networks,
		}, nil
	}
}

func (m *manager) deviceConnect(name string) func(context.Context) (*types.ToggleResult, error) {
	return func(ctx context.Context) (*types.ToggleResult, error) {
		if _, err := m.nmcli(ctx, "device", "connect", name); err != nil {
			return nil, err
		}
		return &types.ToggleResult{
			Success: true,
			Message: fmt.Sprintf("%s connected", name),
		}, nil
	}
}

func (m *manager) toggleIP(ctx context.Context, name string) (*types.ToggleResult, error) {
	links, err := m.ip.Links(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		if l.IfName != name {
			continue
		}
		// The UP flag is the administrative state; operstate also
		// reflects carrier
		up := true
		for _, flag := range l.Flags {
			if flag == "UP" {
				up = false
			}
		}
		if err := m.ip.SetLinkState(ctx, name, up); err != nil {
			return nil, errors.Wrap(err, errors.NetworkDeviceToggleFailed).WithMetadata("device", name)
		}
		action, verb := actionDisconnect, "down"
		if up {
			action, verb = actionConnect, "up"
		}
		return &types.ToggleResult{
			Success: true,
			Message: fmt.Sprintf("%s is %s", name, verb),
			Action:  action,
		}, nil
	}
	return nil, errors.New(errors.NetworkInterfaceNotFound, name)
}
