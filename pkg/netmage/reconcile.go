// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stratastor/netpanel/internal/metrics"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// ConfigureInterface applies an IPv4 configuration to a device. With
// NetworkManager the device ends up owned by exactly one profile: the
// profile found on the device is kept and modified, every other profile
// claiming the device (or its SSID) is deleted first.
func (m *manager) ConfigureInterface(
	ctx context.Context,
	name string,
	req types.InterfaceConfigRequest,
) (*types.ConfigureResult, error) {
	if err := validateInterfaceName(name); err != nil {
		return nil, err
	}
	cfg, err := validateInterfaceConfig(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var result *types.ConfigureResult
	if m.useNM() {
		result, err = m.configureNM(ctx, name, cfg)
	} else {
		result, err = m.configureIP(ctx, name, cfg)
	}
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	metrics.ObserveStrategy("configure_interface", string(m.caps.Backend), outcome)

	if err != nil {
		m.logger.Error("Interface configuration failed",
			"device", name, "method", cfg.method, "error", err)
		return nil, err
	}
	m.logger.Info("Interface configured",
		"device", name,
		"method", cfg.method,
		"profile", result.Profile,
		"created", result.Created,
		"deleted", len(result.Deleted),
		"duration", time.Since(start))
	return result, nil
}

// ownership is what the discovery step learned about a device
type ownership struct {
	device   *types.DeviceStatus
	target   string
	keeper   *types.ConnectionProfile
	profiles []types.ConnectionProfile
}

func (m *manager) configureNM(ctx context.Context, name string, cfg ipv4Config) (*types.ConfigureResult, error) {
	own, err := m.discoverOwnership(ctx, name)
	if err != nil {
		return nil, err
	}
	dev := own.device

	// Nothing destructive happens before this point
	typ := ""
	if own.keeper == nil {
		if typ, err = profileType(dev.Kind); err != nil {
			return nil, err
		}
	}

	ssid := ""
	if dev.Kind == types.KindWifi {
		ssid = m.captureSSID(ctx, own)
		if ssid == "" && own.keeper == nil {
			return nil, errors.New(errors.NetworkWifiAssociationMissing,
				fmt.Sprintf("%s is not associated to any network; connect it before setting a static address", name)).
				WithMetadata("device", name)
		}
	}

	deleted := m.cleanupProfiles(ctx, own, ssid)
	m.settle(ctx, deleted)

	settings := ipv4Settings(cfg)
	result := &types.ConfigureResult{
		Backend: types.BackendNetworkManager,
		SSID:    ssid,
		Method:  cfg.method,
		Deleted: make([]string, 0, len(deleted)),
	}
	for _, p := range deleted {
		result.Deleted = append(result.Deleted, p.Name)
	}

	ref := ""
	if own.keeper != nil {
		ref = own.keeper.UUID
		result.Profile = own.keeper.Name
		if err := m.modifyConnection(ctx, ref, settings); err != nil {
			return nil, err
		}
	} else {
		args := []string{"type", typ, "con-name", own.target, "ifname", name}
		if ssid != "" {
			args = append(args, "ssid", ssid)
		}
		uuid, err := m.addConnection(ctx, append(args, settings...))
		if err != nil {
			return nil, err
		}
		ref = uuid
		if ref == "" {
			ref = own.target
		}
		result.Profile = own.target
		result.Created = true
	}

	if err := m.activateConnection(ctx, ref, name); err != nil {
		// The profile stays in place; nmcli has no transaction to roll back
		return nil, err
	}

	m.verifyProfile(ctx, ref, dev.Kind, cfg)

	result.Success = true
	result.Message = fmt.Sprintf("Interface %s configured (%s)", name, cfg.method)
	return result, nil
}

// discoverOwnership lists the profiles that may claim dev and picks the
// one to keep: the active profile on the device, else an inactive profile
// bound to it, preferring the target name and then the most recent use
func (m *manager) discoverOwnership(ctx context.Context, name string) (*ownership, error) {
	dev, err := m.findDevice(ctx, name)
	if err != nil {
		return nil, err
	}
	if dev.State == types.StateUnmanaged {
		return nil, errors.New(errors.NetworkDeviceUnmanaged, name)
	}

	all, err := m.listConnections(ctx)
	if err != nil {
		return nil, err
	}

	own := &ownership{device: dev, target: m.cfg.ProfilePrefix + name}
	for i := range all {
		p := all[i]
		if p.Kind != dev.Kind {
			if p.Name == own.target {
				own.profiles = append(own.profiles, p)
			}
			continue
		}
		if p.Device != "" && p.Device != name {
			continue
		}
		if err := m.loadProfile(ctx, &p); err != nil {
			m.logger.Debug("Skipping unreadable profile", "profile", p.Name, "error", err)
			continue
		}
		own.profiles = append(own.profiles, p)
	}

	for i := range own.profiles {
		p := &own.profiles[i]
		if p.Active && p.Device == name {
			own.keeper = p
			return own, nil
		}
	}
	for i := range own.profiles {
		p := &own.profiles[i]
		if p.Kind != dev.Kind || p.BoundTo != name {
			continue
		}
		switch {
		case own.keeper == nil:
			own.keeper = p
		case (p.Name == own.target) != (own.keeper.Name == own.target):
			if p.Name == own.target {
				own.keeper = p
			}
		case p.Timestamp > own.keeper.Timestamp:
			own.keeper = p
		}
	}
	return own, nil
}

// captureSSID returns the network the wifi device is associated with,
// from the keeper profile or from the live scan
func (m *manager) captureSSID(ctx context.Context, own *ownership) string {
	ssid, _, err := RunStrategies(ctx, m.logger, "wifi_ssid", []Strategy[string]{
		{
			Name:       "profile",
			Applicable: func() bool { return own.keeper != nil },
			Run: func(ctx context.Context) (string, error) {
				if own.keeper.SSID == "" {
					return "", errors.New(errors.NetworkWifiAssociationMissing, "profile has no ssid")
				}
				return own.keeper.SSID, nil
			},
		},
		{
			Name: "scan",
			Run: func(ctx context.Context) (string, error) {
				networks, err := m.scanWifi(ctx, own.device.Device, false)
				if err != nil {
					return "", err
				}
				for _, n := range networks {
					if n.Active {
						return n.SSID, nil
					}
				}
				return "", errors.New(errors.NetworkWifiAssociationMissing, "no active network in scan")
			},
		},
	})
	if err != nil {
		return ""
	}
	return ssid
}

// cleanupProfiles deletes every profile other than the keeper that shares
// the target name, is on or bound to the device, or carries ssid.
// Failures are logged and skipped.
func (m *manager) cleanupProfiles(ctx context.Context, own *ownership, ssid string) []types.ConnectionProfile {
	name := own.device.Device
	var deleted []types.ConnectionProfile
	for _, p := range own.profiles {
		if own.keeper != nil && p.UUID == own.keeper.UUID {
			continue
		}
		stale := p.Name == own.target ||
			p.Device == name ||
			p.BoundTo == name ||
			(ssid != "" && p.SSID == ssid)
		if !stale {
			continue
		}
		removed, err := m.deleteConnection(ctx, p.Ref())
		if err != nil {
			m.logger.Warn("Failed to delete stale profile",
				"device", name, "profile", p.Name, "uuid", p.UUID, "error", err)
			continue
		}
		if removed {
			m.logger.Info("Deleted stale profile", "device", name, "profile", p.Name, "uuid", p.UUID)
			deleted = append(deleted, p)
		}
	}
	return deleted
}

// settle waits for NetworkManager to stop listing deleted profiles. It
// is a heuristic wait bounded by SettleTimeout, not a barrier, and it
// never fails the request.
func (m *manager) settle(ctx context.Context, deleted []types.ConnectionProfile) {
	if len(deleted) == 0 {
		return
	}
	if err := m.sleep(ctx, m.cfg.SettleDelay); err != nil {
		return
	}
	if m.cfg.SettleTimeout <= 0 {
		return
	}

	gone := func() bool {
		profiles, err := m.listConnections(ctx)
		if err != nil {
			return false
		}
		for _, p := range profiles {
			for _, d := range deleted {
				if p.UUID == d.UUID {
					return false
				}
			}
		}
		return true
	}

	interval := m.cfg.SettleInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	for waited := time.Duration(0); ; waited += interval {
		if gone() {
			return
		}
		if waited >= m.cfg.SettleTimeout {
			m.logger.Warn("Deleted profiles still listed after settle timeout",
				"timeout", m.cfg.SettleTimeout, "profiles", len(deleted))
			return
		}
		if err := m.sleep(ctx, interval); err != nil {
			return
		}
	}
}

// ipv4Settings renders cfg as nmcli property/value pairs
func ipv4Settings(cfg ipv4Config) []string {
	var s []string
	if cfg.method == types.MethodStatic {
		s = append(s, "ipv4.method", "manual", "ipv4.addresses", cfg.cidr(), "ipv4.gateway", cfg.gateway)
	} else {
		s = append(s, "ipv4.method", "auto", "ipv4.addresses", "", "ipv4.gateway", "")
	}
	if len(cfg.dns) > 0 {
		s = append(s, "ipv4.dns", strings.Join(cfg.dns, " "), "ipv4.ignore-auto-dns", "yes")
	} else {
		s = append(s, "ipv4.dns", "", "ipv4.ignore-auto-dns", "no")
	}
	return s
}

func (m *manager) verifyProfile(ctx context.Context, ref string, kind types.InterfaceKind, cfg ipv4Config) {
	p := &types.ConnectionProfile{UUID: ref, Kind: kind}
	if err := m.loadProfile(ctx, p); err != nil {
		m.logger.Warn("Could not verify profile", "profile", ref, "error", err)
		return
	}
	want := "auto"
	if cfg.method == types.MethodStatic {
		want = "manual"
	}
	if p.IPv4Method != want {
		m.logger.Warn("Profile settings differ from request",
			"profile", ref, "method", p.IPv4Method, "expected", want)
		return
	}
	m.logger.Debug("Profile verified",
		"profile", ref,
		"method", p.IPv4Method,
		"addresses", p.Addresses,
		"gateway", p.Gateway,
		"dns", p.DNSServers)
}

// configureIP is the fallback backend without NetworkManager. Only static
// addressing can be applied; there is no DHCP client to hand over to.
func (m *manager) configureIP(ctx context.Context, name string, cfg ipv4Config) (*types.ConfigureResult, error) {
	if cfg.method != types.MethodStatic {
		return nil, errors.New(errors.NetworkFeatureUnsupported,
			"DHCP requires NetworkManager").WithMetadata("device", name)
	}
	if err := m.ip.FlushAddresses(ctx, name); err != nil {
		return nil, err
	}
	if err := m.ip.AddAddress(ctx, name, cfg.cidr()); err != nil {
		return nil, err
	}
	if err := m.ip.SetLinkState(ctx, name, true); err != nil {
		return nil, err
	}
	if cfg.gateway != "" {
		if err := m.ip.ReplaceDefaultRoute(ctx, cfg.gateway, name); err != nil {
			return nil, err
		}
	}
	if len(cfg.dns) > 0 {
		if err := m.writeResolverFile(ctx, cfg.dns, nil); err != nil {
			return nil, err
		}
	}
	return &types.ConfigureResult{
		Success: true,
		Message: fmt.Sprintf("Interface %s configured (static)", name),
		Backend: types.BackendIPRoute,
		Method:  cfg.method,
		Deleted: []string{},
	}, nil
}
