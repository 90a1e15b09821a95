// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/stratastor/netpanel/internal/command"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/parsers"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// nmcli exits with 10 when a connection or device does not exist
const nmcliExitNotFound = 10

const (
	deviceStatusFields = "DEVICE,TYPE,STATE,CONNECTION"
	connectionFields   = "NAME,UUID,TYPE,DEVICE,ACTIVE,TIMESTAMP"
	deviceShowFields   = "GENERAL.HWADDR,GENERAL.MTU,GENERAL.CON-UUID,IP4.ADDRESS,IP4.GATEWAY,IP4.DNS"
	profileFields      = "connection.id,connection.uuid,connection.type,connection.interface-name,ipv4.method,ipv4.addresses,ipv4.gateway,ipv4.dns"
	wifiProfileFields  = profileFields + ",802-11-wireless.ssid"
	wifiListFields     = "ACTIVE,SSID,SIGNAL,SECURITY"
)

var addedUUID = regexp.MustCompile(`\(([0-9a-fA-F-]{36})\) successfully added`)

func (m *manager) nmcli(ctx context.Context, args ...string) (*command.Result, error) {
	return m.run(ctx, "nmcli", args...)
}

// isNotFound reports whether an nmcli failure means the object is gone
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if command.ExitCode(err) == nmcliExitNotFound {
		return true
	}
	stderr := strings.ToLower(command.Stderr(err))
	return strings.Contains(stderr, "no such connection") ||
		strings.Contains(stderr, "unknown connection") ||
		strings.Contains(stderr, "not found")
}

func (m *manager) listDevices(ctx context.Context) ([]types.DeviceStatus, error) {
	res, err := m.nmcli(ctx, "-t", "-f", deviceStatusFields, "device", "status")
	if err != nil {
		return nil, errors.Wrap(err, errors.NMCommandFailed).
			WithMetadata("operation", "device status")
	}
	return parsers.ParseDeviceStatus(res.Stdout), nil
}

func (m *manager) findDevice(ctx context.Context, name string) (*types.DeviceStatus, error) {
	devices, err := m.listDevices(ctx)
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].Device == name {
			return &devices[i], nil
		}
	}
	return nil, errors.New(errors.NetworkInterfaceNotFound, name)
}

func (m *manager) listConnections(ctx context.Context) ([]types.ConnectionProfile, error) {
	res, err := m.nmcli(ctx, "-t", "-f", connectionFields, "connection", "show")
	if err != nil {
		return nil, errors.Wrap(err, errors.NMCommandFailed).
			WithMetadata("operation", "connection show")
	}
	return parsers.ParseConnections(res.Stdout), nil
}

// loadProfile fills the binding, SSID and ipv4 settings of p. Wireless
// properties are only requested from wireless profiles; nmcli rejects
// fields of settings a profile does not have.
func (m *manager) loadProfile(ctx context.Context, p *types.ConnectionProfile) error {
	fields := profileFields
	if p.Kind == types.KindWifi {
		fields = wifiProfileFields
	}
	res, err := m.nmcli(ctx, "-t", "-f", fields, "connection", "show", p.Ref())
	if err != nil {
		return err
	}
	kv := parsers.ParseKeyValues(res.Stdout)
	p.BoundTo = kv.Get("connection.interface-name")
	p.SSID = kv.Get("802-11-wireless.ssid")
	p.IPv4Method = kv.Get("ipv4.method")
	p.Addresses = parsers.SplitList(kv.Get("ipv4.addresses"))
	p.Gateway = kv.Get("ipv4.gateway")
	p.DNSServers = parsers.SplitList(kv.Get("ipv4.dns"))
	return nil
}

// activeProfile returns the profile active on dev, or nil
func activeProfile(profiles []types.ConnectionProfile, dev string) *types.ConnectionProfile {
	for i := range profiles {
		if profiles[i].Active && profiles[i].Device == dev {
			return &profiles[i]
		}
	}
	return nil
}

func (m *manager) deleteConnection(ctx context.Context, ref string) (bool, error) {
	_, err := m.nmcli(ctx, "connection", "delete", ref)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, errors.Wrap(err, errors.NetworkConnectionDeleteFailed).
		WithMetadata("profile", ref)
}

func (m *manager) activateConnection(ctx context.Context, ref, dev string) error {
	_, err := m.nmcli(ctx, "connection", "up", ref, "ifname", dev)
	if err != nil {
		return errors.Wrap(err, errors.NetworkActivationFailed).
			WithMetadata("profile", ref).
			WithMetadata("device", dev)
	}
	return nil
}

func (m *manager) addConnection(ctx context.Context, args []string) (string, error) {
	res, err := m.nmcli(ctx, append([]string{"connection", "add"}, args...)...)
	if err != nil {
		return "", errors.Wrap(err, errors.NetworkConnectionCreateFailed)
	}
	if match := addedUUID.FindStringSubmatch(res.Stdout); match != nil {
		return match[1], nil
	}
	return "", nil
}

func (m *manager) modifyConnection(ctx context.Context, ref string, settings []string) error {
	args := append([]string{"connection", "modify", ref}, settings...)
	if _, err := m.nmcli(ctx, args...); err != nil {
		return errors.Wrap(err, errors.NetworkConnectionModifyFailed).
			WithMetadata("profile", ref)
	}
	return nil
}

func (m *manager) scanWifi(ctx context.Context, dev string, rescan bool) ([]types.WifiNetwork, error) {
	args := []string{"-t", "-f", wifiListFields, "device", "wifi", "list", "ifname", dev}
	if rescan {
		args = append(args, "--rescan", "yes")
	}
	res, err := m.nmcli(ctx, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.NMCommandFailed).
			WithMetadata("operation", "wifi list").
			WithMetadata("device", dev)
	}
	return parsers.ParseWifiList(res.Stdout), nil
}

// profileType is the nmcli `connection add type` value for a device kind
func profileType(kind types.InterfaceKind) (string, error) {
	switch kind {
	case types.KindEthernet:
		return "ethernet", nil
	case types.KindWifi:
		return "wifi", nil
	}
	return "", errors.New(errors.NetworkConnectionNotFound,
		fmt.Sprintf("no connection profile owns the %s device and one cannot be created", kind))
}
