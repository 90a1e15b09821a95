// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"strconv"
	"strings"

	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/parsers"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// ListInterfaces retrieves information about all network interfaces.
// Loopback and Wi-Fi P2P pseudo devices are not listed.
func (m *manager) ListInterfaces(ctx context.Context) ([]*types.Interface, error) {
	if m.useNM() {
		return m.listInterfacesNM(ctx)
	}
	return m.listInterfacesIP(ctx)
}

// GetInterface retrieves information about a specific network interface
func (m *manager) GetInterface(ctx context.Context, name string) (*types.Interface, error) {
	if err := validateInterfaceName(name); err != nil {
		return nil, err
	}
	ifaces, err := m.ListInterfaces(ctx)
	if err != nil {
		return nil, err
	}
	for _, iface := range ifaces {
		if iface.Name == name {
			return iface, nil
		}
	}
	return nil, errors.New(errors.NetworkInterfaceNotFound, name)
}

func hidden(kind types.InterfaceKind, rawType string) bool {
	return kind == types.KindLoopback || strings.HasSuffix(rawType, "p2p")
}

func (m *manager) listInterfacesNM(ctx context.Context) ([]*types.Interface, error) {
	devices, err := m.listDevices(ctx)
	if err != nil {
		return nil, err
	}

	ifaces := make([]*types.Interface, 0, len(devices))
	for _, d := range devices {
		if hidden(d.Kind, d.Type) {
			continue
		}
		iface := &types.Interface{
			Name:         d.Device,
			Kind:         d.Kind,
			AdminState:   d.State,
			Connection:   d.Connection,
			DNSServers:   []string{},
			ConfigMethod: types.MethodDHCP,
		}
		if err := m.fillFromDevice(ctx, iface); err != nil {
			// The device may have vanished between the two calls
			m.logger.Debug("Device details unavailable", "device", d.Device, "error", err)
		}
		ifaces = append(ifaces, iface)
	}
	return ifaces, nil
}

// fillFromDevice adds live addressing from `nmcli device show` and the
// configured method and SSID from the active profile
func (m *manager) fillFromDevice(ctx context.Context, iface *types.Interface) error {
	res, err := m.nmcli(ctx, "-t", "-f", deviceShowFields, "device", "show", iface.Name)
	if err != nil {
		return err
	}
	kv := parsers.ParseKeyValues(res.Stdout)
	iface.MACAddress = kv.Get("GENERAL.HWADDR")
	iface.MTU, _ = strconv.Atoi(kv.Get("GENERAL.MTU"))
	iface.Gateway = kv.Get("IP4.GATEWAY")
	if dns := kv["IP4.DNS"]; len(dns) > 0 {
		iface.DNSServers = firstN(dns, 2)
	}
	if addrs := kv["IP4.ADDRESS"]; len(addrs) > 0 {
		setAddress(iface, addrs[0])
	}

	uuid := kv.Get("GENERAL.CON-UUID")
	if uuid == "" {
		return nil
	}
	profile := &types.ConnectionProfile{UUID: uuid, Kind: iface.Kind}
	if err := m.loadProfile(ctx, profile); err != nil {
		return err
	}
	if profile.IPv4Method == "manual" {
		iface.ConfigMethod = types.MethodStatic
	}
	iface.SSID = profile.SSID
	return nil
}

func (m *manager) listInterfacesIP(ctx context.Context) ([]*types.Interface, error) {
	links, err := m.ip.Links(ctx)
	if err != nil {
		return nil, err
	}

	gateways := map[string]string{}
	if routes, err := m.ip.DefaultRoutes(ctx); err == nil {
		for _, r := range routes {
			if _, ok := gateways[r.Interface]; !ok {
				gateways[r.Interface] = r.Gateway
			}
		}
	}
	resolv := m.resolvConfSettings()

	ifaces := make([]*types.Interface, 0, len(links))
	for _, l := range links {
		kind := l.Kind()
		if hidden(kind, "") {
			continue
		}
		iface := &types.Interface{
			Name:         l.IfName,
			MACAddress:   strings.ToUpper(l.Address),
			Kind:         kind,
			AdminState:   l.State(),
			MTU:          l.MTU,
			Gateway:      gateways[l.IfName],
			DNSServers:   []string{},
			ConfigMethod: types.MethodStatic,
		}
		if addr, ok := l.IPv4(); ok {
			setAddress(iface, addr.Local+"/"+strconv.Itoa(addr.PrefixLen))
			if addr.Dynamic {
				iface.ConfigMethod = types.MethodDHCP
			}
		} else {
			iface.ConfigMethod = types.MethodDHCP
		}
		if iface.Gateway != "" && resolv.Primary != "" {
			iface.DNSServers = nonEmpty(resolv.Primary, resolv.Secondary)
		}
		ifaces = append(ifaces, iface)
	}
	return ifaces, nil
}

func setAddress(iface *types.Interface, cidr string) {
	addr, prefix, ok := strings.Cut(cidr, "/")
	iface.IPv4Address = addr
	if !ok {
		return
	}
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return
	}
	iface.PrefixLength = n
	iface.Netmask, _ = PrefixToNetmask(n)
}

func firstN(list []string, n int) []string {
	if len(list) > n {
		return append([]string(nil), list[:n]...)
	}
	return append([]string(nil), list...)
}

func nonEmpty(values ...string) []string {
	out := []string{}
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
