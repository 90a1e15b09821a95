// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/testutil"
	"github.com/stratastor/netpanel/pkg/netmage/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var staticRequest = types.InterfaceConfigRequest{
	Address: "192.168.1.50",
	Netmask: "255.255.255.0",
	Gateway: "192.168.1.1",
	DNS1:    "1.1.1.1",
	DNS2:    "9.9.9.9",
}

func TestConfigureInterfaceModifiesActiveProfile(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.ethernet()
	f.nm.AddProfile("netpanel-eth0", "802-3-ethernet",
		map[string]string{"connection.interface-name": "eth0", "ipv4.method": "manual", "ipv4.addresses": "10.0.0.2/24"}, false)
	f.nm.AddProfile("Wired old", "802-3-ethernet",
		map[string]string{"connection.interface-name": "eth0"}, false)
	f.nm.AddProfile("Wired other", "802-3-ethernet",
		map[string]string{"connection.interface-name": "eth1"}, false)

	res, err := f.m.ConfigureInterface(context.Background(), "eth0", staticRequest)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.False(t, res.Created)
	assert.Equal(t, "Wired connection 1", res.Profile)
	assert.ElementsMatch(t, []string{"netpanel-eth0", "Wired old"}, res.Deleted)
	assert.Equal(t, types.MethodStatic, res.Method)

	assert.Equal(t, []string{"Wired connection 1"}, f.nm.ActiveProfiles("eth0"))
	_, kept := f.nm.Profile("Wired other")
	assert.True(t, kept, "profiles bound to other devices are left alone")

	p, ok := f.nm.Profile("Wired connection 1")
	require.True(t, ok)
	assert.Equal(t, "manual", p.Props["ipv4.method"])
	assert.Equal(t, "192.168.1.50/24", p.Props["ipv4.addresses"])
	assert.Equal(t, "192.168.1.1", p.Props["ipv4.gateway"])
	assert.Equal(t, "1.1.1.1 9.9.9.9", p.Props["ipv4.dns"])
	assert.Equal(t, "yes", p.Props["ipv4.ignore-auto-dns"])

	dev, _ := f.nm.Device("eth0")
	assert.Equal(t, "192.168.1.50/24", dev.Address)
}

func TestConfigureInterfaceCleanupPrecedesApply(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.ethernet()
	f.nm.AddProfile("netpanel-eth0", "802-3-ethernet",
		map[string]string{"connection.interface-name": "eth0"}, false)

	_, err := f.m.ConfigureInterface(context.Background(), "eth0", staticRequest)
	require.NoError(t, err)

	var order []string
	for _, l := range f.runner.Lines() {
		for _, verb := range []string{"connection delete", "connection modify", "connection up"} {
			if strings.HasPrefix(l, "nmcli "+verb) {
				order = append(order, verb)
			}
		}
	}
	assert.Equal(t, []string{"connection delete", "connection modify", "connection up"}, order)
}

func TestConfigureInterfaceCreatesProfile(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.nm.AddDevice(&testutil.NMDevice{Name: "eth0", Type: "ethernet"})

	res, err := f.m.ConfigureInterface(context.Background(), "eth0", types.InterfaceConfigRequest{
		Address: "10.1.2.3/16",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "netpanel-eth0", res.Profile)
	assert.Empty(t, res.Deleted)

	add := f.runner.LinesWithPrefix("nmcli connection add")
	require.Len(t, add, 1)
	assert.Equal(t,
		"nmcli connection add type ethernet con-name netpanel-eth0 ifname eth0 ipv4.method manual ipv4.addresses 10.1.2.3/16 ipv4.gateway '' ipv4.dns '' ipv4.ignore-auto-dns no",
		add[0])
	assert.Equal(t, []string{"netpanel-eth0"}, f.nm.ActiveProfiles("eth0"))
}

func TestConfigureInterfaceDHCP(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.nm.AddDevice(&testutil.NMDevice{Name: "eth0", Type: "ethernet"})
	f.nm.AddProfile("Wired connection 1", "802-3-ethernet", map[string]string{
		"connection.interface-name": "eth0",
		"ipv4.method":               "manual",
		"ipv4.addresses":            "192.168.1.50/24",
		"ipv4.gateway":              "192.168.1.1",
	}, true)

	res, err := f.m.ConfigureInterface(context.Background(), "eth0", types.InterfaceConfigRequest{DNS1: "8.8.8.8"})
	require.NoError(t, err)
	assert.Equal(t, types.MethodDHCP, res.Method)

	p, _ := f.nm.Profile("Wired connection 1")
	assert.Equal(t, "auto", p.Props["ipv4.method"])
	assert.Empty(t, p.Props["ipv4.addresses"])
	assert.Empty(t, p.Props["ipv4.gateway"])
	assert.Equal(t, "8.8.8.8", p.Props["ipv4.dns"])
	assert.Equal(t, "yes", p.Props["ipv4.ignore-auto-dns"])
}

func TestConfigureInterfaceSingleActiveProfile(t *testing.T) {
	setups := map[string]func(f *fixture){
		"ActiveOnly": func(f *fixture) { f.ethernet() },
		"ActiveWithDuplicates": func(f *fixture) {
			f.ethernet()
			f.nm.AddProfile("netpanel-eth0", "802-3-ethernet", map[string]string{"connection.interface-name": "eth0"}, false)
			f.nm.AddProfile("Wired connection 2", "802-3-ethernet", map[string]string{"connection.interface-name": "eth0"}, false)
		},
		"InactiveBound": func(f *fixture) {
			f.nm.AddDevice(&testutil.NMDevice{Name: "eth0", Type: "ethernet"})
			f.nm.AddProfile("Wired connection 1", "802-3-ethernet", map[string]string{"connection.interface-name": "eth0"}, false)
			f.nm.AddProfile("Wired connection 2", "802-3-ethernet", map[string]string{"connection.interface-name": "eth0"}, false)
		},
		"Unowned": func(f *fixture) {
			f.nm.AddDevice(&testutil.NMDevice{Name: "eth0", Type: "ethernet"})
		},
		"Wifi": func(f *fixture) {
			f.wifi()
			f.nm.AddProfile("HomeNet 1", "802-11-wireless", map[string]string{"802-11-wireless.ssid": "HomeNet"}, false)
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nmCaps())
			setup(f)
			dev := "eth0"
			if _, ok := f.nm.Device("wlan0"); ok {
				dev = "wlan0"
			}

			for _, req := range []types.InterfaceConfigRequest{staticRequest, {}, staticRequest} {
				_, err := f.m.ConfigureInterface(context.Background(), dev, req)
				require.NoError(t, err)
				assert.Len(t, f.nm.ActiveProfiles(dev), 1)

				bound := 0
				for _, p := range f.nm.Profiles() {
					if p.Props["connection.interface-name"] == dev {
						bound++
					}
				}
				assert.Equal(t, 1, bound, "exactly one profile is bound to %s", dev)
			}
		})
	}
}

func TestConfigureInterfaceWifiKeepsSSID(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.wifi()
	f.nm.AddProfile("HomeNet 1", "802-11-wireless", map[string]string{"802-11-wireless.ssid": "HomeNet"}, false)
	f.nm.AddProfile("Cafe", "802-11-wireless", map[string]string{"802-11-wireless.ssid": "Cafe"}, false)

	res, err := f.m.ConfigureInterface(context.Background(), "wlan0", staticRequest)
	require.NoError(t, err)
	assert.Equal(t, "HomeNet", res.SSID)
	assert.Equal(t, "HomeNet", res.Profile)
	assert.Equal(t, []string{"HomeNet 1"}, res.Deleted)

	_, cafe := f.nm.Profile("Cafe")
	assert.True(t, cafe, "profiles for other networks survive")
	p, _ := f.nm.Profile("HomeNet")
	assert.Equal(t, "HomeNet", p.Props["802-11-wireless.ssid"])
}

func TestConfigureInterfaceWifiSSIDFromScan(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.nm.AddDevice(&testutil.NMDevice{Name: "wlan0", Type: "wifi"})
	f.runner.OK("nmcli -t -f ACTIVE,SSID,SIGNAL,SECURITY device wifi list ifname wlan0", "no:Cafe:40:--\nyes:Office:70:WPA2\n")

	res, err := f.m.ConfigureInterface(context.Background(), "wlan0", staticRequest)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "Office", res.SSID)

	p, ok := f.nm.Profile("netpanel-wlan0")
	require.True(t, ok)
	assert.Equal(t, "Office", p.Props["802-11-wireless.ssid"])
	assert.Equal(t, []string{"netpanel-wlan0"}, f.nm.ActiveProfiles("wlan0"))
}

func TestConfigureInterfaceWifiSSIDWithShellCharacters(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.nm.AddDevice(&testutil.NMDevice{Name: "wlan0", Type: "wifi"})
	f.runner.OK("nmcli -t -f ACTIVE,SSID,SIGNAL,SECURITY device wifi list ifname wlan0", "yes:Cafe & Bar [5G]:70:WPA2\n")

	res, err := f.m.ConfigureInterface(context.Background(), "wlan0", staticRequest)
	require.NoError(t, err)
	assert.Equal(t, "Cafe & Bar [5G]", res.SSID)

	added := f.runner.LinesWithPrefix("nmcli connection add")
	require.Len(t, added, 1)
	assert.Contains(t, added[0], "ssid 'Cafe & Bar [5G]'")

	p, ok := f.nm.Profile("netpanel-wlan0")
	require.True(t, ok)
	assert.Equal(t, "Cafe & Bar [5G]", p.Props["802-11-wireless.ssid"])
}

func TestConfigureInterfaceWifiNotAssociated(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.nm.AddDevice(&testutil.NMDevice{
		Name:     "wlan0",
		Type:     "wifi",
		Networks: []testutil.NMNetwork{{SSID: "Cafe", Signal: 40}},
	})
	f.nm.AddProfile("netpanel-wlan0", "802-3-ethernet", nil, false)

	_, err := f.m.ConfigureInterface(context.Background(), "wlan0", staticRequest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NetworkWifiAssociationMissing))
	assert.Equal(t, errors.KindConfiguration, errors.KindOf(err))

	assert.Empty(t, f.runner.LinesWithPrefix("nmcli connection delete"), "nothing is deleted before failing")
	_, ok := f.nm.Profile("netpanel-wlan0")
	assert.True(t, ok)
}

func TestConfigureInterfaceActivationFailure(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.ethernet()
	f.nm.FailActivation["Wired connection 1"] = true

	_, err := f.m.ConfigureInterface(context.Background(), "eth0", staticRequest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NetworkActivationFailed))
	assert.Equal(t, errors.KindConfiguration, errors.KindOf(err))

	p, ok := f.nm.Profile("Wired connection 1")
	require.True(t, ok, "profile is not rolled back")
	assert.Equal(t, "manual", p.Props["ipv4.method"])
}

func TestConfigureInterfaceDeleteFailureIsBestEffort(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.ethernet()
	f.nm.AddProfile("Wired old", "802-3-ethernet", map[string]string{"connection.interface-name": "eth0"}, false)
	f.nm.FailDelete["Wired old"] = true

	res, err := f.m.ConfigureInterface(context.Background(), "eth0", staticRequest)
	require.NoError(t, err)
	assert.Empty(t, res.Deleted)
	assert.Equal(t, []string{"Wired connection 1"}, f.nm.ActiveProfiles("eth0"))
}

func TestConfigureInterfaceSettlePolls(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.m.cfg.SettleDelay = 100 * time.Millisecond
	f.m.cfg.SettleInterval = 500 * time.Millisecond
	f.m.cfg.SettleTimeout = 2 * time.Second
	f.ethernet()
	f.nm.AddProfile("Wired old", "802-3-ethernet", map[string]string{"connection.interface-name": "eth0"}, false)
	f.nm.Lingering = 2

	_, err := f.m.ConfigureInterface(context.Background(), "eth0", staticRequest)
	require.NoError(t, err)
	assert.Equal(t,
		[]time.Duration{100 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond},
		f.sleeps)
}

func TestConfigureInterfaceSettleGivesUp(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.m.cfg.SettleInterval = time.Second
	f.m.cfg.SettleTimeout = 2 * time.Second
	f.ethernet()
	f.nm.AddProfile("Wired old", "802-3-ethernet", map[string]string{"connection.interface-name": "eth0"}, false)
	f.nm.Lingering = 100

	_, err := f.m.ConfigureInterface(context.Background(), "eth0", staticRequest)
	require.NoError(t, err, "settling never fails the request")
	assert.Equal(t, []time.Duration{0, time.Second, time.Second}, f.sleeps)
}

func TestConfigureInterfaceNoSettleWithoutDeletions(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.ethernet()

	_, err := f.m.ConfigureInterface(context.Background(), "eth0", staticRequest)
	require.NoError(t, err)
	assert.Empty(t, f.sleeps)
}

func TestConfigureInterfaceUnmanaged(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.nm.AddDevice(&testutil.NMDevice{Name: "docker0", Type: "bridge", State: "unmanaged"})

	_, err := f.m.ConfigureInterface(context.Background(), "docker0", staticRequest)
	assert.True(t, errors.Is(err, errors.NetworkDeviceUnmanaged))
}

func TestConfigureInterfaceUnknownDevice(t *testing.T) {
	f := newFixture(t, nmCaps())
	_, err := f.m.ConfigureInterface(context.Background(), "eth9", staticRequest)
	assert.True(t, errors.Is(err, errors.NetworkInterfaceNotFound))
}

func TestConfigureInterfaceBridgeWithoutProfile(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.nm.AddDevice(&testutil.NMDevice{Name: "br0", Type: "bridge"})

	_, err := f.m.ConfigureInterface(context.Background(), "br0", staticRequest)
	assert.True(t, errors.Is(err, errors.NetworkConnectionNotFound))
	assert.Empty(t, f.runner.LinesWithPrefix("nmcli connection delete"))
}

func TestConfigureInterfaceValidation(t *testing.T) {
	tests := []struct {
		name string
		dev  string
		req  types.InterfaceConfigRequest
		code errors.ErrorCode
	}{
		{"CommaInAddress", "eth0", types.InterfaceConfigRequest{Address: "10.0.0.1,10.0.0.2", Netmask: "255.0.0.0"}, errors.NetworkFieldContainsComma},
		{"CommaInDNS", "eth0", types.InterfaceConfigRequest{DNS1: "1.1.1.1,8.8.8.8"}, errors.NetworkFieldContainsComma},
		{"CommaInGateway", "eth0", types.InterfaceConfigRequest{Address: "10.0.0.1", Netmask: "8", Gateway: "10.0.0.254,"}, errors.NetworkFieldContainsComma},
		{"BadAddress", "eth0", types.InterfaceConfigRequest{Address: "10.0.0.300", Netmask: "255.0.0.0"}, errors.NetworkIPAddressInvalid},
		{"IPv6Address", "eth0", types.InterfaceConfigRequest{Address: "fe80::1", Netmask: "64"}, errors.NetworkIPAddressInvalid},
		{"MissingNetmask", "eth0", types.InterfaceConfigRequest{Address: "10.0.0.1"}, errors.NetworkNetmaskInvalid},
		{"NonContiguousNetmask", "eth0", types.InterfaceConfigRequest{Address: "10.0.0.1", Netmask: "255.0.255.0"}, errors.NetworkNetmaskInvalid},
		{"BadGateway", "eth0", types.InterfaceConfigRequest{Address: "10.0.0.1", Netmask: "8", Gateway: "gw"}, errors.NetworkGatewayInvalid},
		{"BadDNS", "eth0", types.InterfaceConfigRequest{DNS1: "dns.example"}, errors.NetworkDNSServerInvalid},
		{"BadDevice", "eth0;reboot", staticRequest, errors.NetworkInterfaceNameInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nmCaps())
			_, err := f.m.ConfigureInterface(context.Background(), tt.dev, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
			assert.Equal(t, errors.KindValidation, errors.KindOf(err))
			assert.Empty(t, f.runner.Calls(), "validation fails before any command runs")
		})
	}
}

func TestConfigureInterfaceIPBackend(t *testing.T) {
	f := newFixture(t, ipCaps())
	f.runner.
		OK("ip -4 addr flush dev eth0", "").
		OK("ip addr add 192.168.1.50/24 dev eth0", "").
		OK("ip link set dev eth0 up", "").
		OK("ip route replace default via 192.168.1.1 dev eth0", "")

	res, err := f.m.ConfigureInterface(context.Background(), "eth0", staticRequest)
	require.NoError(t, err)
	assert.Equal(t, types.BackendIPRoute, res.Backend)
	assert.Equal(t, []string{
		"ip -4 addr flush dev eth0",
		"ip addr add 192.168.1.50/24 dev eth0",
		"ip link set dev eth0 up",
		"ip route replace default via 192.168.1.1 dev eth0",
	}, f.runner.Lines())

	resolv := f.files.Content("/etc/netpanel/resolv.conf")
	assert.Contains(t, resolv, "nameserver 1.1.1.1\nnameserver 9.9.9.9\n")
}

func TestConfigureInterfaceIPBackendDHCP(t *testing.T) {
	f := newFixture(t, ipCaps())
	_, err := f.m.ConfigureInterface(context.Background(), "eth0", types.InterfaceConfigRequest{})
	assert.True(t, errors.Is(err, errors.NetworkFeatureUnsupported))
}
