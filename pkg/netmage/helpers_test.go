// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/config"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/testutil"
	"github.com/stratastor/netpanel/pkg/netmage/types"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "test.netmage")
	require.NoError(t, err)
	return l
}

func nmCaps() types.Capabilities {
	return types.Capabilities{
		HasNmcli:       true,
		HasIP:          true,
		HasUfw:         true,
		HasResolvectl:  true,
		HasTimedatectl: true,
		HasHostnamectl: true,
		HasSS:          true,
		HasPing:        true,
		HasTraceroute:  true,
		HasJournalctl:  true,
		HasSystemctl:   true,
		Backend:        types.BackendNetworkManager,
	}
}

func ipCaps() types.Capabilities {
	c := nmCaps()
	c.HasNmcli = false
	c.HasResolvectl = false
	c.Backend = types.BackendIPRoute
	return c
}

// fixture is a manager wired to scripted host tools
type fixture struct {
	m      *manager
	runner *testutil.ScriptedRunner
	nm     *testutil.FakeNM
	files  *testutil.FakeFiles

	// Served by readFile; missing paths do not exist
	disk map[string]string
	// Returned by defaultRouteDevice; empty means no route
	defaultDev string
	sleeps     []time.Duration

	icmp     func(ctx context.Context, target string, count int) (*types.PingResult, error)
	ntp      func(server string, timeout time.Duration) (*types.NTPProbe, error)
	exchange func(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, time.Duration, error)
}

func newFixture(t *testing.T, caps types.Capabilities) *fixture {
	t.Helper()
	f := &fixture{
		runner: testutil.NewScriptedRunner(),
		nm:     testutil.NewFakeNM(),
		files:  testutil.NewFakeFiles(),
		disk:   map[string]string{},
	}
	f.nm.Attach(f.runner)

	cfg := config.DefaultNetworkConfig()
	cfg.ResolvConfFallbackPath = "/etc/netpanel/resolv.conf"

	m, err := newManager(newTestLogger(t), f.runner, caps, cfg, WithFileOperations(f.files))
	require.NoError(t, err)

	m.readFile = func(path string) ([]byte, error) {
		if s, ok := f.disk[path]; ok {
			return []byte(s), nil
		}
		return nil, fs.ErrNotExist
	}
	m.defaultRouteDevice = func() (string, error) {
		if f.defaultDev == "" {
			return "", errors.New(errors.NetworkRouteNotFound, "no default route")
		}
		return f.defaultDev, nil
	}
	m.sleep = func(ctx context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return ctx.Err()
	}
	m.icmpPing = func(ctx context.Context, target string, count int) (*types.PingResult, error) {
		if f.icmp == nil {
			return nil, errors.New(errors.DiagnosticPingFailed, "icmp disabled in tests")
		}
		return f.icmp(ctx, target, count)
	}
	m.ntpQuery = func(server string, timeout time.Duration) (*types.NTPProbe, error) {
		if f.ntp == nil {
			return nil, errors.New(errors.DiagnosticNTPFailed, "ntp disabled in tests")
		}
		return f.ntp(server, timeout)
	}
	m.dnsExchange = func(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, time.Duration, error) {
		if f.exchange == nil {
			return nil, 0, errors.New(errors.DiagnosticDNSFailed, "dns disabled in tests")
		}
		return f.exchange(ctx, msg, server)
	}

	f.m = m
	return f
}

// ethernet registers eth0 with an active DHCP profile
func (f *fixture) ethernet() *testutil.NMProfile {
	f.nm.AddDevice(&testutil.NMDevice{Name: "eth0", Type: "ethernet", HWAddr: "B8:69:F4:98:93:B1"})
	return f.nm.AddProfile("Wired connection 1", "802-3-ethernet",
		map[string]string{"connection.interface-name": "eth0"}, true)
}

// wifi registers wlan0 associated to "HomeNet" through profile "HomeNet"
func (f *fixture) wifi() *testutil.NMProfile {
	f.nm.AddDevice(&testutil.NMDevice{
		Name: "wlan0",
		Type: "wifi",
		Networks: []testutil.NMNetwork{
			{SSID: "HomeNet", Signal: 80, Security: "WPA2"},
			{SSID: "Cafe", Signal: 40, Security: "--"},
		},
	})
	return f.nm.AddProfile("HomeNet", "802-11-wireless", map[string]string{
		"connection.interface-name": "wlan0",
		"802-11-wireless.ssid":      "HomeNet",
	}, true)
}
