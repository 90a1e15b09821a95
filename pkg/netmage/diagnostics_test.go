// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"testing"

	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/testutil"
	"github.com/stratastor/netpanel/pkg/netmage/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pingOutput = `PING 1.1.1.1 (1.1.1.1) 56(84) bytes of data.
64 bytes from 1.1.1.1: icmp_seq=1 ttl=57 time=9.81 ms
64 bytes from 1.1.1.1: icmp_seq=2 ttl=57 time=10.2 ms

--- 1.1.1.1 ping statistics ---
2 packets transmitted, 2 received, 0% packet loss, time 1001ms
rtt min/avg/max/mdev = 9.810/10.005/10.200/0.195 ms
`

const pingLossOutput = `PING 10.255.255.1 (10.255.255.1) 56(84) bytes of data.

--- 10.255.255.1 ping statistics ---
4 packets transmitted, 0 received, 100% packet loss, time 3060ms
`

func TestPingCLI(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.runner.OK("ping", pingOutput)

	r, err := f.m.Ping(context.Background(), types.PingRequest{Target: "1.1.1.1", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"ping -c 2 -W 2 1.1.1.1"}, f.runner.Lines())
	assert.Equal(t, "ping-cli", r.Strategy)
	assert.Equal(t, 2, r.Received)
	assert.InDelta(t, 10.005, r.AvgRTT, 0.0001)
	assert.Equal(t, pingOutput, r.Output)
}

func TestPingTotalLossIsAResult(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.runner.On("ping", testutil.Response{ExitCode: 1, Stdout: pingLossOutput})

	r, err := f.m.Ping(context.Background(), types.PingRequest{Target: "10.255.255.1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ping -c 4 -W 2 10.255.255.1"}, f.runner.Lines())
	assert.Equal(t, 4, r.Transmitted)
	assert.Equal(t, 0, r.Received)
	assert.InDelta(t, 100.0, r.PacketLoss, 0.001)
}

func TestPingFallsBackToICMP(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.runner.Fail("ping", 2, "ping: socket: Operation not permitted")
	f.icmp = func(_ context.Context, target string, count int) (*types.PingResult, error) {
		return &types.PingResult{Target: target, Transmitted: count, Received: count}, nil
	}

	r, err := f.m.Ping(context.Background(), types.PingRequest{Target: "example.com", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, "icmp", r.Strategy)
	assert.Equal(t, 3, r.Received)
	assert.Equal(t, "example.com", r.Target)
}

func TestPingWithoutBinary(t *testing.T) {
	caps := nmCaps()
	caps.HasPing = false
	f := newFixture(t, caps)
	f.icmp = func(_ context.Context, target string, count int) (*types.PingResult, error) {
		return &types.PingResult{Transmitted: count, Received: count}, nil
	}

	r, err := f.m.Ping(context.Background(), types.PingRequest{Target: "192.168.1.1"})
	require.NoError(t, err)
	assert.Equal(t, "icmp", r.Strategy)
	assert.Equal(t, "192.168.1.1", r.Target)
	assert.Empty(t, f.runner.Calls())
}

func TestPingFailure(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.runner.Fail("ping", 2, "ping: nowhere.invalid: Name or service not known")

	_, err := f.m.Ping(context.Background(), types.PingRequest{Target: "nowhere.invalid"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.DiagnosticPingFailed))
}

func TestDiagnosticsValidation(t *testing.T) {
	f := newFixture(t, nmCaps())
	ctx := context.Background()

	for _, target := range []string{"", "-f", "a b", "1.1.1.1;reboot", "host_name"} {
		_, err := f.m.Ping(ctx, types.PingRequest{Target: target})
		assert.True(t, errors.Is(err, errors.DiagnosticTargetInvalid), "ping %q", target)
		_, err = f.m.Traceroute(ctx, types.TracerouteRequest{Target: target})
		assert.True(t, errors.Is(err, errors.DiagnosticTargetInvalid), "traceroute %q", target)
	}

	_, err := f.m.Ping(ctx, types.PingRequest{Target: "1.1.1.1", Count: 21})
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	_, err = f.m.Traceroute(ctx, types.TracerouteRequest{Target: "1.1.1.1", MaxHops: 65})
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))

	assert.Empty(t, f.runner.Calls())
}

func TestTraceroute(t *testing.T) {
	out := `traceroute to 8.8.8.8 (8.8.8.8), 10 hops max, 60 byte packets
 1  192.168.1.1  0.512 ms  0.470 ms  0.444 ms
 2  * * *
 3  8.8.8.8  9.870 ms  9.901 ms  9.850 ms
`
	f := newFixture(t, nmCaps())
	f.runner.OK("traceroute", out)

	r, err := f.m.Traceroute(context.Background(), types.TracerouteRequest{Target: "8.8.8.8", MaxHops: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"traceroute -n -m 10 -w 2 8.8.8.8"}, f.runner.Lines())
	assert.Equal(t, 10, r.MaxHops)
	require.Len(t, r.Hops, 3)
	assert.Equal(t, 3, r.Hops[1].Timeouts)
	assert.Equal(t, "8.8.8.8", r.Hops[2].Address)
}

func TestTracerouteDefaultsAndErrors(t *testing.T) {
	t.Run("DefaultHops", func(t *testing.T) {
		f := newFixture(t, nmCaps())
		f.runner.OK("traceroute", "")

		r, err := f.m.Traceroute(context.Background(), types.TracerouteRequest{Target: "example.com"})
		require.NoError(t, err)
		assert.Equal(t, []string{"traceroute -n -m 30 -w 2 example.com"}, f.runner.Lines())
		assert.Equal(t, "example.com", r.Target)
		assert.Equal(t, 30, r.MaxHops)
		assert.NotNil(t, r.Hops)
	})

	t.Run("NotInstalled", func(t *testing.T) {
		caps := nmCaps()
		caps.HasTraceroute = false
		f := newFixture(t, caps)

		_, err := f.m.Traceroute(context.Background(), types.TracerouteRequest{Target: "example.com"})
		assert.True(t, errors.Is(err, errors.NetworkFeatureUnsupported))
		assert.Empty(t, f.runner.Calls())
	})

	t.Run("CommandFails", func(t *testing.T) {
		f := newFixture(t, nmCaps())
		f.runner.Fail("traceroute", 2, "Cannot handle \"host\" cmdline arg")

		_, err := f.m.Traceroute(context.Background(), types.TracerouteRequest{Target: "example.com"})
		assert.True(t, errors.Is(err, errors.DiagnosticTracerouteFailed))
	})
}
