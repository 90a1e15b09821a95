// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"strconv"
	"strings"
	"time"

	probing "github.com/prometheus-community/pro-bing"
	"github.com/stratastor/netpanel/internal/command"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/parsers"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

const (
	defaultPingCount  = 4
	maxPingCount      = 20
	defaultMaxHops    = 30
	maxTracerouteHops = 64
	probeWaitSeconds  = "2"

	// ping exits 1 when it ran but got no reply
	pingExitNoReply = 1
)

// Ping sends ICMP echo requests with the ping binary, or from the agent
// itself when the binary is missing or cannot run. Total packet loss is a
// result, not an error.
func (m *manager) Ping(ctx context.Context, req types.PingRequest) (*types.PingResult, error) {
	target := strings.TrimSpace(req.Target)
	if err := validateTarget(target); err != nil {
		return nil, err
	}
	count := req.Count
	switch {
	case count == 0:
		count = defaultPingCount
	case count < 0 || count > maxPingCount:
		return nil, errors.New(errors.ServerRequestValidation, "count must be between 1 and 20")
	}

	result, out, err := RunStrategies(ctx, m.logger, "ping", []Strategy[*types.PingResult]{
		{
			Name:       "ping-cli",
			Applicable: func() bool { return m.caps.HasPing },
			Run: func(ctx context.Context) (*types.PingResult, error) {
				return m.pingCLI(ctx, target, count)
			},
		},
		{
			Name: "icmp",
			Run: func(ctx context.Context) (*types.PingResult, error) {
				return m.icmpPing(ctx, target, count)
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.DiagnosticPingFailed).WithMetadata("target", target)
	}
	result.Strategy = out.Strategy
	if result.Target == "" {
		result.Target = target
	}
	return result, nil
}

func (m *manager) pingCLI(ctx context.Context, target string, count int) (*types.PingResult, error) {
	res, err := m.run(ctx, "ping", "-c", strconv.Itoa(count), "-W", probeWaitSeconds, target)
	if err != nil && !(command.ExitCode(err) == pingExitNoReply && res.Stdout != "") {
		return nil, err
	}
	r := parsers.ParsePing(res.Stdout)
	r.Output = res.Stdout
	return &r, nil
}

// proBingPing pings from an unprivileged ICMP datagram socket
func proBingPing(ctx context.Context, target string, count int) (*types.PingResult, error) {
	pinger, err := probing.NewPinger(target)
	if err != nil {
		return nil, err
	}
	pinger.Count = count
	pinger.Interval = time.Second
	pinger.Timeout = time.Duration(count+2) * time.Second
	pinger.SetPrivileged(false)

	if err := pinger.RunWithContext(ctx); err != nil {
		return nil, err
	}
	stats := pinger.Statistics()
	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
	return &types.PingResult{
		Target:      target,
		Address:     stats.IPAddr.String(),
		Transmitted: stats.PacketsSent,
		Received:    stats.PacketsRecv,
		PacketLoss:  stats.PacketLoss,
		MinRTT:      ms(stats.MinRtt),
		AvgRTT:      ms(stats.AvgRtt),
		MaxRTT:      ms(stats.MaxRtt),
		MdevRTT:     ms(stats.StdDevRtt),
	}, nil
}

// Traceroute traces the path to target with numeric output
func (m *manager) Traceroute(ctx context.Context, req types.TracerouteRequest) (*types.TracerouteResult, error) {
	target := strings.TrimSpace(req.Target)
	if err := validateTarget(target); err != nil {
		return nil, err
	}
	hops := req.MaxHops
	switch {
	case hops == 0:
		hops = defaultMaxHops
	case hops < 0 || hops > maxTracerouteHops:
		return nil, errors.New(errors.ServerRequestValidation, "maxHops must be between 1 and 64")
	}
	if !m.caps.HasTraceroute {
		return nil, errors.New(errors.NetworkFeatureUnsupported, "traceroute is not installed")
	}

	res, err := m.run(ctx, "traceroute", "-n", "-m", strconv.Itoa(hops), "-w", probeWaitSeconds, target)
	if err != nil {
		return nil, errors.Wrap(err, errors.DiagnosticTracerouteFailed).WithMetadata("target", target)
	}
	r := parsers.ParseTraceroute(res.Stdout)
	if r.Target == "" {
		r.Target = target
	}
	if r.MaxHops == 0 {
		r.MaxHops = hops
	}
	if r.Hops == nil {
		r.Hops = []types.TracerouteHop{}
	}
	r.Output = res.Stdout
	return &r, nil
}
