// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/beevik/ntp"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/parsers"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

const (
	timesyncdUnit  = "systemd-timesyncd"
	maxNTPServers  = 8
	defaultNTPWait = 3 * time.Second
)

// GetNTP reads time synchronisation state from timedatectl. With probe
// set, the first known server is queried directly and the measured offset
// is attached; a failed probe is reported in the result, not as an error.
func (m *manager) GetNTP(ctx context.Context, probe bool) (*types.NTPStatus, error) {
	if !m.caps.HasTimedatectl {
		return nil, errors.New(errors.SystemOperationNotSupported, "timedatectl is not installed")
	}
	res, err := m.run(ctx, "timedatectl", "show")
	if err != nil {
		return nil, errors.Wrap(err, errors.SystemTimeSyncGetFailed)
	}
	props := parsers.ParseTimedatectl(res.Stdout)
	status := &types.NTPStatus{
		Enabled:         props["NTP"] == "yes",
		Synchronized:    props["NTPSynchronized"] == "yes",
		Timezone:        props["Timezone"],
		Servers:         []string{},
		FallbackServers: []string{},
	}

	// show-timesync needs a running timesyncd; without it only the
	// switches above are known
	if res, err := m.run(ctx, "timedatectl", "show-timesync"); err == nil {
		ts := parsers.ParseTimedatectl(res.Stdout)
		status.Servers = append(status.Servers, strings.Fields(ts["SystemNTPServers"])...)
		if len(status.Servers) == 0 {
			status.Servers = append(status.Servers, strings.Fields(ts["LinkNTPServers"])...)
		}
		status.FallbackServers = append(status.FallbackServers, strings.Fields(ts["FallbackNTPServers"])...)
		status.CurrentServer = ts["ServerName"]
	} else {
		m.logger.Debug("timesyncd status unavailable", "error", err)
	}

	if probe {
		status.Probe = m.probeNTP(status)
	}
	return status, nil
}

func (m *manager) probeNTP(status *types.NTPStatus) *types.NTPProbe {
	server := status.CurrentServer
	if server == "" && len(status.Servers) > 0 {
		server = status.Servers[0]
	}
	if server == "" && len(status.FallbackServers) > 0 {
		server = status.FallbackServers[0]
	}
	if server == "" {
		return &types.NTPProbe{Error: "no NTP server configured"}
	}

	timeout := m.cfg.NTPProbeTimeout
	if timeout <= 0 {
		timeout = defaultNTPWait
	}
	p, err := m.ntpQuery(server, timeout)
	if err != nil {
		m.logger.Warn("NTP probe failed", "server", server, "error", err)
		return &types.NTPProbe{Server: server, Error: err.Error()}
	}
	return p
}

func queryNTP(server string, timeout time.Duration) (*types.NTPProbe, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return nil, errors.Wrap(err, errors.DiagnosticNTPFailed).WithMetadata("server", server)
	}
	if err := resp.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.DiagnosticNTPFailed).WithMetadata("server", server)
	}
	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
	return &types.NTPProbe{
		Server:   server,
		OffsetMs: ms(resp.ClockOffset),
		RTTMs:    ms(resp.RTT),
		Stratum:  int(resp.Stratum),
	}, nil
}

// SetNTP changes the server list and/or the synchronisation switch.
// Servers go into a timesyncd drop-in, which takes effect after the unit
// restarts.
func (m *manager) SetNTP(ctx context.Context, req types.NTPRequest) (*types.NTPStatus, error) {
	if req.Enabled == nil && req.Servers == nil {
		return nil, errors.New(errors.ServerRequestValidation, "enabled or servers is required")
	}
	if !m.caps.HasTimedatectl {
		return nil, errors.New(errors.SystemOperationNotSupported, "timedatectl is not installed")
	}

	if req.Servers != nil {
		servers, err := validateNTPServers(req.Servers)
		if err != nil {
			return nil, err
		}
		content := fmt.Sprintf("[Time]\nNTP=%s\n", strings.Join(servers, " "))
		if err := m.files.WriteFile(ctx, m.cfg.TimesyncdDropInPath, []byte(content), 0o644); err != nil {
			return nil, errors.Wrap(err, errors.NetworkNTPConfigurationFailed).
				WithMetadata("path", m.cfg.TimesyncdDropInPath)
		}
		if m.caps.HasSystemctl {
			if _, err := m.run(ctx, "systemctl", "restart", timesyncdUnit); err != nil {
				return nil, errors.Wrap(err, errors.SystemTimeSyncSetFailed).
					WithMetadata("unit", timesyncdUnit)
			}
		}
		m.logger.Info("NTP servers updated", "servers", servers)
	}

	if req.Enabled != nil {
		if _, err := m.run(ctx, "timedatectl", "set-ntp", fmt.Sprint(*req.Enabled)); err != nil {
			return nil, errors.Wrap(err, errors.SystemTimeSyncSetFailed)
		}
		m.logger.Info("NTP synchronisation switched", "enabled", *req.Enabled)
	}

	return m.GetNTP(ctx, false)
}

func validateNTPServers(in []string) ([]string, error) {
	if len(in) > maxNTPServers {
		return nil, errors.New(errors.ServerRequestValidation,
			fmt.Sprintf("at most %d NTP servers are allowed", maxNTPServers))
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if err := validateNoComma("servers", s); err != nil {
			return nil, err
		}
		if net.ParseIP(s) == nil && validateHostnameFormat(s) != nil {
			return nil, errors.New(errors.NetworkAddressInvalid, fmt.Sprintf("invalid NTP server %q", s))
		}
		out = append(out, s)
	}
	return out, nil
}
