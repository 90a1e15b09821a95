// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stratastor/netpanel/internal/constants"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timedatectlShow = `Timezone=Europe/Berlin
LocalRTC=no
CanNTP=yes
NTP=yes
NTPSynchronized=yes
TimeUSec=Mon 2026-10-19 10:00:00 CEST
`

const timedatectlTimesync = `LinkNTPServers=192.168.1.1
SystemNTPServers=
FallbackNTPServers=ntp.ubuntu.com 0.debian.pool.ntp.org
ServerName=ntp.ubuntu.com
ServerAddress=185.125.190.56
PollIntervalUSec=34min 8s
`

func TestGetNTP(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.runner.OK("timedatectl show-timesync", timedatectlTimesync).OK("timedatectl show", timedatectlShow)

	status, err := f.m.GetNTP(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, status.Enabled)
	assert.True(t, status.Synchronized)
	assert.Equal(t, "Europe/Berlin", status.Timezone)
	assert.Equal(t, []string{"192.168.1.1"}, status.Servers)
	assert.Equal(t, []string{"ntp.ubuntu.com", "0.debian.pool.ntp.org"}, status.FallbackServers)
	assert.Equal(t, "ntp.ubuntu.com", status.CurrentServer)
	assert.Nil(t, status.Probe)
}

func TestGetNTPWithoutTimesyncd(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.runner.
		OK("timedatectl show", "Timezone=UTC\nNTP=no\nNTPSynchronized=no\n").
		Fail("timedatectl show-timesync", 1, "Failed to query server: Unit systemd-timesyncd.service not loaded.")

	status, err := f.m.GetNTP(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, status.Enabled)
	assert.NotNil(t, status.Servers)
	assert.Empty(t, status.Servers)
	require.NotNil(t, status.Probe)
	assert.Equal(t, "no NTP server configured", status.Probe.Error)
}

func TestGetNTPProbe(t *testing.T) {
	t.Run("MeasuresCurrentServer", func(t *testing.T) {
		f := newFixture(t, nmCaps())
		f.runner.OK("timedatectl show-timesync", timedatectlTimesync).OK("timedatectl show", timedatectlShow)
		f.ntp = func(server string, timeout time.Duration) (*types.NTPProbe, error) {
			assert.Positive(t, timeout)
			return &types.NTPProbe{Server: server, OffsetMs: -1.5, RTTMs: 20, Stratum: 2}, nil
		}

		status, err := f.m.GetNTP(context.Background(), true)
		require.NoError(t, err)
		require.NotNil(t, status.Probe)
		assert.Equal(t, "ntp.ubuntu.com", status.Probe.Server)
		assert.Equal(t, 2, status.Probe.Stratum)
		assert.Empty(t, status.Probe.Error)
	})

	t.Run("FailureIsReported", func(t *testing.T) {
		f := newFixture(t, nmCaps())
		f.runner.OK("timedatectl show-timesync", timedatectlTimesync).OK("timedatectl show", timedatectlShow)

		status, err := f.m.GetNTP(context.Background(), true)
		require.NoError(t, err)
		require.NotNil(t, status.Probe)
		assert.Equal(t, "ntp.ubuntu.com", status.Probe.Server)
		assert.NotEmpty(t, status.Probe.Error)
	})
}

func TestGetNTPUnsupported(t *testing.T) {
	caps := nmCaps()
	caps.HasTimedatectl = false
	f := newFixture(t, caps)

	_, err := f.m.GetNTP(context.Background(), false)
	assert.True(t, errors.Is(err, errors.SystemOperationNotSupported))
}

func TestSetNTP(t *testing.T) {
	enabled := true
	f := newFixture(t, nmCaps())
	f.runner.
		OK("systemctl restart", "").
		OK("timedatectl set-ntp", "").
		OK("timedatectl show-timesync", "SystemNTPServers=time.cloudflare.com 162.159.200.1\n").
		OK("timedatectl show", timedatectlShow)

	status, err := f.m.SetNTP(context.Background(), types.NTPRequest{
		Enabled: &enabled,
		Servers: []string{"time.cloudflare.com", " 162.159.200.1 ", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "[Time]\nNTP=time.cloudflare.com 162.159.200.1\n", f.files.Content(constants.DefaultTimesyncdDropIn))
	assert.Equal(t, []string{
		"systemctl restart systemd-timesyncd",
		"timedatectl set-ntp true",
		"timedatectl show",
		"timedatectl show-timesync",
	}, f.runner.Lines())
	assert.Equal(t, []string{"time.cloudflare.com", "162.159.200.1"}, status.Servers)
}

func TestSetNTPSwitchOnly(t *testing.T) {
	disabled := false
	f := newFixture(t, nmCaps())
	f.runner.OK("timedatectl", "")

	_, err := f.m.SetNTP(context.Background(), types.NTPRequest{Enabled: &disabled})
	require.NoError(t, err)
	assert.Equal(t, "timedatectl set-ntp false", f.runner.Lines()[0])
	assert.Empty(t, f.files.Files)
}

func TestSetNTPValidation(t *testing.T) {
	tests := []struct {
		name string
		req  types.NTPRequest
		code errors.ErrorCode
	}{
		{"Empty", types.NTPRequest{}, errors.ServerRequestValidation},
		{"TooMany", types.NTPRequest{Servers: strings.Fields("a b c d e f g h i")}, errors.ServerRequestValidation},
		{"Comma", types.NTPRequest{Servers: []string{"a.example.com,b.example.com"}}, errors.NetworkFieldContainsComma},
		{"BadName", types.NTPRequest{Servers: []string{"pool ntp org"}}, errors.NetworkAddressInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nmCaps())
			_, err := f.m.SetNTP(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
			assert.Equal(t, errors.KindValidation, errors.KindOf(err))
			assert.Empty(t, f.runner.Calls())
			assert.Empty(t, f.files.Files)
		})
	}
}

func TestSetNTPWriteFailure(t *testing.T) {
	f := newFixture(t, nmCaps())
	f.files.Denied[constants.DefaultTimesyncdDropIn] = true

	_, err := f.m.SetNTP(context.Background(), types.NTPRequest{Servers: []string{"pool.ntp.org"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NetworkNTPConfigurationFailed))
	assert.Empty(t, f.runner.Calls())
}
