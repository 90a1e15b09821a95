// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"strings"

	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/internal/command"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// DetectCapabilities looks up every tool once and decides the backend.
// NetworkManager drives interfaces only when nmcli is installed and the
// daemon answers; otherwise the ip-only backend is used. The context
// bounds detection: exceeding it is a startup failure.
func DetectCapabilities(
	ctx context.Context,
	finder command.PathFinder,
	runner command.Runner,
	log logger.Logger,
) (types.Capabilities, error) {
	has := func(name string) bool {
		_, err := finder.LookPath(name)
		return err == nil
	}

	caps := types.Capabilities{
		HasNmcli:       has("nmcli"),
		HasIP:          has("ip"),
		HasUfw:         has("ufw"),
		HasResolvectl:  has("resolvectl"),
		HasTimedatectl: has("timedatectl"),
		HasHostnamectl: has("hostnamectl"),
		HasSS:          has("ss"),
		HasPing:        has("ping"),
		HasTraceroute:  has("traceroute"),
		HasJournalctl:  has("journalctl"),
		HasSystemctl:   has("systemctl"),
		Backend:        types.BackendIPRoute,
	}

	if caps.HasNmcli {
		res, err := runner.Run(ctx, "nmcli", "-t", "-f", "RUNNING", "general")
		switch {
		case err == nil && strings.TrimSpace(res.Stdout) == "running":
			caps.Backend = types.BackendNetworkManager
		case ctx.Err() != nil:
			return caps, errors.Wrap(ctx.Err(), errors.LifecycleStartup).
				WithMetadata("stage", "capability detection")
		default:
			if log != nil {
				log.Warn("nmcli present but NetworkManager is not running, using ip backend", "error", err)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return caps, errors.Wrap(err, errors.LifecycleStartup).
			WithMetadata("stage", "capability detection")
	}
	if !caps.HasIP && caps.Backend == types.BackendIPRoute {
		return caps, errors.New(errors.NetworkBackendError, "neither NetworkManager nor iproute2 is available")
	}

	if log != nil {
		log.Info("Detected network capabilities",
			"backend", caps.Backend,
			"nmcli", caps.HasNmcli,
			"ip", caps.HasIP,
			"ufw", caps.HasUfw,
			"resolvectl", caps.HasResolvectl,
			"timedatectl", caps.HasTimedatectl)
	}
	return caps, nil
}
