// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"strings"

	"github.com/stratastor/netpanel/internal/constants"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/parsers"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// GetStatistics returns kernel interface counters and socket counts.
// Socket counts are left zero when ss is unavailable.
func (m *manager) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	data, err := m.readFile(constants.ProcNetDevPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.FSError).WithMetadata("path", constants.ProcNetDevPath)
	}
	stats := &types.Statistics{Interfaces: parsers.ParseProcNetDev(string(data))}
	if len(stats.Interfaces) == 0 {
		// The kernel always lists lo, so content without rows is garbage.
		if strings.TrimSpace(string(data)) != "" {
			return nil, errors.New(errors.CommandOutputParse, "no interface rows in "+constants.ProcNetDevPath).
				WithMetadata("path", constants.ProcNetDevPath)
		}
		stats.Interfaces = []types.InterfaceCounters{}
	}

	if !m.caps.HasSS {
		return stats, nil
	}
	res, err := m.run(ctx, "ss", "-tuna")
	if err != nil {
		m.logger.Warn("Failed to list sockets", "error", err)
		return stats, nil
	}
	stats.Connections = parsers.CountSockets(parsers.ParseSockets(res.Stdout))
	return stats, nil
}
