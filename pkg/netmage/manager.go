// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"os"
	"time"

	"github.com/miekg/dns"
	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/config"
	"github.com/stratastor/netpanel/internal/command"
	"github.com/stratastor/netpanel/internal/system/privilege"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

// manager implements types.Manager on top of nmcli, ip, ufw and the
// systemd tools. It holds no network state of its own: every query
// re-reads the host.
type manager struct {
	logger logger.Logger
	runner command.Runner
	ip     *IPCommand
	files  privilege.FileOperations
	caps   types.Capabilities
	cfg    config.NetworkConfig

	// Host access that bypasses the runner. Replaced in tests.
	readFile           func(path string) ([]byte, error)
	defaultRouteDevice func() (string, error)
	icmpPing           func(ctx context.Context, target string, count int) (*types.PingResult, error)
	ntpQuery           func(server string, timeout time.Duration) (*types.NTPProbe, error)
	dnsExchange        func(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, time.Duration, error)
	sleep              func(ctx context.Context, d time.Duration) error
}

// Option customises the manager
type Option func(*manager)

// WithFileOperations sets the privileged file writer used for resolver
// and timesyncd files
func WithFileOperations(files privilege.FileOperations) Option {
	return func(m *manager) {
		m.files = files
	}
}

// NewManager creates a new networking manager instance. Capabilities are
// detected once by the caller and never re-checked.
func NewManager(
	logger logger.Logger,
	runner command.Runner,
	caps types.Capabilities,
	cfg config.NetworkConfig,
	opts ...Option,
) (types.Manager, error) {
	return newManager(logger, runner, caps, cfg, opts...)
}

func newManager(
	logger logger.Logger,
	runner command.Runner,
	caps types.Capabilities,
	cfg config.NetworkConfig,
	opts ...Option,
) (*manager, error) {
	if logger == nil {
		return nil, errors.New(errors.NetworkOperationFailed, "logger cannot be nil")
	}
	if runner == nil {
		return nil, errors.New(errors.NetworkOperationFailed, "command runner cannot be nil")
	}

	m := &manager{
		logger:             logger,
		runner:             runner,
		ip:                 NewIPCommand(runner),
		caps:               caps,
		cfg:                cfg,
		readFile:           os.ReadFile,
		defaultRouteDevice: netlinkDefaultRouteDevice,
		icmpPing:           proBingPing,
		ntpQuery:           queryNTP,
		dnsExchange:        exchangeDNS,
		sleep:              sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.files == nil {
		cfgPaths := privilege.DefaultConfig().WithPaths(cfg.ResolvConfFallbackPath, cfg.TimesyncdDropInPath)
		m.files = privilege.NewOperationsFactory(logger, runner, cfgPaths).Create()
	}

	m.logger.Info("Network manager initialized",
		"backend", caps.Backend,
		"nmcli", caps.HasNmcli,
		"ufw", caps.HasUfw,
		"resolvectl", caps.HasResolvectl)

	return m, nil
}

// Capabilities returns the tool set detected at startup
func (m *manager) Capabilities() types.Capabilities {
	return m.caps
}

func (m *manager) useNM() bool {
	return m.caps.Backend == types.BackendNetworkManager
}

// run executes a command through the runner, logging failures at debug.
// Callers decide whether a failure is expected.
func (m *manager) run(ctx context.Context, name string, args ...string) (*command.Result, error) {
	res, err := m.runner.Run(ctx, name, args...)
	if res == nil {
		res = &command.Result{ExitCode: -1}
	}
	if err != nil {
		m.logger.Debug("Command failed",
			"cmd", command.CommandLine(name, args...),
			"exit_code", res.ExitCode,
			"error", err)
	}
	return res, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
