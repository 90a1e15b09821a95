// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/stratastor/netpanel/internal/command"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/parsers"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

const (
	defaultLogLines = 50
	maxLogLines     = 1000
)

var commentPattern = regexp.MustCompile(`^[A-Za-z0-9 _.:/+@=-]*$`)

func (m *manager) ufw(ctx context.Context, args ...string) (*command.Result, error) {
	if !m.caps.HasUfw {
		return nil, errors.New(errors.FirewallNotAvailable, "ufw is not installed")
	}
	res, err := m.run(ctx, "ufw", args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.FirewallCommandFailed).
			WithMetadata("operation", strings.Join(args, " "))
	}
	return res, nil
}

// FirewallStatus returns whether ufw is active, its default policies and
// the numbered rule list
func (m *manager) FirewallStatus(ctx context.Context) (*types.FirewallStatus, error) {
	res, err := m.ufw(ctx, "status", "numbered")
	if err != nil {
		return nil, err
	}
	active, rules := parsers.ParseUfwStatus(res.Stdout)
	status := &types.FirewallStatus{Active: active, Rules: rules}
	if status.Rules == nil {
		status.Rules = []types.FirewallRule{}
	}

	// Defaults are informative; an inactive firewall still reports them
	if res, err := m.ufw(ctx, "status", "verbose"); err == nil {
		status.Logging, status.Defaults = parsers.ParseUfwVerbose(res.Stdout)
	} else {
		m.logger.Warn("Failed to read firewall defaults", "error", err)
	}
	return status, nil
}

// EnableFirewall activates ufw without the interactive prompt
func (m *manager) EnableFirewall(ctx context.Context) error {
	if _, err := m.ufw(ctx, "--force", "enable"); err != nil {
		return err
	}
	m.logger.Info("Firewall enabled")
	return nil
}

// DisableFirewall deactivates ufw
func (m *manager) DisableFirewall(ctx context.Context) error {
	if _, err := m.ufw(ctx, "disable"); err != nil {
		return err
	}
	m.logger.Info("Firewall disabled")
	return nil
}

// ResetFirewall removes every rule and disables ufw
func (m *manager) ResetFirewall(ctx context.Context) error {
	if _, err := m.ufw(ctx, "--force", "reset"); err != nil {
		return err
	}
	m.logger.Warn("Firewall reset")
	return nil
}

// SetFirewallDefault changes the default policy of one direction
func (m *manager) SetFirewallDefault(ctx context.Context, req types.FirewallDefaultRequest) error {
	switch req.Policy {
	case "allow", "deny", "reject":
	default:
		return errors.New(errors.FirewallPolicyInvalid, fmt.Sprintf("invalid policy %q", req.Policy))
	}
	switch req.Direction {
	case "incoming", "outgoing", "routed":
	default:
		return errors.New(errors.FirewallPolicyInvalid, fmt.Sprintf("invalid direction %q", req.Direction))
	}
	if _, err := m.ufw(ctx, "default", req.Policy, req.Direction); err != nil {
		return err
	}
	m.logger.Info("Firewall default changed", "direction", req.Direction, "policy", req.Policy)
	return nil
}

// AddFirewallRule appends a rule in ufw's extended syntax
func (m *manager) AddFirewallRule(ctx context.Context, req types.FirewallRuleRequest) error {
	args, err := firewallRuleArgs(req)
	if err != nil {
		return err
	}
	if _, err := m.ufw(ctx, args...); err != nil {
		return err
	}
	m.logger.Info("Firewall rule added", "rule", strings.Join(args, " "))
	return nil
}

// firewallRuleArgs renders a rule request as ufw arguments. A service rule
// names an application profile; a port rule uses the from/to/port form.
func firewallRuleArgs(req types.FirewallRuleRequest) ([]string, error) {
	switch req.Action {
	case "allow", "deny", "reject", "limit":
	default:
		return nil, errors.New(errors.FirewallRuleInvalid, fmt.Sprintf("invalid action %q", req.Action))
	}
	args := []string{req.Action}
	switch req.Direction {
	case "":
	case "in", "out":
		args = append(args, req.Direction)
	default:
		return nil, errors.New(errors.FirewallRuleInvalid, fmt.Sprintf("invalid direction %q", req.Direction))
	}

	port := strings.TrimSpace(req.Port)
	service := strings.TrimSpace(req.Service)
	switch {
	case port == "" && service == "":
		return nil, errors.New(errors.FirewallRuleInvalid, "either port or service is required")
	case port != "" && service != "":
		return nil, errors.New(errors.FirewallRuleInvalid, "port and service are mutually exclusive")
	case service != "":
		if !servicePattern.MatchString(service) {
			return nil, errors.New(errors.FirewallRuleInvalid, fmt.Sprintf("invalid service %q", service))
		}
		args = append(args, service)
	default:
		if err := validatePortSpec(port); err != nil {
			return nil, err
		}
		proto := req.Protocol
		if proto == "any" {
			proto = ""
		}
		switch proto {
		case "", "tcp", "udp":
		default:
			return nil, errors.New(errors.NetworkProtocolInvalid, fmt.Sprintf("invalid protocol %q", req.Protocol))
		}
		if strings.Contains(port, ":") && proto == "" {
			return nil, errors.New(errors.FirewallRuleInvalid, "a port range needs protocol tcp or udp")
		}
		from, err := firewallEndpoint("from", req.From)
		if err != nil {
			return nil, err
		}
		to, err := firewallEndpoint("to", req.To)
		if err != nil {
			return nil, err
		}
		if proto != "" {
			args = append(args, "proto", proto)
		}
		args = append(args, "from", from, "to", to, "port", port)
	}

	if c := strings.TrimSpace(req.Comment); c != "" {
		if len(c) > 64 || !commentPattern.MatchString(c) {
			return nil, errors.New(errors.FirewallRuleInvalid, "comment contains unsupported characters")
		}
		args = append(args, "comment", c)
	}
	return args, nil
}

func firewallEndpoint(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "any") {
		return "any", nil
	}
	if err := validateIPAddressFormat(field, value); err != nil {
		return "", err
	}
	return value, nil
}

// DeleteFirewallRule deletes rule number n. Numbers shift after every
// deletion, so callers re-read the list before deleting again.
func (m *manager) DeleteFirewallRule(ctx context.Context, number int) error {
	if number < 1 {
		return errors.New(errors.FirewallRuleInvalid, fmt.Sprintf("invalid rule number %d", number))
	}
	status, err := m.FirewallStatus(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, r := range status.Rules {
		if r.Number == number {
			found = true
			break
		}
	}
	if !found {
		return errors.New(errors.FirewallRuleNotFound, strconv.Itoa(number))
	}
	if _, err := m.ufw(ctx, "--force", "delete", strconv.Itoa(number)); err != nil {
		return err
	}
	m.logger.Info("Firewall rule deleted", "number", number)
	return nil
}

// FirewallLogs returns the newest firewall log lines, from the ufw log
// file or, when it cannot be read, the kernel journal
func (m *manager) FirewallLogs(ctx context.Context, lines int) (*types.FirewallLogs, error) {
	switch {
	case lines < 0:
		return nil, errors.New(errors.ServerRequestValidation, "lines must not be negative")
	case lines == 0:
		lines = defaultLogLines
	case lines > maxLogLines:
		lines = maxLogLines
	}
	n := strconv.Itoa(lines)

	tail := func(name string, args ...string) func(context.Context) ([]string, error) {
		return func(ctx context.Context) ([]string, error) {
			res, err := m.run(ctx, name, args...)
			if err != nil {
				return nil, err
			}
			return splitLines(res.Stdout), nil
		}
	}
	out, outcome, err := RunStrategies(ctx, m.logger, "firewall_logs", []Strategy[[]string]{
		{
			Name: "log-file",
			Run:  tail("tail", "-n", n, m.cfg.FirewallLogPath),
		},
		{
			Name:       "journal",
			Applicable: func() bool { return m.caps.HasJournalctl },
			Run:        tail("journalctl", "-k", "-g", "UFW", "-n", n, "--no-pager"),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.FirewallLogUnavailable)
	}
	return &types.FirewallLogs{Lines: out, Source: outcome.Strategy}, nil
}

func splitLines(s string) []string {
	out := []string{}
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimRight(l, "\r"); strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
