// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/stratastor/netpanel/internal/constants"
	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/parsers"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

const (
	resolvConfPath     = constants.DefaultResolvConfPath
	dnsProbeTimeout    = 3 * time.Second
	resolverFileHeader = "# Written by netpanel. NetworkManager or systemd-resolved may replace this file.\n"

	resolverFileWarning = "DNS servers were written to the resolver file only; " +
		"the network daemon may overwrite them on its next update"
)

// GetDNS returns the resolver configuration from the first source that
// has any. A host with no resolvers yields empty settings, not an error.
func (m *manager) GetDNS(ctx context.Context) (*types.DNSSettings, error) {
	nonEmpty := func(s *types.DNSSettings) (*types.DNSSettings, error) {
		if s.Primary == "" && len(s.Interfaces) == 0 {
			return nil, errors.New(errors.NotFoundError, "no DNS servers reported")
		}
		if s.Primary == "" {
			links := make([]string, 0, len(s.Interfaces))
			for link := range s.Interfaces {
				links = append(links, link)
			}
			sort.Strings(links)
			p := s.Interfaces[links[0]]
			s.Primary, s.Secondary = p.Primary, p.Secondary
		}
		return s, nil
	}

	settings, _, err := RunStrategies(ctx, m.logger, "dns_get", []Strategy[*types.DNSSettings]{
		{
			Name:       parsers.SourceResolvectl,
			Applicable: func() bool { return m.caps.HasResolvectl },
			Run: func(ctx context.Context) (*types.DNSSettings, error) {
				res, err := m.run(ctx, "resolvectl", "status")
				if err != nil {
					return nil, err
				}
				return nonEmpty(parsers.ParseResolvectlStatus(res.Stdout))
			},
		},
		{
			Name:       parsers.SourceNmcli,
			Applicable: m.useNM,
			Run: func(ctx context.Context) (*types.DNSSettings, error) {
				res, err := m.nmcli(ctx, "-t", "-f", "GENERAL.DEVICE,IP4.DNS,IP4.DOMAIN", "device", "show")
				if err != nil {
					return nil, err
				}
				return nonEmpty(parsers.ParseDeviceDNS(res.Stdout))
			},
		},
		{
			Name: parsers.SourceResolvConf,
			Run: func(ctx context.Context) (*types.DNSSettings, error) {
				data, err := m.readFile(resolvConfPath)
				if err != nil {
					return nil, err
				}
				return nonEmpty(parsers.ParseResolvConf(string(data)))
			},
		},
	})
	if err != nil {
		m.logger.Debug("No DNS servers found", "error", err)
		return parsers.NewDNSSettings(""), nil
	}
	return settings, nil
}

// resolvConfSettings reads the resolver file netpanel writes to, falling
// back to /etc/resolv.conf. Unreadable files give empty settings.
func (m *manager) resolvConfSettings() *types.DNSSettings {
	for _, path := range []string{m.cfg.ResolvConfFallbackPath, resolvConfPath} {
		if path == "" {
			continue
		}
		data, err := m.readFile(path)
		if err != nil {
			continue
		}
		if s := parsers.ParseResolvConf(string(data)); s.Primary != "" {
			return s
		}
	}
	return parsers.NewDNSSettings(parsers.SourceResolvConf)
}

// SetDNS sets the global resolvers on the profile that owns the default
// route. When that chain breaks anywhere the servers are written to the
// resolver file instead and the result says so.
func (m *manager) SetDNS(ctx context.Context, req types.DNSRequest) (*types.DNSUpdateResult, error) {
	servers, search, err := validateDNSRequest(req)
	if err != nil {
		return nil, err
	}

	result, out, err := RunStrategies(ctx, m.logger, "dns_set", []Strategy[*types.DNSUpdateResult]{
		{
			Name:       "default-route-profile",
			Applicable: m.useNM,
			Run: func(ctx context.Context) (*types.DNSUpdateResult, error) {
				return m.setProfileDNS(ctx, servers, search)
			},
		},
		{
			Name: "resolver-file",
			Run: func(ctx context.Context) (*types.DNSUpdateResult, error) {
				if err := m.writeResolverFile(ctx, servers, search); err != nil {
					return nil, err
				}
				return &types.DNSUpdateResult{
					Success:  true,
					Message:  fmt.Sprintf("DNS written to %s", m.cfg.ResolvConfFallbackPath),
					Fallback: true,
					Warning:  resolverFileWarning,
				}, nil
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.NetworkDNSConfigurationFailed).
			WithMetadata("attempted", strings.Join(out.Attempted, ","))
	}
	result.Strategy = out.Strategy
	if result.Fallback {
		m.logger.Warn("DNS written to resolver file", "path", m.cfg.ResolvConfFallbackPath, "servers", servers)
	} else {
		m.logger.Info("DNS updated", "device", result.Device, "profile", result.Profile, "servers", servers)
	}
	return result, nil
}

func validateDNSRequest(req types.DNSRequest) ([]string, []string, error) {
	primary := strings.TrimSpace(req.Primary)
	secondary := strings.TrimSpace(req.Secondary)
	if primary == "" && secondary != "" {
		return nil, nil, errors.New(errors.NetworkDNSServerInvalid, "secondary DNS server given without a primary")
	}

	var servers []string
	for _, s := range []struct{ name, value string }{{"primary", primary}, {"secondary", secondary}} {
		if s.value == "" {
			continue
		}
		if err := validateNoComma(s.name, s.value); err != nil {
			return nil, nil, err
		}
		if !isIPv4(s.value) {
			return nil, nil, errors.New(errors.NetworkDNSServerInvalid,
				fmt.Sprintf("%s %q is not a valid IPv4 address", s.name, s.value)).
				WithMetadata("field", s.name)
		}
		servers = append(servers, s.value)
	}

	search := make([]string, 0, len(req.SearchDomains))
	for _, d := range req.SearchDomains {
		d = strings.TrimSuffix(strings.TrimSpace(d), ".")
		if d == "" {
			continue
		}
		if err := validateNoComma("searchDomains", d); err != nil {
			return nil, nil, err
		}
		if validateHostnameFormat(d) != nil {
			return nil, nil, errors.New(errors.NetworkSearchDomainInvalid, fmt.Sprintf("invalid search domain %q", d))
		}
		search = append(search, d)
	}
	return servers, search, nil
}

// setProfileDNS follows the default route to its device and from there to
// the active profile, then rewrites and reapplies that profile
func (m *manager) setProfileDNS(ctx context.Context, servers, search []string) (*types.DNSUpdateResult, error) {
	dev, _, err := RunStrategies(ctx, m.logger, "default_route_device", []Strategy[string]{
		{
			Name: "netlink",
			Run: func(context.Context) (string, error) {
				return m.defaultRouteDevice()
			},
		},
		{
			Name: "ip-route",
			Run: func(ctx context.Context) (string, error) {
				routes, err := m.ip.DefaultRoutes(ctx)
				if err != nil {
					return "", err
				}
				for _, r := range routes {
					if r.Interface != "" {
						return r.Interface, nil
					}
				}
				return "", errors.New(errors.NetworkRouteNotFound, "no default route")
			},
		},
	})
	if err != nil {
		return nil, err
	}

	profiles, err := m.listConnections(ctx)
	if err != nil {
		return nil, err
	}
	p := activeProfile(profiles, dev)
	if p == nil {
		return nil, errors.New(errors.NetworkConnectionNotFound,
			fmt.Sprintf("no active profile on %s", dev)).WithMetadata("device", dev)
	}

	ignoreAuto := "yes"
	if len(servers) == 0 {
		ignoreAuto = "no"
	}
	settings := []string{
		"ipv4.dns", strings.Join(servers, " "),
		"ipv4.dns-search", strings.Join(search, " "),
		"ipv4.ignore-auto-dns", ignoreAuto,
	}
	if err := m.modifyConnection(ctx, p.UUID, settings); err != nil {
		return nil, err
	}
	if err := m.activateConnection(ctx, p.UUID, dev); err != nil {
		return nil, err
	}
	return &types.DNSUpdateResult{
		Success: true,
		Message: fmt.Sprintf("DNS updated on %s", p.Name),
		Device:  dev,
		Profile: p.Name,
	}, nil
}

// writeResolverFile replaces the fallback resolver file
func (m *manager) writeResolverFile(ctx context.Context, servers, search []string) error {
	var b strings.Builder
	b.WriteString(resolverFileHeader)
	for _, s := range servers {
		fmt.Fprintf(&b, "nameserver %s\n", s)
	}
	if len(search) > 0 {
		fmt.Fprintf(&b, "search %s\n", strings.Join(search, " "))
	}
	if err := m.files.WriteFile(ctx, m.cfg.ResolvConfFallbackPath, []byte(b.String()), 0o644); err != nil {
		return errors.Wrap(err, errors.NetworkDNSConfigurationFailed).
			WithMetadata("path", m.cfg.ResolvConfFallbackPath)
	}
	return nil
}

// ProbeDNS resolves one name against a resolver, by default the current
// primary
func (m *manager) ProbeDNS(ctx context.Context, req types.DNSProbeRequest) (*types.DNSProbeResult, error) {
	name := strings.TrimSpace(req.Name)
	if err := validateHostnameFormat(strings.TrimSuffix(name, ".")); err != nil {
		return nil, errors.New(errors.DiagnosticTargetInvalid, fmt.Sprintf("invalid name %q", name))
	}

	typeName := strings.ToUpper(strings.TrimSpace(req.Type))
	if typeName == "" {
		typeName = "A"
	}
	qtype, ok := dns.StringToType[typeName]
	if !ok {
		return nil, errors.New(errors.ServerRequestValidation, fmt.Sprintf("unknown record type %q", req.Type))
	}

	server := strings.TrimSpace(req.Server)
	if server == "" {
		settings, _ := m.GetDNS(ctx)
		if settings == nil || settings.Primary == "" {
			return nil, errors.New(errors.DiagnosticDNSFailed, "no DNS server configured")
		}
		server = settings.Primary
	}
	if net.ParseIP(server) == nil {
		return nil, errors.New(errors.NetworkDNSServerInvalid, fmt.Sprintf("invalid DNS server %q", server))
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	resp, rtt, err := m.dnsExchange(ctx, msg, net.JoinHostPort(server, "53"))
	if err != nil {
		return nil, errors.Wrap(err, errors.DiagnosticDNSFailed).
			WithMetadata("server", server).
			WithMetadata("name", name)
	}

	result := &types.DNSProbeResult{
		Name:    dns.Fqdn(name),
		Type:    typeName,
		Server:  server,
		Rcode:   dns.RcodeToString[resp.Rcode],
		Answers: []string{},
		RTTMs:   float64(rtt.Microseconds()) / 1000,
	}
	for _, rr := range resp.Answer {
		result.Answers = append(result.Answers, rr.String())
	}
	m.logger.Debug("DNS probe", "name", name, "type", typeName, "server", server, "rcode", result.Rcode)
	return result, nil
}

func exchangeDNS(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, time.Duration, error) {
	c := &dns.Client{Net: "udp", Timeout: dnsProbeTimeout}
	return c.ExchangeContext(ctx, msg, server)
}
