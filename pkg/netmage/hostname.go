// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package netmage

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/stratastor/netpanel/pkg/errors"
	"github.com/stratastor/netpanel/pkg/netmage/parsers"
	"github.com/stratastor/netpanel/pkg/netmage/types"
)

var numericHostname = regexp.MustCompile(`^[0-9]+$`)

// GetHostname gets comprehensive hostname information
func (m *manager) GetHostname(ctx context.Context) (*types.HostnameInfo, error) {
	if !m.caps.HasHostnamectl {
		return nil, errors.New(errors.SystemOperationNotSupported, "hostnamectl is not installed")
	}
	res, err := m.run(ctx, "hostnamectl", "status")
	if err != nil {
		return nil, errors.Wrap(err, errors.SystemHostnameGetFailed).
			WithMetadata("operation", "get_hostname")
	}
	info := parsers.ParseHostnamectl(res.Stdout)
	return &info, nil
}

// SetHostname sets the static hostname and, when given, the pretty name.
// A pretty name that cannot be set does not undo the static change; the
// result reports it instead.
func (m *manager) SetHostname(ctx context.Context, req types.HostnameRequest) (*types.HostnameResult, error) {
	hostname := strings.TrimSpace(req.Hostname)
	if err := validateSystemHostname(hostname); err != nil {
		return nil, err
	}
	pretty := strings.TrimSpace(req.Pretty)
	if err := validatePrettyHostname(pretty); err != nil {
		return nil, err
	}
	if !m.caps.HasHostnamectl {
		return nil, errors.New(errors.SystemOperationNotSupported, "hostnamectl is not installed")
	}

	m.logger.Info("Setting system hostname", "hostname", hostname)
	if _, err := m.run(ctx, "hostnamectl", "set-hostname", hostname); err != nil {
		m.logger.Error("Failed to set hostname", "hostname", hostname, "error", err)
		return nil, errors.Wrap(err, errors.SystemHostnameSetFailed).
			WithMetadata("operation", "set_hostname").
			WithMetadata("hostname", hostname)
	}

	result := &types.HostnameResult{
		Success:  true,
		Message:  "Hostname updated",
		Hostname: hostname,
	}
	if pretty == "" {
		return result, nil
	}

	result.Pretty = pretty
	if _, err := m.run(ctx, "hostnamectl", "set-hostname", "--pretty", "--", pretty); err != nil {
		m.logger.Warn("Failed to set pretty hostname", "pretty", pretty, "error", err)
		result.Message = "Hostname updated; pretty name not applied"
		result.Warning = "pretty name not applied: " + errors.Wrap(err, errors.SystemHostnameSetFailed).Details
		return result, nil
	}
	result.PrettyApplied = true
	return result, nil
}

// validatePrettyHostname allows free text without control characters
func validatePrettyHostname(pretty string) error {
	if len(pretty) > 255 {
		return errors.New(errors.SystemHostnameInvalid, "pretty hostname too long (max 255 characters)")
	}
	for _, r := range pretty {
		if unicode.IsControl(r) {
			return errors.New(errors.SystemHostnameInvalid, "pretty hostname contains control characters")
		}
	}
	return nil
}

// validateSystemHostname applies RFC 1123 plus the restriction that a
// hostname may not be purely numeric
func validateSystemHostname(hostname string) error {
	if err := validateHostnameFormat(hostname); err != nil {
		return errors.Wrap(err, errors.SystemHostnameInvalid)
	}
	for _, label := range strings.Split(hostname, ".") {
		if len(label) > 63 {
			return errors.New(errors.SystemHostnameInvalid,
				fmt.Sprintf("hostname label '%s' too long (max 63 characters)", label))
		}
	}
	if numericHostname.MatchString(hostname) {
		return errors.New(errors.SystemHostnameInvalid, "hostname cannot be purely numeric")
	}
	return nil
}
