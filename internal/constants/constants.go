// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package constants

// Build-time variables set via ldflags
var (
	Version   = "v0.0.1-dev" // Set via -X flag during build
	CommitSHA = "unknown"    // Set via -X flag during build
	BuildTime = "unknown"    // Set via -X flag during build
)

const (
	NetpanelVersion     = "v0.0.1"
	NetpanelPIDFilePath = "/run/netpanel/netpanel.pid"

	// config
	ConfigFileName = "netpanel.yml"
	ConfigEnvVar   = "NETPANEL_CONFIG"
	EnvPrefix      = "NETPANEL"

	// routes
	APIBase    = "/api"
	APIHealth  = APIBase + "/health"
	APINetwork = APIBase + "/network"
	APIMetrics = "/metrics"

	// Default locations of files the agent writes or reads
	DefaultResolvConfPath    = "/etc/resolv.conf"
	DefaultTimesyncdDropIn   = "/etc/systemd/timesyncd.conf.d/netpanel.conf"
	DefaultFirewallLogPath   = "/var/log/ufw.log"
	ProcNetDevPath           = "/proc/net/dev"
	DefaultConnectionPrefix  = "netpanel-"
	DefaultCommandSearchPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"
)
