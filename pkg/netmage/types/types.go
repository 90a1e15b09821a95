// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"context"
)

// InterfaceKind is the closed set of device types. It is decided once when
// tool output is parsed and carried on the Interface from then on.
type InterfaceKind string

const (
	KindEthernet InterfaceKind = "ethernet"
	KindWifi     InterfaceKind = "wifi"
	KindBridge   InterfaceKind = "bridge"
	KindBond     InterfaceKind = "bond"
	KindVLAN     InterfaceKind = "vlan"
	KindVirtual  InterfaceKind = "virtual"
	KindTunnel   InterfaceKind = "tunnel"
	KindLoopback InterfaceKind = "loopback"
	KindUnknown  InterfaceKind = "unknown"
)

// AdminState is a device's state as reported by the network daemon
type AdminState string

const (
	StateUp          AdminState = "up"
	StateDown        AdminState = "down"
	StateActivating  AdminState = "activating"
	StateUnavailable AdminState = "unavailable"
	StateUnmanaged   AdminState = "unmanaged"
	StateUnknown     AdminState = "unknown"
)

// ConfigMethod is how a device obtains its IPv4 address
type ConfigMethod string

const (
	MethodDHCP   ConfigMethod = "dhcp"
	MethodStatic ConfigMethod = "static"
)

// Backend names which toolchain drives interface changes
type Backend string

const (
	BackendNetworkManager Backend = "networkmanager"
	BackendIPRoute        Backend = "iproute2"
)

// Interface is a kernel-visible network device. Read fresh on every query.
type Interface struct {
	Name         string        `json:"name"`
	MACAddress   string        `json:"macAddress"`
	Kind         InterfaceKind `json:"kind"`
	AdminState   AdminState    `json:"adminState"`
	IPv4Address  string        `json:"ipv4Address"`
	PrefixLength int           `json:"prefixLength"`
	Netmask      string        `json:"netmask"`
	Gateway      string        `json:"gateway"`
	DNSServers   []string      `json:"dnsServers"`
	ConfigMethod ConfigMethod  `json:"configMethod"`
	Connection   string        `json:"connection,omitempty"`
	SSID         string        `json:"ssid,omitempty"`
	MTU          int           `json:"mtu,omitempty"`
}

// ConnectionProfile is a saved NetworkManager connection. Zero or more can
// exist per device.
type ConnectionProfile struct {
	Name       string        `json:"name"`
	UUID       string        `json:"uuid"`
	Type       string        `json:"type"`
	Kind       InterfaceKind `json:"kind"`
	Device     string        `json:"device,omitempty"` // device it is active on
	Active     bool          `json:"active"`
	Timestamp  int64         `json:"timestamp"`
	BoundTo    string        `json:"boundTo,omitempty"` // connection.interface-name
	SSID       string        `json:"ssid,omitempty"`
	IPv4Method string        `json:"ipv4Method,omitempty"`
	Addresses  []string      `json:"addresses,omitempty"`
	Gateway    string        `json:"gateway,omitempty"`
	DNSServers []string      `json:"dnsServers,omitempty"`
}

// Ref returns the most specific handle nmcli accepts for the profile.
// Names can be duplicated, UUIDs cannot.
func (p *ConnectionProfile) Ref() string {
	if p.UUID != "" {
		return p.UUID
	}
	return p.Name
}

// DeviceStatus is one row of `nmcli device status`
type DeviceStatus struct {
	Device     string        `json:"device"`
	Type       string        `json:"type"`
	Kind       InterfaceKind `json:"kind"`
	State      AdminState    `json:"state"`
	RawState   string        `json:"rawState"`
	Connection string        `json:"connection"`
}

// Route is one IPv4 routing table entry. ID is synthetic: the kernel has
// no stable route handle.
type Route struct {
	ID          string `json:"id"`
	Destination string `json:"destination"`
	Gateway     string `json:"gateway"`
	Interface   string `json:"interface"`
	Metric      int    `json:"metric"`
	Protocol    string `json:"protocol"`
	Scope       string `json:"scope,omitempty"`
	Source      string `json:"source,omitempty"`
	Table       string `json:"table,omitempty"`
	Type        string `json:"type,omitempty"`
}

// DNSServerPair holds the first two resolvers of a scope
type DNSServerPair struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// DNSSettings is the global resolver view plus per-interface servers
type DNSSettings struct {
	Primary       string                   `json:"primary"`
	Secondary     string                   `json:"secondary"`
	SearchDomains []string                 `json:"searchDomains"`
	Interfaces    map[string]DNSServerPair `json:"interfaces"`
	Source        string                   `json:"source"`
}

// FirewallRule is one numbered ufw rule. Number shifts when rules are
// deleted; callers must not cache it across mutations.
type FirewallRule struct {
	Number    int    `json:"number"`
	To        string `json:"to"`
	Action    string `json:"action"`
	Direction string `json:"direction"`
	Protocol  string `json:"protocol,omitempty"`
	Port      string `json:"port,omitempty"`
	Service   string `json:"service,omitempty"`
	From      string `json:"from"`
	Comment   string `json:"comment,omitempty"`
	IPv6      bool   `json:"ipv6"`
}

// FirewallDefaults are ufw's default policies
type FirewallDefaults struct {
	Incoming string `json:"incoming"`
	Outgoing string `json:"outgoing"`
	Routed   string `json:"routed"`
}

// FirewallStatus is the combined output of ufw status numbered and verbose
type FirewallStatus struct {
	Active   bool             `json:"active"`
	Logging  string           `json:"logging,omitempty"`
	Defaults FirewallDefaults `json:"defaults"`
	Rules    []FirewallRule   `json:"rules"`
}

// FirewallLogs is a tail of firewall log lines
type FirewallLogs struct {
	Lines  []string `json:"lines"`
	Source string   `json:"source"`
}

// PingResult summarises an ICMP echo run. Fields the tool did not print
// are left zero.
type PingResult struct {
	Target      string  `json:"target"`
	Address     string  `json:"address,omitempty"`
	Transmitted int     `json:"transmitted"`
	Received    int     `json:"received"`
	PacketLoss  float64 `json:"packetLoss"`
	MinRTT      float64 `json:"minRtt"`
	AvgRTT      float64 `json:"avgRtt"`
	MaxRTT      float64 `json:"maxRtt"`
	MdevRTT     float64 `json:"mdevRtt"`
	Strategy    string  `json:"strategy"`
	Output      string  `json:"output,omitempty"`
}

// TracerouteHop is one TTL step. Probes that timed out are absent from
// RTTs and counted in Timeouts.
type TracerouteHop struct {
	Hop      int       `json:"hop"`
	Address  string    `json:"address,omitempty"`
	RTTs     []float64 `json:"rtts"`
	Timeouts int       `json:"timeouts"`
}

// TracerouteResult is the parsed traceroute output
type TracerouteResult struct {
	Target  string          `json:"target"`
	Address string          `json:"address,omitempty"`
	MaxHops int             `json:"maxHops"`
	Hops    []TracerouteHop `json:"hops"`
	Output  string          `json:"output,omitempty"`
}

// DNSProbeResult is the answer to a single DNS query
type DNSProbeResult struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Server  string   `json:"server"`
	Rcode   string   `json:"rcode"`
	Answers []string `json:"answers"`
	RTTMs   float64  `json:"rttMs"`
}

// InterfaceCounters are the /proc/net/dev counters of one device
type InterfaceCounters struct {
	Interface string `json:"interface"`
	RxBytes   uint64 `json:"rxBytes"`
	RxPackets uint64 `json:"rxPackets"`
	RxErrors  uint64 `json:"rxErrors"`
	RxDropped uint64 `json:"rxDropped"`
	TxBytes   uint64 `json:"txBytes"`
	TxPackets uint64 `json:"txPackets"`
	TxErrors  uint64 `json:"txErrors"`
	TxDropped uint64 `json:"txDropped"`
}

// Socket is one row of ss output
type Socket struct {
	Netid string `json:"netid"`
	State string `json:"state"`
	RecvQ int    `json:"recvQ"`
	SendQ int    `json:"sendQ"`
	Local string `json:"local"`
	Peer  string `json:"peer"`
}

// ConnectionCounts summarises sockets by protocol and state
type ConnectionCounts struct {
	TCPEstablished int `json:"tcpEstablished"`
	TCPListening   int `json:"tcpListening"`
	TCPOther       int `json:"tcpOther"`
	UDP            int `json:"udp"`
	Total          int `json:"total"`
}

// Statistics is the response of the statistics endpoint
type Statistics struct {
	Interfaces  []InterfaceCounters `json:"interfaces"`
	Connections ConnectionCounts    `json:"connections"`
}

// NTPProbe is the outcome of querying one NTP server directly
type NTPProbe struct {
	Server   string  `json:"server"`
	OffsetMs float64 `json:"offsetMs"`
	RTTMs    float64 `json:"rttMs"`
	Stratum  int     `json:"stratum"`
	Error    string  `json:"error,omitempty"`
}

// NTPStatus is the time synchronisation state
type NTPStatus struct {
	Enabled         bool      `json:"enabled"`
	Synchronized    bool      `json:"synchronized"`
	Timezone        string    `json:"timezone"`
	Servers         []string  `json:"servers"`
	FallbackServers []string  `json:"fallbackServers"`
	CurrentServer   string    `json:"currentServer"`
	Probe           *NTPProbe `json:"probe,omitempty"`
}

// HostnameInfo is parsed from hostnamectl
type HostnameInfo struct {
	Static          string `json:"static"`
	Transient       string `json:"transient,omitempty"`
	Pretty          string `json:"pretty,omitempty"`
	IconName        string `json:"iconName,omitempty"`
	Chassis         string `json:"chassis,omitempty"`
	MachineID       string `json:"machineId,omitempty"`
	BootID          string `json:"bootId,omitempty"`
	OperatingSystem string `json:"operatingSystem,omitempty"`
	Kernel          string `json:"kernel,omitempty"`
}

// WifiNetwork is one visible access point
type WifiNetwork struct {
	SSID     string `json:"ssid"`
	Signal   int    `json:"signal"`
	Security string `json:"security"`
	Active   bool   `json:"active"`
}

// Capabilities records which tools were found at startup. It is never
// re-probed per request.
type Capabilities struct {
	HasNmcli       bool    `json:"nmcli"`
	HasIP          bool    `json:"ip"`
	HasUfw         bool    `json:"ufw"`
	HasResolvectl  bool    `json:"resolvectl"`
	HasTimedatectl bool    `json:"timedatectl"`
	HasHostnamectl bool    `json:"hostnamectl"`
	HasSS          bool    `json:"ss"`
	HasPing        bool    `json:"ping"`
	HasTraceroute  bool    `json:"traceroute"`
	HasJournalctl  bool    `json:"journalctl"`
	HasSystemctl   bool    `json:"systemctl"`
	Backend        Backend `json:"backend"`
}

// Request bodies. Binding tags are enforced by the HTTP layer; the manager
// re-validates so non-HTTP callers get the same guarantees.

// InterfaceConfigRequest is the desired IPv4 configuration of a device.
// An empty address selects DHCP. Address may carry a /prefix in place of
// Netmask. Resolvers are IPv4 since they are written to ipv4.dns.
type InterfaceConfigRequest struct {
	Address string `json:"address" binding:"omitempty,nocomma,ipv4host"`
	Netmask string `json:"netmask" binding:"omitempty,nocomma,netmask"`
	Gateway string `json:"gateway" binding:"omitempty,nocomma,ipv4"`
	DNS1    string `json:"dns1" binding:"omitempty,nocomma,ipv4"`
	DNS2    string `json:"dns2" binding:"omitempty,nocomma,ipv4"`
}

// RouteRequest adds a static route
type RouteRequest struct {
	Destination string `json:"destination" binding:"required,nocomma"`
	Interface   string `json:"interface" binding:"required,nocomma"`
	Gateway     string `json:"gateway" binding:"omitempty,nocomma,ipv4"`
	Metric      *int   `json:"metric" binding:"omitempty,min=0"`
}

// DNSRequest replaces the global resolver configuration. Servers are IPv4
// because the profile strategy writes them to ipv4.dns.
type DNSRequest struct {
	Primary       string   `json:"primary" binding:"omitempty,nocomma,ipv4"`
	Secondary     string   `json:"secondary" binding:"omitempty,nocomma,ipv4"`
	SearchDomains []string `json:"searchDomains" binding:"omitempty,max=6,dive,nocomma"`
}

// DNSProbeRequest asks for a single DNS lookup
type DNSProbeRequest struct {
	Name   string `json:"name" binding:"required,nocomma"`
	Type   string `json:"type" binding:"omitempty,alpha"`
	Server string `json:"server" binding:"omitempty,nocomma,ip"`
}

// PingRequest runs an ICMP echo test
type PingRequest struct {
	Target string `json:"target" binding:"required,nocomma"`
	Count  int    `json:"count" binding:"omitempty,min=1,max=20"`
}

// TracerouteRequest runs a path trace
type TracerouteRequest struct {
	Target  string `json:"target" binding:"required,nocomma"`
	MaxHops int    `json:"maxHops" binding:"omitempty,min=1,max=64"`
}

// FirewallDefaultRequest changes one ufw default policy
type FirewallDefaultRequest struct {
	Policy    string `json:"policy" binding:"required,oneof=allow deny reject"`
	Direction string `json:"direction" binding:"required,oneof=incoming outgoing routed"`
}

// FirewallRuleRequest adds a ufw rule. Either Port or Service is required.
type FirewallRuleRequest struct {
	Action    string `json:"action" binding:"required,oneof=allow deny reject limit"`
	Direction string `json:"direction" binding:"omitempty,oneof=in out"`
	Protocol  string `json:"protocol" binding:"omitempty,oneof=tcp udp any"`
	Port      string `json:"port" binding:"omitempty,nocomma"`
	Service   string `json:"service" binding:"omitempty,nocomma"`
	From      string `json:"from" binding:"omitempty,nocomma"`
	To        string `json:"to" binding:"omitempty,nocomma"`
	Comment   string `json:"comment" binding:"omitempty,max=64"`
}

// NTPRequest updates time synchronisation
type NTPRequest struct {
	Enabled *bool    `json:"enabled"`
	Servers []string `json:"servers" binding:"omitempty,max=8,dive,nocomma"`
}

// HostnameRequest changes the system hostname
type HostnameRequest struct {
	Hostname string `json:"hostname" binding:"required,nocomma"`
	Pretty   string `json:"pretty" binding:"max=255"`
}

// Results

// ConfigureResult reports what a configure request changed
type ConfigureResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Backend Backend      `json:"backend"`
	Profile string       `json:"profile,omitempty"`
	Created bool         `json:"created"`
	Deleted []string     `json:"deleted"`
	SSID    string       `json:"ssid,omitempty"`
	Method  ConfigMethod `json:"method"`
}

// ToggleResult reports a connect or disconnect
type ToggleResult struct {
	Success               bool          `json:"success"`
	Message               string        `json:"message"`
	Action                string        `json:"action"`
	Strategy              string        `json:"strategy,omitempty"`
	NeedsNetworkSelection bool          `json:"needsNetworkSelection,omitempty"`
	Networks              []WifiNetwork `json:"networks,omitempty"`
}

// RouteDeleteResult reports which deletion strategy removed the route
type RouteDeleteResult struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Strategy  string   `json:"strategy"`
	Attempted []string `json:"attempted"`
	Route     *Route   `json:"route"`
}

// DNSUpdateResult reports where DNS settings were written
type DNSUpdateResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Strategy string `json:"strategy"`
	Fallback bool   `json:"fallback"`
	Warning  string `json:"warning,omitempty"`
	Device   string `json:"device,omitempty"`
	Profile  string `json:"profile,omitempty"`
}

// HostnameResult reports a hostname change. PrettyApplied is false when a
// requested pretty name could not be set; the static hostname still changed.
type HostnameResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Hostname      string `json:"hostname"`
	Pretty        string `json:"pretty,omitempty"`
	PrettyApplied bool   `json:"prettyApplied"`
	Warning       string `json:"warning,omitempty"`
}

// Manager is everything the HTTP layer can ask of the network backend
type Manager interface {
	Capabilities() Capabilities

	ListInterfaces(ctx context.Context) ([]*Interface, error)
	GetInterface(ctx context.Context, name string) (*Interface, error)
	ConfigureInterface(ctx context.Context, name string, req InterfaceConfigRequest) (*ConfigureResult, error)
	ToggleInterface(ctx context.Context, name string) (*ToggleResult, error)

	ListRoutes(ctx context.Context) ([]*Route, error)
	AddRoute(ctx context.Context, req RouteRequest) (*Route, error)
	DeleteRoute(ctx context.Context, id string) (*RouteDeleteResult, error)

	GetDNS(ctx context.Context) (*DNSSettings, error)
	SetDNS(ctx context.Context, req DNSRequest) (*DNSUpdateResult, error)
	ProbeDNS(ctx context.Context, req DNSProbeRequest) (*DNSProbeResult, error)

	Ping(ctx context.Context, req PingRequest) (*PingResult, error)
	Traceroute(ctx context.Context, req TracerouteRequest) (*TracerouteResult, error)
	GetStatistics(ctx context.Context) (*Statistics, error)

	FirewallStatus(ctx context.Context) (*FirewallStatus, error)
	EnableFirewall(ctx context.Context) error
	DisableFirewall(ctx context.Context) error
	ResetFirewall(ctx context.Context) error
	SetFirewallDefault(ctx context.Context, req FirewallDefaultRequest) error
	AddFirewallRule(ctx context.Context, req FirewallRuleRequest) error
	DeleteFirewallRule(ctx context.Context, number int) error
	FirewallLogs(ctx context.Context, lines int) (*FirewallLogs, error)

	GetNTP(ctx context.Context, probe bool) (*NTPStatus, error)
	SetNTP(ctx context.Context, req NTPRequest) (*NTPStatus, error)

	GetHostname(ctx context.Context) (*HostnameInfo, error)
	SetHostname(ctx context.Context, req HostnameRequest) (*HostnameResult, error)
}
