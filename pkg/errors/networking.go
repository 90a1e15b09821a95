// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"maps"
	"net/http"
)

const (
	DomainNetwork Domain = "NETWORK"
)

// Network error codes (1900-1999)
const (
	// General networking errors (1900-1919)
	NetworkOperationFailed          = 1900 + iota // Generic network operation failed
	_                                             // retired
	_                                             // retired
	NetworkInterfaceNotFound                      // Network interface not found
	_                                             // retired
	NetworkAddressInvalid                         // Invalid network address
	NetworkRouteOperationFailed                   // Network route operation failed
	NetworkRouteNotFound                          // Network route not found
	NetworkDNSConfigurationFailed                 // DNS configuration failed
	_                                             // retired
	_                                             // retired
	_                                             // retired
	_                                             // retired
	_                                             // retired
	NetworkFeatureUnsupported                     // Network feature not supported
	NetworkBackendError                           // Network backend error
	NetworkNTPConfigurationFailed                 // NTP configuration failed
)

const (
	// NetworkManager connection profile errors (1920-1939)
	NMCommandFailed               = 1920 + iota // nmcli invocation failed
	NMCommandNotFound                           // nmcli not installed
	NetworkConnectionNotFound                   // No connection profile owns the device
	NetworkWifiAssociationMissing               // WiFi device is not associated to any SSID
	NetworkActivationFailed                     // Connection profile could not be activated
	NetworkConnectionCreateFailed               // Connection profile could not be created
	NetworkConnectionModifyFailed               // Connection profile could not be modified
	NetworkConnectionDeleteFailed               // Connection profile could not be deleted
	NetworkDeviceToggleFailed                   // Device connect/disconnect failed
	NetworkDeviceUnmanaged                      // Device is not managed by NetworkManager
)

const (
	// Firewall errors (1940-1949)
	FirewallCommandFailed  = 1940 + iota // ufw invocation failed
	FirewallNotAvailable                 // ufw not installed
	FirewallRuleInvalid                  // Invalid firewall rule
	FirewallRuleNotFound                 // Firewall rule not found
	FirewallPolicyInvalid                // Invalid default policy
	FirewallLogUnavailable               // Firewall log could not be read
)

const (
	// IP command errors (1950-1969)
	IPCommandFailed          = 1950 + iota // IP command failed
	IPLinkOperationFailed                  // IP link operation failed
	IPAddressOperationFailed               // IP address operation failed
	IPRouteOperationFailed                 // IP route operation failed
	IPJSONParseError                       // IP command JSON parsing error
)

const (
	// Diagnostics errors (1970-1979)
	DiagnosticPingFailed       = 1970 + iota // Ping failed
	DiagnosticTracerouteFailed               // Traceroute failed
	DiagnosticDNSFailed                      // DNS probe failed
	DiagnosticNTPFailed                      // NTP probe failed
	DiagnosticTargetInvalid                  // Invalid diagnostic target
)

const (
	// Network validation errors (1980-1999)
	NetworkIPAddressInvalid     = 1980 + iota // Invalid IP address format
	NetworkCIDRInvalid                        // Invalid CIDR notation
	_                                         // retired
	NetworkPortInvalid                        // Invalid port number
	NetworkHostnameInvalid                    // Invalid hostname format
	NetworkNetmaskInvalid                     // Invalid netmask
	NetworkGatewayInvalid                     // Invalid gateway address
	NetworkDNSServerInvalid                   // Invalid DNS server address
	NetworkSearchDomainInvalid                // Invalid search domain
	NetworkInterfaceNameInvalid               // Invalid interface name
	NetworkMetricInvalid                      // Invalid route metric
	NetworkPrefixLengthInvalid                // Invalid prefix length
	NetworkProtocolInvalid                    // Invalid network protocol
	NetworkFieldContainsComma                 // Address-typed field contains a comma
)

func init() {
	// Register network error definitions
	networkErrorDefinitions := map[ErrorCode]struct {
		message    string
		domain     Domain
		httpStatus int
	}{
		// General networking errors
		NetworkOperationFailed: {
			"Network operation failed",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		NetworkInterfaceNotFound: {
			"Network interface not found",
			DomainNetwork,
			http.StatusNotFound,
		},
		NetworkAddressInvalid: {
			"Invalid network address",
			DomainNetwork,
			http.StatusBadRequest,
		},
		NetworkRouteOperationFailed: {
			"Network route operation failed",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		NetworkRouteNotFound: {
			"Network route not found",
			DomainNetwork,
			http.StatusNotFound,
		},
		NetworkDNSConfigurationFailed: {
			"DNS configuration failed",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		NetworkFeatureUnsupported: {
			"Network feature not supported",
			DomainNetwork,
			http.StatusNotImplemented,
		},
		NetworkBackendError: {
			"Network backend error",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		NetworkNTPConfigurationFailed: {
			"NTP configuration failed",
			DomainNetwork,
			http.StatusInternalServerError,
		},

		// NetworkManager errors
		NMCommandFailed: {
			"NetworkManager command failed",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		NMCommandNotFound: {
			"NetworkManager is not available",
			DomainNetwork,
			http.StatusNotImplemented,
		},
		NetworkConnectionNotFound: {
			"No connection profile found for device",
			DomainNetwork,
			http.StatusNotFound,
		},
		NetworkWifiAssociationMissing: {
			"WiFi device is not associated with a network",
			DomainNetwork,
			http.StatusConflict,
		},
		NetworkActivationFailed: {
			"Failed to activate connection profile",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		NetworkConnectionCreateFailed: {
			"Failed to create connection profile",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		NetworkConnectionModifyFailed: {
			"Failed to modify connection profile",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		NetworkConnectionDeleteFailed: {
			"Failed to delete connection profile",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		NetworkDeviceToggleFailed: {
			"Failed to toggle network device",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		NetworkDeviceUnmanaged: {
			"Device is not managed by NetworkManager",
			DomainNetwork,
			http.StatusConflict,
		},

		// Firewall errors
		FirewallCommandFailed: {
			"Firewall command failed",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		FirewallNotAvailable: {
			"Firewall tool is not available",
			DomainNetwork,
			http.StatusNotImplemented,
		},
		FirewallRuleInvalid: {
			"Invalid firewall rule",
			DomainNetwork,
			http.StatusBadRequest,
		},
		FirewallRuleNotFound: {
			"Firewall rule not found",
			DomainNetwork,
			http.StatusNotFound,
		},
		FirewallPolicyInvalid: {
			"Invalid firewall default policy",
			DomainNetwork,
			http.StatusBadRequest,
		},
		FirewallLogUnavailable: {
			"Firewall log unavailable",
			DomainNetwork,
			http.StatusInternalServerError,
		},

		// IP command errors
		IPCommandFailed: {
			"IP command failed",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		IPLinkOperationFailed: {
			"IP link operation failed",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		IPAddressOperationFailed: {
			"IP address operation failed",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		IPRouteOperationFailed: {
			"IP route operation failed",
			DomainNetwork,
			http.StatusInternalServerError,
		},
		IPJSONParseError: {
			"Failed to parse IP command JSON output",
			DomainNetwork,
			http.StatusInternalServerError,
		},

		// Diagnostics errors
		DiagnosticPingFailed: {
			"Ping failed",
			DomainNetwork,
			http.StatusBadGateway,
		},
		DiagnosticTracerouteFailed: {
			"Traceroute failed",
			DomainNetwork,
			http.StatusBadGateway,
		},
		DiagnosticDNSFailed: {
			"DNS probe failed",
			DomainNetwork,
			http.StatusBadGateway,
		},
		DiagnosticNTPFailed: {
			"NTP probe failed",
			DomainNetwork,
			http.StatusBadGateway,
		},
		DiagnosticTargetInvalid: {
			"Invalid diagnostic target",
			DomainNetwork,
			http.StatusBadRequest,
		},

		// Validation errors
		NetworkIPAddressInvalid: {
			"Invalid IP address",
			DomainNetwork,
			http.StatusBadRequest,
		},
		NetworkCIDRInvalid: {
			"Invalid CIDR notation",
			DomainNetwork,
			http.StatusBadRequest,
		},
		NetworkPortInvalid: {
			"Invalid port",
			DomainNetwork,
			http.StatusBadRequest,
		},
		NetworkHostnameInvalid: {
			"Invalid hostname",
			DomainNetwork,
			http.StatusBadRequest,
		},
		NetworkNetmaskInvalid: {
			"Invalid netmask",
			DomainNetwork,
			http.StatusBadRequest,
		},
		NetworkGatewayInvalid: {
			"Invalid gateway address",
			DomainNetwork,
			http.StatusBadRequest,
		},
		NetworkDNSServerInvalid: {
			"Invalid DNS server address",
			DomainNetwork,
			http.StatusBadRequest,
		},
		NetworkSearchDomainInvalid: {
			"Invalid search domain",
			DomainNetwork,
			http.StatusBadRequest,
		},
		NetworkInterfaceNameInvalid: {
			"Invalid interface name",
			DomainNetwork,
			http.StatusBadRequest,
		},
		NetworkMetricInvalid: {
			"Invalid route metric",
			DomainNetwork,
			http.StatusBadRequest,
		},
		NetworkPrefixLengthInvalid: {
			"Invalid prefix length",
			DomainNetwork,
			http.StatusBadRequest,
		},
		NetworkProtocolInvalid: {
			"Invalid network protocol",
			DomainNetwork,
			http.StatusBadRequest,
		},
		NetworkFieldContainsComma: {
			"Address fields must not contain commas",
			DomainNetwork,
			http.StatusBadRequest,
		},
	}

	// Add to the global errorDefinitions map
	maps.Copy(errorDefinitions, networkErrorDefinitions)
}
