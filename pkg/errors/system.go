// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"maps"
	"net/http"
)

// System Management Error Codes (2100-2199)
const (
	// Hostname Management Errors (2120-2129)
	SystemHostnameInvalid   = 2120 + iota // Invalid hostname format
	SystemHostnameSetFailed               // Failed to set hostname
	SystemHostnameGetFailed               // Failed to get hostname
)

const (
	// Time synchronisation errors (2190-2199)
	SystemTimeSyncGetFailed = 2190 + iota // Failed to read time sync status
	SystemTimeSyncSetFailed               // Failed to change time sync settings
	SystemOperationNotSupported           // System operation not supported
)

func init() {
	systemErrorDefinitions := map[ErrorCode]struct {
		message    string
		domain     Domain
		httpStatus int
	}{
		SystemHostnameInvalid: {
			"Invalid hostname format",
			DomainSystem,
			http.StatusBadRequest,
		},
		SystemHostnameSetFailed: {
			"Failed to set hostname",
			DomainSystem,
			http.StatusInternalServerError,
		},
		SystemHostnameGetFailed: {
			"Failed to get hostname",
			DomainSystem,
			http.StatusInternalServerError,
		},
		SystemTimeSyncGetFailed: {
			"Failed to read time synchronisation status",
			DomainSystem,
			http.StatusInternalServerError,
		},
		SystemTimeSyncSetFailed: {
			"Failed to update time synchronisation settings",
			DomainSystem,
			http.StatusInternalServerError,
		},
		SystemOperationNotSupported: {
			"System operation not supported",
			DomainSystem,
			http.StatusNotImplemented,
		},
	}

	maps.Copy(errorDefinitions, systemErrorDefinitions)
}
