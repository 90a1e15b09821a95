/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package errors

import "net/http"

const (
	DomainConfig    Domain = "CONFIG"
	DomainServer    Domain = "SERVER"
	DomainCommand   Domain = "CMD"
	DomainHealth    Domain = "HEALTH"
	DomainLifecycle Domain = "LIFECYCLE"
	DomainMisc      Domain = "MISC"
	DomainSystem    Domain = "SYSTEM"
)

// ErrorCode represents unique error identifiers
type ErrorCode int

// Domain represents the subsystem where the error originated
type Domain string

type RodentError struct {
	Code       ErrorCode `json:"code"`
	Domain     Domain    `json:"domain"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	HTTPStatus int       `json:"-"`

	// Metadata carries command-specific context (command line, exit code,
	// stderr, interface, strategy) for logs and debugging.
	Metadata map[string]string `json:"metadata,omitempty"`

	cause error
}

// Error code ranges:
// 1000-1099: Configuration errors
// 1100-1199: Server errors
// 1300-1399: Command execution
// 1400-1499: Health check
// 1500-1599: Lifecycle management
// 1600-1699: Filesystem and lookup errors
// 1750-1799: Generic system errors
// 1900-1999: Networking (networking.go)
// 2100-2199: System management (system.go)
const (
	// Configuration Errors (1000-1099)
	ConfigLoadFailed         = 1000 + iota // Failed to load config
	ConfigWriteFailed                      // Failed to write config
	ConfigDirectoryError                   // Config directory error
	ConfigValidationFailed                 // Config validation failed
	ConfigMarshalFailed                    // Config serialization failed
	ConfigHomeDirectoryError               // Error getting home directory
)

const (
	// Server Errors (1100-1199)
	ServerStart             = 1100 + iota // Failed to start server
	ServerShutdown                        // Error during shutdown
	ServerBind                            // Failed to bind port
	ServerRequestValidation               // Request validation failed
	ServerResponseError                   // Response generation error
	ServerInternalError
	_              // retired
	ServerNotFound // No such route
	ServerMethodNotAllowed
)

const (
	// Command Execution (1300-1399)
	CommandNotFound     = 1300 + iota // Command not found
	CommandExecution                  // Execution failed
	CommandTimeout                    // Command timed out
	_                                 // retired
	CommandInvalidInput               // Invalid command input
	CommandOutputParse                // Output parsing failed
	_                                 // retired
	CommandContext                    // Context handling error
)

const (
	// Health Check (1400-1499)
	HealthCheckFailed = 1400 + iota // Health check failed
)

const (
	// Lifecycle Management (1500-1599)
	LifecyclePID     = 1500 + iota // PID file operation failed or another instance holds it
	LifecycleStartup               // Startup did not complete in time
	LifecycleDaemon                // Daemon operation failed
)

const (
	// Misc program errors (1600-1699)
	FSError       = 1600 + iota // Filesystem error
	NotFoundError               // Not found error
)

const (
	// Generic system errors (1750-1799)
	OperationFailed  = 1750 + iota // Generic operation failed
	PermissionDenied               // Permission denied
)

var errorDefinitions = map[ErrorCode]struct {
	message    string
	domain     Domain
	httpStatus int
}{
	OperationFailed:  {"Operation failed", DomainSystem, http.StatusInternalServerError},
	PermissionDenied: {"Permission denied", DomainSystem, http.StatusForbidden},

	// Configuration errors
	ConfigLoadFailed: {
		"Failed to load configuration",
		DomainConfig,
		http.StatusInternalServerError,
	},
	ConfigWriteFailed: {
		"Failed to write configuration",
		DomainConfig,
		http.StatusInternalServerError,
	},
	ConfigDirectoryError: {
		"Config directory error",
		DomainConfig,
		http.StatusInternalServerError,
	},
	ConfigValidationFailed: {
		"Configuration validation failed",
		DomainConfig,
		http.StatusBadRequest,
	},
	ConfigMarshalFailed: {
		"Failed to serialize configuration",
		DomainConfig,
		http.StatusInternalServerError,
	},
	ConfigHomeDirectoryError: {
		"Failed to get home directory",
		DomainConfig,
		http.StatusInternalServerError,
	},

	// Server errors
	ServerStart: {
		"Failed to start server",
		DomainServer,
		http.StatusInternalServerError,
	},
	ServerShutdown: {
		"Error during server shutdown",
		DomainServer,
		http.StatusInternalServerError,
	},
	ServerBind: {
		"Failed to bind server port",
		DomainServer,
		http.StatusInternalServerError,
	},
	ServerRequestValidation: {"Request validation failed", DomainServer, http.StatusBadRequest},
	ServerResponseError: {
		"Error generating response",
		DomainServer,
		http.StatusInternalServerError,
	},
	ServerInternalError: {
		"Internal server error",
		DomainServer,
		http.StatusInternalServerError,
	},
	ServerNotFound:         {"Resource not found", DomainServer, http.StatusNotFound},
	ServerMethodNotAllowed: {"Method not allowed", DomainServer, http.StatusMethodNotAllowed},

	// Command execution errors
	CommandNotFound: {"Command not found", DomainCommand, http.StatusNotImplemented},
	CommandExecution: {
		"Command execution failed",
		DomainCommand,
		http.StatusInternalServerError,
	},
	CommandTimeout:      {"Command timed out", DomainCommand, http.StatusGatewayTimeout},
	CommandInvalidInput: {"Invalid command input", DomainCommand, http.StatusBadRequest},
	CommandOutputParse: {
		"Failed to parse command output",
		DomainCommand,
		http.StatusInternalServerError,
	},
	CommandContext: {"Command context error", DomainCommand, http.StatusInternalServerError},

	// Health check errors
	HealthCheckFailed: {"Health check failed", DomainHealth, http.StatusServiceUnavailable},

	// Lifecycle errors
	LifecyclePID: {"PID file operation failed", DomainLifecycle, http.StatusInternalServerError},
	LifecycleStartup: {
		"Startup did not complete in time",
		DomainLifecycle,
		http.StatusServiceUnavailable,
	},
	LifecycleDaemon: {"Daemon operation failed", DomainLifecycle, http.StatusInternalServerError},

	// Misc errors
	FSError:       {"Filesystem error", DomainMisc, http.StatusInternalServerError},
	NotFoundError: {"Not found", DomainMisc, http.StatusNotFound},
}
