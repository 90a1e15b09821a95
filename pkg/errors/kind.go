// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import stderrors "errors"

// Kind groups error codes into the classes callers branch on.
type Kind string

const (
	KindExecution     Kind = "execution"     // process spawn, timeout or non-zero exit
	KindParse         Kind = "parse"         // tool output had an unexpected shape
	KindConfiguration Kind = "configuration" // semantic failure applying network state
	KindValidation    Kind = "validation"    // caller supplied bad or missing input
	KindInternal      Kind = "internal"
)

var codeKinds = map[ErrorCode]Kind{
	CommandNotFound:     KindExecution,
	CommandExecution:    KindExecution,
	CommandTimeout:      KindExecution,
	CommandContext:      KindExecution,
	CommandInvalidInput: KindValidation,

	CommandOutputParse: KindParse,
	IPJSONParseError:   KindParse,

	NetworkConnectionNotFound:     KindConfiguration,
	NetworkWifiAssociationMissing: KindConfiguration,
	NetworkActivationFailed:       KindConfiguration,
	NetworkConnectionCreateFailed: KindConfiguration,
	NetworkConnectionModifyFailed: KindConfiguration,
	NetworkConnectionDeleteFailed: KindConfiguration,
	NetworkDeviceToggleFailed:     KindConfiguration,
	NetworkDeviceUnmanaged:        KindConfiguration,
	NetworkDNSConfigurationFailed: KindConfiguration,
	NetworkNTPConfigurationFailed: KindConfiguration,

	ServerRequestValidation:  KindValidation,
	NetworkAddressInvalid:    KindValidation,
	NetworkInterfaceNotFound: KindValidation,
	NetworkRouteNotFound:     KindValidation,
	FirewallRuleInvalid:      KindValidation,
	FirewallRuleNotFound:     KindValidation,
	FirewallPolicyInvalid:    KindValidation,
	DiagnosticTargetInvalid:  KindValidation,
	SystemHostnameInvalid:    KindValidation,
}

// KindOf classifies err. The outermost code decides; when it carries no
// class of its own the wrapped causes are consulted, so a generic
// operation failure caused by a command exit is still an execution error.
func KindOf(err error) Kind {
	for err != nil {
		var re *RodentError
		if !stderrors.As(err, &re) {
			return KindInternal
		}
		if k, ok := codeKinds[re.Code]; ok {
			return k
		}
		if re.Code >= NetworkIPAddressInvalid && re.Code <= NetworkFieldContainsComma {
			return KindValidation
		}
		err = re.cause
	}
	return KindInternal
}
