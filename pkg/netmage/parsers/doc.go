// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package parsers turns the text output of nmcli, ip, ss, ufw, ping,
// traceroute, resolvectl, timedatectl and hostnamectl into records.
//
// Every function is pure. Lines that cannot be interpreted are skipped;
// only output that is unusable as a whole (invalid JSON) is an error.
// Absent values are left zero.
package parsers
