// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-native-tls.
//
// go-native-tls is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package types defines the protocol version enumeration, protocol range
// negotiation, and hash algorithm identifiers shared across the TLS
// session layer.
package types

import (
	"fmt"
)

// Protocol identifies a TLS protocol version. The numeric values and their
// order match the engine's supported-protocol enumeration; range
// intersection relies on this order and it must not be rearranged.
type Protocol int

const (
	// ProtocolSSL3 is SSL version 3.0 (legacy).
	ProtocolSSL3 Protocol = iota

	// ProtocolTLS10 is TLS version 1.0.
	ProtocolTLS10

	// ProtocolTLS11 is TLS version 1.1.
	ProtocolTLS11

	// ProtocolTLS12 is TLS version 1.2.
	ProtocolTLS12

	// ProtocolTLS13 is TLS version 1.3. Newer versions are appended at the
	// tail of the enumeration.
	ProtocolTLS13
)

// SupportedProtocols is the global ordered enumeration of protocol versions
// the session layer knows about, oldest first.
var SupportedProtocols = []Protocol{
	ProtocolSSL3,
	ProtocolTLS10,
	ProtocolTLS11,
	ProtocolTLS12,
	ProtocolTLS13,
}

// String returns the conventional protocol name.
func (p Protocol) String() string {
	switch p {
	case ProtocolSSL3:
		return "SSLv3"
	case ProtocolTLS10:
		return "TLSv1.0"
	case ProtocolTLS11:
		return "TLSv1.1"
	case ProtocolTLS12:
		return "TLSv1.2"
	case ProtocolTLS13:
		return "TLSv1.3"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// ParseProtocol converts a protocol name to its Protocol value.
func ParseProtocol(s string) (Protocol, error) {
	for _, p := range SupportedProtocols {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProtocol, s)
}

// ProtocolRange is an inclusive [Min, Max] range over the protocol
// enumeration. A nil bound leaves that end of the range open.
type ProtocolRange struct {
	Min *Protocol
	Max *Protocol
}

// Validate checks that Min does not exceed Max when both bounds are set.
func (r ProtocolRange) Validate() error {
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return fmt.Errorf("%w: min %s exceeds max %s", ErrInvalidProtocolRange, *r.Min, *r.Max)
	}
	return nil
}

// Enabled returns the intersection of the supported-protocol enumeration
// with the range, preserving enumeration order. The result is empty when
// the range excludes every supported version; callers treat an empty
// result as a configuration error.
func (r ProtocolRange) Enabled(supported []Protocol) []Protocol {
	var enabled []Protocol
	for _, p := range supported {
		if r.Min != nil && p < *r.Min {
			continue
		}
		if r.Max != nil && p > *r.Max {
			continue
		}
		enabled = append(enabled, p)
	}
	return enabled
}

// ProtocolPtr returns a pointer to p, for use as a ProtocolRange bound.
func ProtocolPtr(p Protocol) *Protocol {
	return &p
}
