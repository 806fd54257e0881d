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

package tls

import "errors"

var (
	// ErrNoProtocolsEnabled is returned when the configured protocol range
	// intersected with the supported versions leaves nothing to negotiate.
	// It is reported before any transport I/O.
	ErrNoProtocolsEnabled = errors.New("tls: no protocol versions enabled")

	// ErrIdentityRequired is returned when an acceptor is built without an
	// identity.
	ErrIdentityRequired = errors.New("tls: acceptor requires an identity")

	// ErrUntrustedRoot is returned by the restricted-roots verification
	// policy when none of the user-specified roots appear in the final
	// certificate chain. It is distinct from the engine's own validation
	// failures, which are propagated unchanged.
	ErrUntrustedRoot = errors.New("tls: unable to find any user-specified roots in the final certificate chain")

	// ErrHandshakeConsumed is returned when Resume is called on a
	// handshake attempt that already completed or failed.
	ErrHandshakeConsumed = errors.New("tls: handshake attempt already consumed")

	// ErrSessionClosed is returned on operations against a closed session.
	ErrSessionClosed = errors.New("tls: session closed")
)
