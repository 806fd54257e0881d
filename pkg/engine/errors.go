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

package engine

import "errors"

var (
	// ErrWouldBlock signals a suspended handshake: the engine needs the
	// transport to make progress before the handshake can continue. It is
	// a resumable condition, not a failure.
	ErrWouldBlock = errors.New("engine: handshake would block")

	// ErrNoCredentials signals that no certificate is associated with the
	// requested side of the session. The session layer converts it to an
	// absence value at exactly two call sites (peer certificate retrieval
	// and channel binding derivation); it is never surfaced as a generic
	// failure there.
	ErrNoCredentials = errors.New("engine: no credentials")

	// ErrIdentityRequired is returned when an inbound credential is
	// acquired without an identity.
	ErrIdentityRequired = errors.New("engine: inbound credential requires an identity")

	// ErrNoProtocols is returned when a credential is acquired with an
	// empty protocol set.
	ErrNoProtocols = errors.New("engine: no protocols enabled")
)
