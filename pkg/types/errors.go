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

package types

import "errors"

var (
	// ErrUnknownProtocol is returned when a protocol name cannot be parsed.
	ErrUnknownProtocol = errors.New("types: unknown protocol")

	// ErrInvalidProtocolRange is returned when a protocol range has a
	// minimum bound greater than its maximum bound.
	ErrInvalidProtocolRange = errors.New("types: invalid protocol range")

	// ErrUnknownHashAlgorithm is returned when a digest is requested with
	// an unrecognized algorithm identifier.
	ErrUnknownHashAlgorithm = errors.New("types: unknown hash algorithm")

	// ErrInvalidFingerprintLength is returned when a decoded fingerprint is
	// neither 20 (SHA-1) nor 32 (SHA-256) bytes long.
	ErrInvalidFingerprintLength = errors.New("types: invalid fingerprint length")
)
