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

package identity

import "errors"

var (
	// ErrNoIdentityFound is returned when no certificate in the scanned
	// store has a present and matched private key (or, for store
	// references, the requested fingerprint).
	ErrNoIdentityFound = errors.New("identity: no identity found")

	// ErrMissingPrivateKey is returned when the referenced certificate
	// exists but its private key is absent or does not match.
	ErrMissingPrivateKey = errors.New("identity: missing or invalid private key property")

	// ErrEmptyChain is returned when a certificate chain contains no leaf.
	ErrEmptyChain = errors.New("identity: empty certificate chain")

	// ErrInvalidReference is returned when an engine reference string does
	// not match the reference grammar.
	ErrInvalidReference = errors.New("identity: invalid engine reference")

	// ErrInvalidHex is returned when a fingerprint is not valid hex.
	ErrInvalidHex = errors.New("identity: invalid hex fingerprint")
)
