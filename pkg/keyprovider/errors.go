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

package keyprovider

import "errors"

var (
	// ErrKeyNotFound is returned when no private key is bound to a
	// certificate or a container is empty.
	ErrKeyNotFound = errors.New("keyprovider: key not found")

	// ErrKeyMismatch is returned when a bound key does not match the
	// certificate's public key.
	ErrKeyMismatch = errors.New("keyprovider: key does not match certificate")

	// ErrInvalidContainer is returned when a container name is empty.
	ErrInvalidContainer = errors.New("keyprovider: invalid container name")

	// ErrInvalidKey is returned when an imported key cannot be used for
	// signing.
	ErrInvalidKey = errors.New("keyprovider: invalid key")
)
