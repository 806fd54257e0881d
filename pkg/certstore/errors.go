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

package certstore

import "errors"

var (
	// ErrCertInvalid is returned when a certificate is nil, malformed, or
	// cannot be decoded.
	ErrCertInvalid = errors.New("certstore: invalid certificate")

	// ErrStoreClosed is returned when an operation is attempted on a
	// closed store.
	ErrStoreClosed = errors.New("certstore: store is closed")

	// ErrStoreNotFound is returned when a named or file-backed store
	// cannot be opened.
	ErrStoreNotFound = errors.New("certstore: store not found")
)
