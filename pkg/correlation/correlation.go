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

// Package correlation generates the identifiers that tie handshake log
// lines to the connection they belong to.
package correlation

import "github.com/google/uuid"

// NewID generates a new UUID v4 correlation ID.
func NewID() string {
	return uuid.New().String()
}
