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

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/nnmkhang/go-native-tls/pkg/certstore"
)

// EngineRefKind tags the engine reference variant.
type EngineRefKind int

const (
	// EngineRefStore references a certificate in a named platform store
	// by fingerprint.
	EngineRefStore EngineRefKind = iota

	// EngineRefFile references a store serialized in a file.
	EngineRefFile
)

// EngineRef is a parsed reference into platform storage:
//
//	(user|machine):<store-name>:<hex-fingerprint>
//	file:<path>
//
// The fingerprint hex length must be 40 (SHA-1) or 64 (SHA-256)
// characters; the decoded byte length is validated by the resolver, not
// the parser.
type EngineRef struct {
	Kind        EngineRefKind
	Class       certstore.StoreClass
	StoreName   string
	Fingerprint []byte
	FilePath    string
}

// ParseEngineRef decodes an engine reference string. The parser is purely
// syntactic and performs no I/O.
func ParseEngineRef(s string) (*EngineRef, error) {
	prefix, rest, found := strings.Cut(s, ":")
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReference, s)
	}

	switch prefix {
	case "file":
		// The remainder is the path, unsplit: drive letters and other
		// embedded colons pass through.
		return &EngineRef{Kind: EngineRefFile, FilePath: rest}, nil

	case "user", "machine":
		parts := strings.Split(rest, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidReference, s)
		}
		storeName := strings.TrimSpace(parts[0])
		fingerprintHex := strings.TrimSpace(parts[1])

		fingerprint, err := hex.DecodeString(fingerprintHex)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
		}

		class := certstore.StoreClassUser
		if prefix == "machine" {
			class = certstore.StoreClassMachine
		}
		return &EngineRef{
			Kind:        EngineRefStore,
			Class:       class,
			StoreName:   storeName,
			Fingerprint: fingerprint,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown prefix %q", ErrInvalidReference, prefix)
	}
}
