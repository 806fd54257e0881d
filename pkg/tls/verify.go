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

import (
	"github.com/nnmkhang/go-native-tls/pkg/certstore"
	"github.com/nnmkhang/go-native-tls/pkg/engine"
)

// VerifyMode selects how the connector treats the engine's peer
// validation outcome.
type VerifyMode int

const (
	// VerifyDefault leaves validation entirely to the engine: no callback
	// is installed.
	VerifyDefault VerifyMode = iota

	// VerifyAcceptAll accepts every peer regardless of the validation
	// outcome.
	VerifyAcceptAll

	// VerifyRestrictedRoots propagates engine validation failures
	// unchanged and additionally requires at least one certificate of the
	// final chain to be byte-equal to a user-specified root.
	VerifyRestrictedRoots
)

// VerifyPolicy is the connector's peer verification policy.
type VerifyPolicy struct {
	mode  VerifyMode
	roots *certstore.MemoryStore
}

// DefaultVerify returns the engine-validation-only policy.
func DefaultVerify() VerifyPolicy {
	return VerifyPolicy{mode: VerifyDefault}
}

// AcceptAllVerify returns the policy that accepts every peer. Intended
// for testing against self-signed endpoints; it disables all
// authentication.
func AcceptAllVerify() VerifyPolicy {
	return VerifyPolicy{mode: VerifyAcceptAll}
}

// RestrictedRootsVerify returns the policy that requires the final chain
// to contain one of the given roots. Membership is byte equality against
// the chain, not independent path validation.
func RestrictedRootsVerify(roots *certstore.MemoryStore) VerifyPolicy {
	return VerifyPolicy{mode: VerifyRestrictedRoots, roots: roots}
}

// Mode returns the policy's verification mode.
func (p VerifyPolicy) Mode() VerifyMode {
	return p.mode
}

// callback builds the engine verification hook for this policy, or nil
// for the default policy.
func (p VerifyPolicy) callback() engine.VerifyFunc {
	switch p.mode {
	case VerifyAcceptAll:
		return func(engine.VerifyResult) error {
			return nil
		}
	case VerifyRestrictedRoots:
		roots := p.roots
		return func(result engine.VerifyResult) error {
			if result.Err != nil {
				// Propagate the error encountered during normal
				// certificate validation.
				return result.Err
			}
			for _, cert := range result.Chain {
				if roots != nil && roots.Contains(cert) {
					return nil
				}
			}
			return ErrUntrustedRoot
		}
	default:
		return nil
	}
}
