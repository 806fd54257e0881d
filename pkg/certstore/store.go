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

// AddDisposition controls how Add treats a certificate that names an
// identity already present in the store.
type AddDisposition int

const (
	// AddAlways appends the certificate regardless of existing entries.
	AddAlways AddDisposition = iota

	// AddReplaceExisting substitutes the certificate in place of an
	// existing entry with the same subject and public key, and appends
	// when no such entry exists.
	AddReplaceExisting

	// AddNewer behaves like AddReplaceExisting but only replaces an
	// existing entry when the incoming certificate's NotBefore is later;
	// an older duplicate is dropped without error.
	AddNewer
)

// Store is an ordered collection of certificates. Enumeration order is
// significant: identity resolution selects the first qualifying
// certificate in store order.
type Store interface {
	// Certificates returns the store contents in enumeration order.
	Certificates() []*Certificate

	// Add inserts a certificate per the disposition and returns the handle
	// the store retains (the store may adopt the given handle directly).
	Add(cert *Certificate, disposition AddDisposition) (*Certificate, error)

	// Close releases the store handle.
	Close() error
}

// MemoryStore is an in-memory Store with deterministic insertion-ordered
// enumeration. It backs PKCS#12 archive imports and trust root sets.
//
// MemoryStore is not safe for concurrent mutation; the session layer
// consults it only during configuration and handshake verification.
type MemoryStore struct {
	certs  []*Certificate
	closed bool
}

// NewMemoryStore creates an empty memory-backed store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Certificates returns the store contents in insertion order. The
// returned slice is the caller's to keep; mutating it does not affect
// the store.
func (s *MemoryStore) Certificates() []*Certificate {
	certs := make([]*Certificate, len(s.certs))
	copy(certs, s.certs)
	return certs
}

// Add inserts a certificate. With AddReplaceExisting, an existing entry
// with the same subject and public key is replaced in place, preserving
// its position in enumeration order.
func (s *MemoryStore) Add(cert *Certificate, disposition AddDisposition) (*Certificate, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	if cert == nil {
		return nil, ErrCertInvalid
	}

	if disposition == AddReplaceExisting || disposition == AddNewer {
		for i, existing := range s.certs {
			if sameIdentity(existing.x509, cert.x509) {
				if disposition == AddNewer && !cert.x509.NotBefore.After(existing.x509.NotBefore) {
					return existing, nil
				}
				s.certs[i] = cert
				return cert, nil
			}
		}
	}

	s.certs = append(s.certs, cert)
	return cert, nil
}

// Contains reports whether the store holds a certificate byte-equal to
// cert. Used by the restricted-roots verification policy.
func (s *MemoryStore) Contains(cert *Certificate) bool {
	for _, existing := range s.certs {
		if existing.Equal(cert) {
			return true
		}
	}
	return false
}

// Len returns the number of certificates in the store.
func (s *MemoryStore) Len() int {
	return len(s.certs)
}

// Close marks the store closed; further adds fail with ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.closed = true
	return nil
}
