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

// Package certstore models the platform certificate store: certificate
// handles, ordered stores with replace-existing add semantics, and the
// provider contract for opening user, machine and file backed stores.
package certstore

import (
	"bytes"
	"crypto/x509"
	"fmt"
	"unicode/utf8"

	"github.com/nnmkhang/go-native-tls/pkg/encoding"
	"github.com/nnmkhang/go-native-tls/pkg/types"
)

// Certificate is a handle to a DER encoded X.509 certificate. The
// certificate content is immutable once constructed; copying the handle
// shares the underlying platform object rather than duplicating it.
//
// The key container name is platform metadata attached after construction
// so the engine can locate the private key backing the certificate.
type Certificate struct {
	x509         *x509.Certificate
	keyContainer string
}

// FromDER constructs a Certificate from DER encoded bytes.
func FromDER(der []byte) (*Certificate, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCertInvalid, err)
	}
	return &Certificate{x509: cert}, nil
}

// FromPEM constructs a Certificate from the first PEM block in buf.
// Non-UTF-8 input is rejected before PEM decoding.
func FromPEM(buf []byte) (*Certificate, error) {
	if !utf8.Valid(buf) {
		return nil, fmt.Errorf("%w: PEM representation contains non-UTF-8 bytes", ErrCertInvalid)
	}
	cert, err := encoding.DecodeCertificatePEM(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCertInvalid, err)
	}
	return &Certificate{x509: cert}, nil
}

// FromX509 wraps an already parsed certificate.
func FromX509(cert *x509.Certificate) *Certificate {
	return &Certificate{x509: cert}
}

// X509 returns the parsed certificate.
func (c *Certificate) X509() *x509.Certificate {
	return c.x509
}

// ToDER returns the DER encoding of the certificate.
func (c *Certificate) ToDER() []byte {
	return c.x509.Raw
}

// ToPEM returns the PEM encoding of the certificate.
func (c *Certificate) ToPEM() ([]byte, error) {
	return encoding.EncodeCertificatePEM(c.x509)
}

// Fingerprint computes the digest of the certificate's DER encoding with
// the given algorithm.
func (c *Certificate) Fingerprint(algo types.HashAlgorithm) ([]byte, error) {
	return algo.Digest(c.x509.Raw)
}

// Equal reports whether the two certificates have byte-equal DER encodings.
func (c *Certificate) Equal(other *Certificate) bool {
	if c == nil || other == nil {
		return c == other
	}
	return bytes.Equal(c.x509.Raw, other.x509.Raw)
}

// SignatureHash returns the digest algorithm declared by the certificate's
// signature algorithm. The second return is false when the algorithm is
// not recognized.
func (c *Certificate) SignatureHash() (types.HashAlgorithm, bool) {
	return types.SignatureHash(c.x509.SignatureAlgorithm)
}

// SetKeyContainer binds the name of the key provider container holding the
// certificate's private key.
func (c *Certificate) SetKeyContainer(name string) {
	c.keyContainer = name
}

// KeyContainer returns the bound key provider container name, or "" when
// no container has been bound.
func (c *Certificate) KeyContainer() string {
	return c.keyContainer
}

// sameIdentity reports whether two certificates name the same identity
// (subject and public key). Used by replace-existing add semantics.
func sameIdentity(a, b *x509.Certificate) bool {
	return bytes.Equal(a.RawSubject, b.RawSubject) &&
		bytes.Equal(a.RawSubjectPublicKeyInfo, b.RawSubjectPublicKeyInfo)
}
