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

import (
	"crypto/md5"  // #nosec G501 - legacy fingerprint identification only, never signing
	"crypto/sha1" // #nosec G505 - fingerprint identification only, never signing
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"fmt"
)

// HashAlgorithm identifies a digest algorithm used for certificate
// fingerprints and channel binding token derivation.
type HashAlgorithm string

const (
	// HashMD5 is the MD5 digest (legacy, signature identification only).
	HashMD5 HashAlgorithm = "MD5"

	// HashSHA1 is the SHA-1 digest.
	HashSHA1 HashAlgorithm = "SHA1"

	// HashSHA256 is the SHA-256 digest.
	HashSHA256 HashAlgorithm = "SHA256"

	// HashSHA384 is the SHA-384 digest.
	HashSHA384 HashAlgorithm = "SHA384"

	// HashSHA512 is the SHA-512 digest.
	HashSHA512 HashAlgorithm = "SHA512"
)

// String returns the algorithm identifier.
func (h HashAlgorithm) String() string {
	return string(h)
}

// Size returns the digest length in bytes, or 0 for an unknown algorithm.
func (h HashAlgorithm) Size() int {
	switch h {
	case HashMD5:
		return md5.Size
	case HashSHA1:
		return sha1.Size
	case HashSHA256:
		return sha256.Size
	case HashSHA384:
		return sha512.Size384
	case HashSHA512:
		return sha512.Size
	default:
		return 0
	}
}

// Digest computes the digest of data with the algorithm.
func (h HashAlgorithm) Digest(data []byte) ([]byte, error) {
	switch h {
	case HashMD5:
		sum := md5.Sum(data) // #nosec G401
		return sum[:], nil
	case HashSHA1:
		sum := sha1.Sum(data) // #nosec G401
		return sum[:], nil
	case HashSHA256:
		sum := sha256.Sum256(data)
		return sum[:], nil
	case HashSHA384:
		sum := sha512.Sum384(data)
		return sum[:], nil
	case HashSHA512:
		sum := sha512.Sum512(data)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHashAlgorithm, string(h))
	}
}

// HashForFingerprintLength maps a decoded fingerprint length to the digest
// algorithm that produces it. Only SHA-1 (20 bytes) and SHA-256 (32 bytes)
// fingerprints are accepted.
func HashForFingerprintLength(n int) (HashAlgorithm, error) {
	switch n {
	case sha1.Size:
		return HashSHA1, nil
	case sha256.Size:
		return HashSHA256, nil
	default:
		return "", fmt.Errorf("%w: %d bytes", ErrInvalidFingerprintLength, n)
	}
}

// SignatureHash returns the digest algorithm declared by an X.509 signature
// algorithm, mirroring the engine's "signature/hash" algorithm split. The
// second return is false when the hash cannot be identified.
func SignatureHash(alg x509.SignatureAlgorithm) (HashAlgorithm, bool) {
	switch alg {
	case x509.MD5WithRSA:
		return HashMD5, true
	case x509.SHA1WithRSA, x509.DSAWithSHA1, x509.ECDSAWithSHA1:
		return HashSHA1, true
	case x509.SHA256WithRSA, x509.SHA256WithRSAPSS, x509.DSAWithSHA256, x509.ECDSAWithSHA256:
		return HashSHA256, true
	case x509.SHA384WithRSA, x509.SHA384WithRSAPSS, x509.ECDSAWithSHA384:
		return HashSHA384, true
	case x509.SHA512WithRSA, x509.SHA512WithRSAPSS, x509.ECDSAWithSHA512:
		return HashSHA512, true
	default:
		return "", false
	}
}
