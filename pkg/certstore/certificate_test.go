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

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha1" // #nosec G505 - fingerprint test
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnmkhang/go-native-tls/pkg/types"
)

// newTestCert creates a self-signed certificate and its key.
func newTestCert(t *testing.T, cn string) (*Certificate, crypto.Signer) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := FromDER(der)
	require.NoError(t, err)
	return cert, key
}

func TestCertificateRoundTrip(t *testing.T) {
	cert, _ := newTestCert(t, "roundtrip")

	pemData, err := cert.ToPEM()
	require.NoError(t, err)

	fromPEM, err := FromPEM(pemData)
	require.NoError(t, err)

	fromDER, err := FromDER(cert.ToDER())
	require.NoError(t, err)

	// to_der(from_pem(p)) == to_der(from_der(to_der(c)))
	assert.Equal(t, fromDER.ToDER(), fromPEM.ToDER())
	assert.True(t, fromPEM.Equal(cert))
}

func TestFromPEMRejectsInvalidInput(t *testing.T) {
	_, err := FromPEM([]byte{0xff, 0xfe, 0x00, 0x01})
	assert.ErrorIs(t, err, ErrCertInvalid)

	_, err = FromPEM([]byte("no pem here"))
	assert.ErrorIs(t, err, ErrCertInvalid)

	_, err = FromDER([]byte("not der"))
	assert.ErrorIs(t, err, ErrCertInvalid)
}

func TestFingerprint(t *testing.T) {
	cert, _ := newTestCert(t, "fingerprint")

	sha1Sum := sha1.Sum(cert.ToDER()) // #nosec G401
	fp, err := cert.Fingerprint(types.HashSHA1)
	require.NoError(t, err)
	assert.Equal(t, sha1Sum[:], fp)

	sha256Sum := sha256.Sum256(cert.ToDER())
	fp, err = cert.Fingerprint(types.HashSHA256)
	require.NoError(t, err)
	assert.Equal(t, sha256Sum[:], fp)
}

func TestKeyContainerBinding(t *testing.T) {
	cert, _ := newTestCert(t, "binding")
	assert.Empty(t, cert.KeyContainer())

	cert.SetKeyContainer("native-tls-7")
	assert.Equal(t, "native-tls-7", cert.KeyContainer())

	// Copies of the handle share the underlying platform object.
	alias := cert
	assert.Equal(t, "native-tls-7", alias.KeyContainer())
}

func TestSignatureHash(t *testing.T) {
	cert, _ := newTestCert(t, "sighash")

	algo, ok := cert.SignatureHash()
	require.True(t, ok)
	assert.Equal(t, types.HashSHA256, algo)
}
