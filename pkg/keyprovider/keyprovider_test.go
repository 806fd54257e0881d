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

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnmkhang/go-native-tls/pkg/certstore"
)

func newKeyAndCert(t *testing.T, cn string) (*ecdsa.PrivateKey, *certstore.Certificate) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := certstore.FromDER(der)
	require.NoError(t, err)
	return key, cert
}

func keyToPKCS8PEM(t *testing.T, key *ecdsa.PrivateKey) []byte {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func TestNextContainerName(t *testing.T) {
	first := NextContainerName()
	second := NextContainerName()

	assert.True(t, strings.HasPrefix(first, "native-tls-"))
	assert.True(t, strings.HasPrefix(second, "native-tls-"))
	assert.NotEqual(t, first, second)
}

func TestAcquireAndImport(t *testing.T) {
	provider := NewMemoryKeyProvider()
	key, cert := newKeyAndCert(t, "import")

	name := NextContainerName()
	container, err := provider.Acquire(name)
	require.NoError(t, err)
	assert.Equal(t, name, container.Name())

	// Empty container has no signer.
	_, err = container.Signer()
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, container.ImportPKCS8(keyToPKCS8PEM(t, key)))

	signer, err := container.Signer()
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(signer.Public()))

	// Re-acquiring an existing container returns the same container.
	again, err := provider.Acquire(name)
	require.NoError(t, err)
	signer, err = again.Signer()
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(signer.Public()))

	_, err = provider.Acquire("")
	assert.ErrorIs(t, err, ErrInvalidContainer)

	// Bind and find.
	cert.SetKeyContainer(name)
	signer, err = provider.Find(cert)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(signer.Public()))
}

func TestFindFailures(t *testing.T) {
	provider := NewMemoryKeyProvider()
	key, cert := newKeyAndCert(t, "find")

	// No container bound.
	_, err := provider.Find(cert)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Bound to a container that does not exist.
	cert.SetKeyContainer("native-tls-missing")
	_, err = provider.Find(cert)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Container holds a key for a different certificate.
	otherKey, _ := newKeyAndCert(t, "other")
	name := NextContainerName()
	container, err := provider.Acquire(name)
	require.NoError(t, err)
	require.NoError(t, container.ImportPKCS8(keyToPKCS8PEM(t, otherKey)))

	cert.SetKeyContainer(name)
	_, err = provider.Find(cert)
	assert.ErrorIs(t, err, ErrKeyMismatch)

	// Matching key succeeds.
	require.NoError(t, container.ImportPKCS8(keyToPKCS8PEM(t, key)))
	_, err = provider.Find(cert)
	assert.NoError(t, err)
}
