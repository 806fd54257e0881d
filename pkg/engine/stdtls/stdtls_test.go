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

package stdtls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnmkhang/go-native-tls/pkg/certstore"
	"github.com/nnmkhang/go-native-tls/pkg/encoding"
	"github.com/nnmkhang/go-native-tls/pkg/engine"
	"github.com/nnmkhang/go-native-tls/pkg/identity"
	"github.com/nnmkhang/go-native-tls/pkg/types"
)

type testPKI struct {
	root     *certstore.Certificate
	identity *identity.Identity
}

// newTestPKI issues a fresh root plus a leaf for dnsName and wraps them
// as a server identity.
func newTestPKI(t *testing.T, dnsName string) *testPKI {
	t.Helper()

	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	rootTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "stdtls test root"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTemplate, rootTemplate, &rootKey.PublicKey, rootKey)
	require.NoError(t, err)
	rootCert, err := x509.ParseCertificate(rootDER)
	require.NoError(t, err)

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	leafTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: dnsName},
		DNSNames:     []string{dnsName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTemplate, rootTemplate, &leafKey.PublicKey, rootKey)
	require.NoError(t, err)

	leafPEM := pem.EncodeToMemory(&pem.Block{Type: encoding.PEMTypeCertificate, Bytes: leafDER})
	keyDER, err := x509.MarshalPKCS8PrivateKey(leafKey)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: encoding.PEMTypePrivateKey, Bytes: keyDER})

	id, err := identity.FromPKCS8(leafPEM, keyPEM)
	require.NoError(t, err)

	return &testPKI{
		root:     certstore.FromX509(rootCert),
		identity: id,
	}
}

// handshakePair runs the server handshake in the background and the
// client handshake inline over a net.Pipe, returning both errors.
func handshakePair(t *testing.T, pki *testPKI, clientCfg *engine.Config) (clientErr, serverErr error, client engine.Conn) {
	t.Helper()

	eng := New()
	protocols := types.SupportedProtocols

	serverCred, err := eng.AcquireCredential(engine.Inbound, protocols, pki.identity)
	require.NoError(t, err)
	defer serverCred.Close()

	clientCred, err := eng.AcquireCredential(engine.Outbound, protocols, nil)
	require.NoError(t, err)
	defer clientCred.Close()

	clientSide, serverSide := net.Pipe()
	t.Cleanup(func() {
		clientSide.Close()
		serverSide.Close()
	})

	serverConn, err := eng.NewConn(serverCred, &engine.Config{}, serverSide)
	require.NoError(t, err)
	clientConn, err := eng.NewConn(clientCred, clientCfg, clientSide)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- serverConn.Handshake()
	}()
	clientErr = clientConn.Handshake()
	if clientErr != nil {
		// Unblock the server side so the goroutine can finish.
		clientSide.Close()
	}
	serverErr = <-done

	return clientErr, serverErr, clientConn
}

func trustedClientConfig(pki *testPKI, serverName string) *engine.Config {
	roots := certstore.NewMemoryStore()
	roots.Add(pki.root, certstore.AddAlways)
	return &engine.Config{
		ServerName:         serverName,
		UseSNI:             true,
		Roots:              roots,
		DisableSystemRoots: true,
	}
}

func TestHandshakeTrustedChain(t *testing.T) {
	pki := newTestPKI(t, "localhost")

	clientErr, serverErr, client := handshakePair(t, pki, trustedClientConfig(pki, "localhost"))
	require.NoError(t, clientErr)
	require.NoError(t, serverErr)

	peer, err := client.PeerCertificate()
	require.NoError(t, err)
	assert.Equal(t, "localhost", peer.X509().Subject.CommonName)

	_, err = client.LocalCertificate()
	assert.ErrorIs(t, err, engine.ErrNoCredentials)
	assert.False(t, client.IsServer())

	buffered, err := client.BufferedReadSize()
	require.NoError(t, err)
	assert.Zero(t, buffered)
}

func TestHandshakeUntrustedRoot(t *testing.T) {
	pki := newTestPKI(t, "localhost")

	cfg := trustedClientConfig(pki, "localhost")
	cfg.Roots = certstore.NewMemoryStore()

	clientErr, _, _ := handshakePair(t, pki, cfg)
	require.Error(t, clientErr)
	var unknownAuthority x509.UnknownAuthorityError
	assert.ErrorAs(t, clientErr, &unknownAuthority)
}

func TestHandshakeHostnameMismatch(t *testing.T) {
	pki := newTestPKI(t, "localhost")

	cfg := trustedClientConfig(pki, "example.com")
	cfg.UseSNI = false

	clientErr, _, _ := handshakePair(t, pki, cfg)
	require.Error(t, clientErr)
	var hostnameErr x509.HostnameError
	assert.ErrorAs(t, clientErr, &hostnameErr)
}

func TestHandshakeAcceptInvalidHostnames(t *testing.T) {
	pki := newTestPKI(t, "localhost")

	cfg := trustedClientConfig(pki, "example.com")
	cfg.UseSNI = false
	cfg.AcceptInvalidHostnames = true

	clientErr, serverErr, _ := handshakePair(t, pki, cfg)
	assert.NoError(t, clientErr)
	assert.NoError(t, serverErr)
}

func TestHandshakeVerifyCallbackOverrides(t *testing.T) {
	pki := newTestPKI(t, "localhost")

	var observed engine.VerifyResult
	cfg := &engine.Config{
		ServerName:         "localhost",
		UseSNI:             true,
		Roots:              certstore.NewMemoryStore(),
		DisableSystemRoots: true,
		Verify: func(result engine.VerifyResult) error {
			observed = result
			return nil
		},
	}

	clientErr, serverErr, client := handshakePair(t, pki, cfg)
	require.NoError(t, clientErr)
	require.NoError(t, serverErr)

	// The callback saw the validation failure and the presented chain.
	assert.Error(t, observed.Err)
	require.NotEmpty(t, observed.Chain)
	assert.Equal(t, "localhost", observed.Chain[0].X509().Subject.CommonName)

	peer, err := client.PeerCertificate()
	require.NoError(t, err)
	assert.True(t, peer.Equal(observed.Chain[0]))
}

func TestHandshakeALPN(t *testing.T) {
	pki := newTestPKI(t, "localhost")

	eng := New()
	protocols := types.SupportedProtocols

	serverCred, err := eng.AcquireCredential(engine.Inbound, protocols, pki.identity)
	require.NoError(t, err)
	defer serverCred.Close()
	clientCred, err := eng.AcquireCredential(engine.Outbound, protocols, nil)
	require.NoError(t, err)
	defer clientCred.Close()

	clientSide, serverSide := net.Pipe()
	t.Cleanup(func() {
		clientSide.Close()
		serverSide.Close()
	})

	serverConn, err := eng.NewConn(serverCred, &engine.Config{ALPN: []string{"h2", "http/1.1"}}, serverSide)
	require.NoError(t, err)

	clientCfg := trustedClientConfig(pki, "localhost")
	clientCfg.ALPN = []string{"http/1.1"}
	clientConn, err := eng.NewConn(clientCred, clientCfg, clientSide)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- serverConn.Handshake()
	}()
	require.NoError(t, clientConn.Handshake())
	require.NoError(t, <-done)

	negotiated, err := clientConn.NegotiatedProtocol()
	require.NoError(t, err)
	assert.Equal(t, "http/1.1", negotiated)
}

func TestDataTransferAndShutdown(t *testing.T) {
	pki := newTestPKI(t, "localhost")

	eng := New()
	protocols := types.SupportedProtocols

	serverCred, err := eng.AcquireCredential(engine.Inbound, protocols, pki.identity)
	require.NoError(t, err)
	defer serverCred.Close()
	clientCred, err := eng.AcquireCredential(engine.Outbound, protocols, nil)
	require.NoError(t, err)
	defer clientCred.Close()

	clientSide, serverSide := net.Pipe()
	t.Cleanup(func() {
		clientSide.Close()
		serverSide.Close()
	})

	serverConn, err := eng.NewConn(serverCred, &engine.Config{}, serverSide)
	require.NoError(t, err)
	clientConn, err := eng.NewConn(clientCred, trustedClientConfig(pki, "localhost"), clientSide)
	require.NoError(t, err)

	serverDone := make(chan error, 1)
	go func() {
		if err := serverConn.Handshake(); err != nil {
			serverDone <- err
			return
		}
		buf := make([]byte, 16)
		n, err := serverConn.Read(buf)
		if err != nil {
			serverDone <- err
			return
		}
		_, err = serverConn.Write(buf[:n])
		serverDone <- err
	}()

	require.NoError(t, clientConn.Handshake())
	_, err = clientConn.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, err := clientConn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))

	require.NoError(t, <-serverDone)
	assert.NoError(t, clientConn.Shutdown())
}

func TestAcquireCredentialRules(t *testing.T) {
	eng := New()

	_, err := eng.AcquireCredential(engine.Outbound, nil, nil)
	assert.ErrorIs(t, err, engine.ErrNoProtocols)

	_, err = eng.AcquireCredential(engine.Inbound, types.SupportedProtocols, nil)
	assert.ErrorIs(t, err, engine.ErrIdentityRequired)
}

func TestVersionBounds(t *testing.T) {
	pki := newTestPKI(t, "localhost")

	eng := New()
	// Server capped at TLS 1.2, client floored at TLS 1.2: the
	// intersection pins the negotiated version.
	serverCred, err := eng.AcquireCredential(engine.Inbound,
		[]types.Protocol{types.ProtocolTLS10, types.ProtocolTLS11, types.ProtocolTLS12}, pki.identity)
	require.NoError(t, err)
	defer serverCred.Close()
	clientCred, err := eng.AcquireCredential(engine.Outbound,
		[]types.Protocol{types.ProtocolTLS12, types.ProtocolTLS13}, nil)
	require.NoError(t, err)
	defer clientCred.Close()

	clientSide, serverSide := net.Pipe()
	t.Cleanup(func() {
		clientSide.Close()
		serverSide.Close()
	})

	serverConn, err := eng.NewConn(serverCred, &engine.Config{}, serverSide)
	require.NoError(t, err)
	clientConn, err := eng.NewConn(clientCred, trustedClientConfig(pki, "localhost"), clientSide)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- serverConn.Handshake()
	}()
	require.NoError(t, clientConn.Handshake())
	require.NoError(t, <-done)

	tlsConn := clientConn.(*conn)
	assert.Equal(t, uint16(0x0303), tlsConn.tlsConn.ConnectionState().Version)
}
