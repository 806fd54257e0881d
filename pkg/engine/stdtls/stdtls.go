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

// Package stdtls adapts crypto/tls as the default protocol engine. It
// drives blocking transports and therefore never reports a suspended
// handshake; non-blocking engines surface suspension through
// engine.ErrWouldBlock instead.
package stdtls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/nnmkhang/go-native-tls/pkg/certstore"
	"github.com/nnmkhang/go-native-tls/pkg/engine"
	"github.com/nnmkhang/go-native-tls/pkg/identity"
	"github.com/nnmkhang/go-native-tls/pkg/types"
)

// Engine is the crypto/tls backed protocol engine.
type Engine struct{}

// New creates a stdtls engine.
func New() *Engine {
	return &Engine{}
}

var _ engine.Engine = (*Engine)(nil)

// credential holds the resolved handshake parameters for one attempt.
type credential struct {
	direction  engine.Direction
	minVersion uint16
	maxVersion uint16
	tlsCert    *tls.Certificate
	leaf       *certstore.Certificate
}

// Close releases the credential. The crypto/tls engine holds no platform
// handle, so release is a no-op; callers still must invoke it on every
// exit path per the engine contract.
func (c *credential) Close() error {
	return nil
}

// AcquireCredential resolves the protocol version bounds and loads the
// identity's certificate chain and signer.
func (e *Engine) AcquireCredential(dir engine.Direction, protocols []types.Protocol, id *identity.Identity) (engine.Credential, error) {
	if len(protocols) == 0 {
		return nil, engine.ErrNoProtocols
	}
	if dir == engine.Inbound && id == nil {
		return nil, engine.ErrIdentityRequired
	}

	cred := &credential{
		direction:  dir,
		minVersion: tlsVersion(protocols[0]),
		maxVersion: tlsVersion(protocols[len(protocols)-1]),
	}

	if id != nil {
		signer, err := id.Signer()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire identity key: %w", err)
		}

		chain := [][]byte{id.Certificate().ToDER()}
		for _, intermediate := range id.Intermediates() {
			chain = append(chain, intermediate.ToDER())
		}
		cred.tlsCert = &tls.Certificate{
			Certificate: chain,
			PrivateKey:  signer,
			Leaf:        id.Certificate().X509(),
		}
		cred.leaf = id.Certificate()
	}

	return cred, nil
}

// NewConn binds the credential and configuration to a transport. The
// handshake is not driven here.
func (e *Engine) NewConn(c engine.Credential, cfg *engine.Config, transport io.ReadWriter) (engine.Conn, error) {
	cred, ok := c.(*credential)
	if !ok {
		return nil, fmt.Errorf("stdtls: foreign credential type %T", c)
	}

	tlsCfg := &tls.Config{
		MinVersion: cred.minVersion,
		MaxVersion: cred.maxVersion,
		NextProtos: cfg.ALPN,
	}
	if cred.tlsCert != nil {
		tlsCfg.Certificates = []tls.Certificate{*cred.tlsCert}
	}

	netConn := asNetConn(transport)

	var tlsConn *tls.Conn
	if cred.direction == engine.Inbound {
		tlsConn = tls.Server(netConn, tlsCfg)
	} else {
		// Validation runs in VerifyPeerCertificate so hostname checking,
		// SNI, root restriction and the verify callback stay decoupled
		// the way the session layer configures them.
		tlsCfg.InsecureSkipVerify = true
		tlsCfg.VerifyPeerCertificate = clientVerifier(cfg)
		if cfg.UseSNI {
			tlsCfg.ServerName = cfg.ServerName
		}
		tlsConn = tls.Client(netConn, tlsCfg)
	}

	return &conn{
		tlsConn: tlsConn,
		server:  cred.direction == engine.Inbound,
		leaf:    cred.leaf,
	}, nil
}

// clientVerifier builds the peer verification function: the engine
// validates the chain and hostname per the configured policy, then the
// installed callback (when present) decides acceptance.
func clientVerifier(cfg *engine.Config) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		peerCerts := make([]*x509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return fmt.Errorf("stdtls: failed to parse peer certificate: %w", err)
			}
			peerCerts = append(peerCerts, cert)
		}
		if len(peerCerts) == 0 {
			return engine.ErrNoCredentials
		}

		validationErr, chain := validatePeer(cfg, peerCerts)

		if cfg.Verify != nil {
			return cfg.Verify(engine.VerifyResult{Err: validationErr, Chain: chain})
		}
		return validationErr
	}
}

// validatePeer runs chain and hostname validation, returning the
// validation error and the resolved chain (leaf first). When path
// building fails, the presented chain is reported so callbacks can still
// inspect it.
func validatePeer(cfg *engine.Config, peerCerts []*x509.Certificate) (error, []*certstore.Certificate) {
	roots, err := rootPool(cfg)
	if err != nil {
		return err, wrapChain(peerCerts)
	}

	intermediates := x509.NewCertPool()
	for _, cert := range peerCerts[1:] {
		intermediates.AddCert(cert)
	}

	opts := x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
	}
	chains, err := peerCerts[0].Verify(opts)
	if err != nil {
		return err, wrapChain(peerCerts)
	}

	if !cfg.AcceptInvalidHostnames && cfg.ServerName != "" {
		if err := peerCerts[0].VerifyHostname(cfg.ServerName); err != nil {
			return err, wrapChain(chains[0])
		}
	}

	return nil, wrapChain(chains[0])
}

// rootPool assembles the trust anchors: system roots unless disabled,
// plus the caller's root set.
func rootPool(cfg *engine.Config) (*x509.CertPool, error) {
	var pool *x509.CertPool
	if cfg.DisableSystemRoots {
		pool = x509.NewCertPool()
	} else {
		systemPool, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("stdtls: failed to load system roots: %w", err)
		}
		pool = systemPool
	}

	if cfg.Roots != nil {
		for _, root := range cfg.Roots.Certificates() {
			pool.AddCert(root.X509())
		}
	}
	return pool, nil
}

func wrapChain(certs []*x509.Certificate) []*certstore.Certificate {
	wrapped := make([]*certstore.Certificate, 0, len(certs))
	for _, cert := range certs {
		wrapped = append(wrapped, certstore.FromX509(cert))
	}
	return wrapped
}

// tlsVersion maps a protocol version to its crypto/tls constant. SSL 3.0
// support was removed from crypto/tls; it clamps to TLS 1.0.
func tlsVersion(p types.Protocol) uint16 {
	switch p {
	case types.ProtocolSSL3, types.ProtocolTLS10:
		return tls.VersionTLS10
	case types.ProtocolTLS11:
		return tls.VersionTLS11
	case types.ProtocolTLS12:
		return tls.VersionTLS12
	default:
		return tls.VersionTLS13
	}
}

// conn is an established or in-progress crypto/tls connection.
type conn struct {
	tlsConn *tls.Conn
	server  bool
	leaf    *certstore.Certificate
}

var _ engine.Conn = (*conn)(nil)

func (c *conn) Handshake() error {
	return c.tlsConn.Handshake()
}

func (c *conn) Read(p []byte) (int, error) {
	return c.tlsConn.Read(p)
}

func (c *conn) Write(p []byte) (int, error) {
	return c.tlsConn.Write(p)
}

// Shutdown sends close_notify without closing the transport; the raw
// channel's lifecycle belongs to the caller.
func (c *conn) Shutdown() error {
	return c.tlsConn.CloseWrite()
}

func (c *conn) PeerCertificate() (*certstore.Certificate, error) {
	state := c.tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, engine.ErrNoCredentials
	}
	return certstore.FromX509(state.PeerCertificates[0]), nil
}

func (c *conn) LocalCertificate() (*certstore.Certificate, error) {
	if c.leaf == nil {
		return nil, engine.ErrNoCredentials
	}
	return c.leaf, nil
}

func (c *conn) NegotiatedProtocol() (string, error) {
	return c.tlsConn.ConnectionState().NegotiatedProtocol, nil
}

// BufferedReadSize is not exposed by crypto/tls.
func (c *conn) BufferedReadSize() (int, error) {
	return 0, nil
}

func (c *conn) IsServer() bool {
	return c.server
}

// asNetConn adapts an arbitrary duplex byte channel to net.Conn for
// crypto/tls. Transports that already are net.Conn pass through.
func asNetConn(transport io.ReadWriter) net.Conn {
	if nc, ok := transport.(net.Conn); ok {
		return nc
	}
	return &rwConn{rw: transport}
}

// rwConn is a minimal net.Conn over an io.ReadWriter. Deadlines are not
// supported; timeout responsibility stays with the transport or caller.
type rwConn struct {
	rw io.ReadWriter
}

func (c *rwConn) Read(p []byte) (int, error)  { return c.rw.Read(p) }
func (c *rwConn) Write(p []byte) (int, error) { return c.rw.Write(p) }
func (c *rwConn) Close() error {
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
func (c *rwConn) LocalAddr() net.Addr              { return pipeAddr{} }
func (c *rwConn) RemoteAddr() net.Addr             { return pipeAddr{} }
func (c *rwConn) SetDeadline(time.Time) error      { return nil }
func (c *rwConn) SetReadDeadline(time.Time) error  { return nil }
func (c *rwConn) SetWriteDeadline(time.Time) error { return nil }

type pipeAddr struct{}

func (pipeAddr) Network() string { return "stream" }
func (pipeAddr) String() string  { return "stream" }
