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

// Package tls is the session layer: it binds identities, trust roots,
// protocol ranges, and verification policies to a duplex byte transport
// and drives the handshake to an established session. The cryptographic
// work is delegated to a pluggable engine; suspension-capable engines
// surface in-flight handshakes as resumable continuations rather than
// failures.
package tls

import (
	"fmt"
	"io"

	"github.com/nnmkhang/go-native-tls/pkg/certstore"
	"github.com/nnmkhang/go-native-tls/pkg/engine"
	"github.com/nnmkhang/go-native-tls/pkg/engine/stdtls"
	"github.com/nnmkhang/go-native-tls/pkg/identity"
	"github.com/nnmkhang/go-native-tls/pkg/logging"
	"github.com/nnmkhang/go-native-tls/pkg/metrics"
	"github.com/nnmkhang/go-native-tls/pkg/types"
)

// ConnectorBuilder accumulates client-side session configuration.
// The zero value is not usable; use NewConnectorBuilder.
type ConnectorBuilder struct {
	identity               *identity.Identity
	protocols              types.ProtocolRange
	roots                  []*certstore.Certificate
	useSNI                 bool
	acceptInvalidHostnames bool
	acceptInvalidCerts     bool
	disableBuiltInRoots    bool
	alpn                   []string
	eng                    engine.Engine
	logger                 *logging.Logger
}

// NewConnectorBuilder creates a builder with SNI enabled and all
// validation active.
func NewConnectorBuilder() *ConnectorBuilder {
	return &ConnectorBuilder{
		useSNI: true,
	}
}

// WithIdentity sets the client identity presented when the server
// requests authentication. Optional.
func (b *ConnectorBuilder) WithIdentity(id *identity.Identity) *ConnectorBuilder {
	b.identity = id
	return b
}

// MinProtocol sets the inclusive lower protocol version bound.
func (b *ConnectorBuilder) MinProtocol(p types.Protocol) *ConnectorBuilder {
	b.protocols.Min = types.ProtocolPtr(p)
	return b
}

// MaxProtocol sets the inclusive upper protocol version bound.
func (b *ConnectorBuilder) MaxProtocol(p types.Protocol) *ConnectorBuilder {
	b.protocols.Max = types.ProtocolPtr(p)
	return b
}

// AddRootCertificate adds a trust anchor for peer validation.
func (b *ConnectorBuilder) AddRootCertificate(cert *certstore.Certificate) *ConnectorBuilder {
	b.roots = append(b.roots, cert)
	return b
}

// UseSNI controls whether the server name is sent during the handshake.
// Enabled by default.
func (b *ConnectorBuilder) UseSNI(use bool) *ConnectorBuilder {
	b.useSNI = use
	return b
}

// AcceptInvalidHostnames disables hostname validation while keeping
// chain validation active.
func (b *ConnectorBuilder) AcceptInvalidHostnames(accept bool) *ConnectorBuilder {
	b.acceptInvalidHostnames = accept
	return b
}

// AcceptInvalidCerts disables all peer validation. This defeats the
// purpose of TLS; use only against endpoints you control.
func (b *ConnectorBuilder) AcceptInvalidCerts(accept bool) *ConnectorBuilder {
	b.acceptInvalidCerts = accept
	return b
}

// DisableBuiltInRoots restricts trust to the roots added through
// AddRootCertificate, excluding the platform trust store, and requires
// one of them to appear in the final chain.
func (b *ConnectorBuilder) DisableBuiltInRoots(disable bool) *ConnectorBuilder {
	b.disableBuiltInRoots = disable
	return b
}

// RequestALPN sets the application protocol offer list, most preferred
// first.
func (b *ConnectorBuilder) RequestALPN(protocols ...string) *ConnectorBuilder {
	b.alpn = append([]string(nil), protocols...)
	return b
}

// WithEngine overrides the protocol engine. Defaults to the crypto/tls
// engine.
func (b *ConnectorBuilder) WithEngine(eng engine.Engine) *ConnectorBuilder {
	b.eng = eng
	return b
}

// WithLogger overrides the handshake lifecycle logger.
func (b *ConnectorBuilder) WithLogger(logger *logging.Logger) *ConnectorBuilder {
	b.logger = logger
	return b
}

// Build validates the configuration and produces an immutable Connector.
func (b *ConnectorBuilder) Build() (*Connector, error) {
	if err := b.protocols.Validate(); err != nil {
		return nil, err
	}

	roots := certstore.NewMemoryStore()
	for _, cert := range b.roots {
		if _, err := roots.Add(cert, certstore.AddReplaceExisting); err != nil {
			return nil, fmt.Errorf("failed to add root certificate: %w", err)
		}
	}

	policy := DefaultVerify()
	if b.acceptInvalidCerts {
		policy = AcceptAllVerify()
	} else if b.disableBuiltInRoots {
		policy = RestrictedRootsVerify(roots)
	}

	eng := b.eng
	if eng == nil {
		eng = stdtls.New()
	}
	logger := b.logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	return &Connector{
		identity:               b.identity,
		protocols:              b.protocols,
		roots:                  roots,
		useSNI:                 b.useSNI,
		acceptInvalidHostnames: b.acceptInvalidHostnames,
		disableBuiltInRoots:    b.disableBuiltInRoots,
		alpn:                   append([]string(nil), b.alpn...),
		policy:                 policy,
		eng:                    eng,
		logger:                 logger,
	}, nil
}

// Connector opens client sessions over caller-supplied transports. It is
// immutable and safe for concurrent use.
type Connector struct {
	identity               *identity.Identity
	protocols              types.ProtocolRange
	roots                  *certstore.MemoryStore
	useSNI                 bool
	acceptInvalidHostnames bool
	disableBuiltInRoots    bool
	alpn                   []string
	policy                 VerifyPolicy
	eng                    engine.Engine
	logger                 *logging.Logger
}

// Policy returns the connector's verification policy.
func (c *Connector) Policy() VerifyPolicy {
	return c.policy
}

// Connect runs a client handshake with serverName over the transport.
// It returns the established session, a *HandshakeSuspendedError whose
// continuation must be resumed, or a terminal error. The session takes
// exclusive ownership of the transport.
func (c *Connector) Connect(serverName string, transport io.ReadWriter) (*Session, error) {
	enabled := c.protocols.Enabled(types.SupportedProtocols)
	if len(enabled) == 0 {
		metrics.RecordError(metrics.OpHandshake, "no_protocols")
		return nil, ErrNoProtocolsEnabled
	}

	cred, err := c.eng.AcquireCredential(engine.Outbound, enabled, c.identity)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire outbound credential: %w", err)
	}

	cfg := &engine.Config{
		ServerName:             serverName,
		UseSNI:                 c.useSNI,
		AcceptInvalidHostnames: c.acceptInvalidHostnames,
		Roots:                  c.roots,
		DisableSystemRoots:     c.disableBuiltInRoots,
		ALPN:                   c.alpn,
		Verify:                 c.policy.callback(),
	}

	conn, err := c.eng.NewConn(cred, cfg, transport)
	if err != nil {
		cred.Close()
		return nil, fmt.Errorf("failed to bind transport: %w", err)
	}

	return newMidHandshake(conn, cred, metrics.RoleClient, c.logger).drive()
}
