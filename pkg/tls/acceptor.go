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
	"fmt"
	"io"

	"github.com/nnmkhang/go-native-tls/pkg/engine"
	"github.com/nnmkhang/go-native-tls/pkg/engine/stdtls"
	"github.com/nnmkhang/go-native-tls/pkg/identity"
	"github.com/nnmkhang/go-native-tls/pkg/logging"
	"github.com/nnmkhang/go-native-tls/pkg/metrics"
	"github.com/nnmkhang/go-native-tls/pkg/types"
)

// AcceptorBuilder accumulates server-side session configuration. Unlike
// the connector, an identity is mandatory.
type AcceptorBuilder struct {
	identity  *identity.Identity
	protocols types.ProtocolRange
	alpn      []string
	eng       engine.Engine
	logger    *logging.Logger
}

// NewAcceptorBuilder creates a builder serving the given identity.
func NewAcceptorBuilder(id *identity.Identity) *AcceptorBuilder {
	return &AcceptorBuilder{identity: id}
}

// MinProtocol sets the inclusive lower protocol version bound.
func (b *AcceptorBuilder) MinProtocol(p types.Protocol) *AcceptorBuilder {
	b.protocols.Min = types.ProtocolPtr(p)
	return b
}

// MaxProtocol sets the inclusive upper protocol version bound.
func (b *AcceptorBuilder) MaxProtocol(p types.Protocol) *AcceptorBuilder {
	b.protocols.Max = types.ProtocolPtr(p)
	return b
}

// SupportALPN sets the application protocols the acceptor is willing to
// negotiate, most preferred first.
func (b *AcceptorBuilder) SupportALPN(protocols ...string) *AcceptorBuilder {
	b.alpn = append([]string(nil), protocols...)
	return b
}

// WithEngine overrides the protocol engine. Defaults to the crypto/tls
// engine.
func (b *AcceptorBuilder) WithEngine(eng engine.Engine) *AcceptorBuilder {
	b.eng = eng
	return b
}

// WithLogger overrides the handshake lifecycle logger.
func (b *AcceptorBuilder) WithLogger(logger *logging.Logger) *AcceptorBuilder {
	b.logger = logger
	return b
}

// Build validates the configuration and produces an immutable Acceptor.
func (b *AcceptorBuilder) Build() (*Acceptor, error) {
	if b.identity == nil {
		return nil, ErrIdentityRequired
	}
	if err := b.protocols.Validate(); err != nil {
		return nil, err
	}

	eng := b.eng
	if eng == nil {
		eng = stdtls.New()
	}
	logger := b.logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	return &Acceptor{
		identity:  b.identity,
		protocols: b.protocols,
		alpn:      append([]string(nil), b.alpn...),
		eng:       eng,
		logger:    logger,
	}, nil
}

// Acceptor accepts server sessions over caller-supplied transports. It
// is immutable and safe for concurrent use; each Accept call drives an
// independent handshake.
type Acceptor struct {
	identity  *identity.Identity
	protocols types.ProtocolRange
	alpn      []string
	eng       engine.Engine
	logger    *logging.Logger
}

// Accept runs a server handshake over the transport. It returns the
// established session, a *HandshakeSuspendedError whose continuation
// must be resumed, or a terminal error. The session takes exclusive
// ownership of the transport.
func (a *Acceptor) Accept(transport io.ReadWriter) (*Session, error) {
	enabled := a.protocols.Enabled(types.SupportedProtocols)
	if len(enabled) == 0 {
		metrics.RecordError(metrics.OpHandshake, "no_protocols")
		return nil, ErrNoProtocolsEnabled
	}

	cred, err := a.eng.AcquireCredential(engine.Inbound, enabled, a.identity)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire inbound credential: %w", err)
	}

	cfg := &engine.Config{
		ALPN: a.alpn,
	}

	conn, err := a.eng.NewConn(cred, cfg, transport)
	if err != nil {
		cred.Close()
		return nil, fmt.Errorf("failed to bind transport: %w", err)
	}

	return newMidHandshake(conn, cred, metrics.RoleServer, a.logger).drive()
}
