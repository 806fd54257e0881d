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

// Package engine defines the contract between the TLS session layer and
// the underlying protocol engine. The engine owns record framing and the
// cryptographic handshake; the session layer owns configuration,
// handshake progression, and post-handshake introspection.
package engine

import (
	"io"

	"github.com/nnmkhang/go-native-tls/pkg/certstore"
	"github.com/nnmkhang/go-native-tls/pkg/identity"
	"github.com/nnmkhang/go-native-tls/pkg/types"
)

// Direction distinguishes credential acquisition for connecting versus
// accepting.
type Direction int

const (
	// Outbound acquires a client credential.
	Outbound Direction = iota

	// Inbound acquires a server credential.
	Inbound
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Inbound {
		return "inbound"
	}
	return "outbound"
}

// Credential is an engine credential acquired for a single handshake
// attempt. Close must be called on every exit path, including failure.
type Credential interface {
	Close() error
}

// VerifyResult carries the engine's own validation outcome into the
// installed verification callback: the validation error (nil when the
// engine accepted the peer) and the resolved peer chain, leaf first.
type VerifyResult struct {
	Err   error
	Chain []*certstore.Certificate
}

// VerifyFunc is a post-validation hook invoked by the engine during the
// handshake. Returning nil accepts the peer; returning an error aborts
// the handshake with that error.
type VerifyFunc func(VerifyResult) error

// Config carries the per-handshake parameters bound by the connector or
// acceptor.
type Config struct {
	// ServerName is the peer hostname for SNI and hostname validation.
	// Empty for the acceptor side.
	ServerName string

	// UseSNI controls whether ServerName is sent during the handshake.
	UseSNI bool

	// AcceptInvalidHostnames disables hostname validation while keeping
	// chain validation.
	AcceptInvalidHostnames bool

	// Roots is the caller-supplied trust anchor set. May be empty.
	Roots *certstore.MemoryStore

	// DisableSystemRoots restricts validation anchors to Roots, excluding
	// the platform's built-in trust store.
	DisableSystemRoots bool

	// ALPN is the application protocol offer list, most preferred first.
	ALPN []string

	// Verify, when non-nil, replaces the engine's dispositive validation:
	// the engine still validates and reports its result, but acceptance
	// is decided by the callback.
	Verify VerifyFunc
}

// Engine is the pluggable protocol engine.
type Engine interface {
	// AcquireCredential acquires a credential for the given direction,
	// enabled protocol versions, and optional identity. The identity is
	// required for Inbound credentials.
	AcquireCredential(dir Direction, protocols []types.Protocol, id *identity.Identity) (Credential, error)

	// NewConn binds a credential and configuration to a transport,
	// producing a connection whose handshake has not yet been driven.
	// The connection takes exclusive ownership of the transport.
	NewConn(cred Credential, cfg *Config, transport io.ReadWriter) (Conn, error)
}

// Conn is an engine connection. Handshake drives the handshake one step:
// nil means the session is established, an error matching ErrWouldBlock
// means the handshake is suspended and Handshake must be re-invoked after
// the transport can make progress, and any other error is terminal.
type Conn interface {
	io.Reader
	io.Writer

	// Handshake drives the handshake toward completion.
	Handshake() error

	// Shutdown sends the protocol-level close and propagates transport
	// errors.
	Shutdown() error

	// PeerCertificate returns the peer's leaf certificate. A handshake
	// completed without peer authentication reports ErrNoCredentials.
	PeerCertificate() (*certstore.Certificate, error)

	// LocalCertificate returns this side's own certificate, or
	// ErrNoCredentials when the handshake presented none.
	LocalCertificate() (*certstore.Certificate, error)

	// NegotiatedProtocol returns the ALPN result, or "" when no protocol
	// was negotiated.
	NegotiatedProtocol() (string, error)

	// BufferedReadSize returns the number of decrypted bytes buffered by
	// the record layer, where the engine exposes it.
	BufferedReadSize() (int, error)

	// IsServer reports whether this side accepted the handshake.
	IsServer() bool
}
