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
	"errors"
	"io"

	"github.com/nnmkhang/go-native-tls/pkg/certstore"
	"github.com/nnmkhang/go-native-tls/pkg/engine"
	"github.com/nnmkhang/go-native-tls/pkg/metrics"
	"github.com/nnmkhang/go-native-tls/pkg/types"
)

// Session is an established TLS session. Read and Write exchange
// application data over the encrypted channel; introspection methods
// report the negotiated parameters. A Session is not safe for
// concurrent use of the same method; the usual one-reader one-writer
// split is fine.
type Session struct {
	conn   engine.Conn
	cred   engine.Credential
	role   string
	closed bool
}

// Read reads decrypted application data.
func (s *Session) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}
	n, err := s.conn.Read(p)
	if err != nil && err != io.EOF {
		metrics.RecordError(metrics.OpRead, "io_error")
	}
	return n, err
}

// Write encrypts and writes application data.
func (s *Session) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}
	n, err := s.conn.Write(p)
	if err != nil {
		metrics.RecordError(metrics.OpWrite, "io_error")
	}
	return n, err
}

// Shutdown sends the protocol-level close notification. The transport
// itself stays open; its lifecycle belongs to the caller.
func (s *Session) Shutdown() error {
	if s.closed {
		return ErrSessionClosed
	}
	if err := s.conn.Shutdown(); err != nil {
		metrics.RecordError(metrics.OpShutdown, "io_error")
		return err
	}
	return nil
}

// Close shuts the session down and releases the engine credential.
// Subsequent operations return ErrSessionClosed. Close is idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	shutdownErr := s.conn.Shutdown()
	credErr := s.cred.Close()
	metrics.DecrementActiveSessions(s.role)

	if shutdownErr != nil {
		return shutdownErr
	}
	return credErr
}

// IsServer reports whether this side accepted the handshake.
func (s *Session) IsServer() bool {
	return s.conn.IsServer()
}

// PeerCertificate returns the peer's leaf certificate, or nil when the
// handshake completed without peer authentication.
func (s *Session) PeerCertificate() (*certstore.Certificate, error) {
	cert, err := s.conn.PeerCertificate()
	if errors.Is(err, engine.ErrNoCredentials) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cert, nil
}

// NegotiatedALPN returns the negotiated application protocol, or ""
// when none was negotiated.
func (s *Session) NegotiatedALPN() (string, error) {
	return s.conn.NegotiatedProtocol()
}

// BufferedReadSize returns the number of decrypted bytes buffered by
// the engine's record layer.
func (s *Session) BufferedReadSize() (int, error) {
	return s.conn.BufferedReadSize()
}

// TLSServerEndPoint derives the tls-server-end-point channel binding
// token: a digest of the server certificate's DER encoding, using the
// certificate signature hash floored at SHA-256. It returns nil without
// error when no suitable certificate or hash is available.
func (s *Session) TLSServerEndPoint() ([]byte, error) {
	var cert *certstore.Certificate
	var err error
	if s.conn.IsServer() {
		cert, err = s.conn.LocalCertificate()
	} else {
		cert, err = s.conn.PeerCertificate()
	}
	if errors.Is(err, engine.ErrNoCredentials) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	hash, ok := cert.SignatureHash()
	if !ok {
		return nil, nil
	}
	switch hash {
	case types.HashMD5, types.HashSHA1, types.HashSHA256:
		hash = types.HashSHA256
	case types.HashSHA384, types.HashSHA512:
	default:
		return nil, nil
	}

	return cert.Fingerprint(hash)
}
