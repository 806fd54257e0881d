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
	"bytes"
	"io"

	"github.com/nnmkhang/go-native-tls/pkg/certstore"
	"github.com/nnmkhang/go-native-tls/pkg/engine"
	"github.com/nnmkhang/go-native-tls/pkg/identity"
	"github.com/nnmkhang/go-native-tls/pkg/types"
)

// fakeEngine is a scriptable engine for exercising the handshake state
// machine: it can suspend a configurable number of times, fail
// terminally, or complete with canned certificates.
type fakeEngine struct {
	suspendTimes int
	acquireErr   error
	handshakeErr error
	verifyResult *engine.VerifyResult
	peerCert     *certstore.Certificate
	localCert    *certstore.Certificate
	alpn         string
	buffered     int

	lastCred   *fakeCredential
	lastConfig *engine.Config
}

type fakeCredential struct {
	dir    engine.Direction
	closed int
}

func (c *fakeCredential) Close() error {
	c.closed++
	return nil
}

func (e *fakeEngine) AcquireCredential(dir engine.Direction, protocols []types.Protocol, id *identity.Identity) (engine.Credential, error) {
	if e.acquireErr != nil {
		return nil, e.acquireErr
	}
	if dir == engine.Inbound && id == nil {
		return nil, engine.ErrIdentityRequired
	}
	e.lastCred = &fakeCredential{dir: dir}
	return e.lastCred, nil
}

func (e *fakeEngine) NewConn(cred engine.Credential, cfg *engine.Config, transport io.ReadWriter) (engine.Conn, error) {
	e.lastConfig = cfg
	return &fakeConn{
		eng:       e,
		cfg:       cfg,
		transport: transport,
		remaining: e.suspendTimes,
		server:    cred.(*fakeCredential).dir == engine.Inbound,
	}, nil
}

type fakeConn struct {
	eng       *fakeEngine
	cfg       *engine.Config
	transport io.ReadWriter
	remaining int
	server    bool
	steps     int
	buf       bytes.Buffer
}

func (c *fakeConn) Handshake() error {
	c.steps++
	if c.remaining > 0 {
		c.remaining--
		return engine.ErrWouldBlock
	}
	if c.eng.handshakeErr != nil {
		return c.eng.handshakeErr
	}
	if c.cfg.Verify != nil && c.eng.verifyResult != nil {
		if err := c.cfg.Verify(*c.eng.verifyResult); err != nil {
			return err
		}
	}
	return nil
}

func (c *fakeConn) Read(p []byte) (int, error) {
	return c.buf.Read(p)
}

func (c *fakeConn) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *fakeConn) Shutdown() error {
	return nil
}

func (c *fakeConn) PeerCertificate() (*certstore.Certificate, error) {
	if c.eng.peerCert == nil {
		return nil, engine.ErrNoCredentials
	}
	return c.eng.peerCert, nil
}

func (c *fakeConn) LocalCertificate() (*certstore.Certificate, error) {
	if c.eng.localCert == nil {
		return nil, engine.ErrNoCredentials
	}
	return c.eng.localCert, nil
}

func (c *fakeConn) NegotiatedProtocol() (string, error) {
	return c.eng.alpn, nil
}

func (c *fakeConn) BufferedReadSize() (int, error) {
	return c.eng.buffered, nil
}

func (c *fakeConn) IsServer() bool {
	return c.server
}
