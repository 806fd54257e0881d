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
	"fmt"
	"time"

	"github.com/nnmkhang/go-native-tls/pkg/correlation"
	"github.com/nnmkhang/go-native-tls/pkg/engine"
	"github.com/nnmkhang/go-native-tls/pkg/logging"
	"github.com/nnmkhang/go-native-tls/pkg/metrics"
)

// MidHandshake is a suspended handshake attempt. It owns the engine
// connection and credential until the attempt reaches a terminal state.
// A MidHandshake must be driven from a single goroutine; it performs no
// internal locking.
type MidHandshake struct {
	conn        engine.Conn
	cred        engine.Credential
	role        string
	started     time.Time
	suspensions int
	consumed    bool
	logger      *logging.Logger
	id          string
}

func newMidHandshake(conn engine.Conn, cred engine.Credential, role string, logger *logging.Logger) *MidHandshake {
	return &MidHandshake{
		conn:    conn,
		cred:    cred,
		role:    role,
		started: time.Now(),
		logger:  logger,
		id:      correlation.NewID(),
	}
}

// Resume re-drives a suspended handshake after the transport can make
// progress. It yields the established session, another suspension, or a
// terminal failure.
func (m *MidHandshake) Resume() (*Session, error) {
	if m.consumed {
		metrics.RecordError(metrics.OpResume, "attempt_consumed")
		return nil, ErrHandshakeConsumed
	}
	return m.drive()
}

// Suspensions returns how many times this attempt has yielded so far.
func (m *MidHandshake) Suspensions() int {
	return m.suspensions
}

// drive advances the handshake one step and classifies the outcome.
func (m *MidHandshake) drive() (*Session, error) {
	err := m.conn.Handshake()
	switch {
	case err == nil:
		m.consumed = true
		duration := time.Since(m.started).Seconds()
		metrics.RecordHandshake(m.role, metrics.StatusSuccess, duration)
		metrics.IncrementActiveSessions(m.role)
		if alpn, aerr := m.conn.NegotiatedProtocol(); aerr == nil && alpn != "" {
			metrics.RecordNegotiatedProtocol(alpn)
		}
		m.logger.Debugf("handshake complete id=%s role=%s suspensions=%d", m.id, m.role, m.suspensions)
		return &Session{conn: m.conn, cred: m.cred, role: m.role}, nil

	case errors.Is(err, engine.ErrWouldBlock):
		m.suspensions++
		metrics.RecordSuspension(m.role)
		m.logger.Debugf("handshake suspended id=%s role=%s suspensions=%d", m.id, m.role, m.suspensions)
		return nil, &HandshakeSuspendedError{mid: m}

	default:
		m.consumed = true
		metrics.RecordHandshake(m.role, metrics.StatusError, time.Since(m.started).Seconds())
		metrics.RecordError(metrics.OpHandshake, handshakeErrorType(err))
		m.logger.Debugf("handshake failed id=%s role=%s err=%v", m.id, m.role, err)
		m.cred.Close()
		return nil, &HandshakeError{Err: err}
	}
}

// HandshakeSuspendedError reports a suspended handshake. It is not a
// failure: the wrapped MidHandshake remains valid and must be resumed
// once the transport can make progress.
type HandshakeSuspendedError struct {
	mid *MidHandshake
}

// Error implements the error interface.
func (e *HandshakeSuspendedError) Error() string {
	return "tls: handshake suspended, transport would block"
}

// Mid returns the suspended handshake continuation.
func (e *HandshakeSuspendedError) Mid() *MidHandshake {
	return e.mid
}

// Suspended extracts the handshake continuation from a Connect or Accept
// error. It returns false for terminal failures.
func Suspended(err error) (*MidHandshake, bool) {
	var suspended *HandshakeSuspendedError
	if errors.As(err, &suspended) {
		return suspended.mid, true
	}
	return nil, false
}

// HandshakeError reports a terminal handshake failure. The attempt is
// consumed; the underlying engine error is available via Unwrap.
type HandshakeError struct {
	Err error
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	return fmt.Sprintf("tls: handshake failed: %v", e.Err)
}

// Unwrap returns the underlying engine error.
func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// handshakeErrorType maps a terminal handshake error to a metric label.
func handshakeErrorType(err error) string {
	switch {
	case errors.Is(err, ErrUntrustedRoot):
		return "untrusted_root"
	case errors.Is(err, engine.ErrNoCredentials):
		return "no_credentials"
	default:
		return "handshake_failure"
	}
}
