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

// Package metrics provides Prometheus instrumentation for TLS session
// operations. It exposes handshake counters, latency histograms, error
// counters, and resource gauges for monitoring connector and acceptor
// health.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all session metrics
	Namespace = "nativetls"

	// Label names
	LabelRole      = "role"
	LabelStatus    = "status"
	LabelOperation = "operation"
	LabelErrorType = "error_type"
	LabelProtocol  = "protocol"
	LabelSource    = "source"

	// Role values
	RoleClient = "client"
	RoleServer = "server"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpHandshake = "handshake"
	OpResume    = "resume"
	OpShutdown  = "shutdown"
	OpRead      = "read"
	OpWrite     = "write"

	// Identity source values
	SourcePKCS12   = "pkcs12"
	SourcePKCS8    = "pkcs8"
	SourceProvider = "provider"
)

var (
	// HandshakesTotal tracks completed handshake attempts by role and status.
	// Suspended handshakes are counted once, on their terminal outcome.
	HandshakesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "handshakes_total",
			Help:      "Total number of completed handshake attempts by role and status",
		},
		[]string{LabelRole, LabelStatus},
	)

	// HandshakeDuration tracks wall-clock handshake time in seconds,
	// including time spent suspended between resume calls.
	HandshakeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "handshake_duration_seconds",
			Help:      "Duration of handshakes in seconds including suspended time",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{LabelRole},
	)

	// HandshakeSuspensionsTotal tracks how many times handshakes yielded
	// back to the caller before completing.
	HandshakeSuspensionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "handshake_suspensions_total",
			Help:      "Total number of handshake suspensions by role",
		},
		[]string{LabelRole},
	)

	// ErrorsTotal tracks session errors by operation and error type.
	// Error types should be specific (e.g., "untrusted_root", "no_protocols").
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of session errors by operation and error type",
		},
		[]string{LabelOperation, LabelErrorType},
	)

	// ActiveSessions tracks the number of established sessions by role.
	ActiveSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "active_sessions",
			Help:      "Number of active established sessions by role",
		},
		[]string{LabelRole},
	)

	// NegotiatedProtocolsTotal tracks negotiated application protocols.
	NegotiatedProtocolsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "negotiated_protocols_total",
			Help:      "Total number of sessions by negotiated application protocol",
		},
		[]string{LabelProtocol},
	)

	// IdentityResolutionsTotal tracks identity resolutions by source and status.
	IdentityResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "identity_resolutions_total",
			Help:      "Total number of identity resolutions by source and status",
		},
		[]string{LabelSource, LabelStatus},
	)

	// Goroutines tracks the current number of goroutines.
	// Updated periodically by the resource collector.
	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	// MemoryAllocBytes tracks the current bytes of allocated heap objects.
	// Updated periodically by the resource collector.
	MemoryAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Current bytes of allocated heap objects",
		},
	)

	// MemorySysBytes tracks the total bytes of memory obtained from the OS.
	// Updated periodically by the resource collector.
	MemorySysBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_sys_bytes",
			Help:      "Total bytes of memory obtained from the OS",
		},
	)

	// GCPauseTotalSeconds tracks the cumulative time spent in GC stop-the-world pauses.
	// Updated periodically by the resource collector.
	GCPauseTotalSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "gc_pause_total_seconds",
			Help:      "Cumulative time spent in GC stop-the-world pauses",
		},
	)

	// Uptime tracks process uptime in seconds since startup.
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds since startup",
		},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordHandshake records a terminal handshake outcome with its duration.
//
// Parameters:
//   - role: RoleClient or RoleServer
//   - status: StatusSuccess or StatusError
//   - duration: Wall-clock handshake duration in seconds
//
// Example:
//
//	start := time.Now()
//	session, err := connector.Connect(serverName, conn)
//	duration := time.Since(start).Seconds()
//	if err != nil {
//	    RecordHandshake(RoleClient, StatusError, duration)
//	} else {
//	    RecordHandshake(RoleClient, StatusSuccess, duration)
//	}
func RecordHandshake(role, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	HandshakesTotal.WithLabelValues(role, status).Inc()
	HandshakeDuration.WithLabelValues(role).Observe(duration)
}

// RecordSuspension records one handshake suspension.
func RecordSuspension(role string) {
	if !enabled.Load() {
		return
	}
	HandshakeSuspensionsTotal.WithLabelValues(role).Inc()
}

// RecordError records an error event with context about where it occurred.
//
// Parameters:
//   - operation: The operation during which the error occurred (use Op* constants)
//   - errorType: A specific error type identifier (e.g., "untrusted_root", "no_protocols")
func RecordError(operation, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordNegotiatedProtocol records the application protocol of an
// established session.
func RecordNegotiatedProtocol(protocol string) {
	if !enabled.Load() {
		return
	}
	NegotiatedProtocolsTotal.WithLabelValues(protocol).Inc()
}

// RecordIdentityResolution records an identity resolution attempt.
//
// Parameters:
//   - source: SourcePKCS12, SourcePKCS8, or SourceProvider
//   - status: StatusSuccess or StatusError
func RecordIdentityResolution(source, status string) {
	if !enabled.Load() {
		return
	}
	IdentityResolutionsTotal.WithLabelValues(source, status).Inc()
}

// IncrementActiveSessions increments the active session count for a role.
func IncrementActiveSessions(role string) {
	if !enabled.Load() {
		return
	}
	ActiveSessions.WithLabelValues(role).Inc()
}

// DecrementActiveSessions decrements the active session count for a role.
func DecrementActiveSessions(role string) {
	if !enabled.Load() {
		return
	}
	ActiveSessions.WithLabelValues(role).Dec()
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
