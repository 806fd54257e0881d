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

package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsEnabled(t *testing.T) {
	Enable()
	if !IsEnabled() {
		t.Error("Expected metrics to be enabled")
	}

	Disable()
	if IsEnabled() {
		t.Error("Expected metrics to be disabled")
	}

	Enable()
	if !IsEnabled() {
		t.Error("Expected metrics to be re-enabled")
	}
}

func TestRecordHandshake(t *testing.T) {
	Enable()

	before := testutil.ToFloat64(HandshakesTotal.WithLabelValues(RoleClient, StatusSuccess))

	RecordHandshake(RoleClient, StatusSuccess, 0.012)

	after := testutil.ToFloat64(HandshakesTotal.WithLabelValues(RoleClient, StatusSuccess))
	if after != before+1 {
		t.Errorf("Expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestRecordHandshakeWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()

	before := testutil.ToFloat64(HandshakesTotal.WithLabelValues(RoleServer, StatusError))

	RecordHandshake(RoleServer, StatusError, 0.5)

	after := testutil.ToFloat64(HandshakesTotal.WithLabelValues(RoleServer, StatusError))
	if after != before {
		t.Errorf("Expected counter unchanged while disabled, got %v -> %v", before, after)
	}
}

func TestRecordSuspension(t *testing.T) {
	Enable()

	before := testutil.ToFloat64(HandshakeSuspensionsTotal.WithLabelValues(RoleClient))

	RecordSuspension(RoleClient)
	RecordSuspension(RoleClient)

	after := testutil.ToFloat64(HandshakeSuspensionsTotal.WithLabelValues(RoleClient))
	if after != before+2 {
		t.Errorf("Expected counter to increment by 2, got %v -> %v", before, after)
	}
}

func TestRecordError(t *testing.T) {
	Enable()

	before := testutil.ToFloat64(ErrorsTotal.WithLabelValues(OpHandshake, "untrusted_root"))

	RecordError(OpHandshake, "untrusted_root")

	after := testutil.ToFloat64(ErrorsTotal.WithLabelValues(OpHandshake, "untrusted_root"))
	if after != before+1 {
		t.Errorf("Expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestRecordNegotiatedProtocol(t *testing.T) {
	Enable()

	before := testutil.ToFloat64(NegotiatedProtocolsTotal.WithLabelValues("h2"))

	RecordNegotiatedProtocol("h2")

	after := testutil.ToFloat64(NegotiatedProtocolsTotal.WithLabelValues("h2"))
	if after != before+1 {
		t.Errorf("Expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestRecordIdentityResolution(t *testing.T) {
	Enable()

	before := testutil.ToFloat64(IdentityResolutionsTotal.WithLabelValues(SourcePKCS12, StatusSuccess))

	RecordIdentityResolution(SourcePKCS12, StatusSuccess)

	after := testutil.ToFloat64(IdentityResolutionsTotal.WithLabelValues(SourcePKCS12, StatusSuccess))
	if after != before+1 {
		t.Errorf("Expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestActiveSessions(t *testing.T) {
	Enable()

	before := testutil.ToFloat64(ActiveSessions.WithLabelValues(RoleServer))

	IncrementActiveSessions(RoleServer)
	IncrementActiveSessions(RoleServer)
	DecrementActiveSessions(RoleServer)

	after := testutil.ToFloat64(ActiveSessions.WithLabelValues(RoleServer))
	if after != before+1 {
		t.Errorf("Expected gauge to net +1, got %v -> %v", before, after)
	}

	DecrementActiveSessions(RoleServer)
}

func TestRoleConstants(t *testing.T) {
	if RoleClient != "client" {
		t.Errorf("Expected role 'client', got %s", RoleClient)
	}
	if RoleServer != "server" {
		t.Errorf("Expected role 'server', got %s", RoleServer)
	}
}

func TestStatusConstants(t *testing.T) {
	if StatusSuccess != "success" {
		t.Errorf("Expected status 'success', got %s", StatusSuccess)
	}
	if StatusError != "error" {
		t.Errorf("Expected status 'error', got %s", StatusError)
	}
}

func TestMetricsNamespace(t *testing.T) {
	if Namespace != "nativetls" {
		t.Errorf("Expected namespace 'nativetls', got %s", Namespace)
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	Enable()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordHandshake(RoleClient, StatusSuccess, 0.001)
				RecordSuspension(RoleServer)
				IncrementActiveSessions(RoleClient)
				DecrementActiveSessions(RoleClient)
			}
		}()
	}
	wg.Wait()
}

func BenchmarkRecordHandshake(b *testing.B) {
	Enable()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RecordHandshake(RoleClient, StatusSuccess, 0.001)
	}
}

func BenchmarkRecordSuspension(b *testing.B) {
	Enable()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		RecordSuspension(RoleServer)
	}
}
