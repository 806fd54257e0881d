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
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestResourceCollectorSample(t *testing.T) {
	Enable()
	defer Disable()

	Goroutines.Set(0)
	MemoryAllocBytes.Set(0)
	MemorySysBytes.Set(0)
	Uptime.Set(0)

	collector := NewResourceCollector(context.Background(), time.Second)
	defer collector.Stop()

	runtime.GC()
	collector.sample()

	if testutil.ToFloat64(Goroutines) < 1 {
		t.Error("expected at least one goroutine")
	}
	if testutil.ToFloat64(MemoryAllocBytes) == 0 {
		t.Error("expected allocated memory to be sampled")
	}
	if testutil.ToFloat64(MemorySysBytes) == 0 {
		t.Error("expected system memory to be sampled")
	}
	if testutil.ToFloat64(Uptime) <= 0 {
		t.Error("expected uptime to be sampled")
	}
}

func TestResourceCollectorSampleWhenDisabled(t *testing.T) {
	Disable()

	Goroutines.Set(0)
	collector := NewResourceCollector(context.Background(), time.Second)
	defer collector.Stop()

	collector.sample()

	if testutil.ToFloat64(Goroutines) != 0 {
		t.Error("expected no sampling while disabled")
	}
}

func TestResourceCollectorPeriodicSampling(t *testing.T) {
	Enable()
	defer Disable()

	Goroutines.Set(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	collector := StartResourceCollector(ctx, 20*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	collector.Stop()

	if testutil.ToFloat64(Goroutines) < 1 {
		t.Error("expected periodic sampling to update gauges")
	}
}

func TestResourceCollectorStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	collector := NewResourceCollector(ctx, time.Second)

	done := make(chan struct{})
	go func() {
		collector.Start()
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("collector did not stop after context cancellation")
	}
}

func TestCollectOnce(t *testing.T) {
	Enable()
	defer Disable()

	Goroutines.Set(0)
	CollectOnce()

	if testutil.ToFloat64(Goroutines) < 1 {
		t.Error("expected an immediate sample")
	}
}

func BenchmarkCollectOnce(b *testing.B) {
	Enable()
	defer Disable()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CollectOnce()
	}
}
