package http

import (
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := newRateLimiter(3)
	defer rl.stop()

	var metrics securityMetrics
	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1", &metrics) {
			t.Fatalf("request %d denied under the limit", i+1)
		}
	}
	if rl.allow("10.0.0.1", &metrics) {
		t.Fatal("request over the limit allowed")
	}
	if metrics.rateLimitHits != 1 {
		t.Fatalf("rateLimitHits = %d, want 1", metrics.rateLimitHits)
	}

	// Another client has its own budget.
	if !rl.allow("10.0.0.2", &metrics) {
		t.Fatal("separate client denied")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.stop()

	if !rl.allow("10.0.0.1", nil) {
		t.Fatal("first request denied")
	}
	if rl.allow("10.0.0.1", nil) {
		t.Fatal("second request in the same window allowed")
	}

	// Age the client entry past the one-minute window.
	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastRequest = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if !rl.allow("10.0.0.1", nil) {
		t.Fatal("request after window reset denied")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := newRateLimiter(60)
	defer rl.stop()

	rl.allow("10.0.0.1", nil)
	rl.allow("10.0.0.2", nil)

	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastRequest = time.Now().Add(-15 * time.Minute)
	rl.mu.Unlock()

	rl.cleanupStaleEntries()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.clients["10.0.0.1"]; ok {
		t.Fatal("stale client survived cleanup")
	}
	if _, ok := rl.clients["10.0.0.2"]; !ok {
		t.Fatal("fresh client removed by cleanup")
	}
}

func TestRateLimiterStopIdempotent(t *testing.T) {
	rl := newRateLimiter(60)
	rl.stop()
	rl.stop()
}
