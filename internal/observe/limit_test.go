package observe

import (
	"sync"
	"testing"

	"github.com/lawnchairsociety/worldgen/internal/config"
)

func TestSubscriberLimiter_PerIPLimit(t *testing.T) {
	limiter := NewSubscriberLimiter(config.ObserveConfig{
		MaxSubscribersPerIP: 2,
		MaxSubscribers:      100,
	})

	if !limiter.TryAcquire("192.168.1.1") {
		t.Error("first subscriber should be allowed")
	}
	if !limiter.TryAcquire("192.168.1.1") {
		t.Error("second subscriber should be allowed")
	}
	if limiter.TryAcquire("192.168.1.1") {
		t.Error("third subscriber from same IP should be rejected")
	}
	if !limiter.TryAcquire("192.168.1.2") {
		t.Error("subscriber from different IP should be allowed")
	}

	limiter.Release("192.168.1.1")
	if !limiter.TryAcquire("192.168.1.1") {
		t.Error("subscriber should be allowed after release")
	}
}

func TestSubscriberLimiter_TotalLimit(t *testing.T) {
	limiter := NewSubscriberLimiter(config.ObserveConfig{
		MaxSubscribersPerIP: 10,
		MaxSubscribers:      3,
	})

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if !limiter.TryAcquire(ip) {
			t.Errorf("subscriber from %s should be allowed", ip)
		}
	}
	if limiter.TryAcquire("10.0.0.4") {
		t.Error("fourth subscriber should be rejected by the total limit")
	}

	total, ips := limiter.Stats()
	if total != 3 || ips != 3 {
		t.Errorf("Stats() = (%d, %d), want (3, 3)", total, ips)
	}
}

func TestSubscriberLimiter_Unlimited(t *testing.T) {
	limiter := NewSubscriberLimiter(config.ObserveConfig{})
	for i := 0; i < 50; i++ {
		if !limiter.TryAcquire("127.0.0.1") {
			t.Fatalf("subscriber %d rejected with no limits set", i)
		}
	}
}

func TestSubscriberLimiter_ReleaseUnknown(t *testing.T) {
	limiter := NewSubscriberLimiter(config.ObserveConfig{MaxSubscribers: 1})
	limiter.Release("10.0.0.9")

	total, ips := limiter.Stats()
	if total != 0 || ips != 0 {
		t.Errorf("Stats() = (%d, %d), want (0, 0)", total, ips)
	}
}

func TestSubscriberLimiter_Concurrent(t *testing.T) {
	limiter := NewSubscriberLimiter(config.ObserveConfig{MaxSubscribers: 10})

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.TryAcquire("10.0.0.1") {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acquired != 10 {
		t.Errorf("acquired %d slots, want 10", acquired)
	}
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"192.168.1.1:4000", "192.168.1.1"},
		{"[::1]:8080", "::1"},
		{"no-port", "no-port"},
	}
	for _, tt := range tests {
		if got := extractIP(tt.addr); got != tt.want {
			t.Errorf("extractIP(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}
