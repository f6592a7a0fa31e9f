package observe

import (
	"net"
	"sync"

	"github.com/lawnchairsociety/worldgen/internal/config"
)

// SubscriberLimiter tracks and limits event-stream subscribers per IP and
// in total.
type SubscriberLimiter struct {
	mu         sync.Mutex
	ipCounts   map[string]int
	totalCount int
	maxPerIP   int
	maxTotal   int
}

// NewSubscriberLimiter creates a limiter from the observe settings.
func NewSubscriberLimiter(cfg config.ObserveConfig) *SubscriberLimiter {
	return &SubscriberLimiter{
		ipCounts: make(map[string]int),
		maxPerIP: cfg.MaxSubscribersPerIP,
		maxTotal: cfg.MaxSubscribers,
	}
}

// TryAcquire takes a slot for ip. Returns false if it would exceed a limit.
func (l *SubscriberLimiter) TryAcquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.maxTotal > 0 && l.totalCount >= l.maxTotal {
		return false
	}
	if l.maxPerIP > 0 && l.ipCounts[ip] >= l.maxPerIP {
		return false
	}

	l.ipCounts[ip]++
	l.totalCount++
	return true
}

// Release returns a slot taken for ip.
func (l *SubscriberLimiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ipCounts[ip] > 0 {
		l.ipCounts[ip]--
		if l.ipCounts[ip] == 0 {
			delete(l.ipCounts, ip)
		}
	}
	if l.totalCount > 0 {
		l.totalCount--
	}
}

// Stats returns the subscriber count and the number of distinct IPs.
func (l *SubscriberLimiter) Stats() (total int, ips int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalCount, len(l.ipCounts)
}

// extractIP extracts the IP address from a remote address string (ip:port format).
func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
