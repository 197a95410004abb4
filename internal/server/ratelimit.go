package server

import (
	"fmt"
	"sync"
	"time"
)

// Limiter tracks per-client request rates and daily upload quotas. Barcode
// uploads are expensive to process, so the scan routes sit behind it.
type Limiter struct {
	mu sync.Mutex

	requestsPerMinute int
	requestsPerHour   int

	maxRequestsPerDay int
	maxDataPerDay     int64

	clients map[string]*clientUsage
}

// clientUsage tracks usage for one client, keyed by IP.
type clientUsage struct {
	requestsLastMinute int
	requestsLastHour   int
	requestsToday      int

	dataToday int64

	lastRequestTime time.Time
	dayStartTime    time.Time
}

// NewLimiter creates a limiter with the given limits. A zero limit disables
// that particular check.
func NewLimiter(requestsPerMinute, requestsPerHour, maxRequestsPerDay int, maxDataPerDay int64) *Limiter {
	return &Limiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		maxRequestsPerDay: maxRequestsPerDay,
		maxDataPerDay:     maxDataPerDay,
		clients:           make(map[string]*clientUsage),
	}
}

// Allow admits or rejects one request of dataSize bytes for the client.
// Counters are only charged when the request is admitted.
func (l *Limiter) Allow(clientID string, dataSize int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	usage := l.getOrCreate(clientID, now)

	l.rollWindows(usage, now)

	if err := l.checkRates(usage, now); err != nil {
		return err
	}
	if err := l.checkQuotas(usage, dataSize, now); err != nil {
		return err
	}

	usage.requestsLastMinute++
	usage.requestsLastHour++
	usage.requestsToday++
	usage.dataToday += dataSize
	usage.lastRequestTime = now

	return nil
}

// rollWindows resets counters whose time window has lapsed.
func (l *Limiter) rollWindows(usage *clientUsage, now time.Time) {
	if now.Day() != usage.dayStartTime.Day() || now.Month() != usage.dayStartTime.Month() {
		usage.requestsToday = 0
		usage.dataToday = 0
		usage.dayStartTime = now
	}
	if now.Sub(usage.lastRequestTime) >= time.Minute {
		usage.requestsLastMinute = 0
	}
	if now.Sub(usage.lastRequestTime) >= time.Hour {
		usage.requestsLastHour = 0
	}
}

func (l *Limiter) checkRates(usage *clientUsage, now time.Time) error {
	if l.requestsPerMinute > 0 && usage.requestsLastMinute >= l.requestsPerMinute {
		return &RateLimitError{
			Type:       "minute",
			Limit:      l.requestsPerMinute,
			RetryAfter: time.Minute - now.Sub(usage.lastRequestTime),
		}
	}
	if l.requestsPerHour > 0 && usage.requestsLastHour >= l.requestsPerHour {
		return &RateLimitError{
			Type:       "hour",
			Limit:      l.requestsPerHour,
			RetryAfter: time.Hour - now.Sub(usage.lastRequestTime),
		}
	}
	return nil
}

func (l *Limiter) checkQuotas(usage *clientUsage, dataSize int64, now time.Time) error {
	if l.maxRequestsPerDay > 0 && usage.requestsToday >= l.maxRequestsPerDay {
		return &QuotaExceededError{
			Type:   "requests",
			Limit:  int64(l.maxRequestsPerDay),
			Used:   int64(usage.requestsToday),
			Resets: nextMidnight(now),
		}
	}
	if l.maxDataPerDay > 0 && usage.dataToday+dataSize > l.maxDataPerDay {
		return &QuotaExceededError{
			Type:   "data",
			Limit:  l.maxDataPerDay,
			Used:   usage.dataToday,
			Resets: nextMidnight(now),
		}
	}
	return nil
}

func (l *Limiter) getOrCreate(clientID string, now time.Time) *clientUsage {
	usage, ok := l.clients[clientID]
	if !ok {
		usage = &clientUsage{
			lastRequestTime: now,
			dayStartTime:    now,
		}
		l.clients[clientID] = usage
	}
	return usage
}

func nextMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}

// RateLimitError reports a minute or hour rate violation.
type RateLimitError struct {
	Type       string
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// QuotaExceededError reports a daily request or data quota violation.
type QuotaExceededError struct {
	Type   string
	Limit  int64
	Used   int64
	Resets time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (used: %d, limit: %d, resets: %s)",
		e.Type, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
