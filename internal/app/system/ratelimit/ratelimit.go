// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	wafflerl "github.com/dalemusser/waffle/pantry/ratelimit"
)

// Limiter counts attempts per key in fixed windows and can forget a key.
// Safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New returns a limiter allowing limit attempts per key every duration.
// Call Stop to release the sweeper goroutine.
func New(limit int, duration time.Duration) *Limiter {
	l := newLimiter(limit, duration, time.Now)
	go l.sweep(duration * 2)
	return l
}

func newLimiter(limit int, duration time.Duration, now func() time.Time) *Limiter {
	return &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      now,
		stop:     make(chan struct{}),
	}
}

// Allow records an attempt for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many attempts key has left in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !l.now().Before(w.expiresAt) {
		return l.limit
	}
	return max(l.limit-w.count, 0)
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.windows, key)
	l.mu.Unlock()
}

// Stop ends the sweeper. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictExpired()
		}
	}
}

func (l *Limiter) evictExpired() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, w := range l.windows {
		if !now.Before(w.expiresAt) {
			delete(l.windows, key)
		}
	}
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Scope names which limit refused an attempt.
type Scope string

const (
	ScopeNone  Scope = ""
	ScopeIP    Scope = "ip"
	ScopeEmail Scope = "email"
)

// LoginLimiter throttles sign-in attempts per client IP and per account email.
// The IP scope is a token bucket per address; the email scope is a fixed
// window so a successful sign-in can clear it.
type LoginLimiter struct {
	ip    *wafflerl.KeyLimiter
	email *Limiter
}

// NewLoginLimiter allows bursts of ipLimit attempts per IP, refilled over
// ipWindow, and emailLimit attempts per email every emailWindow.
func NewLoginLimiter(ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ip:    wafflerl.NewKeyLimiter(float64(ipLimit)/ipWindow.Seconds(), ipLimit, ipWindow),
		email: New(emailLimit, emailWindow),
	}
}

// Check records an attempt and returns the scope that refused it, or
// ScopeNone when the attempt may proceed.
func (ll *LoginLimiter) Check(r *http.Request, email string) Scope {
	if !ll.ip.Allow(ClientIP(r)) {
		return ScopeIP
	}
	if key := emailKey(email); key != "" && !ll.email.Allow(key) {
		return ScopeEmail
	}
	return ScopeNone
}

// ResetEmail clears the per-account counter after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := emailKey(email); key != "" {
		ll.email.Reset(key)
	}
}

// Stop releases the email sweeper. The IP limiter cleans up on its own
// ticker for the life of the process.
func (ll *LoginLimiter) Stop() {
	ll.email.Stop()
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Message is the user-facing explanation for a refusal.
func (s Scope) Message() string {
	switch s {
	case ScopeIP:
		return "Too many sign-in attempts. Please wait a minute before trying again."
	case ScopeEmail:
		return "Too many sign-in attempts for this account. Please wait a few minutes."
	default:
		return ""
	}
}
