// Package ratelimit provides windowed rate limiting for login attempts and
// booking creation.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	// Login limits (per source IP)
	LoginMaxPerWindow int           // Max login attempts per IP per window (default: 10)
	LoginWindow       time.Duration // Login window length (default: 5m)

	// Booking creation limits (per authenticated user)
	BookingMaxPerWindow int           // Max booking creations per user per window (default: 20)
	BookingWindow       time.Duration // Booking window length (default: 1h)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		LoginMaxPerWindow:   10,
		LoginWindow:         5 * time.Minute,
		BookingMaxPerWindow: 20,
		BookingWindow:       time.Hour,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

// entry tracks request counts inside one window.
type entry struct {
	count   int
	firstAt time.Time // First request in window
	lastAt  time.Time // Most recent request
}

// Limiter implements per-IP login limiting and per-user booking limiting.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.Mutex
	// Keyed by hash of IP or user id
	loginByIP     map[string]*entry
	bookingByUser map[string]*entry

	// Cleanup goroutine management
	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		loginByIP:     make(map[string]*entry),
		bookingByUser: make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// AllowLogin records a login attempt from ip and reports whether it is
// within the window limit.
func (l *Limiter) AllowLogin(ip string) LimitResult {
	l.startCleanup()
	key := hashKey("login:ip:", ip)
	return l.allow(l.loginByIP, key, l.config.LoginMaxPerWindow, l.config.LoginWindow, "login_limit")
}

// AllowBooking records a booking-creation attempt by userID and reports
// whether it is within the window limit.
func (l *Limiter) AllowBooking(userID int64) LimitResult {
	l.startCleanup()
	key := hashKey("booking:user:", strconv.FormatInt(userID, 10))
	return l.allow(l.bookingByUser, key, l.config.BookingMaxPerWindow, l.config.BookingWindow, "booking_limit")
}

func (l *Limiter) allow(bucket map[string]*entry, key string, max int, window time.Duration, reason string) LimitResult {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e := bucket[key]
	if e == nil || now.Sub(e.firstAt) >= window {
		bucket[key] = &entry{count: 1, firstAt: now, lastAt: now}
		return LimitResult{Allowed: true}
	}

	if e.count >= max {
		return LimitResult{
			Allowed:    false,
			RetryAfter: window - now.Sub(e.firstAt),
			Reason:     reason,
		}
	}

	e.count++
	e.lastAt = now
	return LimitResult{Allowed: true}
}

func hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, e := range l.loginByIP {
		if now.Sub(e.lastAt) > l.config.LoginWindow {
			delete(l.loginByIP, k)
		}
	}
	for k, e := range l.bookingByUser {
		if now.Sub(e.lastAt) > l.config.BookingWindow {
			delete(l.bookingByUser, k)
		}
	}
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost IP from X-Forwarded-For (added by your proxy).
// When trustProxy is false, ignores X-Forwarded-For entirely (prevents spoofing).
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Use RIGHTMOST IP - this is the one your proxy added, not user-supplied
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				// Skip private/internal IPs to find the real client
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			// All IPs are private, use the last one
			return strings.TrimSpace(parts[len(parts)-1])
		}

		// Check X-Real-IP (set by nginx)
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	// Fall back to RemoteAddr (direct connection or untrusted proxy)
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
			return r.RemoteAddr
		}
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
			candidate := r.RemoteAddr[:idx]
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
		return r.RemoteAddr
	}
	return ip
}

// privateNetworks holds parsed CIDR ranges for private/reserved IPs.
// Parsed once at package init for efficiency.
var privateNetworks []*net.IPNet

func init() {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10", // Link-local
	}
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// isPrivateIP checks if an IP is in a private/reserved range.
// Handles both IPv4 and IPv4-mapped IPv6 addresses (e.g., ::ffff:192.168.1.1).
func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}

	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// LogRateLimitExceeded logs a rate limit event.
func LogRateLimitExceeded(limitType, key, reason string) {
	log.Warn().
		Str("event", "rate_limit_exceeded").
		Str("type", limitType).
		Str("key", key).
		Str("reason", reason).
		Msg("Rate limit exceeded")
}
