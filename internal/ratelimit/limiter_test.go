package ratelimit

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAllowLogin_WindowLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		LoginMaxPerWindow:   3,
		LoginWindow:         5 * time.Minute,
		BookingMaxPerWindow: 20,
		BookingWindow:       time.Hour,
		Clock:               clock,
	})
	defer limiter.Close()

	ip := "203.0.113.50"

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		result := limiter.AllowLogin(ip)
		if !result.Allowed {
			t.Errorf("Attempt %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
	}

	clock.Advance(time.Second)
	result := limiter.AllowLogin(ip)
	if result.Allowed {
		t.Error("4th attempt should be blocked")
	}
	if result.Reason != "login_limit" {
		t.Errorf("Expected reason 'login_limit', got '%s'", result.Reason)
	}
	if result.RetryAfter <= 0 || result.RetryAfter > 5*time.Minute {
		t.Errorf("RetryAfter out of range: %v", result.RetryAfter)
	}

	// A fresh window resets the count
	clock.Advance(5 * time.Minute)
	result = limiter.AllowLogin(ip)
	if !result.Allowed {
		t.Errorf("Attempt after window should be allowed, got blocked: %s", result.Reason)
	}
}

func TestAllowLogin_PerIP(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		LoginMaxPerWindow:   1,
		LoginWindow:         5 * time.Minute,
		BookingMaxPerWindow: 20,
		BookingWindow:       time.Hour,
		Clock:               clock,
	})
	defer limiter.Close()

	if result := limiter.AllowLogin("203.0.113.1"); !result.Allowed {
		t.Error("First IP should be allowed")
	}
	if result := limiter.AllowLogin("203.0.113.1"); result.Allowed {
		t.Error("Same IP over limit should be blocked")
	}
	if result := limiter.AllowLogin("203.0.113.2"); !result.Allowed {
		t.Error("Different IP should be unaffected")
	}
}

func TestAllowBooking_WindowLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		LoginMaxPerWindow:   10,
		LoginWindow:         5 * time.Minute,
		BookingMaxPerWindow: 2,
		BookingWindow:       time.Hour,
		Clock:               clock,
	})
	defer limiter.Close()

	for i := 0; i < 2; i++ {
		clock.Advance(time.Minute)
		result := limiter.AllowBooking(42)
		if !result.Allowed {
			t.Errorf("Booking %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
	}

	result := limiter.AllowBooking(42)
	if result.Allowed {
		t.Error("3rd booking in window should be blocked")
	}
	if result.Reason != "booking_limit" {
		t.Errorf("Expected reason 'booking_limit', got '%s'", result.Reason)
	}

	// A different user has an independent window
	if result := limiter.AllowBooking(43); !result.Allowed {
		t.Error("Different user should be unaffected")
	}

	clock.Advance(time.Hour)
	if result := limiter.AllowBooking(42); !result.Allowed {
		t.Error("Booking after window should be allowed")
	}
}

func TestGetClientIP_TrustProxy(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		expected   string
	}{
		{
			name:       "TrustProxy=true, XFF rightmost public IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.50",
		},
		{
			name:       "TrustProxy=true, XFF all private",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "10.0.0.1",
		},
		{
			name:       "TrustProxy=true, X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.51",
		},
		{
			name:       "TrustProxy=false, ignores XFF",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
		{
			name:       "No headers, RemoteAddr only",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: true,
			expected:   "192.168.1.100",
		},
		{
			name:       "RemoteAddr without port",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got := GetClientIP(r, tt.trustProxy)
			if got != tt.expected {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNew_NilConfig(t *testing.T) {
	limiter := New(nil)
	defer limiter.Close()

	if limiter.config.LoginMaxPerWindow != 10 {
		t.Error("New(nil) should use default config")
	}
}

func TestLimiter_Close(t *testing.T) {
	limiter := New(nil)

	// Trigger cleanup goroutine
	limiter.AllowLogin("203.0.113.9")

	done := make(chan struct{})
	go func() {
		limiter.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Error("Close() should not hang")
	}
}

func TestConcurrentAccess(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		LoginMaxPerWindow:   100000,
		LoginWindow:         5 * time.Minute,
		BookingMaxPerWindow: 100000,
		BookingWindow:       time.Hour,
		Clock:               clock,
	})
	defer limiter.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				limiter.AllowLogin("203.0.113.1")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				limiter.AllowBooking(7)
			}
		}()
	}
	wg.Wait()
}
