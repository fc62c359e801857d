package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowAndRemaining(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Stop()

	if !l.Allow("k") || !l.Allow("k") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("k") {
		t.Error("third request should be limited")
	}
	if got := l.Remaining("k"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if got := l.Remaining("other"); got != 2 {
		t.Errorf("Remaining(other) = %d, want 2", got)
	}

	l.Reset("k")
	if !l.Allow("k") {
		t.Error("request after Reset should be allowed")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()

	base := time.Now()
	l.now = func() time.Time { return base }
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("second request in window should be limited")
	}

	l.now = func() time.Time { return base.Add(2 * time.Minute) }
	if !l.Allow("k") {
		t.Error("request after window should be allowed")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "127.0.0.1:1234", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": " 10.0.0.3 "}, "127.0.0.1:1234", "10.0.0.3"},
		{"remote with port", nil, "192.168.1.5:5555", "192.168.1.5"},
		{"remote without port", nil, "192.168.1.6", "192.168.1.6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/auth/login", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_PerEmail(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	defer ll.Stop()

	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Ada@Example.com"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if ok, reason := ll.Check(r, " ada@example.com "); ok || reason == "" {
		t.Error("third attempt for same email should be limited with a reason")
	}

	ll.ResetEmail("ADA@example.com")
	if ok, _ := ll.Check(r, "ada@example.com"); !ok {
		t.Error("attempt after ResetEmail should be allowed")
	}
}
