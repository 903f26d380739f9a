package ratelimit_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/fwsm/internal/app/system/ratelimit"
)

func TestLimiter_AllowAndRemaining(t *testing.T) {
	l := ratelimit.New(2, time.Minute)
	defer l.Close()

	if !l.Allow("k") || !l.Allow("k") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("k") {
		t.Error("third request should be limited")
	}
	if n := l.Remaining("k"); n != 0 {
		t.Errorf("remaining: got %d, want 0", n)
	}
	if n := l.Remaining("other"); n != 2 {
		t.Errorf("remaining for new key: got %d, want 2", n)
	}

	l.Reset("k")
	if !l.Allow("k") {
		t.Error("reset key should pass again")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if ip := ratelimit.ClientIP(r); ip != "10.0.0.1" {
		t.Errorf("RemoteAddr: got %q", ip)
	}
	r.Header.Set("X-Real-IP", "10.0.0.2")
	if ip := ratelimit.ClientIP(r); ip != "10.0.0.2" {
		t.Errorf("X-Real-IP: got %q", ip)
	}
	r.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	if ip := ratelimit.ClientIP(r); ip != "10.0.0.3" {
		t.Errorf("X-Forwarded-For: got %q", ip)
	}
}

func TestSignInLimiter(t *testing.T) {
	s := ratelimit.NewSignInLimiter(4, time.Minute)
	defer s.Close()
	r := httptest.NewRequest("POST", "/sign-in", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := s.Check(r, "A@b.com"); !ok {
			t.Fatalf("attempt %d should pass", i)
		}
	}
	ok, reason := s.Check(r, " a@B.com ")
	if ok || reason == "" {
		t.Error("identifier limit should apply case-insensitively")
	}

	s.Succeeded("a@b.com")
	if ok, _ := s.Check(r, "a@b.com"); !ok {
		t.Error("success should reset the identifier counter")
	}
	if ok, _ := s.Check(r, "c@d.com"); ok {
		t.Error("IP limit should apply after four attempts")
	}
}
