package server

import (
	"testing"
	"time"
)

func TestRateLimiterFixedWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := newRateLimiter(2, time.Minute)
	limiter.nowFunc = func() time.Time { return now }

	if !limiter.Allow("1.2.3.4") {
		t.Fatal("first request should be allowed")
	}
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("second request should be allowed")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("third request in window should be denied")
	}

	if !limiter.Allow("5.6.7.8") {
		t.Fatal("other keys should not share the bucket")
	}

	now = now.Add(time.Minute)
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("new window should reset the count")
	}
}
