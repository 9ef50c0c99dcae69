package chat

import (
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("u1") {
			t.Fatalf("attempt %d blocked under the limit", i)
		}
	}
	if rl.Allow("u1") {
		t.Error("attempt over the limit allowed")
	}
	// other users have their own window
	if !rl.Allow("u2") {
		t.Error("unrelated user blocked")
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("u1") {
		t.Fatal("first attempt blocked")
	}
	if rl.Allow("u1") {
		t.Fatal("second immediate attempt allowed")
	}
	time.Sleep(15 * time.Millisecond)
	if !rl.Allow("u1") {
		t.Error("attempt after the window expired still blocked")
	}
}

func TestRateLimiter_ZeroLimitDisables(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if !rl.Allow("u1") {
			t.Fatal("disabled limiter blocked an attempt")
		}
	}
}
