package utils

import (
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	// Первые три запроса проходят
	for i := 0; i < 3; i++ {
		if !rl.Allow("client") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	// Четвертый отклоняется
	if rl.Allow("client") {
		t.Error("request above limit should be denied")
	}

	// Лимиты по ключам независимы
	if !rl.Allow("other-client") {
		t.Error("other client should not be affected")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)

	if !rl.Allow("client") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("client") {
		t.Fatal("second request should be denied")
	}

	// После истечения окна запросы снова проходят
	time.Sleep(60 * time.Millisecond)
	if !rl.Allow("client") {
		t.Error("request after window should be allowed")
	}
}

func TestRateLimiterReset(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	rl.Allow("client")
	if rl.Allow("client") {
		t.Fatal("second request should be denied")
	}

	rl.Reset("client")
	if !rl.Allow("client") {
		t.Error("request after reset should be allowed")
	}
}

func TestRateLimiterGetRemaining(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	if got := rl.GetRemaining("client"); got != 5 {
		t.Errorf("remaining: got %d want 5", got)
	}

	rl.Allow("client")
	rl.Allow("client")
	if got := rl.GetRemaining("client"); got != 3 {
		t.Errorf("remaining after two requests: got %d want 3", got)
	}
}

func TestRateLimiterPrunesIdleKeys(t *testing.T) {
	rl := NewRateLimiter(10, 10*time.Millisecond)

	rl.Allow("ephemeral")
	time.Sleep(20 * time.Millisecond)

	// Устаревший ключ удаляется из карты при следующем обращении
	rl.GetRemaining("ephemeral")
	rl.mu.Lock()
	_, exists := rl.requests["ephemeral"]
	rl.mu.Unlock()
	if exists {
		t.Error("idle key should be removed from the map")
	}
}
