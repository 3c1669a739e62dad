package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_BurstThenThrottle(t *testing.T) {
	l := NewLimiter(1, 2)

	url := "https://data.example.com/retail.csv"
	if !l.Allow(url) || !l.Allow(url) {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if l.Allow(url) {
		t.Error("expected third immediate request to be throttled")
	}
}

func TestLimiter_PerHostIsolation(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow("https://a.example.com/x.csv") {
		t.Fatal("first host should be allowed")
	}
	if !l.Allow("https://b.example.com/x.csv") {
		t.Error("second host should have its own budget")
	}
	if l.Allow("https://a.example.com/y.csv") {
		t.Error("same host should share one budget across paths")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	l := NewLimiter(0.0001, 1)
	l.SetHostRate("fast.example.com", 1000, 5)

	for i := 0; i < 5; i++ {
		if !l.Allow("https://fast.example.com/d.csv") {
			t.Fatalf("custom host rate not applied on request %d", i)
		}
	}
}

func TestLimiter_InvalidURL(t *testing.T) {
	l := NewLimiter(1, 1)
	if l.Allow("://not-a-url") {
		t.Error("invalid URL should not be allowed")
	}
	if err := l.Wait(context.Background(), "://not-a-url"); err == nil {
		t.Error("expected error waiting on invalid URL")
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	l := NewLimiter(100, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.WaitWithDelay(ctx, "https://a.example.com/x.csv", 50*time.Millisecond)
	if err == nil {
		t.Error("expected context error for cancelled delay")
	}
}
