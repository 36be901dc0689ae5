package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow(1) {
		t.Error("expected first token to be allowed")
	}
	if !l.Allow(1) {
		t.Error("expected second token to be allowed (burst)")
	}
	if l.Allow(1) {
		t.Error("expected third token to be rejected (burst exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected token to be refilled after wait")
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	l.Allow(1) // consume burst

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Wait(ctx, 1)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("Wait returned too early")
	}
}

func TestTriggerLimiter_PerSource(t *testing.T) {
	tl := NewTriggerLimiter(1, 1)

	if !tl.Allow("nudge") {
		t.Fatal("expected first nudge to pass")
	}
	if tl.Allow("nudge") {
		t.Fatal("expected second immediate nudge to be throttled")
	}
	if !tl.Allow("config") {
		t.Fatal("expected config source to have its own bucket")
	}
}

func TestTriggerLimiter_Disabled(t *testing.T) {
	tl := NewTriggerLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !tl.Allow("nudge") {
			t.Fatal("expected disabled limiter to allow everything")
		}
	}
	var nilLimiter *TriggerLimiter
	if !nilLimiter.Allow("x") {
		t.Fatal("expected nil limiter to allow")
	}
}
