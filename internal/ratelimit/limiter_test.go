package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowBurst(t *testing.T) {
	l := New(1, 2)

	if !l.Allow("clob.polymarket.com") {
		t.Fatal("first request should be allowed")
	}
	if !l.Allow("clob.polymarket.com") {
		t.Fatal("second request within burst should be allowed")
	}
	if l.Allow("clob.polymarket.com") {
		t.Fatal("third request should be throttled")
	}
}

func TestHostsIndependent(t *testing.T) {
	l := New(1, 1)

	if !l.Allow("gamma-api.polymarket.com") {
		t.Fatal("gamma request should be allowed")
	}
	// Exhausting gamma's bucket must not affect the data API.
	if !l.Allow("data-api.polymarket.com") {
		t.Fatal("data request should be allowed")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New(0.001, 1)
	l.Allow("clob.polymarket.com") // drain the bucket

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "clob.polymarket.com"); err == nil {
		t.Fatal("Wait should fail once the context deadline passes")
	}
}
