package ratelimit

import (
	"fmt"
	"sync"
	"testing"
)

func TestAllow_BurstThenDeny(t *testing.T) {
	l := PerHour(3)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d denied within burst", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("request beyond burst allowed")
	}
}

func TestAllow_KeysIndependent(t *testing.T) {
	l := PerHour(1)

	if !l.Allow("10.0.0.1") {
		t.Fatal("first client denied")
	}
	if l.Allow("10.0.0.1") {
		t.Error("first client not exhausted")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("second client affected by first client's budget")
	}
}

func TestAllow_ZeroBurstDeniesFirstRequest(t *testing.T) {
	l := New(0, 0)

	if l.Allow("10.0.0.1") {
		t.Error("zero-burst limiter admitted a request")
	}
	if l.Allow("10.0.0.1") {
		t.Error("zero-burst limiter admitted a repeat request")
	}
}

func TestAllow_Concurrent(t *testing.T) {
	l := New(1000, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("10.0.0.%d", n%4)
			for j := 0; j < 50; j++ {
				l.Allow(key)
			}
		}(i)
	}
	wg.Wait()

	if len(l.clients) != 4 {
		t.Errorf("clients = %d, want 4", len(l.clients))
	}
}

func TestAllow_HighRateNeverDenies(t *testing.T) {
	l := New(1000, 1000)

	for i := 0; i < 100; i++ {
		if !l.Allow("k") {
			t.Fatalf("request %d denied under a generous budget", i+1)
		}
	}
}
