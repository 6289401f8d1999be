package main

import (
	"testing"
	"time"
)

func TestRefreshInterval(t *testing.T) {
	got, err := refreshInterval(30 * time.Second)
	if err != nil {
		t.Fatalf("refreshInterval(30s) failed: %v", err)
	}
	if got != 30*time.Second {
		t.Errorf("refreshInterval(30s) = %s, want 30s", got)
	}

	for _, d := range []time.Duration{0, -time.Second} {
		if _, err := refreshInterval(d); err == nil {
			t.Errorf("refreshInterval(%s) succeeded, want error", d)
		}
	}
}
