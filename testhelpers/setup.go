package testhelpers

import (
	"testing"
	"time"
)

// WaitFor polls condition every 10ms until it holds or timeout elapses.
//
//	testhelpers.WaitFor(t, func() bool {
//	    return len(events) > 0
//	}, 5*time.Second)
func WaitFor(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		if condition() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Condition not met within %v", timeout)
			return
		}
	}
}
