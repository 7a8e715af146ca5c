package capture

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
)

func TestIdleTrackerWaitsForInflightRequests(t *testing.T) {
	tracker := &idleTracker{inflight: make(map[network.RequestID]struct{})}
	tracker.reset()

	tracker.handle(&network.EventRequestWillBeSent{RequestID: "1"})
	tracker.handle(&network.EventRequestWillBeSent{RequestID: "2"})

	go func() {
		time.Sleep(50 * time.Millisecond)
		tracker.handle(&network.EventLoadingFinished{RequestID: "1"})
		time.Sleep(50 * time.Millisecond)
		tracker.handle(&network.EventLoadingFailed{RequestID: "2"})
	}()

	start := time.Now()
	if err := tracker.wait(context.Background(), 100*time.Millisecond); err != nil {
		t.Fatalf("wait returned error: %v", err)
	}

	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("Expected wait to last until requests finished plus quiet window, took %v", elapsed)
	}
}

func TestIdleTrackerTimeout(t *testing.T) {
	tracker := &idleTracker{inflight: make(map[network.RequestID]struct{})}
	tracker.reset()
	tracker.handle(&network.EventRequestWillBeSent{RequestID: "stuck"})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := tracker.wait(ctx, 10*time.Millisecond); !IsTimeout(err) {
		t.Fatalf("Expected timeout, got %v", err)
	}
}

func TestIdleTrackerIgnoresOtherEvents(t *testing.T) {
	tracker := &idleTracker{inflight: make(map[network.RequestID]struct{})}
	tracker.reset()
	before := tracker.last

	time.Sleep(5 * time.Millisecond)
	tracker.handle(&network.EventDataReceived{RequestID: "1"})

	if !tracker.last.Equal(before) {
		t.Error("Unrelated events should not count as network activity")
	}
	if !tracker.idleFor(0) {
		t.Error("Expected tracker to be idle")
	}
}

func TestIdleTrackerIgnoresEventSource(t *testing.T) {
	tracker := &idleTracker{inflight: make(map[network.RequestID]struct{})}
	tracker.reset()
	tracker.handle(&network.EventRequestWillBeSent{RequestID: "sse", Type: network.ResourceTypeEventSource})
	tracker.handle(&network.EventRequestWillBeSent{RequestID: "img", Type: network.ResourceTypeImage})

	if len(tracker.inflight) != 1 {
		t.Fatalf("Expected only the image request in flight, got %d", len(tracker.inflight))
	}
	if _, ok := tracker.inflight["img"]; !ok {
		t.Error("Expected image request to be tracked")
	}
}

func TestExecFlags(t *testing.T) {
	if got := len(execFlags(NewOptions())); got != 3 {
		t.Errorf("Expected 3 flags by default, got %d", got)
	}

	opts := NewOptions()
	opts.RespectCertificateErrors = true
	opts.UseHTTP2 = true
	opts.BrowserBin = "/usr/bin/chromium"
	if got := len(execFlags(opts)); got != 2 {
		t.Errorf("Expected only the no-sandbox and exec path flags, got %d", got)
	}
}
