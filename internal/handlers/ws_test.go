package handlers

import (
	"testing"
	"time"

	"github.com/cronwatch-dev/cronwatch/internal/models"
)

func TestBroadcastMonitorFailureQueuesPayload(t *testing.T) {
	client := &wsClient{send: make(chan interface{}, sendQueueSize)}
	registerClient("42", client)
	defer unregisterClient("42", client)

	monitor := models.Monitor{ProjectID: 42, GUID: "abc123", Name: "nightly-backup"}
	event := models.FailureEvent{MonitorID: monitor.ID, ProjectID: 42, Message: "Monitor failure: nightly-backup"}

	BroadcastMonitorFailure(event, monitor)

	select {
	case raw := <-client.send:
		payload, ok := raw.(map[string]interface{})
		if !ok {
			t.Fatalf("payload type = %T, want map", raw)
		}
		if payload["type"] != "monitor_failure" {
			t.Fatalf("type = %v, want monitor_failure", payload["type"])
		}
		if payload["monitor"] != "nightly-backup" {
			t.Fatalf("monitor = %v, want nightly-backup", payload["monitor"])
		}
		if payload["message"] != "Monitor failure: nightly-backup" {
			t.Fatalf("message = %v", payload["message"])
		}
	default:
		t.Fatal("expected a queued payload")
	}
}

func TestBroadcastMonitorFailureNeverBlocksOnSlowClient(t *testing.T) {
	// A client whose writer has stalled: queue capacity one, nothing
	// draining it.
	client := &wsClient{send: make(chan interface{}, 1)}
	registerClient("7", client)
	defer unregisterClient("7", client)

	monitor := models.Monitor{ProjectID: 7, GUID: "def456", Name: "hourly-sync"}
	event := models.FailureEvent{ProjectID: 7, Message: "Monitor failure: hourly-sync"}

	BroadcastMonitorFailure(event, monitor)

	// The queue is now full. The broadcast is called from the failure
	// transition's goroutine and must return immediately, dropping the
	// payload for this client.
	done := make(chan struct{})
	go func() {
		BroadcastMonitorFailure(event, monitor)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a client with a full send queue")
	}
}

func TestBroadcastMonitorFailureScopedToProject(t *testing.T) {
	subscribed := &wsClient{send: make(chan interface{}, 1)}
	other := &wsClient{send: make(chan interface{}, 1)}
	registerClient("10", subscribed)
	registerClient("11", other)
	defer unregisterClient("10", subscribed)
	defer unregisterClient("11", other)

	monitor := models.Monitor{ProjectID: 10, GUID: "aaa", Name: "report-job"}
	BroadcastMonitorFailure(models.FailureEvent{ProjectID: 10, Message: "Monitor failure: report-job"}, monitor)

	if len(subscribed.send) != 1 {
		t.Fatalf("subscribed client queue = %d, want 1", len(subscribed.send))
	}
	if len(other.send) != 0 {
		t.Fatalf("other project's client queue = %d, want 0", len(other.send))
	}
}
