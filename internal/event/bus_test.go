package event

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
)

func TestBus_Publish(t *testing.T) {
	bus := NewBus()

	var received Event
	bus.Subscribe(TypeTaskStarted, func(e Event) {
		received = e
	})

	bus.Publish(NewTaskStartedEvent("run-1", analysis.Structure, 1))

	if received == nil {
		t.Fatal("Handler should have received the event")
	}
	started, ok := received.(TaskStartedEvent)
	if !ok {
		t.Fatalf("received %T, want TaskStartedEvent", received)
	}
	if started.AnalyzerID != analysis.Structure || started.RunID != "run-1" {
		t.Errorf("unexpected event payload: %+v", started)
	}
}

func TestBus_PublishNoMatchingHandlers(t *testing.T) {
	bus := NewBus()

	bus.Subscribe("other.event", func(e Event) {
		t.Error("Handler should not be called for non-matching event type")
	})

	bus.Publish(newBaseEvent("test.event"))
}

func TestBus_SpecificBeforeWildcard(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(e Event) { order = append(order, "wildcard") })
	bus.Subscribe("specific.event", func(e Event) { order = append(order, "specific") })

	bus.Publish(newBaseEvent("specific.event"))

	if len(order) != 2 || order[0] != "specific" || order[1] != "wildcard" {
		t.Errorf("dispatch order = %v, want [specific wildcard]", order)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	calls := make(map[string]int)
	id1 := bus.Subscribe("test.event", func(e Event) { calls["handler1"]++ })
	bus.Subscribe("test.event", func(e Event) { calls["handler2"]++ })

	if !bus.Unsubscribe(id1) {
		t.Error("Unsubscribe should return true when subscription exists")
	}
	if bus.Unsubscribe("missing") {
		t.Error("Unsubscribe should return false for non-existent ID")
	}

	bus.Publish(newBaseEvent("test.event"))

	if calls["handler1"] != 0 {
		t.Error("handler1 should not be called after unsubscribing")
	}
	if calls["handler2"] != 1 {
		t.Error("handler2 should still be called")
	}
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus()

	bus.Subscribe("event.one", func(e Event) {})
	bus.SubscribeAll(func(e Event) {})
	bus.Clear()

	if bus.SubscriptionCount() != 0 {
		t.Errorf("Expected 0 subscriptions after clear, got %d", bus.SubscriptionCount())
	}
}

func TestBus_HandlerPanicRecovery(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.Subscribe("test.event", func(e Event) {
		calls++
		panic("handler panic")
	})
	bus.Subscribe("test.event", func(e Event) {
		calls++
	})

	bus.Publish(newBaseEvent("test.event"))

	if calls != 2 {
		t.Errorf("Expected both handlers to be called despite panic, got %d calls", calls)
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	calls := 0
	bus.Subscribe("test.event", func(e Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			bus.Publish(newBaseEvent("test.event"))
		})
	}
	wg.Wait()

	if calls != 100 {
		t.Errorf("Expected 100 calls, got %d", calls)
	}
}

func TestBus_UniqueIDs(t *testing.T) {
	bus := NewBus()

	ids := make(map[string]bool)
	for range 100 {
		id := bus.Subscribe("test.event", func(e Event) {})
		if ids[id] {
			t.Errorf("Duplicate subscription ID: %s", id)
		}
		ids[id] = true
	}
}

func TestBus_SubscribeChan(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.SubscribeChan(2)

	bus.Publish(newBaseEvent("a"))
	bus.Publish(newBaseEvent("b"))
	bus.Publish(newBaseEvent("c")) // dropped, buffer full

	for _, want := range []string{"a", "b"} {
		select {
		case e := <-ch:
			if e.EventType() != want {
				t.Errorf("got %s, want %s", e.EventType(), want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after cancel", bus.SubscriptionCount())
	}

	// Publishing after cancel must not panic on the closed channel.
	bus.Publish(newBaseEvent("d"))
}

func TestNewRunCompletedEvent(t *testing.T) {
	start := time.Now()
	r := &analysis.ExecutionReport{
		RunID:      "run-1",
		SnapshotID: "snap",
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
		Outcomes: map[analysis.AnalyzerID]analysis.Outcome{
			analysis.Structure:  analysis.Succeeded(analysis.Artifact{}),
			analysis.Dependency: analysis.Skipped(analysis.ReasonExcluded),
		},
	}

	e := NewRunCompletedEvent(r)
	if e.Succeeded != 1 || e.Skipped != 1 || e.Failed != 0 {
		t.Errorf("counts = %d/%d/%d", e.Succeeded, e.Failed, e.Skipped)
	}
	if e.Duration != 3*time.Second {
		t.Errorf("Duration = %v", e.Duration)
	}
}

func TestWrap_JSON(t *testing.T) {
	e := NewTaskFinishedEvent("run-1", analysis.APISurface, analysis.Skipped(analysis.ReasonOrchestrationTimeout))

	b, err := json.Marshal(Wrap(e))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded struct {
		Type string `json:"type"`
		Data struct {
			AnalyzerID string `json:"analyzer_id"`
			Status     string `json:"status"`
			Detail     string `json:"detail"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Type != TypeTaskFinished || decoded.Data.AnalyzerID != "api-surface" ||
		decoded.Data.Status != "skipped" || decoded.Data.Detail != analysis.ReasonOrchestrationTimeout {
		t.Errorf("decoded = %+v", decoded)
	}
}
