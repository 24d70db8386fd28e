package orchestrator

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestHubLiveAndReplay(t *testing.T) {
	hub := NewHub()
	hub.Publish("r1", Event{Event: EventRunStarted})

	ch, unsubscribe := hub.Subscribe("r1")
	defer unsubscribe()
	hub.Publish("r1", Event{Event: EventRunCompleted})
	hub.Publish("other", Event{Event: EventRunStarted})

	var got []string
	for i := 0; i < 2; i++ {
		var ev Event
		if err := json.Unmarshal(<-ch, &ev); err != nil {
			t.Fatal(err)
		}
		got = append(got, ev.Event)
	}
	if got[0] != EventRunStarted || got[1] != EventRunCompleted {
		t.Errorf("events = %v", got)
	}
	select {
	case b := <-ch:
		t.Errorf("unexpected event from another run: %s", b)
	default:
	}
}

func TestHubForgetAndEvict(t *testing.T) {
	hub := NewHub()
	hub.KeepRuns = 2
	for i := 0; i < 3; i++ {
		hub.Publish(fmt.Sprintf("r%d", i), Event{Event: EventRunStarted})
	}
	if _, ok := hub.history["r0"]; ok {
		t.Error("oldest run should be evicted")
	}
	hub.Forget("r2")
	if _, ok := hub.history["r2"]; ok {
		t.Error("forgotten run still has history")
	}
	if len(hub.order) != 1 || hub.order[0] != "r1" {
		t.Errorf("order = %v, want [r1]", hub.order)
	}
}

func TestHubUnsubscribeTwice(t *testing.T) {
	hub := NewHub()
	_, unsubscribe := hub.Subscribe("r")
	unsubscribe()
	unsubscribe()
	hub.Publish("r", Event{Event: EventRunStarted})
}
