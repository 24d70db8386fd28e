package orchestrator

import (
	"encoding/json"
	"sync"
)

// Event kinds published for a run.
const (
	EventRunStarted   = "run_started"
	EventNodeStarted  = "node_started"
	EventNodeFinished = "node_finished"
	EventRunCompleted = "run_completed"
	EventRunFailed    = "run_failed"
)

// Event is a generic SSE payload wrapper.
type Event struct {
	Event   string `json:"event"`
	RunID   string `json:"run_id"`
	Payload any    `json:"payload,omitempty"`
}

// Terminal reports whether no further events follow ev for its run.
func (ev Event) Terminal() bool {
	return ev.Event == EventRunCompleted || ev.Event == EventRunFailed
}

type subscriber chan []byte

const (
	subscriberBuffer = 16
	defaultKeepRuns  = 256
)

// Hub fans run events out to subscribers. It keeps the events of recent
// runs so a late subscriber still sees the whole run.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[subscriber]struct{} // runID -> set of subscribers
	history map[string][][]byte
	order   []string
	// KeepRuns bounds how many runs keep history (default 256).
	KeepRuns int
}

func NewHub() *Hub {
	return &Hub{
		subs:    map[string]map[subscriber]struct{}{},
		history: map[string][][]byte{},
	}
}

// Subscribe returns a channel of JSON-encoded events for runID, starting
// with any recorded history. The caller must call the returned unsubscribe
// func when done.
func (h *Hub) Subscribe(runID string) (<-chan []byte, func()) {
	h.mu.Lock()
	past := h.history[runID]
	ch := make(subscriber, subscriberBuffer+len(past))
	for _, b := range past {
		ch <- b
	}
	set := h.subs[runID]
	if set == nil {
		set = map[subscriber]struct{}{}
		h.subs[runID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[runID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, runID)
				}
			}
			close(ch)
			h.mu.Unlock()
		})
	}
	return ch, unsubscribe
}

func (h *Hub) Publish(runID string, ev Event) {
	ev.RunID = runID
	b, _ := json.Marshal(ev)
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.history[runID]; !ok {
		h.order = append(h.order, runID)
		h.evictLocked()
	}
	h.history[runID] = append(h.history[runID], b)
	for ch := range h.subs[runID] {
		// non-blocking send; slow subscribers miss events
		select {
		case ch <- b:
		default:
		}
	}
}

// Forget drops the recorded history of runID.
func (h *Hub) Forget(runID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.history, runID)
	for i, id := range h.order {
		if id == runID {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

func (h *Hub) evictLocked() {
	keep := h.KeepRuns
	if keep <= 0 {
		keep = defaultKeepRuns
	}
	for len(h.order) > keep {
		delete(h.history, h.order[0])
		h.order = h.order[1:]
	}
}
