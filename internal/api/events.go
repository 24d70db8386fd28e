package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/multi-agent/internal/orchestrator"
)

const heartbeatInterval = 15 * time.Second

// handleEvents streams a run's events as server-sent events, replaying what
// already happened, and ends after the run's terminal event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	ch, unsubscribe := s.pipeline.Subscribe(id)
	defer unsubscribe()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			_ = rc.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			var ev orchestrator.Event
			_ = json.Unmarshal(b, &ev)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, b)
			_ = rc.Flush()
			if ev.Terminal() {
				return
			}
		}
	}
}
