package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/multi-agent/internal/agents"
	"github.com/example/multi-agent/internal/logging"
	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/providers/llm"
)

var (
	ErrInvalidRetries = errors.New("max_retries must be non-negative")
	ErrEmptyInput     = errors.New("input must not be empty")
	ErrNoFinalOutput  = errors.New("run ended without a final output")
)

// RunRequest is one invocation of the pipeline.
type RunRequest struct {
	// ID keys the run's events; a new one is generated when empty.
	ID         string
	Input      string
	MaxRetries int
	// Documents is extracted attachment text handed to the researcher.
	Documents string
}

// Request returns a RunRequest for input with the default retry budget.
func Request(input string) RunRequest {
	return RunRequest{Input: input, MaxRetries: models.DefaultMaxRetries}
}

// RunResult is what a completed run hands back.
type RunResult struct {
	ID         string
	Output     *models.FinalOutput
	Messages   []models.Message
	CriticRuns int
	Duration   time.Duration
}

// Pipeline is the run driver. It is safe for concurrent use as long as
// its nodes' adapters are.
type Pipeline struct {
	Graph Graph
	Hub   *Hub
}

// NewPipeline wires the standard graph around client and search. search
// may be nil, in which case the researcher works without search context.
func NewPipeline(client llm.Client, search agents.Searcher, hub *Hub) *Pipeline {
	if hub == nil {
		hub = NewHub()
	}
	return &Pipeline{
		Graph: NewGraph(
			&agents.Orchestrator{Client: client},
			&agents.Researcher{Client: client, Search: search},
			&agents.Coder{Client: client},
			&agents.Critic{Client: client},
			agents.Final{},
		),
		Hub: hub,
	}
}

// Subscribe forwards to the pipeline's event hub.
func (p *Pipeline) Subscribe(runID string) (<-chan []byte, func()) {
	return p.Hub.Subscribe(runID)
}

// Run executes one request to completion. A model transport failure aborts
// the run and is returned wrapped with the failing role.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if req.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRetries, req.MaxRetries)
	}
	if strings.TrimSpace(req.Input) == "" {
		return nil, ErrEmptyInput
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	ctx = logging.With(ctx, "run_id", id)
	log := logging.FromContext(ctx)

	st := models.NewState(req.Input, req.MaxRetries)
	st.Documents = req.Documents
	start := time.Now()

	p.publish(id, EventRunStarted, map[string]any{"input": req.Input, "max_retries": req.MaxRetries})
	log.Info("run started", "max_retries", req.MaxRetries)

	eng := &Engine{Graph: p.Graph, OnStep: func(s Step, cur *models.State) {
		if !s.Done {
			p.publish(id, EventNodeStarted, map[string]any{"role": s.Role.String(), "step": s.N})
			return
		}
		payload := map[string]any{"role": s.Role.String(), "step": s.N, "next": cur.Next.String()}
		switch s.Role {
		case models.RoleOrchestrator:
			payload["plan"] = cur.Plan
		case models.RoleCritic:
			payload["score"] = cur.CriticScore
			payload["retry_count"] = cur.RetryCount
		case models.RoleCoder:
			payload["code_check"] = cur.CodeCheck
		}
		if s.Err != nil {
			payload["error"] = s.Err.Error()
		}
		p.publish(id, EventNodeFinished, payload)
	}}

	err := eng.Run(ctx, st)
	if err == nil && st.Final == nil {
		err = ErrNoFinalOutput
	}
	if err != nil {
		log.Error("run failed", "err", err)
		p.publish(id, EventRunFailed, map[string]any{"error": err.Error()})
		return nil, err
	}

	res := &RunResult{
		ID:         id,
		Output:     st.Final,
		Messages:   st.Messages,
		CriticRuns: st.CriticRuns,
		Duration:   time.Since(start),
	}
	log.Info("run completed",
		"score", st.Final.QualityScore,
		"retries", st.Final.RetryAttempts,
		"messages", len(st.Messages),
		"duration", res.Duration)
	p.publish(id, EventRunCompleted, map[string]any{"output": st.Final})
	return res, nil
}

func (p *Pipeline) publish(id, kind string, payload any) {
	if p.Hub != nil {
		p.Hub.Publish(id, Event{Event: kind, Payload: payload})
	}
}
