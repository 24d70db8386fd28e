package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/multi-agent/internal/agents"
	"github.com/example/multi-agent/internal/models"
)

var (
	// ErrStepLimit means the graph executed more nodes than the retry
	// budget allows, which only a misbehaving node can cause.
	ErrStepLimit = errors.New("step limit exceeded")
	ErrBadGraph  = errors.New("invalid graph")
)

// nodesPerPass is orchestrator, researcher, coder and critic.
const nodesPerPass = 4

// StepLimit is the most node executions a run with maxRetries may take.
func StepLimit(maxRetries int) int {
	return (maxRetries+1)*nodesPerPass + 1
}

// Graph wires role nodes together. Routing between them is Route.
type Graph struct {
	Nodes    map[models.Role]agents.Node
	Entry    models.Role
	Terminal models.Role
}

// NewGraph builds a graph from nodes keyed by their own Role, entered at
// the orchestrator and terminated at the final node.
func NewGraph(nodes ...agents.Node) Graph {
	g := Graph{
		Nodes:    make(map[models.Role]agents.Node, len(nodes)),
		Entry:    models.RoleOrchestrator,
		Terminal: models.RoleFinal,
	}
	for _, n := range nodes {
		g.Nodes[n.Role()] = n
	}
	return g
}

func (g Graph) validate() error {
	for _, r := range []models.Role{g.Entry, g.Terminal} {
		if _, ok := g.Nodes[r]; !ok {
			return fmt.Errorf("%w: no node for %s", ErrBadGraph, r)
		}
	}
	return nil
}

// Step describes one node execution. Err is set only on a failed finish.
type Step struct {
	N    int
	Role models.Role
	Done bool
	Err  error
}

// Engine drives a Graph over one State, one node at a time.
type Engine struct {
	Graph Graph
	// OnStep, when set, is called before and after every node. It runs
	// synchronously and may read but must not modify the state.
	OnStep func(Step, *models.State)
}

// Run executes from the entry node until the terminal node has run.
func (e *Engine) Run(ctx context.Context, st *models.State) error {
	if err := e.Graph.validate(); err != nil {
		return err
	}
	limit := StepLimit(st.MaxRetries)
	cur := e.Graph.Entry
	for n := 1; ; n++ {
		if n > limit {
			return fmt.Errorf("%w: %d node executions", ErrStepLimit, limit)
		}
		node, ok := e.Graph.Nodes[cur]
		if !ok {
			return fmt.Errorf("%w: no node for %s", ErrBadGraph, cur)
		}
		e.notify(Step{N: n, Role: cur}, st)
		if err := node.Run(ctx, st); err != nil {
			err = fmt.Errorf("%s node: %w", cur, err)
			e.notify(Step{N: n, Role: cur, Done: true, Err: err}, st)
			return err
		}
		e.notify(Step{N: n, Role: cur, Done: true}, st)
		if cur == e.Graph.Terminal {
			return nil
		}
		cur = Route(cur, st)
	}
}

func (e *Engine) notify(s Step, st *models.State) {
	if e.OnStep != nil {
		e.OnStep(s, st)
	}
}
