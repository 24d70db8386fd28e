// Package agents implements the pipeline's role nodes. Each node reads the
// run state, makes one system+user exchange with the language model, writes
// its outputs back and records the next role it wants.
package agents

import (
	"context"

	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/providers/llm"
)

// Node is one step of the pipeline graph.
type Node interface {
	Role() models.Role
	// Run mutates st in place. A returned error aborts the run; adapter and
	// parse failures are handled inside the node and never surface here.
	Run(ctx context.Context, st *models.State) error
}

// exchange logs the prompt pair, calls the model and logs the reply.
func exchange(ctx context.Context, client llm.Client, st *models.State, role models.Role, system, user string) (string, error) {
	st.Append(role,
		models.Message{Role: models.MessageSystem, Content: system},
		models.Message{Role: models.MessageUser, Content: user},
	)
	reply, err := client.Generate(ctx, system, user)
	if err != nil {
		return "", err
	}
	st.Append(role, models.Message{Role: models.MessageAssistant, Content: reply})
	return reply, nil
}

// taskFor returns the first plan task assigned to role, else the user input.
func taskFor(st *models.State, role models.Role) string {
	if t, ok := st.Plan.FirstTask(role); ok && t.Task != "" {
		return t.Task
	}
	return st.UserInput
}
