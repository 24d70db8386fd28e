package agents

import (
	"context"
	"strings"

	"github.com/example/multi-agent/internal/logging"
	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/providers/llm"
)

// Orchestrator asks the model for a task plan and routes to its first task.
type Orchestrator struct {
	Client llm.Client
}

func (o *Orchestrator) Role() models.Role { return models.RoleOrchestrator }

func (o *Orchestrator) Run(ctx context.Context, st *models.State) error {
	// Outputs belong to a single pass.
	st.ResearcherOutput, st.CoderOutput, st.CodeCheck = "", "", nil

	reply, err := exchange(ctx, o.Client, st, models.RoleOrchestrator, OrchestratorPrompt, st.UserInput)
	if err != nil {
		return err
	}
	plan, dec := ParsePlan(reply, st.UserInput)
	st.Plan = plan
	st.Next = FirstRole(plan)

	log := logging.FromContext(ctx)
	if dec.Fallback {
		log.Warn("plan fallback", "shape", dec.Shape.String(), "err", dec.Err)
	}
	log.Info("plan ready", "tasks", len(plan.Tasks), "next", st.Next.String(), "pass", st.RetryCount+1)
	return nil
}

// FallbackPlan is used when the model's plan cannot be decoded.
func FallbackPlan(userInput string) models.Plan {
	return models.Plan{Tasks: []models.Task{{Agent: models.RoleResearcher.String(), Task: userInput}}}
}

// ParsePlan decodes a plan reply. Agent names are normalized to lower case.
// A reply that does not decode yields FallbackPlan; the returned Decoded
// reports which happened. A decoded plan with zero tasks is kept as is and
// FirstRole sends it to the researcher.
func ParsePlan(reply, userInput string) (models.Plan, Decoded[models.Plan]) {
	dec := DecodeReply[models.Plan](reply)
	if dec.Fallback {
		return FallbackPlan(userInput), dec
	}
	plan := models.Plan{Tasks: make([]models.Task, 0, len(dec.Value.Tasks))}
	for _, t := range dec.Value.Tasks {
		plan.Tasks = append(plan.Tasks, models.Task{
			Agent: strings.ToLower(strings.TrimSpace(t.Agent)),
			Task:  strings.TrimSpace(t.Task),
		})
	}
	return plan, dec
}

// FirstRole is the role of the plan's first task. Anything other than
// researcher or coder routes to the researcher.
func FirstRole(plan models.Plan) models.Role {
	if len(plan.Tasks) == 0 {
		return models.RoleResearcher
	}
	switch r, _ := models.ParseRole(plan.Tasks[0].Agent); r {
	case models.RoleResearcher, models.RoleCoder:
		return r
	}
	return models.RoleResearcher
}
