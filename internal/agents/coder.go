package agents

import (
	"context"

	"github.com/example/multi-agent/internal/logging"
	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/providers/llm"
	"github.com/example/multi-agent/internal/tools"
)

// Coder asks the model for code and syntax-checks the first fenced block.
// The check is recorded on the state; it never changes routing.
type Coder struct {
	Client llm.Client
}

func (c *Coder) Role() models.Role { return models.RoleCoder }

func (c *Coder) Run(ctx context.Context, st *models.State) error {
	content := "Task: " + taskFor(st, models.RoleCoder)
	if st.ResearcherOutput != "" {
		content += "\n\nResearch context:\n" + st.ResearcherOutput
	}
	reply, err := exchange(ctx, c.Client, st, models.RoleCoder, CoderPrompt, content)
	if err != nil {
		return err
	}
	st.CoderOutput = reply
	st.CodeCheck = nil
	if code := tools.ExtractCode(reply); code != "" {
		check := tools.ValidateCode(code)
		st.CodeCheck = &check
	}
	st.Next = models.RoleCritic

	log := logging.FromContext(ctx)
	if st.CodeCheck != nil && !st.CodeCheck.Valid {
		log.Warn("generated code failed syntax check", "msg", st.CodeCheck.Message)
	}
	log.Info("code done", "chars", len(reply))
	return nil
}
