package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/tiendc/go-deepcopy"

	"github.com/example/multi-agent/internal/models"
)

// ErrFinalized is returned when the terminal node runs twice on one state.
var ErrFinalized = errors.New("final output already set")

// Final assembles the run's aggregate record. It makes no model call.
type Final struct{}

func (Final) Role() models.Role { return models.RoleFinal }

func (Final) Run(_ context.Context, st *models.State) error {
	if st.Final != nil {
		return ErrFinalized
	}
	out := &models.FinalOutput{
		UserRequest:      st.UserInput,
		ResearcherOutput: st.ResearcherOutput,
		CoderOutput:      st.CoderOutput,
		QualityScore:     st.CriticScore,
		RetryAttempts:    st.RetryCount,
		Feedback:         st.CriticFeedback,
	}
	if err := deepcopy.Copy(&out.Plan, st.Plan); err != nil {
		return fmt.Errorf("copy plan: %w", err)
	}
	if st.CodeCheck != nil {
		check := *st.CodeCheck
		out.CodeCheck = &check
	}
	st.Final = out
	st.Next = models.RoleEnd
	return nil
}
