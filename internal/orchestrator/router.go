package orchestrator

import "github.com/example/multi-agent/internal/models"

// Route picks the node that runs after from. It trusts st.Next only when
// it names a legal successor of from; otherwise it falls back to the fixed
// successor (researcher after orchestrator, critic after researcher or
// coder, final after critic). RoleEnd resolves to RoleFinal.
func Route(from models.Role, st *models.State) models.Role {
	switch from {
	case models.RoleOrchestrator:
		if st.Next == models.RoleResearcher || st.Next == models.RoleCoder {
			return st.Next
		}
		return models.RoleResearcher
	case models.RoleResearcher:
		if st.Next == models.RoleCoder || st.Next == models.RoleCritic {
			return st.Next
		}
		return models.RoleCritic
	case models.RoleCoder:
		return models.RoleCritic
	case models.RoleCritic:
		if st.Next == models.RoleOrchestrator && st.RetryCount <= st.MaxRetries {
			return models.RoleOrchestrator
		}
		return models.RoleFinal
	}
	return models.RoleFinal
}
