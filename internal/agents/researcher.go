package agents

import (
	"context"
	"fmt"

	"github.com/example/multi-agent/internal/logging"
	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/providers/llm"
)

// Searcher is the researcher's view of the search adapter. Provider
// failures come back as text; an error means search is unavailable.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Researcher gathers search context and asks the model to summarize it.
type Researcher struct {
	Client llm.Client
	Search Searcher
}

func (r *Researcher) Role() models.Role { return models.RoleResearcher }

func (r *Researcher) Run(ctx context.Context, st *models.State) error {
	task := taskFor(st, models.RoleResearcher)
	log := logging.FromContext(ctx)

	var content string
	if results, err := r.search(ctx, task); err != nil {
		log.Warn("search unavailable", "err", err)
		content = fmt.Sprintf("Task: %s\n(Note: Search unavailable, using knowledge only)", task)
	} else {
		content = fmt.Sprintf("Search results:\n%s\n\nTask: %s", results, task)
	}
	if st.Documents != "" {
		content += "\n\nAttached documents:\n" + st.Documents
	}

	reply, err := exchange(ctx, r.Client, st, models.RoleResearcher, ResearcherPrompt, content)
	if err != nil {
		return err
	}
	st.ResearcherOutput = reply
	if st.Plan.Has(models.RoleCoder) {
		st.Next = models.RoleCoder
	} else {
		st.Next = models.RoleCritic
	}
	log.Info("research done", "chars", len(reply), "next", st.Next.String())
	return nil
}

// search shields the node from a nil or panicking adapter.
func (r *Researcher) search(ctx context.Context, query string) (out string, err error) {
	if r.Search == nil {
		return "", errNoSearcher
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("search panicked: %v", p)
		}
	}()
	return r.Search.Search(ctx, query)
}
