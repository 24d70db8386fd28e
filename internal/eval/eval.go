package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/multi-agent/internal/logging"
	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/orchestrator"
)

const (
	// SuccessThreshold is the score a run must exceed to count as a success.
	SuccessThreshold = 0.5
	// QualityThreshold is the minimum score for the quality_score requirement.
	QualityThreshold = 0.6
)

// Suite names as they appear in results.
const (
	SuiteSuccess     = "success"
	SuiteToolRecall  = "tool_recall"
	SuiteInstruction = "instruction_following"
)

// Runner executes one request. *orchestrator.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req orchestrator.RunRequest) (*orchestrator.RunResult, error)
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Suite        string    `json:"suite"`
	Query        string    `json:"test_case"`
	Passed       bool      `json:"success"`
	QualityScore float64   `json:"quality_score"`
	AgentsUsed   []string  `json:"agents_used"`
	Expected     []string  `json:"expected_agents,omitempty"`
	Met          int       `json:"requirements_met,omitempty"`
	Total        int       `json:"requirements_total,omitempty"`
	Missing      []string  `json:"missing,omitempty"`
	Error        string    `json:"error,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// Report aggregates a suite run. Rates are percentages.
type Report struct {
	Timestamp            time.Time    `json:"timestamp"`
	TaskSuccessRate      float64      `json:"task_success_rate"`
	ToolRecall           float64      `json:"tool_recall"`
	InstructionFollowing float64      `json:"instruction_following"`
	OverallScore         float64      `json:"overall_score"`
	Results              []CaseResult `json:"results"`
}

// Evaluator runs suites against a Runner.
type Evaluator struct {
	Runner Runner
	// Parallelism bounds concurrent runs; values below 1 mean 1.
	Parallelism int
	MaxRetries  int
	now         func() time.Time
}

func New(runner Runner, parallelism, maxRetries int) *Evaluator {
	return &Evaluator{Runner: runner, Parallelism: parallelism, MaxRetries: maxRetries, now: time.Now}
}

type job struct {
	suite string
	c     Case
}

// Evaluate runs every case in s. Individual run failures are recorded in the
// report; only context cancellation aborts the evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, s Suite) (*Report, error) {
	var work []job
	for _, c := range s.Success {
		work = append(work, job{SuiteSuccess, c})
	}
	for _, c := range s.ToolRecall {
		work = append(work, job{SuiteToolRecall, c})
	}
	for _, c := range s.Instruction {
		work = append(work, job{SuiteInstruction, c})
	}

	results := make([]CaseResult, len(work))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.Parallelism, 1))
	for i, w := range work {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.runCase(gctx, w)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &Report{Timestamp: e.clock(), Results: results}
	r.TaskSuccessRate = rate(results, SuiteSuccess)
	r.ToolRecall = rate(results, SuiteToolRecall)
	r.InstructionFollowing = rate(results, SuiteInstruction)
	r.OverallScore = (r.TaskSuccessRate + r.ToolRecall + r.InstructionFollowing) / 3
	return r, nil
}

func (e *Evaluator) runCase(ctx context.Context, w job) CaseResult {
	log := logging.FromContext(ctx).With("suite", w.suite, "query", truncate(w.c.Query, 50))
	start := e.clock()
	res, err := e.Runner.Run(ctx, orchestrator.RunRequest{Input: w.c.Query, MaxRetries: e.MaxRetries})
	cr := CaseResult{
		Suite:      w.suite,
		Query:      w.c.Query,
		Expected:   w.c.ExpectedAgents,
		DurationMS: e.clock().Sub(start).Milliseconds(),
		Timestamp:  start,
	}
	if err != nil {
		cr.Error = err.Error()
		log.Warn("case errored", "err", err)
		return cr
	}
	out := res.Output
	if out == nil {
		out = &models.FinalOutput{}
	}
	cr.QualityScore = out.QualityScore
	cr.AgentsUsed = AgentsUsed(out)

	switch w.suite {
	case SuiteSuccess:
		cr.Passed = Succeeded(out)
	case SuiteToolRecall:
		cr.Passed = containsAll(cr.AgentsUsed, w.c.ExpectedAgents)
	case SuiteInstruction:
		cr.Met, cr.Missing = CheckRequirements(out, w.c.Requirements)
		cr.Total = len(w.c.Requirements)
		cr.Passed = cr.Total > 0 && cr.Met == cr.Total
	}
	log.Info("case finished", "passed", cr.Passed, "score", cr.QualityScore)
	return cr
}

func (e *Evaluator) clock() time.Time {
	if e.now == nil {
		return time.Now()
	}
	return e.now()
}

// Succeeded reports whether a run produced agent output scored above
// SuccessThreshold.
func Succeeded(out *models.FinalOutput) bool {
	hasOutput := out.ResearcherOutput != "" || out.CoderOutput != ""
	return hasOutput && out.QualityScore > SuccessThreshold
}

// AgentsUsed lists the worker agents whose output made it into out.
func AgentsUsed(out *models.FinalOutput) []string {
	used := []string{}
	if out.ResearcherOutput != "" {
		used = append(used, models.RoleResearcher.String())
	}
	if out.CoderOutput != "" {
		used = append(used, models.RoleCoder.String())
	}
	return used
}

// CheckRequirements counts the requirements out satisfies and names the rest.
// Unknown requirement names are never satisfied.
func CheckRequirements(out *models.FinalOutput, reqs []string) (met int, missing []string) {
	for _, req := range reqs {
		var ok bool
		switch req {
		case ReqHasPlan:
			ok = len(out.Plan.Tasks) > 0
		case ReqHasResearch:
			ok = out.ResearcherOutput != ""
		case ReqHasCode:
			ok = hasCode(out.CoderOutput)
		case ReqQualityScore:
			ok = out.QualityScore >= QualityThreshold
		}
		if ok {
			met++
		} else {
			missing = append(missing, req)
		}
	}
	return met, missing
}

func hasCode(s string) bool {
	for _, marker := range []string{"```", "func ", "type ", "package "} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func containsAll(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	for _, w := range want {
		if !set[strings.ToLower(strings.TrimSpace(w))] {
			return false
		}
	}
	return true
}

func rate(results []CaseResult, suite string) float64 {
	var total, passed int
	for _, r := range results {
		if r.Suite != suite {
			continue
		}
		total++
		if r.Passed {
			passed++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(passed) / float64(total) * 100
}

// Save writes the report as indented JSON.
func Save(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
