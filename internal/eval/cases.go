// Package eval scores the pipeline against a fixed set of queries: how often
// a run succeeds, whether the expected agents contributed, and whether the
// output meets per-query requirements.
package eval

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Requirement names understood by the instruction-following metric.
const (
	ReqHasPlan      = "has_plan"
	ReqHasResearch  = "has_research"
	ReqHasCode      = "has_code"
	ReqQualityScore = "quality_score"
)

// Case is one query. ExpectedAgents is only read by the tool-recall suite and
// Requirements only by the instruction-following suite.
type Case struct {
	Query          string   `yaml:"query" json:"query"`
	ExpectedAgents []string `yaml:"expected_agents,omitempty" json:"expected_agents,omitempty"`
	Requirements   []string `yaml:"requirements,omitempty" json:"requirements,omitempty"`
}

// Suite groups cases by the metric they feed.
type Suite struct {
	Success     []Case `yaml:"success"`
	ToolRecall  []Case `yaml:"tool_recall"`
	Instruction []Case `yaml:"instruction_following"`
}

// Len is the number of pipeline runs the suite needs.
func (s Suite) Len() int {
	return len(s.Success) + len(s.ToolRecall) + len(s.Instruction)
}

// DefaultSuite is the built-in evaluation set.
func DefaultSuite() Suite {
	return Suite{
		Success: []Case{
			{Query: "What is the capital of France?"},
			{Query: "Write a Go function to calculate factorial"},
			{Query: "Research latest AI developments"},
			{Query: "Create a simple calculator in Go"},
			{Query: "Explain quantum computing"},
		},
		ToolRecall: []Case{
			{Query: "Research the latest developments in AI", ExpectedAgents: []string{"researcher"}},
			{Query: "Write a Go program to sort a list", ExpectedAgents: []string{"coder"}},
			{Query: "Research AI agents and write a Go example", ExpectedAgents: []string{"researcher", "coder"}},
			{Query: "What is machine learning?", ExpectedAgents: []string{"researcher"}},
			{Query: "Create a function to reverse a string", ExpectedAgents: []string{"coder"}},
		},
		Instruction: []Case{
			{
				Query:        "Research AI and write code example",
				Requirements: []string{ReqHasPlan, ReqHasResearch, ReqHasCode, ReqQualityScore},
			},
			{
				Query:        "Explain neural networks",
				Requirements: []string{ReqHasPlan, ReqHasResearch, ReqQualityScore},
			},
			{
				Query:        "Write a Go type for a stack",
				Requirements: []string{ReqHasPlan, ReqHasCode, ReqQualityScore},
			},
		},
	}
}

// LoadSuite reads a YAML suite file. An empty path yields DefaultSuite.
func LoadSuite(path string) (Suite, error) {
	if path == "" {
		return DefaultSuite(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("read cases: %w", err)
	}
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Suite{}, fmt.Errorf("parse cases %s: %w", path, err)
	}
	if s.Len() == 0 {
		return Suite{}, fmt.Errorf("cases %s: no cases defined", path)
	}
	return s, nil
}
