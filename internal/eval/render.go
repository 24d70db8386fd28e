package eval

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyle = lipgloss.NewStyle().Width(24)
)

var suiteTitles = []struct{ suite, title string }{
	{SuiteSuccess, "TASK SUCCESS RATE"},
	{SuiteToolRecall, "TOOL RECALL"},
	{SuiteInstruction, "INSTRUCTION FOLLOWING"},
}

// Render writes a per-case listing followed by the summary table.
func Render(w io.Writer, r *Report) {
	rule := strings.Repeat("=", 60)
	for _, st := range suiteTitles {
		var lines []string
		for _, c := range r.Results {
			if c.Suite == st.suite {
				lines = append(lines, caseLine(c))
			}
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintln(w, titleStyle.Render(st.title))
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, titleStyle.Render("FINAL EVALUATION SUMMARY"))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, summaryLine("Task Success Rate:", r.TaskSuccessRate))
	fmt.Fprintln(w, summaryLine("Tool Recall:", r.ToolRecall))
	fmt.Fprintln(w, summaryLine("Instruction Following:", r.InstructionFollowing))
	fmt.Fprintln(w, summaryLine("Overall Score:", r.OverallScore))
	fmt.Fprintln(w, rule)
}

func caseLine(c CaseResult) string {
	status := passStyle.Render("PASS")
	if !c.Passed {
		status = failStyle.Render("FAIL")
	}
	detail := fmt.Sprintf("score %.2f", c.QualityScore)
	switch {
	case c.Error != "":
		detail = "error: " + c.Error
	case c.Suite == SuiteToolRecall:
		detail = fmt.Sprintf("expected %v, got %v", c.Expected, c.AgentsUsed)
	case c.Suite == SuiteInstruction:
		detail = fmt.Sprintf("requirements %d/%d", c.Met, c.Total)
		if len(c.Missing) > 0 {
			detail += ", missing " + strings.Join(c.Missing, ",")
		}
	}
	return fmt.Sprintf("  %s %s %s", status, truncate(c.Query, 50), dimStyle.Render("("+detail+")"))
}

func summaryLine(label string, pct float64) string {
	return labelStyle.Render(label) + fmt.Sprintf("%.2f%%", pct)
}
