package agents

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/multi-agent/internal/models"
)

func TestUnwrapReply(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantBody  string
		wantShape ReplyShape
	}{
		{"raw object", ` {"a":1} `, `{"a":1}`, ShapeRaw},
		{"fenced json", "Here:\n```json\n{\"a\":1}\n```\nthanks", `{"a":1}`, ShapeFencedJSON},
		{"fenced unlabeled", "```\n{\"a\":1}\n```", `{"a":1}`, ShapeFenced},
		{"fenced other hint", "```JSON\n{\"a\":1}\n```", `{"a":1}`, ShapeFenced},
		{"fenced inline", "```{\"a\":1}```", `{"a":1}`, ShapeFenced},
		{"prose with object", `Sure! {"a":"}"} hope that helps`, `{"a":"}"}`, ShapeProse},
		{"plain prose", "no json here", "no json here", ShapeProse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, shape := UnwrapReply(tt.in)
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
			if shape != tt.wantShape {
				t.Errorf("shape = %v, want %v", shape, tt.wantShape)
			}
		})
	}
}

func TestDecodeReplyFallback(t *testing.T) {
	dec := DecodeReply[models.Plan]("I would research this first.")
	if !dec.Fallback || dec.Err == nil {
		t.Fatalf("Decoded = %+v, want fallback with error", dec)
	}
	if len(dec.Value.Tasks) != 0 {
		t.Errorf("fallback value should be zero, got %+v", dec.Value)
	}

	empty := DecodeReply[models.Plan]("```json\n```")
	if !empty.Fallback || empty.Err != errEmptyReply {
		t.Errorf("empty fenced block: %+v", empty)
	}
}

func TestParsePlan(t *testing.T) {
	const input = "What is the capital of France?"
	tests := []struct {
		name     string
		reply    string
		want     models.Plan
		fallback bool
		next     models.Role
	}{
		{
			name:  "researcher only",
			reply: `{"tasks":[{"agent":"researcher","task":"find capital"}]}`,
			want:  models.Plan{Tasks: []models.Task{{Agent: "researcher", Task: "find capital"}}},
			next:  models.RoleResearcher,
		},
		{
			name:  "normalizes agent names",
			reply: "```json\n{\"tasks\":[{\"agent\":\" Coder \",\"task\":\"write\"},{\"agent\":\"RESEARCHER\",\"task\":\"look\"}]}\n```",
			want: models.Plan{Tasks: []models.Task{
				{Agent: "coder", Task: "write"},
				{Agent: "researcher", Task: "look"},
			}},
			next: models.RoleCoder,
		},
		{
			name:  "unknown first agent routes to researcher",
			reply: `{"tasks":[{"agent":"designer","task":"draw"}]}`,
			want:  models.Plan{Tasks: []models.Task{{Agent: "designer", Task: "draw"}}},
			next:  models.RoleResearcher,
		},
		{
			name:     "prose falls back",
			reply:    "Let me think about that.",
			want:     FallbackPlan(input),
			fallback: true,
			next:     models.RoleResearcher,
		},
		{
			name:  "empty task list keeps empty plan",
			reply: `{"tasks":[]}`,
			want:  models.Plan{Tasks: []models.Task{}},
			next:  models.RoleResearcher,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, dec := ParsePlan(tt.reply, input)
			if diff := cmp.Diff(tt.want, plan); diff != "" {
				t.Errorf("plan mismatch (-want +got):\n%s", diff)
			}
			if dec.Fallback != tt.fallback {
				t.Errorf("Fallback = %v, want %v", dec.Fallback, tt.fallback)
			}
			if got := FirstRole(plan); got != tt.next {
				t.Errorf("FirstRole = %v, want %v", got, tt.next)
			}
		})
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		score    float64
		feedback string
		fallback bool
	}{
		{"plain", `{"score":0.85,"feedback":"good"}`, 0.85, "good", false},
		{"fenced", "```json\n{\"score\": 0.3, \"feedback\": \"thin\"}\n```", 0.3, "thin", false},
		{"string score", `{"score":"0.9","feedback":"ok"}`, 0.9, "ok", false},
		{"clamped high", `{"score":8,"feedback":"x"}`, 1, "x", false},
		{"clamped low", `{"score":-2}`, 0, "", false},
		{"missing score", `{"feedback":"no number"}`, DefaultScore, "no number", true},
		{"prose", "Looks fine to me.", DefaultScore, "", true},
		{"non numeric", `{"score":"high"}`, DefaultScore, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, feedback, dec := ParseVerdict(tt.reply)
			if score != tt.score {
				t.Errorf("score = %v, want %v", score, tt.score)
			}
			if feedback != tt.feedback {
				t.Errorf("feedback = %q, want %q", feedback, tt.feedback)
			}
			if dec.Fallback != tt.fallback {
				t.Errorf("Fallback = %v, want %v", dec.Fallback, tt.fallback)
			}
		})
	}
}
