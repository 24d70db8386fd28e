package models

import (
	"time"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Role identifies a pipeline node. The set is closed; model-supplied agent
// names go through ParseRole before they are used for routing.
type Role int

const (
	RoleUnknown Role = iota
	RoleOrchestrator
	RoleResearcher
	RoleCoder
	RoleCritic
	RoleFinal
	// RoleEnd is the critic's "stop" decision. The engine maps it to RoleFinal.
	RoleEnd
)

var roleNames = map[Role]string{
	RoleOrchestrator: "orchestrator",
	RoleResearcher:   "researcher",
	RoleCoder:        "coder",
	RoleCritic:       "critic",
	RoleFinal:        "final",
	RoleEnd:          "end",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return "unknown"
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	v, _ := ParseRole(string(b))
	*r = v
	return nil
}

// ParseRole maps an agent name to a Role. Matching is exact on the lower-case name.
func ParseRole(s string) (Role, bool) {
	for r, name := range roleNames {
		if name == s {
			return r, true
		}
	}
	return RoleUnknown, false
}

// Task is one entry of an orchestrator plan.
type Task struct {
	Agent string `json:"agent"`
	Task  string `json:"task"`
}

// Plan is the orchestrator's task breakdown, {"tasks": [{agent, task}]}.
type Plan struct {
	Tasks []Task `json:"tasks"`
}

// FirstTask returns the first task assigned to role.
func (p Plan) FirstTask(role Role) (Task, bool) {
	name := role.String()
	for _, t := range p.Tasks {
		if t.Agent == name {
			return t, true
		}
	}
	return Task{}, false
}

// Has reports whether any task is assigned to role.
func (p Plan) Has(role Role) bool {
	_, ok := p.FirstTask(role)
	return ok
}

const (
	MessageSystem    = "system"
	MessageUser      = "user"
	MessageAssistant = "assistant"
)

// Message is one entry of the run's audit log.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Node is the pipeline node that produced the exchange.
	Node Role `json:"node"`
}

// CodeCheck is the result of a syntax-only validation of generated code.
type CodeCheck struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

const (
	DefaultMaxRetries = 2
	MaxAllowedRetries = 5
)

// State is threaded through every node of a run. The engine owns the single
// copy; nodes mutate it in place and must not retain it after returning.
type State struct {
	UserInput        string
	Documents        string
	Plan             Plan
	ResearcherOutput string
	CoderOutput      string
	CodeCheck        *CodeCheck
	CriticScore      float64
	CriticFeedback   string
	// CriticRuns counts critic evaluations; CriticScore is meaningless while zero.
	CriticRuns int
	RetryCount int
	MaxRetries int
	Next       Role
	Final      *FinalOutput
	Messages   []Message
}

func NewState(input string, maxRetries int) *State {
	return &State{
		UserInput:  input,
		MaxRetries: maxRetries,
		Messages:   []Message{},
	}
}

// Append adds entries to the audit log.
func (s *State) Append(node Role, msgs ...Message) {
	for _, m := range msgs {
		m.Node = node
		s.Messages = append(s.Messages, m)
	}
}

// FinalOutput is the aggregate record handed back to callers. It is built
// once by the terminal node and never mutated afterwards.
type FinalOutput struct {
	UserRequest      string     `json:"user_request"`
	Plan             Plan       `json:"plan"`
	ResearcherOutput string     `json:"researcher_output"`
	CoderOutput      string     `json:"coder_output"`
	QualityScore     float64    `json:"quality_score"`
	RetryAttempts    int        `json:"retry_attempts"`
	Feedback         string     `json:"feedback,omitempty"`
	CodeCheck        *CodeCheck `json:"code_check,omitempty"`
}

// Job tracks an asynchronous run submitted through the API.
type Job struct {
	ID          string       `json:"job_id"`
	Query       string       `json:"query"`
	MaxRetries  int          `json:"max_retries"`
	Status      Status       `json:"status"`
	Result      *FinalOutput `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}
