// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"
)

// Call records one Generate invocation.
type Call struct {
	System string
	User   string
}

// Scripted replies from per-system-prompt queues. When a queue runs dry the
// last reply is repeated; a prompt with no queue yields Default.
type Scripted struct {
	mu      sync.Mutex
	replies map[string][]string
	errs    map[string]error
	used    map[string]int
	Default string
	Calls   []Call
}

func New() *Scripted {
	return &Scripted{replies: map[string][]string{}, errs: map[string]error{}, used: map[string]int{}}
}

// On queues replies for systemPrompt.
func (s *Scripted) On(systemPrompt string, replies ...string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[systemPrompt] = append(s.replies[systemPrompt], replies...)
	return s
}

// Fail makes every call with systemPrompt return err.
func (s *Scripted) Fail(systemPrompt string, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[systemPrompt] = err
	return s
}

// Count returns how many calls used systemPrompt.
func (s *Scripted) Count(systemPrompt string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used[systemPrompt]
}

func (s *Scripted) Generate(_ context.Context, systemPrompt, userContent string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, Call{System: systemPrompt, User: userContent})
	n := s.used[systemPrompt]
	s.used[systemPrompt] = n + 1
	if err := s.errs[systemPrompt]; err != nil {
		return "", err
	}
	q, ok := s.replies[systemPrompt]
	if !ok || len(q) == 0 {
		if s.Default == "" {
			return "", errors.New("llmtest: no scripted reply")
		}
		return s.Default, nil
	}
	if n >= len(q) {
		return q[len(q)-1], nil
	}
	return q[n], nil
}
