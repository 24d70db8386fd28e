package agents

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/example/multi-agent/internal/logging"
	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/providers/llm"
)

const (
	// DefaultScore applies when the critic reply has no usable score.
	DefaultScore = 0.7
	// RetryThreshold is the score below which a pass is retried.
	RetryThreshold = 0.6
)

// Verdict is the critic's decoded reply.
type Verdict struct {
	Score    *flexFloat `json:"score"`
	Feedback string     `json:"feedback"`
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	var v float64
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// Critic scores the pass and decides between retry and finish.
type Critic struct {
	Client llm.Client
}

func (c *Critic) Role() models.Role { return models.RoleCritic }

func (c *Critic) Run(ctx context.Context, st *models.State) error {
	content := "Review these outputs:\n\n" + reviewBlocks(st)
	reply, err := exchange(ctx, c.Client, st, models.RoleCritic, CriticPrompt, content)
	if err != nil {
		return err
	}
	score, feedback, dec := ParseVerdict(reply)
	st.CriticScore = score
	st.CriticFeedback = feedback
	st.CriticRuns++
	Decide(st)

	log := logging.FromContext(ctx)
	if dec.Fallback {
		log.Warn("critic reply unparsed, using default score", "shape", dec.Shape.String(), "err", dec.Err)
	}
	log.Info("critique", "score", score, "retry", st.RetryCount, "max_retries", st.MaxRetries, "next", st.Next.String())
	return nil
}

// ParseVerdict decodes a critic reply. A reply that does not decode or has
// no score yields DefaultScore. The score is clamped into [0, 1].
func ParseVerdict(reply string) (float64, string, Decoded[Verdict]) {
	dec := DecodeReply[Verdict](reply)
	if dec.Fallback || dec.Value.Score == nil {
		if !dec.Fallback {
			dec.Fallback, dec.Err = true, errMissingScore
		}
		return DefaultScore, strings.TrimSpace(dec.Value.Feedback), dec
	}
	score := float64(*dec.Value.Score)
	switch {
	case score < 0:
		score = 0
	case score > 1:
		score = 1
	}
	return score, strings.TrimSpace(dec.Value.Feedback), dec
}

// Decide applies the retry rule to the critic's latest score.
func Decide(st *models.State) {
	if st.CriticScore < RetryThreshold && st.RetryCount < st.MaxRetries {
		st.RetryCount++
		st.Next = models.RoleOrchestrator
		return
	}
	st.Next = models.RoleEnd
}

func reviewBlocks(st *models.State) string {
	var parts []string
	if st.ResearcherOutput != "" {
		parts = append(parts, "RESEARCHER:\n"+st.ResearcherOutput)
	}
	if st.CoderOutput != "" {
		parts = append(parts, "CODER:\n"+st.CoderOutput)
	}
	if st.CodeCheck != nil && !st.CodeCheck.Valid {
		parts = append(parts, "CODE CHECK:\n"+st.CodeCheck.Message)
	}
	return strings.Join(parts, "\n\n")
}
