package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/itsneelabh/ralph/internal/agentctx"
	"github.com/itsneelabh/ralph/internal/provider"
)

// Critic reviews Artisan's output against the original objective, per
// spec §4.2. A disapproving review is recorded and reported but does not
// itself stop the loop.
type Critic struct {
	base
}

// NewCritic builds a Critic that calls through router using cfg.
func NewCritic(router *provider.Router, cfg Config) *Critic {
	return &Critic{base{router: router, config: cfg}}
}

// Execute asks the model to approve or reject Artisan's change.
func (c *Critic) Execute(ctx context.Context) (Result, error) {
	if c.ac.ArtisanCode == nil {
		return Result{}, fmt.Errorf("critic: no artisan output to review")
	}

	userContent := escalationPreamble(c.ac) + buildCriticPrompt(c.ac)

	resp, err := c.router.Complete(ctx, provider.Request{
		Provider:    c.config.Provider,
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: criticSystemPrompt},
			{Role: provider.RoleUser, Content: userContent},
		},
	})
	if err != nil {
		return Result{}, err
	}

	approved, critique := parseVerdict(resp.Content)

	out := agentctx.CriticOutput{
		Approved:   approved,
		Critique:   critique,
		TokensUsed: resp.InputTokens + resp.OutputTokens,
		CostUSD:    resp.CostUSD,
	}

	return Result{
		Success:    true,
		Data:       out,
		TokensUsed: out.TokensUsed,
		CostUSD:    out.CostUSD,
	}, nil
}

const criticSystemPrompt = "You are the Critic. Review the Artisan's change against the objective. " +
	"Begin your response with exactly one line: \"VERDICT: APPROVE\" or \"VERDICT: REJECT\", " +
	"then explain your reasoning."

func buildCriticPrompt(ac agentctx.AgentContext) string {
	prompt := fmt.Sprintf("Objective: %s\n\nArtisan's reasoning:\n%s\n\nArtisan's code:\n%s\n",
		ac.Objective, ac.ArtisanCode.Reasoning, ac.ArtisanCode.Code)
	return prompt
}

// parseVerdict reads the leading "VERDICT: APPROVE|REJECT" line a Critic
// response is instructed to produce. A response missing that line is
// treated as not approved — silence is not consent.
func parseVerdict(content string) (approved bool, critique string) {
	lines := strings.SplitN(content, "\n", 2)
	first := strings.ToUpper(strings.TrimSpace(lines[0]))
	approved = strings.Contains(first, "VERDICT: APPROVE") || strings.Contains(first, "VERDICT:APPROVE")

	if len(lines) > 1 {
		critique = strings.TrimSpace(lines[1])
	}
	return approved, critique
}

var _ Agent = (*Critic)(nil)
