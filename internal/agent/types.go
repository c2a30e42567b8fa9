// Package agent implements the three LLM-driven roles spec §4.2 describes
// — Librarian, Artisan, Critic — as a shared {Initialize, Execute}
// capability over the Provider Router, the same polymorphic-agent idiom
// the teacher framework uses for its ai.IntelligentAgent / core.Tool
// capability set, generalized here to a fixed three-role lifecycle instead
// of an open-ended tool registry.
package agent

import (
	"context"

	"github.com/itsneelabh/ralph/internal/agentctx"
	"github.com/itsneelabh/ralph/internal/provider"
)

// Config is the per-instance model selection every agent carries. The
// orchestrator may override any field before Initialize.
type Config struct {
	Provider    provider.Tag
	Model       string
	Temperature float32
}

// Result is the uniform shape every agent's Execute call returns.
type Result struct {
	Success    bool
	Data       interface{}
	TokensUsed int
	CostUSD    float64
}

// Agent is the capability every role implements: seed it with the current
// run state, then ask it to do its one thing.
type Agent interface {
	Initialize(ctx context.Context, ac agentctx.AgentContext) error
	Execute(ctx context.Context) (Result, error)
}

// base holds what every concrete agent needs: the router to call through,
// this instance's model config, and the AgentContext it was initialized
// with. Cyclic back-references to an orchestrator are deliberately absent
// — everything an agent needs crosses the boundary through AgentContext
// and the injected Router, per spec §9's "no cyclic references" redesign
// flag.
type base struct {
	router *provider.Router
	config Config
	ac     agentctx.AgentContext
}

func (b *base) Initialize(ctx context.Context, ac agentctx.AgentContext) error {
	b.ac = ac
	return nil
}

func escalationPreamble(ac agentctx.AgentContext) string {
	if ac.EscalationContext == "" {
		return ""
	}
	return "PRIOR ATTEMPTS:\n" + ac.EscalationContext + "\n\n"
}
