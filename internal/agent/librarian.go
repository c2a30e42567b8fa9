package agent

import (
	"context"
	"fmt"
	"os"

	"github.com/itsneelabh/ralph/internal/agentctx"
	"github.com/itsneelabh/ralph/internal/provider"
)

// Librarian ranks the files relevant to an objective and summarizes them
// for Artisan, per spec §4.2.
type Librarian struct {
	base
}

// NewLibrarian builds a Librarian that calls through router using cfg.
func NewLibrarian(router *provider.Router, cfg Config) *Librarian {
	return &Librarian{base{router: router, config: cfg}}
}

// Execute builds the dependency graph for the working directory, ranks
// files by distance from the target file, and asks the model for a
// context summary grounded in that ranking.
func (l *Librarian) Execute(ctx context.Context) (Result, error) {
	graph := buildDependencyGraph(l.ac.WorkingDirectory)
	ranked := rankFiles(graph, l.ac.TargetFile)

	userContent := escalationPreamble(l.ac) + buildLibrarianPrompt(l.ac, ranked)

	resp, err := l.router.Complete(ctx, provider.Request{
		Provider:    l.config.Provider,
		Model:       l.config.Model,
		Temperature: l.config.Temperature,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: librarianSystemPrompt},
			{Role: provider.RoleUser, Content: userContent},
		},
	})
	if err != nil {
		return Result{}, err
	}

	out := agentctx.LibrarianOutput{
		RelevantFiles:   ranked,
		DependencyGraph: graph,
		ContextSummary:  resp.Content,
		TokensUsed:      resp.InputTokens + resp.OutputTokens,
		CostUSD:         resp.CostUSD,
	}

	return Result{
		Success:    true,
		Data:       out,
		TokensUsed: out.TokensUsed,
		CostUSD:    out.CostUSD,
	}, nil
}

const librarianSystemPrompt = "You are the Librarian. Summarize the relevant code context for the " +
	"objective below so that a second model (the Artisan) can make a correct, minimal edit. " +
	"Do not propose code changes yourself."

func buildLibrarianPrompt(ac agentctx.AgentContext, ranked []string) string {
	prompt := fmt.Sprintf("Objective: %s\n", ac.Objective)
	if ac.TargetFile != "" {
		prompt += fmt.Sprintf("Target file: %s\n", ac.TargetFile)
		if content, err := os.ReadFile(ac.TargetFile); err == nil {
			prompt += fmt.Sprintf("Target file content:\n%s\n", string(content))
		}
	}
	if len(ranked) > 0 {
		prompt += "Relevant files (nearest first):\n"
		for _, f := range ranked {
			prompt += "- " + f + "\n"
		}
	}
	return prompt
}

var _ Agent = (*Librarian)(nil)
