package agent

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/itsneelabh/ralph/internal/agentctx"
	"github.com/itsneelabh/ralph/internal/provider"
)

// Artisan produces the code change itself, per spec §4.2. The caller is
// responsible for writing Result.Data.(agentctx.ArtisanOutput).Code to
// TargetFile — Artisan only reads the target file for its prompt and never
// writes to the filesystem.
type Artisan struct {
	base
}

// NewArtisan builds an Artisan that calls through router using cfg.
func NewArtisan(router *provider.Router, cfg Config) *Artisan {
	return &Artisan{base{router: router, config: cfg}}
}

// Execute asks the model for a fix. In Simple Mode, ac.LibrarianContext is
// nil and the prompt carries only the target-file content; in Full Mode
// it carries Librarian's context summary instead.
func (a *Artisan) Execute(ctx context.Context) (Result, error) {
	userContent := escalationPreamble(a.ac) + buildArtisanPrompt(a.ac)

	resp, err := a.router.Complete(ctx, provider.Request{
		Provider:    a.config.Provider,
		Model:       a.config.Model,
		Temperature: a.config.Temperature,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: artisanSystemPrompt},
			{Role: provider.RoleUser, Content: userContent},
		},
	})
	if err != nil {
		return Result{}, err
	}

	code, reasoning := splitCodeAndReasoning(resp.Content)

	out := agentctx.ArtisanOutput{
		Code:       code,
		Reasoning:  reasoning,
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

const artisanSystemPrompt = "You are the Artisan. Produce a corrected version of the target file that " +
	"satisfies the objective and makes the failing tests pass. Respond with a fenced code block " +
	"containing the complete file content, followed by a short paragraph explaining the change."

func buildArtisanPrompt(ac agentctx.AgentContext) string {
	prompt := fmt.Sprintf("Objective: %s\n", ac.Objective)

	if ac.LibrarianContext != nil {
		prompt += "Context from Librarian:\n" + ac.LibrarianContext.ContextSummary + "\n"
	} else if ac.TargetFile != "" {
		if content, err := os.ReadFile(ac.TargetFile); err == nil {
			prompt += fmt.Sprintf("Target file (%s) current content:\n%s\n", ac.TargetFile, string(content))
		}
	}

	if ac.TestResult != nil && ac.TestResult.Status != agentctx.TestPassed {
		prompt += fmt.Sprintf("Last test status: %s\nFailed tests: %v\nErrors: %v\n",
			ac.TestResult.Status, ac.TestResult.FailedTests, ac.TestResult.ErrorMessages)
	}

	return prompt
}

// splitCodeAndReasoning extracts the first fenced code block as Code and
// everything else as Reasoning. When the model did not fence its answer,
// the whole response is treated as code and reasoning is left empty.
func splitCodeAndReasoning(content string) (code, reasoning string) {
	const fence = "```"
	start := strings.Index(content, fence)
	if start == -1 {
		return content, ""
	}
	afterOpen := start + len(fence)
	// skip an optional language tag on the opening fence line
	if nl := strings.Index(content[afterOpen:], "\n"); nl != -1 && nl < 20 {
		afterOpen += nl + 1
	}
	end := strings.Index(content[afterOpen:], fence)
	if end == -1 {
		return content[afterOpen:], ""
	}
	code = strings.TrimSuffix(content[afterOpen:afterOpen+end], "\n")
	reasoning = strings.TrimSpace(content[:start] + content[afterOpen+end+len(fence):])
	return code, reasoning
}

var _ Agent = (*Artisan)(nil)
