// Package agentctx defines AgentContext, the immutable per-run state
// threaded through every phase of a fix run. Every update returns a new
// value rather than mutating the receiver, the same copy-on-write
// discipline the teacher framework uses for its per-request core.Config
// overlays, generalized here to the full lifecycle of a run instead of
// just startup.
package agentctx

import "time"

// TestFramework is the closed set of test runners ralph knows how to
// interpret output from.
type TestFramework string

const (
	FrameworkVitest  TestFramework = "vitest"
	FrameworkJest    TestFramework = "jest"
	FrameworkPytest  TestFramework = "pytest"
	FrameworkMocha   TestFramework = "mocha"
	FrameworkRSpec   TestFramework = "rspec"
	FrameworkCargo   TestFramework = "cargo"
	FrameworkCustom  TestFramework = "custom"
)

// Budget tracks spend and elapsed time against the caps a run was started
// with. It is a value type, stamped onto the AgentContext once at run
// start; CurrentCostUSD is not updated as the run spends. The running
// cost, iteration and elapsed-time totals live in the Iteration Manager.
type Budget struct {
	MaxCostUSD         float64
	CurrentCostUSD     float64
	MaxDurationMinutes float64
	StartTime          time.Time
	MaxIterations      int
}

// TestStatus is the outcome of one test-runner invocation.
type TestStatus string

const (
	TestPassed TestStatus = "passed"
	TestFailed TestStatus = "failed"
	TestError  TestStatus = "error"
)

// TestResult is the parsed outcome of invoking the external test runner.
type TestResult struct {
	Status        TestStatus
	FailedTests   []string
	ErrorMessages []string
	DurationMS    int64
}

// LibrarianOutput is the structured result of a Librarian agent run.
type LibrarianOutput struct {
	RelevantFiles   []string
	DependencyGraph DependencyGraph
	ContextSummary  string
	TokensUsed      int
	CostUSD         float64
}

// DependencyGraph is Librarian's file-relationship map.
type DependencyGraph struct {
	Nodes []string
	Edges []DependencyEdge
}

// DependencyEdge is a directed edge from one file to another it depends on.
type DependencyEdge struct {
	From string
	To   string
}

// ArtisanOutput is the structured result of an Artisan agent run.
type ArtisanOutput struct {
	Code       string
	Reasoning  string
	TokensUsed int
	CostUSD    float64
}

// CriticOutput is the structured result of a Critic agent run.
type CriticOutput struct {
	Approved   bool
	Critique   string
	TokensUsed int
	CostUSD    float64
}

// AgentContext is the immutable state passed between every phase of a run.
// Every With* method returns a new AgentContext; the receiver is never
// modified (spec's "once escalation_context is set it may only be
// replaced, never cleared" invariant falls directly out of this: there is
// no method that clears it, only WithEscalationContext that replaces it).
type AgentContext struct {
	SessionID         string
	Iteration         int
	Objective         string
	TargetFile        string // empty means "any files in working dir"
	WorkingDirectory  string
	TestCommand       string
	TestFramework     TestFramework
	Budget            Budget
	LibrarianContext  *LibrarianOutput
	ArtisanCode       *ArtisanOutput
	CriticReview      *CriticOutput
	TestResult        *TestResult
	EscalationContext string
}

// WithIteration returns a copy with Iteration set to n.
func (c AgentContext) WithIteration(n int) AgentContext {
	next := c
	next.Iteration = n
	return next
}

// WithBudget returns a copy with Budget replaced.
func (c AgentContext) WithBudget(b Budget) AgentContext {
	next := c
	next.Budget = b
	return next
}

// WithLibrarianContext returns a copy carrying Librarian's output.
func (c AgentContext) WithLibrarianContext(out LibrarianOutput) AgentContext {
	next := c
	next.LibrarianContext = &out
	return next
}

// WithArtisanCode returns a copy carrying Artisan's output.
func (c AgentContext) WithArtisanCode(out ArtisanOutput) AgentContext {
	next := c
	next.ArtisanCode = &out
	return next
}

// WithCriticReview returns a copy carrying Critic's output.
func (c AgentContext) WithCriticReview(out CriticOutput) AgentContext {
	next := c
	next.CriticReview = &out
	return next
}

// WithTestResult returns a copy carrying the latest test-runner outcome.
func (c AgentContext) WithTestResult(r TestResult) AgentContext {
	next := c
	next.TestResult = &r
	return next
}

// WithEscalationContext returns a copy with EscalationContext replaced.
// There is deliberately no method to clear it: per spec, once set it may
// only be replaced within the same run, so an empty summary leaves the
// current value unchanged.
func (c AgentContext) WithEscalationContext(summary string) AgentContext {
	if summary == "" {
		return c
	}
	next := c
	next.EscalationContext = summary
	return next
}

// ResetAgentOutputs clears the per-phase role outputs (Librarian/Artisan/
// Critic/TestResult) while leaving identity, budget, and escalation
// context intact — used when context-reset policy fires between
// iterations, since those outputs are "valid only for the phase that
// produced them and the one that consumes them."
func (c AgentContext) ResetAgentOutputs() AgentContext {
	next := c
	next.LibrarianContext = nil
	next.ArtisanCode = nil
	next.CriticReview = nil
	next.TestResult = nil
	return next
}
