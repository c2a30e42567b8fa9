package loop

import (
	"context"
	"errors"
	"os"

	"github.com/itsneelabh/ralph/internal/agent"
	"github.com/itsneelabh/ralph/internal/agentctx"
	"github.com/itsneelabh/ralph/internal/corekit"
	"github.com/itsneelabh/ralph/internal/iteration"
	"github.com/itsneelabh/ralph/internal/testrunner"
)

// ExitReason is why a phase stopped running, per spec §4.6's success/
// failure taxonomy.
type ExitReason string

const (
	ExitSuccess         ExitReason = "success"
	ExitBudgetExhausted ExitReason = "budget_exhausted"
	ExitEntropyDetected ExitReason = "entropy_detected"
	ExitProviderError   ExitReason = "provider_error"
	ExitIterationsUsed  ExitReason = "iterations_exhausted"
)

// PhaseResult is what RunSimple/RunFull hand back to their caller (the
// Tier Engine's run_tier, or the top-level orchestrator for the plain
// two-phase path).
type PhaseResult struct {
	Success       bool
	ExitReason    ExitReason
	Context       agentctx.AgentContext
	Records       []SimpleIterationRecord
	IterationsUsed int
}

// AgentFactory builds fresh Librarian/Artisan/Critic instances, used so a
// context-reset can swap in cheap new agent instances rather than mutate
// existing ones.
type AgentFactory struct {
	NewLibrarian func() agent.Agent
	NewArtisan   func() agent.Agent
	NewCritic    func() agent.Agent
}

// RunSimple implements Phase A (spec §4.5): Artisan-only iterations against
// maxIterations, writing Artisan's code to ac.TargetFile and invoking the
// test runner after each attempt.
func RunSimple(ctx context.Context, ac agentctx.AgentContext, mgr *iteration.Manager, factory AgentFactory, runner *testrunner.Runner, maxIterations int, logger corekit.Logger) (PhaseResult, error) {
	if logger == nil {
		logger = &corekit.NoOpLogger{}
	}

	var records []SimpleIterationRecord
	current := ac

	for mgr.Iteration() < maxIterations {
		status := mgr.CheckBudget()
		if !status.WithinBudget {
			return PhaseResult{Success: false, ExitReason: ExitBudgetExhausted, Context: current, Records: records, IterationsUsed: len(records)}, nil
		}

		iterIndex := mgr.IncrementIteration()

		artisan := factory.NewArtisan()
		if err := artisan.Initialize(ctx, current); err != nil {
			return PhaseResult{}, err
		}
		result, err := artisan.Execute(ctx)
		if err != nil {
			if isProviderError(err) {
				return PhaseResult{Success: false, ExitReason: ExitProviderError, Context: current, Records: records, IterationsUsed: len(records)}, err
			}
			return PhaseResult{}, err
		}

		out, _ := result.Data.(agentctx.ArtisanOutput)
		mgr.RecordCost(out.CostUSD)
		current = current.WithArtisanCode(out)

		if err := os.WriteFile(current.TargetFile, []byte(out.Code), 0o644); err != nil {
			return PhaseResult{}, err
		}

		testResult, err := runner.Run(ctx)
		if err != nil {
			return PhaseResult{}, err
		}
		current = current.WithTestResult(testResult)

		records = append(records, SimpleIterationRecord{
			IterationIndex:    iterIndex,
			CodeChangeSummary: truncateSummary(out.Reasoning),
			TestStatus:        testResult.Status,
			FailedTests:       testResult.FailedTests,
			ErrorMessages:     testResult.ErrorMessages,
			DurationMS:        testResult.DurationMS,
			CostUSD:           out.CostUSD,
		})

		if testResult.Status == agentctx.TestPassed {
			return PhaseResult{Success: true, ExitReason: ExitSuccess, Context: current, Records: records, IterationsUsed: len(records)}, nil
		}

		if mgr.ShouldResetContext(iterIndex) {
			current = current.ResetAgentOutputs()
		}

		logger.Info("simple-mode iteration finished", map[string]interface{}{
			"iteration": iterIndex, "status": string(testResult.Status),
		})
	}

	return PhaseResult{Success: false, ExitReason: ExitIterationsUsed, Context: current, Records: records, IterationsUsed: len(records)}, nil
}

// RunEscalationGate implements Phase B (spec §4.5): build a failure summary
// from Phase A's records and return a new AgentContext with
// EscalationContext set. The input context is left unchanged.
func RunEscalationGate(ac agentctx.AgentContext, records []SimpleIterationRecord) (agentctx.AgentContext, FailureSummary) {
	summary := BuildFailureSummary(records)
	return ac.WithEscalationContext(summary.NaturalLanguageSummary), summary
}

// RunFull implements Phase C (spec §4.6): the Librarian -> Artisan -> Critic
// -> test-runner sequence, with entropy-detector wiring on failure.
// Iteration numbers continue from wherever mgr's counter already stands
// (shared budget/iteration tracking across Phase A and Phase C).
func RunFull(ctx context.Context, ac agentctx.AgentContext, mgr *iteration.Manager, factory AgentFactory, runner *testrunner.Runner, maxIterations int, logger corekit.Logger) (PhaseResult, error) {
	if logger == nil {
		logger = &corekit.NoOpLogger{}
	}

	current := ac
	iterationsUsedHere := 0
	var records []SimpleIterationRecord

	for mgr.Iteration() < maxIterations {
		status := mgr.CheckBudget()
		if !status.WithinBudget {
			return PhaseResult{Success: false, ExitReason: ExitBudgetExhausted, Context: current, Records: records, IterationsUsed: iterationsUsedHere}, nil
		}

		iterIndex := mgr.IncrementIteration()
		iterationsUsedHere++
		var iterCost float64

		librarian := factory.NewLibrarian()
		if err := librarian.Initialize(ctx, current); err != nil {
			return PhaseResult{}, err
		}
		libResult, err := librarian.Execute(ctx)
		if err != nil {
			if isProviderError(err) {
				return PhaseResult{Success: false, ExitReason: ExitProviderError, Context: current, Records: records, IterationsUsed: iterationsUsedHere}, err
			}
			return PhaseResult{}, err
		}
		libOut, _ := libResult.Data.(agentctx.LibrarianOutput)
		mgr.RecordCost(libOut.CostUSD)
		iterCost += libOut.CostUSD
		current = current.WithLibrarianContext(libOut)

		artisan := factory.NewArtisan()
		if err := artisan.Initialize(ctx, current); err != nil {
			return PhaseResult{}, err
		}
		artResult, err := artisan.Execute(ctx)
		if err != nil {
			if isProviderError(err) {
				return PhaseResult{Success: false, ExitReason: ExitProviderError, Context: current, Records: records, IterationsUsed: iterationsUsedHere}, err
			}
			return PhaseResult{}, err
		}
		artOut, _ := artResult.Data.(agentctx.ArtisanOutput)
		mgr.RecordCost(artOut.CostUSD)
		iterCost += artOut.CostUSD
		current = current.WithArtisanCode(artOut)

		if err := os.WriteFile(current.TargetFile, []byte(artOut.Code), 0o644); err != nil {
			return PhaseResult{}, err
		}

		critic := factory.NewCritic()
		if err := critic.Initialize(ctx, current); err != nil {
			return PhaseResult{}, err
		}
		criticResult, err := critic.Execute(ctx)
		if err != nil {
			if isProviderError(err) {
				return PhaseResult{Success: false, ExitReason: ExitProviderError, Context: current, Records: records, IterationsUsed: iterationsUsedHere}, err
			}
			return PhaseResult{}, err
		}
		criticOut, _ := criticResult.Data.(agentctx.CriticOutput)
		mgr.RecordCost(criticOut.CostUSD)
		iterCost += criticOut.CostUSD
		current = current.WithCriticReview(criticOut)

		testResult, err := runner.Run(ctx)
		if err != nil {
			return PhaseResult{}, err
		}
		current = current.WithTestResult(testResult)

		records = append(records, SimpleIterationRecord{
			IterationIndex:    iterIndex,
			CodeChangeSummary: truncateSummary(artOut.Reasoning),
			TestStatus:        testResult.Status,
			FailedTests:       testResult.FailedTests,
			ErrorMessages:     testResult.ErrorMessages,
			DurationMS:        testResult.DurationMS,
			CostUSD:           iterCost,
		})

		if testResult.Status == agentctx.TestPassed {
			return PhaseResult{Success: true, ExitReason: ExitSuccess, Context: current, Records: records, IterationsUsed: iterationsUsedHere}, nil
		}

		// Adversarial/chaos failures never reach this path — only
		// unit-test failures and uncategorized errors feed the detector.
		for _, sig := range testResult.ErrorMessages {
			if mgr.TrackError(iteration.NormalizeSignature(sig)) {
				return PhaseResult{Success: false, ExitReason: ExitEntropyDetected, Context: current, Records: records, IterationsUsed: iterationsUsedHere}, nil
			}
		}

		if mgr.ShouldResetContext(iterIndex) {
			current = current.ResetAgentOutputs()
		}

		logger.Info("full-mode iteration finished", map[string]interface{}{
			"iteration": iterIndex, "status": string(testResult.Status),
		})
	}

	return PhaseResult{Success: false, ExitReason: ExitIterationsUsed, Context: current, Records: records, IterationsUsed: iterationsUsedHere}, nil
}

func isProviderError(err error) bool {
	return errors.Is(err, corekit.ErrProviderError) || errors.Is(err, corekit.ErrMissingCredentials)
}
