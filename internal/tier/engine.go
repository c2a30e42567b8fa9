package tier

import (
	"context"
	"fmt"

	"github.com/itsneelabh/ralph/internal/agent"
	"github.com/itsneelabh/ralph/internal/agentctx"
	"github.com/itsneelabh/ralph/internal/corekit"
	"github.com/itsneelabh/ralph/internal/iteration"
	"github.com/itsneelabh/ralph/internal/loop"
	"github.com/itsneelabh/ralph/internal/testrunner"
)

// ChainResult is the outcome of running an entire TierEscalationConfig
// chain (spec §4.7).
type ChainResult struct {
	Success        bool
	Context        agentctx.AgentContext
	TierResults    []TierRunResult
	ResolvedTier   string
	FinalExitReason string
}

// AgentFactories builds fresh role agents bound to a given ModelOverride,
// so each tier can call through its own pinned provider/model.
type AgentFactories struct {
	NewLibrarian func(ModelOverride) agent.Agent
	NewArtisan   func(ModelOverride) agent.Agent
	NewCritic    func(ModelOverride) agent.Agent
}

// RunChain runs the full N-tier loop (spec §4.7): halting at the first
// tier that succeeds, or at the first budget_exhausted/provider_error exit,
// accumulating a compressed failure summary between tiers otherwise.
func RunChain(ctx context.Context, cfg TierEscalationConfig, ac agentctx.AgentContext, mgr *iteration.Manager, factories AgentFactories, runner *testrunner.Runner, logger corekit.Logger) (ChainResult, error) {
	if logger == nil {
		logger = &corekit.NoOpLogger{}
	}

	current := ac
	var priorResults []TierRunResult

	for i, t := range cfg.Tiers {
		if reason, exceeded := chainBudgetExceeded(cfg, mgr); exceeded {
			last := ""
			if len(priorResults) > 0 {
				last = priorResults[len(priorResults)-1].TierName
			}
			logger.Info("tier chain halted: global budget cap exceeded", map[string]interface{}{"reason": reason})
			return ChainResult{Success: false, Context: current, TierResults: priorResults, ResolvedTier: last, FinalExitReason: string(loop.ExitBudgetExhausted)}, nil
		}

		if len(priorResults) > 0 {
			current = current.WithEscalationContext(BuildAccumulatedSummary(priorResults))
		}

		logger.Info(fmt.Sprintf("---- > Tier %d/%d: %s [%s, %s] ----", i+1, len(cfg.Tiers), t.Name, t.Mode, t.ArtisanModel.Model), map[string]interface{}{
			"tier_index": i, "tier_name": t.Name,
		})

		result, err := runTier(ctx, i, t, current, mgr, factories, runner, logger)
		if err != nil {
			return ChainResult{Context: current, TierResults: append(priorResults, result.TierRunResult)}, err
		}

		priorResults = append(priorResults, result.TierRunResult)
		current = result.finalContext

		if result.Success {
			return ChainResult{Success: true, Context: current, TierResults: priorResults, ResolvedTier: t.Name, FinalExitReason: result.ExitReason}, nil
		}
		if result.ExitReason == string(loop.ExitBudgetExhausted) || result.ExitReason == string(loop.ExitProviderError) {
			return ChainResult{Success: false, Context: current, TierResults: priorResults, ResolvedTier: t.Name, FinalExitReason: result.ExitReason}, nil
		}
		// ExitIterationsUsed (DONE_ITER_EXHAUSTED): fall through to the next tier.
	}

	last := ""
	if len(priorResults) > 0 {
		last = priorResults[len(priorResults)-1].TierName
	}
	return ChainResult{Success: false, Context: current, TierResults: priorResults, ResolvedTier: last, FinalExitReason: string(loop.ExitIterationsUsed)}, nil
}

// chainBudgetExceeded checks the TierEscalationConfig's optional global
// caps, which sit alongside (and can be tighter than) the RunConfig-level
// caps the shared iteration.Manager already enforces per-tier. A zero cap
// means "no override."
func chainBudgetExceeded(cfg TierEscalationConfig, mgr *iteration.Manager) (string, bool) {
	if cfg.MaxTotalCostUSD > 0 && mgr.TotalCostUSD() >= cfg.MaxTotalCostUSD {
		return "max_total_cost_usd", true
	}
	if cfg.MaxTotalDurationMinutes > 0 && mgr.ElapsedMinutes() >= cfg.MaxTotalDurationMinutes {
		return "max_total_duration_minutes", true
	}
	return "", false
}

// tierRunResult wraps TierRunResult with the AgentContext that came out of
// the phase run, which isn't part of the persisted record.
type tierRunResult struct {
	TierRunResult
	finalContext agentctx.AgentContext
}

// runTier dispatches to loop.RunSimple or loop.RunFull per tier.Mode, for
// up to tier.MaxIterations iterations, then converts the phase result into
// a TierRunResult/TierAttemptRecord list.
func runTier(ctx context.Context, index int, t TierConfig, ac agentctx.AgentContext, mgr *iteration.Manager, factories AgentFactories, runner *testrunner.Runner, logger corekit.Logger) (tierRunResult, error) {
	startIteration := mgr.Iteration()

	factory := loop.AgentFactory{
		NewArtisan: func() agent.Agent { return factories.NewArtisan(t.ArtisanModel) },
	}
	if t.Mode == ModeFull {
		factory.NewLibrarian = func() agent.Agent { return factories.NewLibrarian(t.LibrarianModel) }
		factory.NewCritic = func() agent.Agent { return factories.NewCritic(t.CriticModel) }
	}

	var phaseResult loop.PhaseResult
	var err error
	switch t.Mode {
	case ModeSimple:
		phaseResult, err = loop.RunSimple(ctx, ac, mgr, factory, runner, startIteration+t.MaxIterations, logger)
	case ModeFull:
		phaseResult, err = loop.RunFull(ctx, ac, mgr, factory, runner, startIteration+t.MaxIterations, logger)
	default:
		return tierRunResult{}, fmt.Errorf("tier %q: unknown mode %q", t.Name, t.Mode)
	}
	if err != nil {
		return tierRunResult{}, err
	}

	attempts := attemptsFromPhaseResult(index, t.Name, phaseResult)

	return tierRunResult{
		TierRunResult: TierRunResult{
			TierIndex:      index,
			TierName:       t.Name,
			Success:        phaseResult.Success,
			ExitReason:     string(phaseResult.ExitReason),
			IterationsUsed: phaseResult.IterationsUsed,
			TotalCostUSD:   sumCost(attempts),
			Attempts:       attempts,
		},
		finalContext: phaseResult.Context,
	}, nil
}

func attemptsFromPhaseResult(index int, name string, pr loop.PhaseResult) []TierAttemptRecord {
	if len(pr.Records) == 0 {
		return nil
	}
	attempts := make([]TierAttemptRecord, 0, len(pr.Records))
	for _, r := range pr.Records {
		attempts = append(attempts, TierAttemptRecord{
			TierIndex:      index,
			TierName:       name,
			IterationIndex: r.IterationIndex,
			TestStatus:     string(r.TestStatus),
			FailedTests:    r.FailedTests,
			ErrorMessages:  r.ErrorMessages,
			CostUSD:        r.CostUSD,
			DurationMS:     r.DurationMS,
		})
	}
	return attempts
}

func sumCost(attempts []TierAttemptRecord) float64 {
	var total float64
	for _, a := range attempts {
		total += a.CostUSD
	}
	return total
}
