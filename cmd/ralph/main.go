// Command ralph runs the iterative code-fixing control plane against one
// target file: ask an LLM agent for a fix, run the project's test command,
// decide whether to keep going, escalate, or stop.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/itsneelabh/ralph/internal/agent"
	"github.com/itsneelabh/ralph/internal/agentctx"
	"github.com/itsneelabh/ralph/internal/audit"
	"github.com/itsneelabh/ralph/internal/config"
	"github.com/itsneelabh/ralph/internal/corekit"
	"github.com/itsneelabh/ralph/internal/iteration"
	"github.com/itsneelabh/ralph/internal/loop"
	"github.com/itsneelabh/ralph/internal/obslog"
	"github.com/itsneelabh/ralph/internal/obstel"
	"github.com/itsneelabh/ralph/internal/provider"
	"github.com/itsneelabh/ralph/internal/sessionlog"
	"github.com/itsneelabh/ralph/internal/testrunner"
	"github.com/itsneelabh/ralph/internal/tier"

	// Vendor adapters self-register with the Provider Router via init().
	// main never imports provider.Adapter implementations directly beyond
	// this blank-import line — the Router resolves them by Tag.
	_ "github.com/itsneelabh/ralph/internal/provider/anthropic"
	_ "github.com/itsneelabh/ralph/internal/provider/gemini"
	_ "github.com/itsneelabh/ralph/internal/provider/huggingface"
	_ "github.com/itsneelabh/ralph/internal/provider/ollama"
	_ "github.com/itsneelabh/ralph/internal/provider/openai"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] != "run" {
		fmt.Fprintln(os.Stderr, "usage: ralph run [flags]")
		return 1
	}

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	objective := flags.String("objective", "", "what the fix should accomplish")
	target := flags.String("target", "", "file ralph is fixing")
	workingDir := flags.String("working-dir", ".", "directory the test command runs from")
	testCommand := flags.String("test-command", "", "shell command that runs the test suite")
	simpleIterations := flags.Int("simple-iterations", 0, "Phase A iteration cap (0 = use config default)")
	maxIterations := flags.Int("max-iterations", 0, "total iteration cap across all phases (0 = use config default)")
	maxCost := flags.Float64("max-cost", 0, "budget cap in USD (0 = use config default)")
	maxDuration := flags.Float64("max-duration", 0, "wall-clock cap in minutes (0 = use config default)")
	noEscalate := flags.Bool("no-escalate", false, "stop after Phase A instead of escalating to Full Mode")
	fullMode := flags.Bool("full-mode", false, "skip Phase A, start directly in Full Mode")
	tierConfigPath := flags.String("tier-config", "", "path to a TierEscalationConfig YAML file; overrides --no-escalate/--full-mode")
	auditDBPath := flags.String("audit-db", "", "path to the SQLite audit database (empty = use config default)")
	generate := flags.Bool("generate", true, "call the test-file generator when none exists for target (the built-in generator is a stub that reports not implemented)")
	adversarial := flags.Bool("adversarial", true, "request the chaos/adversarial tester pass (no chaos tester is wired; the request is logged and skipped)")
	chaosProvider := flags.String("chaos-provider", "", "vendor tag for the chaos/adversarial tester (empty = use config default)")
	chaosModel := flags.String("chaos-model", "", "model name for the chaos/adversarial tester (empty = use config default)")
	verbose := flags.Bool("verbose", false, "print trace spans to stdout")
	configPath := flags.String("config", "", "path to a .ralph.yaml config file to watch for edits (default: ascend from working dir); its contents are not loaded")

	if err := flags.Parse(args[1:]); err != nil {
		return 1
	}

	logger := obslog.New("ralph")

	resolvedConfigPath := *configPath
	if resolvedConfigPath == "" {
		resolvedConfigPath = config.FindConfigFile(*workingDir)
	}
	if watcher, err := config.WatchConfigFile(resolvedConfigPath, logger); err != nil {
		logger.Warn("could not watch config file", map[string]interface{}{"error": err.Error()})
	} else if watcher != nil {
		defer watcher.Close()
	}

	opts := []config.Option{}
	if *objective != "" {
		opts = append(opts, config.WithObjective(*objective))
	}
	if *target != "" {
		opts = append(opts, config.WithTargetFile(*target))
	}
	if *testCommand != "" {
		opts = append(opts, config.WithTestCommand(*testCommand))
	}
	if *simpleIterations > 0 {
		opts = append(opts, config.WithSimpleIterations(*simpleIterations))
	}
	if *maxIterations > 0 {
		opts = append(opts, config.WithMaxIterations(*maxIterations))
	}
	if *maxCost > 0 || *maxDuration > 0 {
		opts = append(opts, func(c *config.RunConfig) error {
			costCap, durationCap := c.MaxCostUSD, c.MaxDurationMinutes
			if *maxCost > 0 {
				costCap = *maxCost
			}
			if *maxDuration > 0 {
				durationCap = *maxDuration
			}
			return config.WithBudget(costCap, durationCap)(c)
		})
	}
	if *noEscalate {
		opts = append(opts, config.WithNoEscalate(true))
	}
	if *fullMode {
		opts = append(opts, config.WithFullMode(true))
	}
	if *tierConfigPath != "" {
		opts = append(opts, config.WithTierConfigPath(*tierConfigPath))
	}
	opts = append(opts, config.WithGenerate(*generate), config.WithAdversarial(*adversarial))
	if *chaosProvider != "" || *chaosModel != "" {
		opts = append(opts, func(c *config.RunConfig) error {
			tag, model := c.ChaosProvider, c.ChaosModel
			if *chaosProvider != "" {
				tag = provider.Tag(*chaosProvider)
			}
			if *chaosModel != "" {
				model = *chaosModel
			}
			return config.WithChaosModel(tag, model)(c)
		})
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ralph: invalid configuration: %v\n", err)
		return 1
	}
	if *workingDir != "." {
		cfg.WorkingDirectory = *workingDir
	}
	if *auditDBPath != "" {
		cfg.AuditDBPath = *auditDBPath
	}
	if cfg.Objective == "" || cfg.TestCommand == "" {
		fmt.Fprintln(os.Stderr, "ralph: --objective and --test-command are required")
		return 1
	}

	telemetry, err := obstel.New("ralph", *verbose)
	if err != nil {
		logger.Warn("telemetry disabled", map[string]interface{}{"error": err.Error()})
		telemetry = nil
	}
	if telemetry != nil {
		defer telemetry.Shutdown(context.Background())
	}

	router := provider.NewRouter(
		provider.WithLogger(logger),
		withTelemetryIfPresent(telemetry),
	)

	sessionID := uuid.NewString()
	startTime := time.Now()

	iterCfg := iteration.Config{
		MaxIterations:         cfg.MaxIterations,
		MaxCostUSD:            cfg.MaxCostUSD,
		MaxDurationMinutes:    cfg.MaxDurationMinutes,
		ContextResetFrequency: cfg.ContextResetFrequency,
		EntropyThreshold:      cfg.EntropyThreshold,
	}
	mgr := iteration.New(iterCfg)

	ac := agentctx.AgentContext{
		SessionID:        sessionID,
		Objective:        cfg.Objective,
		TargetFile:       cfg.TargetFile,
		WorkingDirectory: cfg.WorkingDirectory,
		TestCommand:      cfg.TestCommand,
		TestFramework:    cfg.TestFramework,
		Budget:           iterCfg.BudgetFromConfig(startTime),
	}

	runner := testrunner.New(cfg.TestCommand, cfg.WorkingDirectory, testrunner.WithLogger(logger))

	maybeGenerateTestFile(context.Background(), cfg, logger)
	if cfg.Adversarial {
		logger.Info("adversarial tester requested; chaos tester is an external collaborator not wired in this build, skipping", map[string]interface{}{
			"chaos_provider": string(cfg.ChaosProvider), "chaos_model": cfg.ChaosModel,
		})
	}

	auditDBPathOverride := cfg.AuditDBPath
	if cfg.TierConfigPath != "" {
		if tierCfg, err := config.LoadTierConfig(cfg.TierConfigPath); err == nil && tierCfg.AuditDBPath != "" {
			auditDBPathOverride = tierCfg.AuditDBPath
		}
	}

	store := audit.OpenBestEffort(auditDBAbsPath(cfg.WorkingDirectory, auditDBPathOverride), logger)
	defer store.Close()

	sessionWriter := sessionlog.OpenBestEffort(cfg.WorkingDirectory, sessionID, logger)
	store.UpsertRunMetadata(context.Background(), audit.RunMetadata{
		RunID:          sessionID,
		Objective:      cfg.Objective,
		WorkingDir:     cfg.WorkingDirectory,
		TestCommand:    cfg.TestCommand,
		TierConfigPath: cfg.TierConfigPath,
		StartedAt:      startTime,
		Outcome:        audit.OutcomeInProgress,
	})

	var report runReport
	if cfg.TierConfigPath != "" {
		if cfg.NoEscalate || cfg.FullMode {
			logger.Warn("tier config supplied; ignoring --no-escalate/--full-mode", map[string]interface{}{
				"tier_config": cfg.TierConfigPath,
			})
		}
		report = runTierChain(router, logger, cfg, ac, mgr, runner, store, sessionWriter, sessionID)
	} else {
		report = runTwoPhase(router, logger, cfg, ac, mgr, runner, store, sessionWriter, sessionID)
	}

	completedAt := time.Now()
	store.UpsertRunMetadata(context.Background(), audit.RunMetadata{
		RunID:             sessionID,
		Objective:         cfg.Objective,
		WorkingDir:        cfg.WorkingDirectory,
		TestCommand:       cfg.TestCommand,
		TierConfigPath:    cfg.TierConfigPath,
		StartedAt:         startTime,
		CompletedAt:       &completedAt,
		Outcome:           report.outcome(),
		ResolvedTierName:  report.resolvedTier,
		ResolvedIteration: mgr.Iteration(),
	})

	printReport(os.Stdout, report, mgr)

	if report.success {
		return 0
	}
	return 1
}

// maybeGenerateTestFile calls the TestFileGenerator stub when cfg.Generate
// is set and no test file exists alongside cfg.TargetFile yet. The stub
// (agent.NoOpTestFileGenerator) always returns agent.ErrNotImplemented;
// that's logged at warn level and the run proceeds against whatever test
// command was configured, per spec §6's "generate" option being best-effort.
func maybeGenerateTestFile(ctx context.Context, cfg *config.RunConfig, logger corekit.Logger) {
	if !cfg.Generate || cfg.TargetFile == "" {
		return
	}
	testFile := inferTestFilePath(cfg.TargetFile)
	if _, err := os.Stat(testFile); err == nil {
		return
	}

	var generator agent.TestFileGenerator = agent.NoOpTestFileGenerator{}
	if _, err := generator.Generate(ctx, cfg.TargetFile); err != nil {
		logger.Warn("test file generation unavailable", map[string]interface{}{
			"target": cfg.TargetFile, "error": err.Error(),
		})
	}
}

// inferTestFilePath names the conventional test-file companion of path:
// "foo.py" -> "foo_test.py", matching the teacher's own test-layout
// convention (package-level "_test.go" siblings).
func inferTestFilePath(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + "_test" + ext
}

// withTelemetryIfPresent returns a no-op RouterOption when telemetry
// construction failed, so main can proceed without tracing rather than
// aborting the run over an optional collaborator.
func withTelemetryIfPresent(t *obstel.Provider) provider.RouterOption {
	if t == nil {
		return func(*provider.Router) {}
	}
	return provider.WithTelemetry(t)
}

func agentFactories(router *provider.Router, cfg *config.RunConfig) loop.AgentFactory {
	return loop.AgentFactory{
		NewLibrarian: func() agent.Agent {
			return agent.NewLibrarian(router, agent.Config{Provider: cfg.LibrarianProvider, Model: cfg.LibrarianModel, Temperature: 0.2})
		},
		NewArtisan: func() agent.Agent {
			return agent.NewArtisan(router, agent.Config{Provider: cfg.ArtisanProvider, Model: cfg.ArtisanModel, Temperature: 0.4})
		},
		NewCritic: func() agent.Agent {
			return agent.NewCritic(router, agent.Config{Provider: cfg.CriticProvider, Model: cfg.CriticModel, Temperature: 0.1})
		},
	}
}

func tierAgentFactories(router *provider.Router) tier.AgentFactories {
	return tier.AgentFactories{
		NewLibrarian: func(m tier.ModelOverride) agent.Agent {
			return agent.NewLibrarian(router, agent.Config{Provider: m.Provider, Model: m.Model, Temperature: m.Temperature})
		},
		NewArtisan: func(m tier.ModelOverride) agent.Agent {
			return agent.NewArtisan(router, agent.Config{Provider: m.Provider, Model: m.Model, Temperature: m.Temperature})
		},
		NewCritic: func(m tier.ModelOverride) agent.Agent {
			return agent.NewCritic(router, agent.Config{Provider: m.Provider, Model: m.Model, Temperature: m.Temperature})
		},
	}
}

// runReport is what printReport renders, per spec §7's multi-phase summary.
type runReport struct {
	success        bool
	exitReason     string
	modeDescriptor string
	resolvedTier   string
	phases         []phaseReport
	totalCostUSD   float64
}

type phaseReport struct {
	name           string
	iterationsUsed int
	costUSD        float64
	topErrors      []string
}

func (r runReport) outcome() audit.Outcome {
	switch {
	case r.success:
		return audit.OutcomeSuccess
	case r.exitReason == string(loop.ExitBudgetExhausted):
		return audit.OutcomeBudgetExhausted
	default:
		return audit.OutcomeFailed
	}
}

func runTwoPhase(router *provider.Router, logger corekit.Logger, cfg *config.RunConfig, ac agentctx.AgentContext, mgr *iteration.Manager, runner *testrunner.Runner, store *audit.BestEffort, sessionWriter *sessionlog.BestEffort, runID string) runReport {
	ctx := context.Background()
	factory := agentFactories(router, cfg)

	if cfg.FullMode {
		result, err := loop.RunFull(ctx, ac, mgr, factory, runner, cfg.MaxIterations, logger)
		if err != nil {
			logger.Error("full mode failed", map[string]interface{}{"error": err.Error()})
		}
		persistAttempts(store, sessionWriter, ctx, runID, 0, "full", result.Records)
		return runReport{
			success:        result.Success,
			exitReason:     string(result.ExitReason),
			modeDescriptor: "Full only",
			phases:         []phaseReport{phaseFromResult("Full", result)},
			totalCostUSD:   sumRecordCost(result.Records),
		}
	}

	simpleMax := cfg.SimpleIterations
	if simpleMax > cfg.MaxIterations {
		simpleMax = cfg.MaxIterations
	}
	simpleResult, err := loop.RunSimple(ctx, ac, mgr, factory, runner, simpleMax, logger)
	if err != nil {
		logger.Error("simple mode failed", map[string]interface{}{"error": err.Error()})
	}
	persistAttempts(store, sessionWriter, ctx, runID, 0, "simple", simpleResult.Records)

	if simpleResult.Success || simpleResult.ExitReason == loop.ExitBudgetExhausted || simpleResult.ExitReason == loop.ExitProviderError {
		return runReport{
			success:        simpleResult.Success,
			exitReason:     string(simpleResult.ExitReason),
			modeDescriptor: "Simple only",
			phases:         []phaseReport{phaseFromResult("Simple", simpleResult)},
			totalCostUSD:   sumRecordCost(simpleResult.Records),
		}
	}

	if cfg.NoEscalate {
		return runReport{
			success:        false,
			exitReason:     string(simpleResult.ExitReason),
			modeDescriptor: "Simple only (escalation disabled)",
			phases:         []phaseReport{phaseFromResult("Simple", simpleResult)},
			totalCostUSD:   sumRecordCost(simpleResult.Records),
		}
	}

	escalated, _ := loop.RunEscalationGate(simpleResult.Context, simpleResult.Records)

	fullResult, err := loop.RunFull(ctx, escalated, mgr, factory, runner, cfg.MaxIterations, logger)
	if err != nil {
		logger.Error("full mode failed", map[string]interface{}{"error": err.Error()})
	}
	persistAttempts(store, sessionWriter, ctx, runID, 1, "full", fullResult.Records)

	return runReport{
		success:        fullResult.Success,
		exitReason:     string(fullResult.ExitReason),
		modeDescriptor: "Simple → Full (escalated)",
		phases: []phaseReport{
			phaseFromResult("Simple", simpleResult),
			phaseFromResult("Full", fullResult),
		},
		totalCostUSD: sumRecordCost(simpleResult.Records) + sumRecordCost(fullResult.Records),
	}
}

func runTierChain(router *provider.Router, logger corekit.Logger, cfg *config.RunConfig, ac agentctx.AgentContext, mgr *iteration.Manager, runner *testrunner.Runner, store *audit.BestEffort, sessionWriter *sessionlog.BestEffort, runID string) runReport {
	ctx := context.Background()

	tierCfg, err := config.LoadTierConfig(cfg.TierConfigPath)
	if err != nil {
		logger.Error("tier config invalid", map[string]interface{}{"error": err.Error()})
		return runReport{success: false, exitReason: "config_invalid", modeDescriptor: "Tier chain (not started)"}
	}

	chainResult, err := tier.RunChain(ctx, tierCfg, ac, mgr, tierAgentFactories(router), runner, logger)
	if err != nil {
		logger.Error("tier chain failed", map[string]interface{}{"error": err.Error()})
	}

	phases := make([]phaseReport, 0, len(chainResult.TierResults))
	var totalCost float64
	for _, tr := range chainResult.TierResults {
		phases = append(phases, phaseReport{
			name:           fmt.Sprintf("Tier %d: %s", tr.TierIndex+1, tr.TierName),
			iterationsUsed: tr.IterationsUsed,
			costUSD:        tr.TotalCostUSD,
			topErrors:      topErrorsFromAttempts(tr.Attempts),
		})
		totalCost += tr.TotalCostUSD
		for _, a := range tr.Attempts {
			store.RecordAttempt(ctx, audit.AttemptRecord{
				RunID:          runID,
				TierIndex:      a.TierIndex,
				TierName:       a.TierName,
				IterationIndex: a.IterationIndex,
				TestStatus:     a.TestStatus,
				FailedTests:    a.FailedTests,
				ErrorMessages:  a.ErrorMessages,
				CostUSD:        a.CostUSD,
				DurationMS:     a.DurationMS,
			})
			sessionWriter.AppendIteration(sessionlog.IterationEvent{
				TierIndex:      a.TierIndex,
				TierName:       a.TierName,
				IterationIndex: a.IterationIndex,
				TestStatus:     a.TestStatus,
				FailedTests:    a.FailedTests,
				ErrorMessages:  a.ErrorMessages,
				CostUSD:        a.CostUSD,
				DurationMS:     a.DurationMS,
			})
		}
	}

	descriptor := fmt.Sprintf("Tier chain (%d tier(s) run)", len(chainResult.TierResults))
	if chainResult.Success {
		descriptor = fmt.Sprintf("Tier chain, resolved at %q", chainResult.ResolvedTier)
	}

	return runReport{
		success:        chainResult.Success,
		exitReason:     chainResult.FinalExitReason,
		modeDescriptor: descriptor,
		resolvedTier:   chainResult.ResolvedTier,
		phases:         phases,
		totalCostUSD:   totalCost,
	}
}

func phaseFromResult(name string, pr loop.PhaseResult) phaseReport {
	return phaseReport{
		name:           name,
		iterationsUsed: pr.IterationsUsed,
		costUSD:        sumRecordCost(pr.Records),
		topErrors:      topErrorsFromRecords(pr.Records),
	}
}

func sumRecordCost(records []loop.SimpleIterationRecord) float64 {
	var total float64
	for _, r := range records {
		total += r.CostUSD
	}
	return total
}

// topErrorsFromRecords returns up to 5 deduplicated error messages from the
// final iteration, per spec §7's report format.
func topErrorsFromRecords(records []loop.SimpleIterationRecord) []string {
	if len(records) == 0 {
		return nil
	}
	return dedupCap(records[len(records)-1].ErrorMessages, 5)
}

func topErrorsFromAttempts(attempts []tier.TierAttemptRecord) []string {
	if len(attempts) == 0 {
		return nil
	}
	return dedupCap(attempts[len(attempts)-1].ErrorMessages, 5)
}

func dedupCap(items []string, max int) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, max)
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
		if len(out) == max {
			break
		}
	}
	return out
}

// auditDBAbsPath resolves the configured audit DB path against the
// working directory, unless it's already absolute.
func auditDBAbsPath(workingDir, auditDBPath string) string {
	if filepath.IsAbs(auditDBPath) {
		return auditDBPath
	}
	return filepath.Join(workingDir, auditDBPath)
}

func persistAttempts(store *audit.BestEffort, sessionWriter *sessionlog.BestEffort, ctx context.Context, runID string, tierIndex int, tierName string, records []loop.SimpleIterationRecord) {
	for _, r := range records {
		store.RecordAttempt(ctx, audit.AttemptRecord{
			RunID:          runID,
			TierIndex:      tierIndex,
			TierName:       tierName,
			IterationIndex: r.IterationIndex,
			TestStatus:     string(r.TestStatus),
			FailedTests:    r.FailedTests,
			ErrorMessages:  r.ErrorMessages,
			CostUSD:        r.CostUSD,
			DurationMS:     r.DurationMS,
		})
		sessionWriter.AppendIteration(sessionlog.IterationEvent{
			TierIndex:      tierIndex,
			TierName:       tierName,
			IterationIndex: r.IterationIndex,
			TestStatus:     string(r.TestStatus),
			FailedTests:    r.FailedTests,
			ErrorMessages:  r.ErrorMessages,
			CostUSD:        r.CostUSD,
			DurationMS:     r.DurationMS,
		})
	}
}

func printReport(w io.Writer, report runReport, mgr *iteration.Manager) {
	status := "FAILED"
	if report.success {
		status = "SUCCESS"
	}

	fmt.Fprintf(w, "\n==== ralph run: %s ====\n", status)
	fmt.Fprintf(w, "mode: %s\n", report.modeDescriptor)
	if report.exitReason != "" {
		fmt.Fprintf(w, "exit reason: %s\n", report.exitReason)
	}
	fmt.Fprintf(w, "total iterations: %d, total cost: $%.4f\n", mgr.Iteration(), report.totalCostUSD)

	for _, p := range report.phases {
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		fmt.Fprintf(w, "iterations used: %d, cost: $%.4f\n", p.iterationsUsed, p.costUSD)
		if len(p.topErrors) > 0 {
			fmt.Fprintf(w, "errors: %s\n", strings.Join(p.topErrors, " | "))
		}
	}
	fmt.Fprintln(w)
}
