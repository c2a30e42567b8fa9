// Package testrunner invokes the external test command a run is fixing
// against, and classifies its outcome into the {passed, failed, error}
// taxonomy AgentContext.TestResult expects. It shells out with
// os/exec.CommandContext under a timeout, since the teacher framework
// itself never ran arbitrary external processes — this wiring instead
// follows the shell-out-with-timeout idiom the retrieval pack's task
// executors use.
package testrunner

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/itsneelabh/ralph/internal/agentctx"
	"github.com/itsneelabh/ralph/internal/corekit"
)

const defaultTimeout = 2 * time.Minute

// Runner executes a configured test command in a working directory.
type Runner struct {
	command string
	workDir string
	timeout time.Duration
	logger  corekit.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout overrides the default 2-minute test-runner timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithLogger attaches a logger; defaults to corekit.NoOpLogger.
func WithLogger(l corekit.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New builds a Runner for command run from workDir.
func New(command, workDir string, opts ...Option) *Runner {
	r := &Runner{
		command: command,
		workDir: workDir,
		timeout: defaultTimeout,
		logger:  &corekit.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the test command and classifies the result. It never
// returns an error for a normal test failure (non-zero exit from a clean
// run is TestFailed, not an error) — only a timeout or a process that
// could not be started at all surface as TestError, per spec §7's
// TestRunnerTimeout/TestRunnerCrash taxonomy.
func (r *Runner) Run(ctx context.Context) (agentctx.TestResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(runCtx, "sh", "-c", r.command)
	cmd.Dir = r.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	duration := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		r.logger.Warn("test runner timed out", map[string]interface{}{
			"command": r.command, "timeout": r.timeout,
		})
		return agentctx.TestResult{
			Status:        agentctx.TestError,
			ErrorMessages: []string{"test runner timed out after " + r.timeout.String()},
			DurationMS:    duration.Milliseconds(),
		}, nil
	}

	if err != nil {
		if _, isExitErr := err.(*exec.ExitError); isExitErr {
			failed, messages := parseFailures(stdout.String() + stderr.String())
			return agentctx.TestResult{
				Status:        agentctx.TestFailed,
				FailedTests:   failed,
				ErrorMessages: messages,
				DurationMS:    duration.Milliseconds(),
			}, nil
		}
		r.logger.Warn("test runner crashed", map[string]interface{}{
			"command": r.command, "error": err.Error(),
		})
		return agentctx.TestResult{
			Status:        agentctx.TestError,
			ErrorMessages: []string{err.Error()},
			DurationMS:    duration.Milliseconds(),
		}, nil
	}

	return agentctx.TestResult{Status: agentctx.TestPassed, DurationMS: duration.Milliseconds()}, nil
}
