package testrunner

import (
	"bufio"
	"strings"
)

// failureMarkers are the prefixes most of spec §3's closed test_framework
// set (vitest, jest, pytest, mocha, rspec, cargo) use to mark a failing
// test or an error line. This is a best-effort heuristic, not a parser for
// any one framework's structured output — ralph never requires a specific
// reporter format from the external test command.
var failureMarkers = []string{
	"FAIL", "fail:", "✗", "AssertionError", "Error:", "FAILED", "panic:",
}

// parseFailures scans raw test-runner output for lines that look like a
// failing test name or an error message, returning them as two separate
// lists the way SimpleIterationRecord expects.
func parseFailures(output string) (failedTests, errorMessages []string) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		for _, marker := range failureMarkers {
			if strings.Contains(line, marker) {
				if strings.HasPrefix(line, "FAIL") || strings.HasPrefix(line, "✗") || strings.HasPrefix(line, "FAILED") {
					failedTests = append(failedTests, line)
				} else {
					errorMessages = append(errorMessages, line)
				}
				break
			}
		}
	}
	if len(errorMessages) == 0 && len(failedTests) == 0 {
		errorMessages = append(errorMessages, "tests failed (no parseable failure detail in output)")
	}
	return failedTests, errorMessages
}
