package agent

import (
	"context"
	"errors"
)

// ErrNotImplemented is returned by generators that stand in for an
// external collaborator this tree doesn't implement yet.
var ErrNotImplemented = errors.New("agent: not implemented")

// TestFileGenerator is the narrow interface the `generate` run option
// (spec §6) calls through: given a target source file with no matching
// test file, produce one. Like the Librarian's file-ranking analyzer and
// the chaos/adversarial tester, this is an external collaborator the run
// loop depends on only through this interface.
type TestFileGenerator interface {
	Generate(ctx context.Context, targetFile string) (testFilePath string, err error)
}

// NoOpTestFileGenerator is the stub TestFileGenerator wired in until a
// real generator (one that actually drives an LLM call to write test
// code) lands; every call fails with ErrNotImplemented so a caller can
// detect and log the gap rather than silently no-op.
type NoOpTestFileGenerator struct{}

func (NoOpTestFileGenerator) Generate(ctx context.Context, targetFile string) (string, error) {
	return "", ErrNotImplemented
}

var _ TestFileGenerator = NoOpTestFileGenerator{}
