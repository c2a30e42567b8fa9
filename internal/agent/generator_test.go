package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoOpTestFileGeneratorReturnsErrNotImplemented(t *testing.T) {
	var gen TestFileGenerator = NoOpTestFileGenerator{}

	path, err := gen.Generate(context.Background(), "math.py")

	assert.Empty(t, path)
	assert.True(t, errors.Is(err, ErrNotImplemented))
}
