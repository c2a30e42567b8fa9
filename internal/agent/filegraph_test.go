package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itsneelabh/ralph/internal/agentctx"
)

func TestRankFilesOrdersByDistanceThenLexicographically(t *testing.T) {
	graph := agentctx.DependencyGraph{
		Nodes: []string{"a.js", "b.js", "c.js", "d.js"},
		Edges: []agentctx.DependencyEdge{
			{From: "a.js", To: "b.js"},
			{From: "a.js", To: "c.js"},
			{From: "b.js", To: "d.js"},
		},
	}

	ranked := rankFiles(graph, "a.js")

	assert.Equal(t, []string{"a.js", "b.js", "c.js", "d.js"}, ranked)
}

func TestRankFilesIncludesTargetWithNoEdges(t *testing.T) {
	graph := agentctx.DependencyGraph{Nodes: []string{"only.js"}}
	ranked := rankFiles(graph, "only.js")
	assert.Equal(t, []string{"only.js"}, ranked)
}

func TestRankFilesFallsBackToLexicographicWhenNoTarget(t *testing.T) {
	graph := agentctx.DependencyGraph{Nodes: []string{"z.js", "a.js"}}
	ranked := rankFiles(graph, "")
	assert.Equal(t, []string{"a.js", "z.js"}, ranked)
}
