package agent

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/itsneelabh/ralph/internal/agentctx"
)

// importRe matches common single-line import/require statements across the
// test-framework languages spec §3 enumerates (JS/TS import, CommonJS
// require, Python import/from). It is intentionally permissive — a missed
// edge only costs Librarian a slightly smaller context, never a wrong
// answer — rather than a full per-language parser, which is out of scope
// for a context-ranking heuristic.
var importRe = regexp.MustCompile(`(?m)^\s*(?:import\s+.*?from\s+['"](.+?)['"]|import\s+['"](.+?)['"]|require\(['"](.+?)['"]\)|from\s+(\S+)\s+import|import\s+(\S+))`)

// buildDependencyGraph walks workingDir and builds a best-effort import
// graph: an edge from file A to file B when A's source text references a
// path that resolves to B on disk. Unresolvable or external-package
// imports are skipped; they still exist in DependencyGraph.Nodes if the
// file was walked.
func buildDependencyGraph(workingDir string) agentctx.DependencyGraph {
	var files []string
	_ = filepath.Walk(workingDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil {
			return nil
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if base == "node_modules" || base == ".git" || base == "vendor" || base == ".ralph" {
				return filepath.SkipDir
			}
			return nil
		}
		if isSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)

	byBase := make(map[string]string, len(files))
	for _, f := range files {
		byBase[baseNoExt(f)] = f
	}

	graph := agentctx.DependencyGraph{Nodes: files}
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		for _, m := range importRe.FindAllStringSubmatch(string(content), -1) {
			ref := firstNonEmpty(m[1:])
			if ref == "" {
				continue
			}
			resolved := resolveImport(filepath.Dir(f), ref, byBase)
			if resolved != "" && resolved != f {
				graph.Edges = append(graph.Edges, agentctx.DependencyEdge{From: f, To: resolved})
			}
		}
	}
	return graph
}

func isSourceFile(path string) bool {
	switch filepath.Ext(path) {
	case ".js", ".jsx", ".ts", ".tsx", ".py", ".rb", ".rs", ".go", ".mjs", ".cjs":
		return true
	default:
		return false
	}
}

func baseNoExt(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)]
}

func firstNonEmpty(groups []string) string {
	for _, g := range groups {
		if g != "" {
			return g
		}
	}
	return ""
}

func resolveImport(fromDir, ref string, byBase map[string]string) string {
	if len(ref) == 0 || (ref[0] != '.' && ref[0] != '/') {
		return "" // external package, not a workspace file
	}
	candidate := filepath.Join(fromDir, ref)
	if f, ok := byBase[candidate]; ok {
		return f
	}
	return ""
}

// rankFiles orders a dependency graph's nodes by BFS distance from
// target, ties broken lexicographically, per spec §4.2's ordering
// guarantee. target and all distance-1 neighbors are included whenever
// they exist in the graph; when target is set, nodes with no path to it
// are left out.
func rankFiles(graph agentctx.DependencyGraph, target string) []string {
	adjacency := make(map[string][]string)
	for _, e := range graph.Edges {
		adjacency[e.From] = append(adjacency[e.From], e.To)
		adjacency[e.To] = append(adjacency[e.To], e.From)
	}

	if target == "" {
		nodes := append([]string(nil), graph.Nodes...)
		sort.Strings(nodes)
		return nodes
	}

	distance := map[string]int{target: 0}
	order := []string{target}
	queue := []string{target}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		neighbors := append([]string(nil), adjacency[cur]...)
		sort.Strings(neighbors)
		for _, n := range neighbors {
			if _, seen := distance[n]; seen {
				continue
			}
			distance[n] = distance[cur] + 1
			order = append(order, n)
			queue = append(queue, n)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if distance[order[i]] != distance[order[j]] {
			return distance[order[i]] < distance[order[j]]
		}
		return order[i] < order[j]
	})
	return order
}
