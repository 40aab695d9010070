package dag

import (
	"errors"
	"slices"
	"testing"
)

// declarations builds a graph of declared names in the given order.
func declarations(names ...string) *Graph {
	g := NewGraph()
	for _, n := range names {
		g.AddNode(n, nil)
	}
	return g
}

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := declarations("price", "qty", "total")

	if g.NodeCount() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.NodeCount())
	}

	// total depends on price and qty
	if err := g.AddEdge("price", "total"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}
	if err := g.AddEdge("qty", "total"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}

	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}

	g.AddNode("price", "updated")
	node, ok := g.GetNode("price")
	if !ok || node.Data != "updated" {
		t.Errorf("expected AddNode to update data, got %v", node)
	}
	if g.NodeCount() != 3 {
		t.Errorf("re-adding a node must not duplicate it, got %d nodes", g.NodeCount())
	}
}

func TestGraph_AddEdge_InvalidNodes(t *testing.T) {
	g := declarations("x")

	if err := g.AddEdge("x", "missing"); err == nil {
		t.Error("expected error for nonexistent child node")
	}
	if err := g.AddEdge("missing", "x"); err == nil {
		t.Error("expected error for nonexistent parent node")
	}
}

func TestGraph_AddEdge_SelfLoop(t *testing.T) {
	g := declarations("x")

	err := g.AddEdge("x", "x")
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected *CycleError for self-loop, got %v", err)
	}
	if !slices.Equal(cycle.Path, []string{"x", "x"}) {
		t.Errorf("unexpected path %v", cycle.Path)
	}
}

func TestGraph_GetParentsAndChildren(t *testing.T) {
	g := declarations("a", "b", "c")

	// b depends on a, c depends on both a and b
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "c")

	if parents := g.GetParents("c"); len(parents) != 2 {
		t.Errorf("expected c to have 2 parents, got %d", len(parents))
	}
	if children := g.GetChildren("a"); len(children) != 2 {
		t.Errorf("expected a to have 2 children, got %d", len(children))
	}
}

func TestGraph_HasCycle(t *testing.T) {
	g := declarations("a", "b", "c")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")

	if hasCycle, path := g.HasCycle(); hasCycle {
		t.Errorf("expected no cycle, but found: %v", path)
	}

	_ = g.AddEdge("c", "a")
	hasCycle, path := g.HasCycle()
	if !hasCycle {
		t.Fatal("expected cycle to be detected")
	}
	if len(path) != 4 || path[0] != path[len(path)-1] {
		t.Errorf("expected a closed cycle path, got %v", path)
	}
}

func TestGraph_TopologicalSort_DeclarationOrder(t *testing.T) {
	// y is declared first but reads z, so z must move ahead of it; the
	// independent names keep their declaration order.
	g := declarations("y", "w", "z", "v")
	_ = g.AddEdge("z", "y")

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}
	want := []string{"w", "z", "y", "v"}
	if got := ids(sorted); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGraph_TopologicalSort_Diamond(t *testing.T) {
	// Diamond dependency: a -> b, a -> c, b -> d, c -> d
	g := declarations("d", "c", "b", "a")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "d")
	_ = g.AddEdge("c", "d")

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}
	want := []string{"a", "c", "b", "d"}
	if got := ids(sorted); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGraph_TopologicalSort_WithCycle(t *testing.T) {
	g := declarations("a", "b")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "a")

	_, err := g.TopologicalSort()
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if err.Error() != "cycle detected: a -> b -> a" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestGraph_GetExecutionLevels(t *testing.T) {
	g := declarations("rate", "base", "net", "tax", "total")

	// net depends on base, tax depends on rate and base
	// total depends on both net and tax
	_ = g.AddEdge("base", "net")
	_ = g.AddEdge("rate", "tax")
	_ = g.AddEdge("base", "tax")
	_ = g.AddEdge("net", "total")
	_ = g.AddEdge("tax", "total")

	levels, err := g.GetExecutionLevels()
	if err != nil {
		t.Fatalf("failed to get levels: %v", err)
	}

	want := [][]string{{"rate", "base"}, {"net", "tax"}, {"total"}}
	if len(levels) != len(want) {
		t.Fatalf("expected %d levels, got %d: %v", len(want), len(levels), levels)
	}
	for i := range want {
		if !slices.Equal(levels[i], want[i]) {
			t.Errorf("level %d: expected %v, got %v", i, want[i], levels[i])
		}
	}
}

func TestGraph_GetExecutionLevels_Empty(t *testing.T) {
	levels, err := NewGraph().GetExecutionLevels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 0 {
		t.Errorf("expected no levels, got %v", levels)
	}
}

func TestGraph_GetAffectedNodes(t *testing.T) {
	g := declarations("a", "b", "c", "d")

	// b depends on a, c depends on b, d is independent
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")

	affected := g.GetAffectedNodes([]string{"a", "unknown"})
	if want := []string{"a", "b", "c"}; !slices.Equal(affected, want) {
		t.Errorf("expected %v, got %v", want, affected)
	}
}

func TestGraph_GetUpstreamNodes(t *testing.T) {
	g := declarations("a", "b", "c", "d")

	// c depends on a and b, d depends on c
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("c", "d")

	upstream := g.GetUpstreamNodes("d")
	if want := []string{"a", "b", "c"}; !slices.Equal(upstream, want) {
		t.Errorf("expected %v, got %v", want, upstream)
	}
}

func TestGraph_RootsAndLeaves(t *testing.T) {
	g := declarations("c", "a", "b")
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "c")

	if roots := g.GetRoots(); !slices.Equal(roots, []string{"a", "b"}) {
		t.Errorf("unexpected roots %v", roots)
	}
	if leaves := g.GetLeaves(); !slices.Equal(leaves, []string{"c"}) {
		t.Errorf("unexpected leaves %v", leaves)
	}
	if all := ids(g.GetAllNodes()); !slices.Equal(all, []string{"c", "a", "b"}) {
		t.Errorf("GetAllNodes must keep insertion order, got %v", all)
	}
}

func TestGraph_DuplicateEdges(t *testing.T) {
	g := declarations("a", "b")

	// Add same edge twice
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "b")

	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 edge (no duplicates), got %d", g.EdgeCount())
	}
}
