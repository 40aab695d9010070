// Package dag provides directed acyclic graph operations for declaration
// dependencies. It supports cycle detection, topological sorting and
// downstream change queries.
//
// Every result that lists several nodes is ordered by insertion, so a
// graph built in declaration order yields declaration order wherever the
// dependencies leave a choice.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

// Node represents a node in the DAG.
type Node struct {
	// ID is the unique identifier (declared name)
	ID string
	// Data holds arbitrary node data
	Data any
}

// CycleError reports a dependency cycle. Path starts and ends with the
// same node.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cycle detected: " + strings.Join(e.Path, " -> ")
}

// Graph represents a directed acyclic graph.
type Graph struct {
	nodes   map[string]*Node
	index   map[string]int      // id -> insertion index
	order   []string            // ids in insertion order
	edges   map[string][]string // parent -> children (dependents)
	parents map[string][]string // child -> parents (dependencies)
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		index:   make(map[string]int),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(id string, data any) {
	if _, exists := g.nodes[id]; !exists {
		g.nodes[id] = &Node{ID: id, Data: data}
		g.index[id] = len(g.order)
		g.order = append(g.order, id)
		g.edges[id] = []string{}
		g.parents[id] = []string{}
	} else {
		// Update data if node already exists
		g.nodes[id].Data = data
	}
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
// A self-loop is reported as a *CycleError.
func (g *Graph) AddEdge(parentID, childID string) error {
	// Ensure both nodes exist
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}

	if parentID == childID {
		return &CycleError{Path: []string{parentID, parentID}}
	}

	// Add edge (avoid duplicates)
	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}

	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// GetParents returns the parents (dependencies) of a node.
func (g *Graph) GetParents(id string) []string {
	return g.parents[id]
}

// GetChildren returns the children (dependents) of a node.
func (g *Graph) GetChildren(id string) []string {
	return g.edges[id]
}

// GetAllNodes returns all nodes in insertion order.
func (g *Graph) GetAllNodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// HasCycle returns true if the graph contains a cycle, along with the cycle path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string) // Track the path for error reporting

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				path[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				// Found cycle, reconstruct path
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for _, id := range g.order {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// TopologicalSort returns nodes in topological order (dependencies before
// dependents). Among nodes whose dependencies are all placed, the one
// inserted first comes first. A cycle is reported as a *CycleError.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, &CycleError{Path: cyclePath}
	}

	pending := make(map[string]int, len(g.order))
	for _, id := range g.order {
		pending[id] = len(g.parents[id])
	}

	// ready holds insertion indexes of nodes with no unplaced dependency.
	var ready []int
	for i, id := range g.order {
		if pending[id] == 0 {
			ready = append(ready, i)
		}
	}

	result := make([]*Node, 0, len(g.order))
	for len(ready) > 0 {
		slices.Sort(ready)
		id := g.order[ready[0]]
		ready = ready[1:]
		result = append(result, g.nodes[id])

		for _, childID := range g.edges[id] {
			pending[childID]--
			if pending[childID] == 0 {
				ready = append(ready, g.index[childID])
			}
		}
	}

	return result, nil
}

// GetExecutionLevels returns nodes grouped by execution level.
// Level 0 contains nodes with no dependencies; a node at level N depends on
// at least one node at level N-1.
func (g *Graph) GetExecutionLevels() ([][]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, &CycleError{Path: cyclePath}
	}

	levels := [][]string{}
	assigned := make(map[string]int)

	// Calculate level for each node
	var getLevel func(id string) int
	getLevel = func(id string) int {
		if level, ok := assigned[id]; ok {
			return level
		}

		parents := g.parents[id]
		if len(parents) == 0 {
			assigned[id] = 0
			return 0
		}

		maxParentLevel := 0
		for _, parentID := range parents {
			parentLevel := getLevel(parentID)
			if parentLevel > maxParentLevel {
				maxParentLevel = parentLevel
			}
		}

		level := maxParentLevel + 1
		assigned[id] = level
		return level
	}

	// Calculate levels for all nodes
	maxLevel := 0
	for _, id := range g.order {
		level := getLevel(id)
		if level > maxLevel {
			maxLevel = level
		}
	}

	// Group nodes by level, keeping insertion order inside each level
	for i := 0; i <= maxLevel && len(g.order) > 0; i++ {
		levels = append(levels, []string{})
	}
	for _, id := range g.order {
		level := assigned[id]
		levels[level] = append(levels[level], id)
	}

	return levels, nil
}

// GetAffectedNodes returns all nodes affected by changes to the given nodes.
// This includes the changed nodes and all their downstream dependents.
func (g *Graph) GetAffectedNodes(changedIDs []string) []string {
	affected := make(map[string]bool)

	var markAffected func(id string)
	markAffected = func(id string) {
		if affected[id] {
			return
		}
		affected[id] = true

		// Mark all children as affected
		for _, childID := range g.edges[id] {
			markAffected(childID)
		}
	}

	for _, id := range changedIDs {
		if _, exists := g.nodes[id]; exists {
			markAffected(id)
		}
	}

	return g.inOrder(affected)
}

// GetUpstreamNodes returns all nodes upstream of the given node (its dependencies and their dependencies).
func (g *Graph) GetUpstreamNodes(id string) []string {
	upstream := make(map[string]bool)

	var markUpstream func(nodeID string)
	markUpstream = func(nodeID string) {
		for _, parentID := range g.parents[nodeID] {
			if !upstream[parentID] {
				upstream[parentID] = true
				markUpstream(parentID)
			}
		}
	}

	markUpstream(id)

	return g.inOrder(upstream)
}

// GetRoots returns nodes with no parents (no dependencies).
func (g *Graph) GetRoots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// GetLeaves returns nodes with no children (no dependents).
func (g *Graph) GetLeaves() []string {
	var leaves []string
	for _, id := range g.order {
		if len(g.edges[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// inOrder returns the ids in set, in insertion order.
func (g *Graph) inOrder(set map[string]bool) []string {
	result := make([]string, 0, len(set))
	for _, id := range g.order {
		if set[id] {
			result = append(result, id)
		}
	}
	return result
}
