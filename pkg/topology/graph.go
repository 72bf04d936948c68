// Package topology models the street network as an immutable directed
// graph. The graph is built once from pipe edges and a building
// connection map, then shared read-only across aggregation and network
// construction.
package topology

import (
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyTopology is returned when no valid edge survives construction.
var ErrEmptyTopology = errors.New("topology has no valid edges")

// Edge is one directed pipe edge of the street network. LengthM is
// optional; zero means not surveyed yet.
type Edge struct {
	PipeID    string
	StartNode string
	EndNode   string
	LengthM   float64
}

// SkippedEdge records an edge dropped during construction together with
// the reason. Skipped edges are reported, not fatal.
type SkippedEdge struct {
	Edge   Edge
	Reason string
}

// Graph is an immutable directed graph over junction nodes. Nodes are
// integer-indexed internally; the public API speaks node ID strings.
type Graph struct {
	nodeIDs   []string
	nodeIndex map[string]int
	adjacency [][]int

	edges   []Edge
	skipped []SkippedEdge

	// buildingID -> connection node index
	connections map[string]int
	// node index -> building IDs connected there, sorted
	buildingsAt map[int][]string
}

// Build constructs the graph from pipe edges and the building connection
// map. Edges missing an endpoint are skipped and recorded. Building
// connections referencing unknown nodes are kept: such buildings are
// simply unreachable during traversal and fall back to direct matching.
func Build(edges []Edge, connections map[string]string) (*Graph, error) {
	g := &Graph{
		nodeIndex:   make(map[string]int),
		connections: make(map[string]int),
		buildingsAt: make(map[int][]string),
	}

	for _, e := range edges {
		if e.StartNode == "" || e.EndNode == "" {
			g.skipped = append(g.skipped, SkippedEdge{Edge: e, Reason: "missing start or end node"})
			continue
		}
		from := g.intern(e.StartNode)
		to := g.intern(e.EndNode)
		g.adjacency[from] = append(g.adjacency[from], to)
		g.edges = append(g.edges, e)
	}

	if len(g.edges) == 0 {
		return nil, fmt.Errorf("%w: %d edges supplied, %d skipped", ErrEmptyTopology, len(edges), len(g.skipped))
	}

	for buildingID, nodeID := range connections {
		idx, ok := g.nodeIndex[nodeID]
		if !ok {
			// Connection node never appears in an edge. Intern it anyway
			// so direct-match fallback can still find the building.
			idx = g.intern(nodeID)
		}
		g.connections[buildingID] = idx
		g.buildingsAt[idx] = append(g.buildingsAt[idx], buildingID)
	}
	for idx := range g.buildingsAt {
		sort.Strings(g.buildingsAt[idx])
	}

	return g, nil
}

// intern returns the index for a node ID, creating it on first sight.
func (g *Graph) intern(nodeID string) int {
	if idx, ok := g.nodeIndex[nodeID]; ok {
		return idx
	}
	idx := len(g.nodeIDs)
	g.nodeIndex[nodeID] = idx
	g.nodeIDs = append(g.nodeIDs, nodeID)
	g.adjacency = append(g.adjacency, nil)
	return idx
}

// NodeCount returns the number of distinct junction nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodeIDs)
}

// HasNode reports whether the node ID is known to the graph.
func (g *Graph) HasNode(nodeID string) bool {
	_, ok := g.nodeIndex[nodeID]
	return ok
}

// Edges returns the valid edges in input order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Skipped returns the edges dropped during construction.
func (g *Graph) Skipped() []SkippedEdge {
	return g.skipped
}

// ConnectionNode returns the connection node ID for a building.
func (g *Graph) ConnectionNode(buildingID string) (string, bool) {
	idx, ok := g.connections[buildingID]
	if !ok {
		return "", false
	}
	return g.nodeIDs[idx], true
}

// BuildingsAt returns the buildings connected at a node, sorted by ID.
func (g *Graph) BuildingsAt(nodeID string) []string {
	idx, ok := g.nodeIndex[nodeID]
	if !ok {
		return nil
	}
	return g.buildingsAt[idx]
}

// Descendants returns the set of node IDs reachable from the given node
// via directed edges, including the node itself. The second return is
// false when the node is unknown to the graph.
func (g *Graph) Descendants(nodeID string) (map[string]bool, bool) {
	start, ok := g.nodeIndex[nodeID]
	if !ok {
		return nil, false
	}

	// BFS over the fixed adjacency lists
	visited := make([]bool, len(g.nodeIDs))
	visited[start] = true
	queue := []int{start}

	result := make(map[string]bool)
	result[nodeID] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.adjacency[current] {
			if !visited[next] {
				visited[next] = true
				result[g.nodeIDs[next]] = true
				queue = append(queue, next)
			}
		}
	}

	return result, true
}

// ReachableBuildings returns the buildings whose connection node lies in
// the descendant set of the given node (the node itself included),
// sorted by building ID. The second return is false when the node is
// unknown.
func (g *Graph) ReachableBuildings(nodeID string) ([]string, bool) {
	reachable, ok := g.Descendants(nodeID)
	if !ok {
		return nil, false
	}

	var buildings []string
	for node := range reachable {
		buildings = append(buildings, g.BuildingsAt(node)...)
	}
	sort.Strings(buildings)
	return buildings, true
}
