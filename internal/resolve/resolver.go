// Package resolve computes transitive BUILDS_ON reachability over an edge
// set captured from the graph. The traversal is iterative with an explicit
// frame stack and a global visited set, so it terminates on any finite edge
// set no matter how malformed the data is (cycles, dangling references,
// duplicate edges).
package resolve

import "github.com/stemgraph/stemgraph/internal/models"

// frame is one level of the depth-first walk: a tree node being expanded and
// the outgoing targets not yet examined.
type frame struct {
	node    *models.TreeNode
	targets []string
	next    int
}

// List returns every UUID transitively reachable from start over the given
// edges, excluding start itself, in discovery order. Each UUID appears
// exactly once regardless of how many paths reach it.
func List(start string, edges []models.Edge) []string {
	order := []string{}
	walk(start, edges, func(uuid string) {
		order = append(order, uuid)
	})
	return order
}

// Tree returns the prerequisite tree rooted at start. The visited set is
// shared across the whole walk: a UUID reached a second time (via a cycle or
// a diamond) is appended as a childless leaf and never re-expanded.
func Tree(start string, edges []models.Edge) *models.TreeNode {
	return walk(start, edges, nil)
}

// walk performs the shared depth-first traversal. discovered, if non-nil, is
// invoked once per UUID on first visit, in discovery order; start itself is
// not reported. A target with no node record still shows up through its
// edge, it just contributes no children of its own.
func walk(start string, edges []models.Edge, discovered func(uuid string)) *models.TreeNode {
	adjacency := make(map[string][]string, len(edges))
	for _, e := range edges {
		adjacency[e.SourceUUID] = append(adjacency[e.SourceUUID], e.TargetUUID)
	}

	root := &models.TreeNode{UUID: start, Children: []*models.TreeNode{}}
	visited := map[string]struct{}{start: {}}
	stack := []*frame{{node: root, targets: adjacency[start]}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.targets) {
			stack = stack[:len(stack)-1]
			continue
		}
		target := top.targets[top.next]
		top.next++

		child := &models.TreeNode{UUID: target, Children: []*models.TreeNode{}}
		top.node.Children = append(top.node.Children, child)

		if _, seen := visited[target]; seen {
			// Already expanded along an earlier path; keep the leaf.
			continue
		}
		visited[target] = struct{}{}
		if discovered != nil {
			discovered(target)
		}
		stack = append(stack, &frame{node: child, targets: adjacency[target]})
	}

	return root
}
