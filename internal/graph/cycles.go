package graph

// MaxWalkSteps bounds every graph walk. Persisted data can carry a cycle
// that predates validation; walks stop rather than spin.
const MaxWalkSteps = 100000

// HasCycle reports whether the proposed edge toID.blockedBy += fromID would
// close a loop, i.e. whether toID is already reachable from fromID through
// existing blockedBy edges. A self edge is always a cycle.
func (g *Graph) HasCycle(fromID, toID string) bool {
	if fromID == toID {
		return true
	}
	start := g.index(fromID)
	if start < 0 {
		return false
	}
	visited := map[string]bool{fromID: true}
	stack := append([]string(nil), g.tasks[start].BlockedBy...)
	steps := 0
	for len(stack) > 0 && steps < MaxWalkSteps {
		steps++
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == toID {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		i := g.index(id)
		if i < 0 {
			continue
		}
		stack = append(stack, g.tasks[i].BlockedBy...)
	}
	return false
}
