package graph

import (
	"context"

	"github.com/systemshift/memex-vc/internal/dag"
)

// LogEntry pairs a commit with its address.
type LogEntry struct {
	Address dag.Address
	Commit  *dag.Commit
}

// Log walks ancestors breadth first from addr, returning up to limit
// commits (all when limit <= 0), each once. Parents missing from the store
// end their branch of the walk.
func (g *Graph) Log(ctx context.Context, addr dag.Address, limit int) ([]LogEntry, error) {
	var out []LogEntry
	visited := make(map[dag.Address]bool)
	queue := []dag.Address{addr}
	for len(queue) > 0 && (limit <= 0 || len(out) < limit) {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		c, found, err := g.GetCommitInfo(ctx, current)
		if err != nil {
			return out, err
		}
		if !found {
			continue
		}
		out = append(out, LogEntry{Address: current, Commit: c})
		queue = append(queue, c.ParentCommitsAddresses...)
	}
	return out, nil
}
